package handler // declare the package name; contains HTTP handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.  It is on the
// middleware allow-list: no token is required to reach it.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
