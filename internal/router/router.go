// Package router wires HTTP routes to handlers and middleware.  The token
// allow-list is expressed structurally: register, login and the health check
// are registered outside the protected group, everything else sits behind
// JWTAuth plus a per-route role gate.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/middleware"
)

// Register mounts every route of the service on the provided Echo instance.
// rateLimit guards the credential endpoints; pass a pass-through middleware
// to disable it (the constructor already degrades when Redis is absent).
func Register(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler, jwtSecret string, rateLimit echo.MiddlewareFunc) {
	// Liveness probe, reachable without any token.
	e.GET("/healthz", handler.Health)

	// Public credential endpoints.  These are the brute-force surface, so
	// the token bucket applies here and nowhere else.
	pub := e.Group("/auth", rateLimit)
	pub.POST("/register", a.Register)
	pub.POST("/login", a.Login)

	// Everything below requires a verified bearer token.  The role gates
	// run strictly after JWTAuth and only read the attached identity.
	auth := e.Group("/auth", middleware.JWTAuth(jwtSecret))

	// Session lifecycle.  The bearer for refresh and logout is the refresh
	// token itself; the handlers enforce the token-type invariant.
	auth.POST("/refresh", a.Refresh, middleware.RequireUser())
	auth.POST("/logout", a.Logout, middleware.RequireUser())
	auth.POST("/verify", a.Verify, middleware.RequireAdmin())

	// Self-service user surface.
	auth.GET("/users/:id", u.Get, middleware.RequireUser())
	auth.PATCH("/users/:id", u.Edit, middleware.RequireUser())
	auth.PATCH("/users/:id/password", a.ChangePassword, middleware.RequireUser())

	// Admin surface.
	admin := auth.Group("/admin", middleware.RequireAdmin())
	admin.GET("/users", u.List)
	admin.POST("/users", u.Create)
	admin.GET("/users/:id", u.GetAdmin)
	admin.PATCH("/users/:id", u.EditAdmin)
	admin.PATCH("/users/:id/status", u.SetStatus)
	admin.DELETE("/users/:id", u.Delete)
}
