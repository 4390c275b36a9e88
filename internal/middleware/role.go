package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/model"
)

// RequireRole returns a middleware that enforces that the authenticated
// identity carries one of the given roles.  It is a pure predicate over the
// role attached by JWTAuth and never decodes tokens itself, so it must run
// strictly after JWTAuth.  Guests and unrecognized roles are always
// rejected with 403, even if a role list were to name them.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		if r == model.RoleGuest {
			continue
		}
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[UserRole(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{
					"error": "forbidden", "message": "insufficient privileges",
				})
			}
			return next(c)
		}
	}
}

// RequireAdmin gates a route to administrators only.
func RequireAdmin() echo.MiddlewareFunc {
	return RequireRole(model.RoleAdmin)
}

// RequireUser gates a route to any authenticated account, regular or admin.
func RequireUser() echo.MiddlewareFunc {
	return RequireRole(model.RoleAdmin, model.RoleUser)
}
