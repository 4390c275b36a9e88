package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/utils"
)

// Context keys under which JWTAuth stores the decoded identity.  Handlers
// and the role gate read these instead of touching the token again.
const (
	ctxUserID    = "user_id"
	ctxRole      = "role"
	ctxToken     = "token"
	ctxTokenType = "token_type"
)

// JWTAuth returns an Echo middleware that validates a Bearer token and
// injects the decoded claims into the request context.  Routes that must
// stay reachable without a token (register, login, health) are simply
// registered outside the group this middleware wraps.  The middleware
// distinguishes a missing header from a malformed one and surfaces the
// codec's stable error codes, always as 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if auth == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "missing_token", "message": "authorization header required",
				})
			}
			// Exactly "Bearer <token>"; anything else is a malformed header,
			// not a missing one.
			scheme, raw, found := strings.Cut(auth, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" || strings.ContainsRune(strings.TrimSpace(raw), ' ') {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": "malformed_auth_header", "message": "expected 'Bearer <token>'",
				})
			}
			raw = strings.TrimSpace(raw)

			claims, err := utils.VerifyToken(secret, raw)
			if err != nil {
				code := "token_malformed"
				if errors.Is(err, utils.ErrTokenExpired) {
					code = "token_expired"
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"error": code, "message": "token verification failed",
				})
			}

			// Attach the resolved identity for downstream handlers and the
			// role gate.  The raw token is kept so that refresh, logout and
			// password change can locate the session it belongs to.
			c.Set(ctxUserID, claims.Subject)
			c.Set(ctxRole, claims.Role)
			c.Set(ctxToken, raw)
			c.Set(ctxTokenType, claims.Type)
			return next(c)
		}
	}
}

// UserID returns the authenticated subject id, or "" when JWTAuth did not run.
func UserID(c echo.Context) string {
	if v, ok := c.Get(ctxUserID).(string); ok {
		return v
	}
	return ""
}

// UserRole returns the role snapshot from the presented token.  Absent
// identity collapses to RoleGuest.
func UserRole(c echo.Context) model.Role {
	if v, ok := c.Get(ctxRole).(model.Role); ok {
		return v
	}
	return model.RoleGuest
}

// Token returns the raw bearer token attached by JWTAuth.
func Token(c echo.Context) string {
	if v, ok := c.Get(ctxToken).(string); ok {
		return v
	}
	return ""
}

// TokenType returns the "type" claim of the presented token.
func TokenType(c echo.Context) string {
	if v, ok := c.Get(ctxTokenType).(string); ok {
		return v
	}
	return ""
}
