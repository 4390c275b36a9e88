package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/queue"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/utils"
)

// AuthHandler bundles dependencies for the credential-lifecycle endpoints:
// register, login, refresh, logout, verify and password change.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Sessions SessionStore
	Events   EventPublisher
}

func NewAuthHandler(cfg config.Config, u UserStore, s SessionStore, ev EventPublisher) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s, Events: ev}
}

// issuePair issues an access/refresh token pair for the user's current role
// and persists the refresh token as a new active session.  Prior sessions
// are left untouched: concurrent logins from several devices each get their
// own row.
func (h *AuthHandler) issuePair(c echo.Context, userID string, role model.Role) (tokenPairResp, error) {
	accessTTL := time.Duration(h.Cfg.AccessTTLSec) * time.Second
	refreshTTL := time.Duration(h.Cfg.RefreshTTLSec) * time.Second

	access, err := utils.IssueToken(h.Cfg.JWTSecret, userID, role, utils.TokenTypeAccess, accessTTL)
	if err != nil {
		return tokenPairResp{}, err
	}
	refresh, err := utils.IssueToken(h.Cfg.JWTSecret, userID, role, utils.TokenTypeRefresh, refreshTTL)
	if err != nil {
		return tokenPairResp{}, err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	exp := time.Now().UTC().Add(refreshTTL)
	if err := h.Sessions.Create(ctx, userID, utils.HashToken(refresh), exp); err != nil {
		return tokenPairResp{}, err
	}
	return tokenPairResp{AccessToken: access, RefreshToken: refresh}, nil
}

// publish fans an event out without letting broker trouble fail the request.
func (h *AuthHandler) publish(c echo.Context, evType, userID, email string) {
	if h.Events == nil {
		return
	}
	ev := queue.AuthEvent{
		Type:   evType,
		UserID: userID,
		Email:  email,
		At:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.Events.Publish(c.Request().Context(), ev); err != nil {
		c.Logger().Warnf("publish %s failed: %v", evType, err)
	}
}

// Register creates a regular account.  Public route.  New accounts are
// active (they may log in immediately) and unverified until an admin runs
// the verify flow.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return failValidation(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(req.Email) {
		return failValidation(c, "valid email required")
	}
	if len(req.Password) < minPasswordLen {
		return failValidation(c, "password must be at least 8 characters")
	}
	if req.Name == "" || req.Surname == "" || req.Patronymic == "" {
		return failValidation(c, "name, surname and patronymic required")
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal_error", "hash password failed")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Users.Create(ctx, model.User{
		Name:         req.Name,
		Surname:      req.Surname,
		Patronymic:   req.Patronymic,
		Email:        req.Email,
		PasswordHash: hash,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "conflict", "email already registered")
		}
		return fail(c, http.StatusInternalServerError, "internal_error", "create user failed")
	}

	h.publish(c, queue.EventUserRegistered, id, req.Email)
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Login verifies credentials and returns a fresh token pair.  Unknown email
// and wrong password answer identically so the endpoint cannot be used to
// enumerate accounts.  Deactivated accounts are refused even with a correct
// password.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return failValidation(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return failValidation(c, "email and password required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid_credential", "invalid email or password")
		}
		return fail(c, http.StatusInternalServerError, "internal_error", "query failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid_credential", "invalid email or password")
	}
	if !u.IsActive {
		return fail(c, http.StatusForbidden, "account_disabled", "account is deactivated")
	}

	pair, err := h.issuePair(c, u.ID, u.Role())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal_error", "issue tokens failed")
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh exchanges a refresh token for a new access token.  The bearer of
// this request is the refresh token itself; JWTAuth has already checked its
// signature and expiry, so what remains is the type invariant and the
// revocation check against the session store.  The refresh token is reused,
// not rotated.  The role is re-read from the live user row rather than
// trusted from the old token, so role changes take effect here.
func (h *AuthHandler) Refresh(c echo.Context) error {
	if middleware.TokenType(c) != utils.TokenTypeRefresh {
		return fail(c, http.StatusBadRequest, "wrong_token_type", "refresh token required")
	}
	raw := middleware.Token(c)

	ctx, cancel := reqCtx(c)
	defer cancel()
	active, err := h.Sessions.IsActive(ctx, utils.HashToken(raw))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal_error", "session lookup failed")
	}
	if !active {
		return fail(c, http.StatusUnauthorized, "session_revoked", "refresh token has been revoked")
	}

	u, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusUnauthorized, "not_found", "user no longer exists")
		}
		return fail(c, http.StatusInternalServerError, "internal_error", "load user failed")
	}
	if !u.IsActive {
		return fail(c, http.StatusForbidden, "account_disabled", "account is deactivated")
	}

	accessTTL := time.Duration(h.Cfg.AccessTTLSec) * time.Second
	access, err := utils.IssueToken(h.Cfg.JWTSecret, u.ID, u.Role(), utils.TokenTypeAccess, accessTTL)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal_error", "issue access failed")
	}
	return c.JSON(http.StatusOK, tokenAccessResp{AccessToken: access})
}

// Logout deactivates the session of the presented refresh token only, so
// sessions on other devices stay alive.  Logging out an already-revoked
// session is reported as 404 rather than silently succeeding.
func (h *AuthHandler) Logout(c echo.Context) error {
	if middleware.TokenType(c) != utils.TokenTypeRefresh {
		return fail(c, http.StatusBadRequest, "wrong_token_type", "refresh token required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	err := h.Sessions.DeactivateByToken(ctx, utils.HashToken(middleware.Token(c)))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return fail(c, http.StatusNotFound, "session_not_found", "session already logged out")
		}
		return fail(c, http.StatusInternalServerError, "internal_error", "logout failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// ChangePassword rotates a user's credential.  Only the account owner or an
// admin may call it, and the old password must verify against the stored
// hash.  On success the session tied to the presented refresh token is
// deactivated and a fresh pair bound to the new credential state is
// returned, forcing re-authentication of this session.  Sessions on other
// devices are deliberately left alone (the trade-off is documented: their
// refresh tokens stay valid after a password change).
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	targetID := c.Param("id")
	if middleware.UserRole(c) != model.RoleAdmin && middleware.UserID(c) != targetID {
		return fail(c, http.StatusForbidden, "forbidden", "may only change own password")
	}

	var req changePasswdReq
	if err := c.Bind(&req); err != nil {
		return failValidation(c, "invalid body")
	}
	if len(req.OldPassword) < minPasswordLen || len(req.NewPassword) < minPasswordLen {
		return failValidation(c, "passwords must be at least 8 characters")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "not_found", "user not found")
		}
		return fail(c, http.StatusInternalServerError, "internal_error", "load user failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.OldPassword) {
		return fail(c, http.StatusBadRequest, "invalid_credential", "old password mismatch")
	}

	newHash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal_error", "hash password failed")
	}
	if err := h.Users.UpdatePasswordHash(ctx, targetID, newHash); err != nil {
		return fail(c, http.StatusInternalServerError, "internal_error", "update password failed")
	}

	// Revoke the session this request rode in on.  When the bearer was an
	// access token there is no matching session row; that is fine, the
	// caller just keeps its refresh token until expiry.
	if err := h.Sessions.DeactivateByToken(ctx, utils.HashToken(middleware.Token(c))); err != nil {
		if !errors.Is(err, repository.ErrSessionNotFound) {
			return fail(c, http.StatusInternalServerError, "internal_error", "revoke session failed")
		}
		c.Logger().Warnf("change password: presented token had no active session")
	}

	pair, err := h.issuePair(c, u.ID, u.Role())
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal_error", "issue tokens failed")
	}

	h.publish(c, queue.EventPasswordChanged, u.ID, u.Email)
	return c.JSON(http.StatusOK, pair)
}

// Verify marks an account as verified (or explicitly unverified).  Admin
// only; the flag is informational and does not gate login.
func (h *AuthHandler) Verify(c echo.Context) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil || req.ID == "" {
		return failValidation(c, "user id required")
	}
	verified := true
	if req.IsVerified != nil {
		verified = *req.IsVerified
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.SetVerified(ctx, req.ID, verified); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "not_found", "user not found")
		}
		return fail(c, http.StatusInternalServerError, "internal_error", "verify failed")
	}

	h.publish(c, queue.EventUserVerified, req.ID, "")
	return c.NoContent(http.StatusNoContent)
}
