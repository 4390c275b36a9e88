package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/queue"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/utils"
)

// UserHandler serves CRUD over user records.  Summary projections are
// available to any authenticated account; full records, edits of account
// flags and deletion are admin territory.
type UserHandler struct {
	Cfg      config.Config
	Users    UserStore
	Sessions SessionStore
	Events   EventPublisher
}

func NewUserHandler(cfg config.Config, u UserStore, s SessionStore, ev EventPublisher) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Sessions: s, Events: ev}
}

func (h *UserHandler) publish(c echo.Context, evType, userID, email string) {
	if h.Events == nil {
		return
	}
	ev := queue.AuthEvent{Type: evType, UserID: userID, Email: email, At: nowRFC3339()}
	if err := h.Events.Publish(c.Request().Context(), ev); err != nil {
		c.Logger().Warnf("publish %s failed: %v", evType, err)
	}
}

// List returns summaries of every user ordered by creation time.  Admin only.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "internal_error", "list users failed")
	}
	out := make([]userSummary, 0, len(users))
	for _, u := range users {
		out = append(out, summaryOf(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns the summary projection of one user.  Any authenticated caller
// may look up any id; the projection never includes the password hash.
func (h *UserHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "not_found", "user not found")
		}
		return fail(c, http.StatusInternalServerError, "internal_error", "load user failed")
	}
	return c.JSON(http.StatusOK, summaryOf(u))
}

// GetAdmin returns the full record including the password hash and account
// flags.  This is the only projection that ever exposes the hash.
func (h *UserHandler) GetAdmin(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "not_found", "user not found")
		}
		return fail(c, http.StatusInternalServerError, "internal_error", "load user failed")
	}
	return c.JSON(http.StatusOK, detailOf(u))
}

// Edit updates the self-service fields (names, email).  Non-admin callers
// may only edit their own record.
func (h *UserHandler) Edit(c echo.Context) error {
	targetID := c.Param("id")
	if middleware.UserRole(c) != model.RoleAdmin && middleware.UserID(c) != targetID {
		return fail(c, http.StatusForbidden, "forbidden", "may only edit own record")
	}

	var req editUserReq
	if err := c.Bind(&req); err != nil {
		return failValidation(c, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(req.Email) {
		return failValidation(c, "valid email required")
	}
	if req.Name == "" || req.Surname == "" || req.Patronymic == "" {
		return failValidation(c, "name, surname and patronymic required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.Update(ctx, targetID, req.Name, req.Surname, req.Patronymic, req.Email); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return fail(c, http.StatusNotFound, "not_found", "user not found")
		case errors.Is(err, repository.ErrEmailExists):
			return fail(c, http.StatusConflict, "conflict", "email already registered")
		}
		return fail(c, http.StatusInternalServerError, "internal_error", "update failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// EditAdmin updates every mutable field including the account flags.  An
// included password replaces the stored hash; when omitted the credential is
// untouched.
func (h *UserHandler) EditAdmin(c echo.Context) error {
	var req editUserAdminReq
	if err := c.Bind(&req); err != nil {
		return failValidation(c, "invalid body")
	}
	u, err := h.adminUserFrom(req)
	if err != nil {
		return failValidation(c, err.Error())
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.UpdateAdmin(ctx, c.Param("id"), u); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return fail(c, http.StatusNotFound, "not_found", "user not found")
		case errors.Is(err, repository.ErrEmailExists):
			return fail(c, http.StatusConflict, "conflict", "email already registered")
		}
		return fail(c, http.StatusInternalServerError, "internal_error", "update failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// SetStatus flips the account's is_active gate.  Deactivation also revokes
// the user's live sessions so an admin lock-out takes effect at the next
// refresh, not only at the next login.
func (h *UserHandler) SetStatus(c echo.Context) error {
	var req statusReq
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return failValidation(c, "is_active required")
	}
	targetID := c.Param("id")

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.SetActive(ctx, targetID, *req.IsActive); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "not_found", "user not found")
		}
		return fail(c, http.StatusInternalServerError, "internal_error", "status update failed")
	}
	if !*req.IsActive {
		if err := h.Sessions.DeactivateByUser(ctx, targetID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			c.Logger().Warnf("deactivate sessions for %s failed: %v", targetID, err)
		}
	}

	h.publish(c, queue.EventStatusChanged, targetID, "")
	return c.NoContent(http.StatusNoContent)
}

// Delete removes the user row and revokes whatever sessions it still held.
func (h *UserHandler) Delete(c echo.Context) error {
	targetID := c.Param("id")

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Users.Delete(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "not_found", "user not found")
		}
		return fail(c, http.StatusInternalServerError, "internal_error", "delete failed")
	}
	if err := h.Sessions.DeactivateByUser(ctx, targetID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		c.Logger().Warnf("deactivate sessions for %s failed: %v", targetID, err)
	}

	h.publish(c, queue.EventUserDeleted, targetID, "")
	return c.NoContent(http.StatusNoContent)
}

// Create inserts a user with every field under admin control.  Unlike
// register, the password is required here because there is no prior
// credential to keep.
func (h *UserHandler) Create(c echo.Context) error {
	var req editUserAdminReq
	if err := c.Bind(&req); err != nil {
		return failValidation(c, "invalid body")
	}
	if len(req.Password) < minPasswordLen {
		return failValidation(c, "password must be at least 8 characters")
	}
	u, err := h.adminUserFrom(req)
	if err != nil {
		return failValidation(c, err.Error())
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	id, err := h.Users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "conflict", "email already registered")
		}
		return fail(c, http.StatusInternalServerError, "internal_error", "create user failed")
	}

	h.publish(c, queue.EventUserRegistered, id, u.Email)
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// adminUserFrom validates an admin edit/create body and maps it onto a user
// row, hashing the password when one was supplied.
func (h *UserHandler) adminUserFrom(req editUserAdminReq) (model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(email) {
		return model.User{}, errors.New("valid email required")
	}
	if req.Name == "" || req.Surname == "" || req.Patronymic == "" {
		return model.User{}, errors.New("name, surname and patronymic required")
	}
	if req.Password != "" && len(req.Password) < minPasswordLen {
		return model.User{}, errors.New("password must be at least 8 characters")
	}
	u := model.User{
		Name:       req.Name,
		Surname:    req.Surname,
		Patronymic: req.Patronymic,
		Email:      email,
		IsActive:   req.IsActive,
		IsVerified: req.IsVerified,
		IsAdmin:    req.IsAdmin,
	}
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return model.User{}, errors.New("hash password failed")
		}
		u.PasswordHash = hash
	}
	return u, nil
}
