package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/queue"
)

// dbTimeout bounds every persistence call made from a handler.
const dbTimeout = 5 * time.Second

// minPasswordLen matches the boundary validation applied to every plaintext
// password field (register, login, change, admin create/edit).
const minPasswordLen = 8

// UserStore is the persistence surface the handlers need for user records.
// *repository.UserRepo satisfies it; tests substitute in-memory fakes.
type UserStore interface {
	Create(ctx context.Context, u model.User) (string, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id, name, surname, patronymic, email string) error
	UpdateAdmin(ctx context.Context, id string, u model.User) error
	SetActive(ctx context.Context, id string, active bool) error
	SetVerified(ctx context.Context, id string, verified bool) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
}

// SessionStore tracks issued refresh tokens.  *repository.SessionRepo
// satisfies it.
type SessionStore interface {
	Create(ctx context.Context, userID, tokenHash string, exp time.Time) error
	DeactivateByUser(ctx context.Context, userID string) error
	DeactivateByToken(ctx context.Context, tokenHash string) error
	IsActive(ctx context.Context, tokenHash string) (bool, error)
}

// EventPublisher fans lifecycle events out to the message broker.  A nil
// publisher disables eventing; publish failures never fail the request.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AuthEvent) error
}

// ----- request DTOs -----

type registerReq struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Patronymic string `json:"patronymic"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswdReq struct {
	OldPassword string `json:"old_passwd"`
	NewPassword string `json:"new_passwd"`
}

type verifyReq struct {
	ID         string `json:"id"`
	IsVerified *bool  `json:"is_verified"` // absent means true
}

type statusReq struct {
	IsActive *bool `json:"is_active"`
}

type editUserReq struct {
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Patronymic string `json:"patronymic"`
	Email      string `json:"email"`
}

type editUserAdminReq struct {
	editUserReq
	Password   string `json:"password,omitempty"` // plaintext; empty keeps the stored hash
	IsActive   bool   `json:"is_active"`
	IsVerified bool   `json:"is_verified"`
	IsAdmin    bool   `json:"is_admin"`
}

// ----- response DTOs -----

type tokenPairResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type tokenAccessResp struct {
	AccessToken string `json:"access_token"`
}

// userSummary is the projection any authenticated caller may see.  It never
// carries the password hash.
type userSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Patronymic string `json:"patronymic"`
	Email      string `json:"email"`
}

// userDetail is the admin-only projection of the full record.
type userDetail struct {
	userSummary
	PasswordHash string    `json:"password_hash"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

func summaryOf(u model.User) userSummary {
	return userSummary{
		ID:         u.ID,
		Name:       u.Name,
		Surname:    u.Surname,
		Patronymic: u.Patronymic,
		Email:      u.Email,
	}
}

func detailOf(u model.User) userDetail {
	return userDetail{
		userSummary:  summaryOf(u),
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
		IsVerified:   u.IsVerified,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
	}
}

// fail writes the stable error body used across the whole API: a machine
// code under "error" plus a human message.
func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{"error": code, "message": msg})
}

func failValidation(c echo.Context, msg string) error {
	return fail(c, http.StatusBadRequest, "validation_error", msg)
}

// validEmail applies the boundary-level shape check; real deliverability is
// out of scope.
func validEmail(s string) bool {
	at := strings.IndexByte(s, '@')
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t")
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
