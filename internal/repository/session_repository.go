package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SessionRepo persists issued refresh tokens (one row per login).  Rows are
// looked up by the token's SHA-256 digest, which carries a unique index, so
// revocation checks stay cheap at any session count.  Deactivation only ever
// flips is_active from true to false; rows are never reactivated.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a new active session row.  No dedup happens here: a user
// may hold any number of concurrent sessions, one per device login.
func (r *SessionRepo) Create(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (user_id, token_hash, expires_at, is_active) VALUES (?,?,?,TRUE)",
		userID, tokenHash, exp)
	return err
}

// DeactivateByUser flips every currently-active session of the user to
// inactive.  Returns ErrSessionNotFound when nothing was active.
func (r *SessionRepo) DeactivateByUser(ctx context.Context, userID string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET is_active=FALSE WHERE user_id=? AND is_active=TRUE",
		userID)
	if err != nil {
		return err
	}
	return oneRowOr(res, ErrSessionNotFound)
}

// DeactivateByToken flips the single session matching the token digest to
// inactive.  Returns ErrSessionNotFound when the token has no active row,
// e.g. when it was already revoked.
func (r *SessionRepo) DeactivateByToken(ctx context.Context, tokenHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET is_active=FALSE WHERE token_hash=? AND is_active=TRUE",
		tokenHash)
	if err != nil {
		return err
	}
	return oneRowOr(res, ErrSessionNotFound)
}

// IsActive reports whether a session row for the token digest exists, is
// still flagged active and has not passed its expiry.  A signature-valid but
// revoked refresh token fails exactly here.
func (r *SessionRepo) IsActive(ctx context.Context, tokenHash string) (bool, error) {
	var expiresAt time.Time
	err := r.DB.QueryRowContext(ctx,
		"SELECT expires_at FROM sessions WHERE token_hash=? AND is_active=TRUE LIMIT 1",
		tokenHash).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return time.Now().UTC().Before(expiresAt), nil
}
