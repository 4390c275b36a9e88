package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/auth-service/internal/model"
)

// UserRepo implements CRUD over the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,surname,patronymic,email,password_hash,is_active,is_verified,is_admin,created_at"

// Create inserts a user with a freshly generated UUID and returns its id.
// Email is normalized to lowercase before insert; created_at is assigned by
// the database.  PasswordHash must already be hashed by the caller.
func (r *UserRepo) Create(ctx context.Context, u model.User) (string, error) {
	id := uuid.NewString()
	email := strings.ToLower(strings.TrimSpace(u.Email))
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, name, surname, patronymic, email, password_hash, is_active, is_verified, is_admin) VALUES (?,?,?,?,?,?,?,?,?)",
		id, u.Name, u.Surname, u.Patronymic, email, u.PasswordHash, u.IsActive, u.IsVerified, u.IsAdmin)
	if err != nil {
		if isDuplicate(err) {
			return "", ErrEmailExists
		}
		return "", err
	}
	return id, nil
}

// GetByID fetches a full user row by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id).
		Scan(&u.ID, &u.Name, &u.Surname, &u.Patronymic, &u.Email, &u.PasswordHash,
			&u.IsActive, &u.IsVerified, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// GetByEmail fetches a full user row by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email).
		Scan(&u.ID, &u.Name, &u.Surname, &u.Patronymic, &u.Email, &u.PasswordHash,
			&u.IsActive, &u.IsVerified, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// List returns all users ordered by creation time.  Only summary columns are
// selected; the password hash is deliberately not part of this projection.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,surname,patronymic,email FROM users ORDER BY created_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Surname, &u.Patronymic, &u.Email); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update edits the self-service fields of a user: names and email.
func (r *UserRepo) Update(ctx context.Context, id, name, surname, patronymic, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, surname=?, patronymic=?, email=? WHERE id=?",
		name, surname, patronymic, email, id)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return oneRowOr(res, ErrNotFound)
}

// UpdateAdmin edits every mutable field of a user, including the account
// flags.  An empty PasswordHash leaves the stored hash untouched.  The id and
// created_at columns are immutable and never part of the statement.
func (r *UserRepo) UpdateAdmin(ctx context.Context, id string, u model.User) error {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	var (
		res sql.Result
		err error
	)
	if u.PasswordHash != "" {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE users SET name=?, surname=?, patronymic=?, email=?, password_hash=?, is_active=?, is_verified=?, is_admin=? WHERE id=?",
			u.Name, u.Surname, u.Patronymic, email, u.PasswordHash, u.IsActive, u.IsVerified, u.IsAdmin, id)
	} else {
		res, err = r.DB.ExecContext(ctx,
			"UPDATE users SET name=?, surname=?, patronymic=?, email=?, is_active=?, is_verified=?, is_admin=? WHERE id=?",
			u.Name, u.Surname, u.Patronymic, email, u.IsActive, u.IsVerified, u.IsAdmin, id)
	}
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return oneRowOr(res, ErrNotFound)
}

// SetActive flips the account's login gate.
func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	return oneRowOr(res, ErrNotFound)
}

// SetVerified marks the account as verified (or not) by an admin.
func (r *UserRepo) SetVerified(ctx context.Context, id string, verified bool) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET is_verified=? WHERE id=?", verified, id)
	if err != nil {
		return err
	}
	return oneRowOr(res, ErrNotFound)
}

// UpdatePasswordHash replaces the stored bcrypt hash.
func (r *UserRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	return oneRowOr(res, ErrNotFound)
}

// Delete removes the user row entirely.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	return oneRowOr(res, ErrNotFound)
}

// isDuplicate reports whether err is a MySQL duplicate-key violation (1062),
// which on this schema can only be the unique email index.
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// oneRowOr maps a zero-rows-affected result onto the given sentinel.
func oneRowOr(res sql.Result, sentinel error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel
	}
	return nil
}
