package model

import "time"

// Role is the closed set of access levels recognized by the service.  It is
// embedded in token claims at issuance time and checked by the role gate.
// Unknown or missing values always collapse to RoleGuest so that a forged or
// stale role claim can never widen access.
type Role string

const (
	RoleAdmin Role = "admin" // full access, including admin-only routes
	RoleUser  Role = "user"  // regular authenticated account
	RoleGuest Role = "guest" // unauthenticated or unrecognized
)

// ParseRole maps an arbitrary string onto the closed Role set.  Anything that
// is not exactly "admin" or "user" is treated as a guest.
func ParseRole(s string) Role {
	switch s {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleUser):
		return RoleUser
	default:
		return RoleGuest
	}
}

// User mirrors the 'users' table.  IDs are UUIDv4 strings assigned by the
// repository on insert and immutable afterwards.  Email is stored lowercased
// and carries a unique index.  The json tags are omitted here because these
// structs are used by the repository layer; handlers define separate response
// types with the appropriate projections.
//
// Fields:
//  ID           – primary key (CHAR(36) UUID).
//  Name         – given name.
//  Surname      – family name.
//  Patronymic   – patronymic (middle) name.
//  Email        – unique, lowercased email address.
//  PasswordHash – bcrypt hashed password; never serialized outside admin detail views.
//  IsActive     – whether the account may log in.
//  IsVerified   – informational verification flag, set by admins.
//  IsAdmin      – role flag; drives Role().
//  CreatedAt    – server-assigned creation timestamp, immutable.
type User struct {
	ID           string    // users.id
	Name         string    // users.name
	Surname      string    // users.surname
	Patronymic   string    // users.patronymic
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	IsActive     bool      // users.is_active
	IsVerified   bool      // users.is_verified
	IsAdmin      bool      // users.is_admin
	CreatedAt    time.Time // users.created_at
}

// Role derives the closed role from the admin flag.  The derived value is
// snapshotted into tokens at issuance; a flag change takes effect on the next
// refresh or login, not on outstanding access tokens.
func (u User) Role() Role {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Session models a row in the 'sessions' table: one issued, revocable refresh
// token.  Only the SHA-256 hex digest of the token is stored; the raw JWT is
// returned to the client once and never persisted.  A user holds many sessions
// (one per login).  Deactivation is one-way: is_active never flips back to true.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the session.
//  TokenHash – SHA-256 hex digest of the refresh token, unique lookup key.
//  ExpiresAt – expiration timestamp of the refresh token.
//  IsActive  – false once revoked by logout, rotation or admin action.
//  CreatedAt – timestamp of creation.
type Session struct {
	ID        uint64    // sessions.id
	UserID    string    // sessions.user_id
	TokenHash string    // sessions.token_hash
	ExpiresAt time.Time // sessions.expires_at
	IsActive  bool      // sessions.is_active
	CreatedAt time.Time // sessions.created_at
}
