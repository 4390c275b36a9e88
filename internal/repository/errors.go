// Package repository implements data access over MySQL for users and
// sessions.  Sentinel errors declared here let handlers translate failure
// modes into stable HTTP error codes without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a lookup, update or delete matched no user
// row.  Handlers translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update violates the unique
// email index.  Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrSessionNotFound is returned when a deactivation matched no active
// session row.  Logging out an already-logged-out user is an error by
// contract, not a silent no-op; callers may still choose to treat it as
// idempotent-with-warning.
var ErrSessionNotFound = errors.New("session not found")
