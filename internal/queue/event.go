// Package queue defines message payloads exchanged over the message broker.
package queue

// QueueName is the durable queue carrying account-lifecycle events.
const QueueName = "auth.events"

// Event types published by the handlers.
const (
	EventUserRegistered  = "user.registered"
	EventPasswordChanged = "user.password_changed"
	EventUserVerified    = "user.verified"
	EventStatusChanged   = "user.status_changed"
	EventUserDeleted     = "user.deleted"
)

// AuthEvent is published on every account-lifecycle transition.  It carries
// just enough for downstream consumers (audit log, notifications) without
// querying the primary database.  The password hash is never part of an
// event.
type AuthEvent struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	At     string `json:"at"` // RFC3339 UTC
}
