package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/nutriscan/nutriscan-api/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded   EventType = "login_succeeded"
	EventLoginFailed      EventType = "login_failed"
	EventLegacyCredential EventType = "legacy_credential_used"
	EventLoggedOut        EventType = "logged_out"
)

// Event represents a security-relevant action emitted by services.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Email     string         `json:"email,omitempty"`
	UserID    *domain.UserID `json:"user_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   interface{}    `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, email string, userID *domain.UserID, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Email:     email,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// LoginFailedPayload records why a login was refused. It is never sent to clients.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// LegacyCredentialPayload reports a plaintext credential match.
type LegacyCredentialPayload struct {
	Rehashed bool `json:"rehashed"`
}

// LoggedOutPayload identifies the revoked token.
type LoggedOutPayload struct {
	TokenID   string    `json:"token_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
