package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/project-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded  EventType = "login_succeeded"
	EventLoginFailed     EventType = "login_failed"
	EventLoginThrottled  EventType = "login_throttled"
	EventTokensRefreshed EventType = "tokens_refreshed"
	EventLoggedOut       EventType = "logged_out"
)

// Actor identifies who the event is about. SubjectID is empty when the
// principal could not be resolved, e.g. a failed login for an unknown name.
type Actor struct {
	SubjectID     string      `json:"subject_id,omitempty"`
	PrincipalName string      `json:"principal_name"`
	Role          domain.Role `json:"role,omitempty"`
}

// Event represents an authentication event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// New stamps an event with a fresh ID.
func New(eventType EventType, actor Actor, at time.Time, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: at,
		Payload:   payload,
	}
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// TokensIssuedPayload payload for logins and refreshes.
type TokensIssuedPayload struct {
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}
