package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSignedIn       EventType = "session.signed_in"
	EventSignedOut      EventType = "session.signed_out"
	EventSessionExpired EventType = "session.expired"
	EventAccessDenied   EventType = "session.access_denied"
)

// Identity is the session identity an event refers to. It is empty for
// anonymous visitors.
type Identity struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Event represents a session lifecycle event emitted by the access gate.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Identity  Identity  `json:"identity"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent stamps a new event with an id and the current time.
func NewEvent(kind EventType, identity Identity, detail string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      kind,
		Identity:  identity,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	}
}
