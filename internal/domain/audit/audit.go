package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Outcome records how a signup attempt ended.
type Outcome string

const (
	OutcomeAdded             Outcome = "added"
	OutcomeAlreadyRegistered Outcome = "already_registered"
)

// Event is one journal entry for a successful signup.
// The journal is append-only and is never read back into the roster.
type Event struct {
	ID         string    `json:"id"`
	RecordedAt time.Time `json:"recorded_at"`
	ActivityID string    `json:"activity_id"`
	Email      string    `json:"email"`
	Outcome    Outcome   `json:"outcome"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
}

// NewEvent creates a journal entry stamped with now.
// PRE: activityID and email are non-empty
// POST: Returns an Event with a fresh UUID
func NewEvent(activityID, email string, outcome Outcome, now time.Time) Event {
	return Event{
		ID:         uuid.New().String(),
		RecordedAt: now,
		ActivityID: activityID,
		Email:      email,
		Outcome:    outcome,
	}
}

// WithRequest sets IP address and user agent from the HTTP request.
func (e Event) WithRequest(ipAddress, userAgent string) Event {
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	return e
}

// Validate checks the event before it is written.
func (e *Event) Validate() error {
	if e.ID == "" {
		return errors.New("event id is required")
	}
	if e.ActivityID == "" {
		return errors.New("activity id is required")
	}
	if e.Email == "" {
		return errors.New("email is required")
	}
	if e.Outcome != OutcomeAdded && e.Outcome != OutcomeAlreadyRegistered {
		return errors.New("outcome must be 'added' or 'already_registered'")
	}
	if e.RecordedAt.IsZero() {
		return errors.New("recorded_at must be set")
	}
	return nil
}
