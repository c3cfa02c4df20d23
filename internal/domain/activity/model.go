package activity

import (
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
)

// Domain errors
var (
	ErrEmailRequired    = errors.New("email is required")
	ErrActivityRequired = errors.New("activity is required")
	ErrActivityNotFound = errors.New("activity not found")
)

// Activity is one extracurricular offering with its roster.
// Participants is in signup order and never holds the same email twice.
type Activity struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Participants []string `json:"participants"`
}

// HasParticipant reports whether email is already on the roster.
// INVARIANT: exact string match, no case folding
func (a *Activity) HasParticipant(email string) bool {
	return slices.Contains(a.Participants, email)
}

// Clone returns a deep copy so callers can read without aliasing the roster.
func (a Activity) Clone() Activity {
	c := a
	c.Participants = slices.Clone(a.Participants)
	if c.Participants == nil {
		c.Participants = []string{}
	}
	return c
}

// Roster is the participants field as it arrives from a source.
// Anything other than a JSON array of strings decodes to nil instead of
// failing the surrounding document.
type Roster []string

// UnmarshalJSON implements json.Unmarshaler.
func (r *Roster) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		*r = nil
		return nil
	}
	*r = list
	return nil
}

// Record is an activity as provided by a source, before normalization.
type Record struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Participants Roster `json:"participants,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
// A numeric id is kept as its literal text; any other non-string id decodes
// to "" so Normalize drops that record and the rest of the list survives.
func (rec *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*rec = Record(raw.plain)
	rec.ID = decodeID(raw.ID)
	return nil
}

func decodeID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// Normalize copies records into activities that are safe to mutate.
// PRE: none
// POST: every Activity has a non-nil Participants slice that shares no
// memory with the records; ids are non-empty and unique; rosters hold no duplicates
func Normalize(records []Record) []Activity {
	activities := make([]Activity, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			slog.Warn("activity_dropped", "reason", "empty_id", "index", i, "name", rec.Name)
			continue
		}
		if seen[rec.ID] {
			slog.Warn("activity_dropped", "reason", "duplicate_id", "index", i, "id", rec.ID)
			continue
		}
		seen[rec.ID] = true

		participants := make([]string, 0, len(rec.Participants))
		for _, email := range rec.Participants {
			if !slices.Contains(participants, email) {
				participants = append(participants, email)
			}
		}

		activities = append(activities, Activity{
			ID:           rec.ID,
			Name:         rec.Name,
			Description:  rec.Description,
			Participants: participants,
		})
	}
	return activities
}
