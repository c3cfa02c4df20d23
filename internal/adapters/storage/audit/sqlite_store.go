package audit

import (
	"context"
	"fmt"
	"time"

	"mergington/internal/adapters/storage"
	domain "mergington/internal/domain/audit"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

// SQLiteStore implements the journal Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new journal store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save persists a journal event.
// PRE: event is valid
// POST: Event is persisted
func (s *SQLiteStore) Save(ctx context.Context, event domain.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid signup event: %w", err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO signup_event (id, recorded_at, activity_id, email, outcome, ip_address, user_agent)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.RecordedAt.UTC().Format(dateLayout), event.ActivityID, event.Email,
		string(event.Outcome), event.IPAddress, event.UserAgent)
	if err != nil {
		return fmt.Errorf("failed to save signup event: %w", err)
	}
	return nil
}

// ListByActivity returns events for one activity, oldest first.
// PRE: limit > 0
// POST: Returns at most limit events
func (s *SQLiteStore) ListByActivity(ctx context.Context, activityID string, limit int) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recorded_at, activity_id, email, outcome, ip_address, user_agent
		 FROM signup_event WHERE activity_id = ? ORDER BY recorded_at ASC, rowid ASC LIMIT ?`,
		activityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list signup events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		var recordedAt, outcome string
		if err := rows.Scan(&e.ID, &recordedAt, &e.ActivityID, &e.Email, &outcome, &e.IPAddress, &e.UserAgent); err != nil {
			return nil, fmt.Errorf("failed to scan signup event: %w", err)
		}
		e.RecordedAt, _ = time.Parse(dateLayout, recordedAt)
		e.Outcome = domain.Outcome(outcome)
		events = append(events, e)
	}
	return events, rows.Err()
}
