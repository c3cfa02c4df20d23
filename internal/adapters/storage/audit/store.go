package audit

import (
	"context"

	domain "mergington/internal/domain/audit"
)

// Store is the append-only signup journal.
type Store interface {
	// Save persists a journal event.
	// PRE: event is valid
	// POST: Event is persisted
	Save(ctx context.Context, event domain.Event) error

	// ListByActivity returns events for one activity, oldest first.
	// PRE: limit > 0
	ListByActivity(ctx context.Context, activityID string, limit int) ([]domain.Event, error)
}

// Ensure SQLiteStore implements Store interface.
var _ Store = (*SQLiteStore)(nil)
