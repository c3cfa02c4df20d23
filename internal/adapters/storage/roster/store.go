package roster

import (
	"context"

	domain "mergington/internal/domain/activity"
)

// Store holds the activity list and the roster of each activity for one session.
// Signup is the only operation that changes state.
type Store interface {
	List(ctx context.Context) ([]domain.Activity, error)
	GetByID(ctx context.Context, id string) (domain.Activity, error)
	Signup(ctx context.Context, activityID, email string) (bool, error)
}

// Ensure MemoryStore implements Store interface.
var _ Store = (*MemoryStore)(nil)
