package orchestrators

import (
	"context"
	"log/slog"

	"mergington/internal/domain/activity"
	"mergington/internal/observability"
)

// ActivityFetcher retrieves the activity collection from a backend.
type ActivityFetcher interface {
	Fetch(ctx context.Context) ([]activity.Record, error)
}

// LoadActivitiesDeps holds dependencies for LoadActivities.
// A nil Fetcher means no backend is configured.
type LoadActivitiesDeps struct {
	Fetcher ActivityFetcher
}

// LoadActivitiesResult carries the seed records and where they came from.
type LoadActivitiesResult struct {
	Records []activity.Record
	Origin  string // observability.OriginRemote or observability.OriginFallback
}

// ExecuteLoadActivities produces the seed records for a session.
// The remote collection is used verbatim when it can be read; any failure
// yields the whole fallback set instead. There is no retry and no merge.
// PRE: called once per session, before the roster store exists
// POST: Records is non-nil; the fallback is a fresh copy; never returns an error
func ExecuteLoadActivities(ctx context.Context, deps LoadActivitiesDeps) LoadActivitiesResult {
	if deps.Fetcher == nil {
		return useFallback("no_source")
	}

	records, err := deps.Fetcher.Fetch(ctx)
	if err != nil {
		return useFallback(err.Error())
	}
	if records == nil {
		records = []activity.Record{}
	}

	observability.RecordSourceLoad(observability.OriginRemote)
	slog.Info("activities_loaded", "origin", observability.OriginRemote, "count", len(records))
	return LoadActivitiesResult{Records: records, Origin: observability.OriginRemote}
}

func useFallback(reason string) LoadActivitiesResult {
	records := FallbackActivities()
	observability.RecordSourceLoad(observability.OriginFallback)
	slog.Info("activities_loaded", "origin", observability.OriginFallback, "count", len(records), "reason", reason)
	return LoadActivitiesResult{Records: records, Origin: observability.OriginFallback}
}

// FallbackActivities returns the built-in activity set.
// POST: every call returns newly allocated records and rosters
func FallbackActivities() []activity.Record {
	return []activity.Record{
		{
			ID:           "chess",
			Name:         "Chess Club",
			Description:  "Tactics & matches",
			Participants: activity.Roster{"alice@mergington.edu", "ben@mergington.edu"},
		},
		{
			ID:           "robotics",
			Name:         "Robotics Team",
			Description:  "Build and program robots",
			Participants: activity.Roster{},
		},
		{
			ID:           "drama",
			Name:         "Drama Club",
			Description:  "Plays and improv",
			Participants: activity.Roster{"cara@mergington.edu"},
		},
	}
}
