package projections

import (
	"context"

	"mergington/internal/application/flash"
	"mergington/internal/domain/activity"
)

// Placeholder text rendered in place of an empty roster and in the selector.
const (
	EmptyRosterText   = "No participants yet"
	SelectPromptLabel = "-- Select an activity --"
)

// ActivityBoardStore defines the store interface for the activity board.
type ActivityBoardStore interface {
	List(ctx context.Context) ([]activity.Activity, error)
}

// MessageSource provides the current message region state.
type MessageSource interface {
	Current() flash.Message
}

// GetActivityBoardDeps holds dependencies for the activity board projection.
// Messages is optional.
type GetActivityBoardDeps struct {
	Store    ActivityBoardStore
	Messages MessageSource
}

// RosterEntry is one line of a card's participant list.
type RosterEntry struct {
	Text        string
	Placeholder bool
}

// ActivityCard is the rendered view of one activity.
type ActivityCard struct {
	ID          string
	Name        string
	Description string
	Roster      []RosterEntry
}

// SelectOption is one entry of the activity selector.
type SelectOption struct {
	Value       string
	Label       string
	Placeholder bool
}

// ActivityBoard is everything the page needs to draw itself.
type ActivityBoard struct {
	Cards   []ActivityCard
	Options []SelectOption
	Message flash.Message
}

// QueryGetActivityBoard builds the full page view from current store state.
// Nothing is cached between calls.
// PRE: deps.Store is non-nil
// POST: one card per activity in store order; Options starts with the
// placeholder and then lists every activity in the same order
func QueryGetActivityBoard(ctx context.Context, deps GetActivityBoardDeps) (ActivityBoard, error) {
	activities, err := deps.Store.List(ctx)
	if err != nil {
		return ActivityBoard{}, err
	}

	board := ActivityBoard{
		Cards:   make([]ActivityCard, 0, len(activities)),
		Options: make([]SelectOption, 0, len(activities)+1),
	}
	board.Options = append(board.Options, SelectOption{Value: "", Label: SelectPromptLabel, Placeholder: true})

	for _, a := range activities {
		board.Cards = append(board.Cards, ActivityCard{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			Roster:      rosterEntries(a.Participants),
		})
		board.Options = append(board.Options, SelectOption{Value: a.ID, Label: a.Name})
	}

	if deps.Messages != nil {
		board.Message = deps.Messages.Current()
	}
	return board, nil
}

// rosterEntries renders participants as given, without deduplication.
func rosterEntries(participants []string) []RosterEntry {
	if len(participants) == 0 {
		return []RosterEntry{{Text: EmptyRosterText, Placeholder: true}}
	}
	entries := make([]RosterEntry, len(participants))
	for i, p := range participants {
		entries[i] = RosterEntry{Text: p}
	}
	return entries
}
