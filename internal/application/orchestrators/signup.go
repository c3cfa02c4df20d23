package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	emailAdapter "mergington/internal/adapters/email"
	"mergington/internal/domain/activity"
	"mergington/internal/domain/audit"
	"mergington/internal/observability"
)

// Board messages shown after a signup attempt.
const (
	MsgMissingFields    = "Please provide an email and select an activity."
	MsgActivityNotFound = "Selected activity not found."
	MsgSignedUp         = "Signed up successfully!"
)

// SignupStore defines the roster store interface needed for signups.
type SignupStore interface {
	GetByID(ctx context.Context, id string) (activity.Activity, error)
	Signup(ctx context.Context, activityID, email string) (bool, error)
}

// MessageBoard is the message region the result is posted to.
type MessageBoard interface {
	Success(text string)
	Error(text string)
}

// SignupJournal records signup events.
type SignupJournal interface {
	Save(ctx context.Context, e audit.Event) error
}

// SignupInput carries input for the signup orchestrator.
// Email is expected to be trimmed by the caller.
type SignupInput struct {
	ActivityID string
	Email      string
	IPAddress  string
	UserAgent  string
}

// SignupDeps holds dependencies for Signup.
// Board, Journal and Mailer are optional; JSON callers read the result instead of a board.
type SignupDeps struct {
	Store   SignupStore
	Board   MessageBoard
	Journal SignupJournal
	Mailer  emailAdapter.Sender
	Now     func() time.Time
}

// SignupResult reports what happened to the roster.
type SignupResult struct {
	Added   bool
	Message string
}

// ExecuteSignup adds an email to an activity's roster and posts the outcome
// to the submitter's message board.
// PRE: deps.Store is non-nil
// POST: on success the email is on the roster exactly once and the board shows
// MsgSignedUp; on a domain error nothing changes except the board
func ExecuteSignup(ctx context.Context, input SignupInput, deps SignupDeps) (SignupResult, error) {
	added, err := deps.Store.Signup(ctx, input.ActivityID, input.Email)
	if err != nil {
		msg, outcome, ok := describeSignupError(err)
		if !ok {
			slog.Error("signup_failed", "activity", input.ActivityID, "error", err)
			return SignupResult{}, err
		}
		if deps.Board != nil {
			deps.Board.Error(msg)
		}
		observability.RecordSignup(outcome)
		slog.Info("signup_rejected", "activity", input.ActivityID, "outcome", outcome)
		return SignupResult{Message: msg}, err
	}

	outcome := audit.OutcomeAlreadyRegistered
	if added {
		outcome = audit.OutcomeAdded
	}
	if deps.Board != nil {
		deps.Board.Success(MsgSignedUp)
	}
	observability.RecordSignup(string(outcome))
	slog.Info("signup_event", "event", "signup", "activity", input.ActivityID, "outcome", outcome)

	journalSignup(ctx, input, outcome, deps)
	if added {
		sendConfirmation(ctx, input, deps)
	}

	return SignupResult{Added: added, Message: MsgSignedUp}, nil
}

// describeSignupError maps domain errors onto board text and a metric label.
func describeSignupError(err error) (string, string, bool) {
	switch {
	case errors.Is(err, activity.ErrEmailRequired), errors.Is(err, activity.ErrActivityRequired):
		return MsgMissingFields, observability.OutcomeInvalid, true
	case errors.Is(err, activity.ErrActivityNotFound):
		return MsgActivityNotFound, observability.OutcomeNotFound, true
	}
	return "", "", false
}

func journalSignup(ctx context.Context, input SignupInput, outcome audit.Outcome, deps SignupDeps) {
	if deps.Journal == nil {
		return
	}
	now := time.Now
	if deps.Now != nil {
		now = deps.Now
	}
	event := audit.NewEvent(input.ActivityID, input.Email, outcome, now()).
		WithRequest(input.IPAddress, input.UserAgent)
	if err := deps.Journal.Save(ctx, event); err != nil {
		slog.Error("signup_journal_failed", "activity", input.ActivityID, "error", err)
	}
}

func sendConfirmation(ctx context.Context, input SignupInput, deps SignupDeps) {
	if deps.Mailer == nil {
		return
	}
	act, err := deps.Store.GetByID(ctx, input.ActivityID)
	if err != nil {
		slog.Error("signup_email_lookup_failed", "activity", input.ActivityID, "error", err)
		return
	}
	if _, err := deps.Mailer.Send(ctx, emailAdapter.SignupConfirmation(input.Email, act.Name)); err != nil {
		slog.Error("signup_email_failed", "activity", input.ActivityID, "error", err)
	}
}
