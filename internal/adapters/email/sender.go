package email

import (
	"context"
	"fmt"
	"html"
	"time"
)

// SendRequest contains the data needed to send an email via an external provider.
type SendRequest struct {
	To       []string // Recipient email addresses
	From     string   // Sender address; empty uses the sender's default
	Subject  string
	HTML     string // HTML body
	ReplyTo  string
	Category string // provider tag for grouping sends; letters, digits, _ and - only
}

// SendResult contains the response from the email provider.
type SendResult struct {
	MessageID string    // Provider's message ID for tracking
	SentAt    time.Time // When the send was accepted
}

// Sender is the interface for sending emails via an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}

// CategorySignupConfirmation tags confirmation emails at the provider.
const CategorySignupConfirmation = "signup_confirmation"

// SignupConfirmation builds the message sent after a new signup.
// PRE: to and activityName are non-empty
// POST: Returns a request addressed to a single recipient with escaped content
func SignupConfirmation(to, activityName string) SendRequest {
	return SendRequest{
		To:      []string{to},
		Subject: fmt.Sprintf("Signed up for %s", activityName),
		HTML: fmt.Sprintf(
			"<p>Signed up %s for %s.</p><p>See you there!<br>Mergington High School</p>",
			html.EscapeString(to), html.EscapeString(activityName),
		),
		Category: CategorySignupConfirmation,
	}
}
