package mailer

import (
	"context"
	"fmt"
)

// EmailTokenIssuer issues email verification tokens.
type EmailTokenIssuer interface {
	EmailToken(email string) (string, error)
}

// Enqueuer accepts messages for background delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg Message) error
}

// Confirmations composes verification emails and hands them to the
// dispatcher.
type Confirmations struct {
	tokens EmailTokenIssuer
	queue  Enqueuer
}

// NewConfirmations creates a confirmation mailer.
func NewConfirmations(tokens EmailTokenIssuer, queue Enqueuer) *Confirmations {
	return &Confirmations{tokens: tokens, queue: queue}
}

// SendConfirmation issues an email token for email and queues the message.
// Delivery happens in the background.
func (c *Confirmations) SendConfirmation(ctx context.Context, email, username, host string) error {
	token, err := c.tokens.EmailToken(email)
	if err != nil {
		return fmt.Errorf("issue email token: %w", err)
	}

	body, err := RenderConfirmation(ConfirmationData{Host: host, Username: username, Token: token})
	if err != nil {
		return err
	}

	return c.queue.Enqueue(ctx, Message{To: email, Subject: ConfirmationSubject, HTML: body})
}
