// Package notify delivers account emails. Messages are queued on RabbitMQ for
// a mail worker; without a broker they are only logged.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Kind identifies the template a mail worker renders.
type Kind string

const (
	KindActivation    Kind = "activation"
	KindPasswordReset Kind = "password_reset"
)

// Message is the JSON document published for each email.
type Message struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	To        string    `json:"to"`
	Username  string    `json:"username"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Link      string    `json:"link"`
	CreatedAt time.Time `json:"created_at"`
}

// Mailer sends a message or fails without retrying.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ActivationMessage builds the account confirmation email.
func ActivationMessage(to, username, link string) Message {
	return Message{
		Kind:     KindActivation,
		To:       to,
		Username: username,
		Subject:  "Activate your account",
		Body: fmt.Sprintf("Hello %s,\n\nPlease confirm your email address by opening the link below:\n\n%s\n",
			username, link),
		Link: link,
	}
}

// PasswordResetMessage builds the password reset email.
func PasswordResetMessage(to, username, link string) Message {
	return Message{
		Kind:     KindPasswordReset,
		To:       to,
		Username: username,
		Subject:  "Reset your password",
		Body: fmt.Sprintf("Hello %s,\n\nA password reset was requested for your account. Open the link below to choose a new password:\n\n%s\n\nIgnore this email if you did not ask for it.\n",
			username, link),
		Link: link,
	}
}

// LogMailer writes messages to the logger. The link is logged so local setups stay usable.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("mail_logged",
		"component", "notify",
		"kind", string(msg.Kind),
		"to", msg.To,
		"subject", msg.Subject,
		"link", msg.Link,
	)
	return nil
}
