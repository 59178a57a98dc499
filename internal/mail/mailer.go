package mail

import (
	"context"
	"errors"
	"log/slog"
)

var ErrNotConfigured = errors.New("mail sender not configured")

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Noop logs instead of sending. Used when MAIL_PROVIDER is none.
type Noop struct {
	Log *slog.Logger
}

func (n Noop) Send(_ context.Context, msg Message) error {
	if n.Log != nil {
		n.Log.Info("mail_skipped", "to", msg.To, "subject", msg.Subject, "reason", "no mail provider configured")
	}
	return nil
}
