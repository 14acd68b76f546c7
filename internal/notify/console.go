package notify

import (
	"context"
	"log/slog"
)

// ConsoleSender logs messages instead of delivering them. It is the sender
// when no mail provider is configured.
type ConsoleSender struct{ log *slog.Logger }

func NewConsoleSender(log *slog.Logger) *ConsoleSender { return &ConsoleSender{log: log} }

func (c *ConsoleSender) Send(_ context.Context, m Message) error {
	c.log.Info("reminder (console)", "to", m.To.String(), "subject", m.Subject, "mailto", MailtoURL(m))
	return nil
}
