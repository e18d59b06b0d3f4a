package email

import (
	"context"
	"log/slog"
)

// ConsoleTransport writes messages to the log instead of sending them.
type ConsoleTransport struct {
	log *slog.Logger
}

func NewConsoleTransport(log *slog.Logger) *ConsoleTransport {
	return &ConsoleTransport{log: log}
}

func (t *ConsoleTransport) Name() string { return TransportConsole }

func (t *ConsoleTransport) Send(ctx context.Context, m Message) error {
	if _, err := buildMessage(m); err != nil {
		return err
	}
	t.log.InfoContext(ctx, "email (console transport)",
		"from", m.From,
		"to", m.To,
		"reply_to", m.ReplyTo,
		"subject", m.Subject,
		"text", m.TextBody,
		"has_html", m.HTMLBody != "",
	)
	return nil
}
