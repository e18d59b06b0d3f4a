package email

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Mailer is the fire-and-forget entry point used by request handling.
// Implementations never surface delivery failures to the caller.
type Mailer interface {
	Dispatch(ctx context.Context, m Mail)
}

type Dispatcher struct {
	cfg       Config
	transport Transport
	log       *slog.Logger
	attempts  metric.Int64Counter
}

var _ Mailer = (*Dispatcher)(nil)

func NewDispatcher(cfg Config, t Transport, log *slog.Logger) *Dispatcher {
	counter, err := otel.Meter("github.com/usegalaxy-au/galaxy_web/pkg/email").Int64Counter(
		"mail_dispatch_attempts_total",
		metric.WithDescription("Mail send attempts by transport and outcome."),
	)
	if err != nil {
		counter = noop.Int64Counter{}
	}
	return &Dispatcher{cfg: cfg, transport: t, log: log, attempts: counter}
}

// Transport returns the transport this dispatcher sends through.
func (d *Dispatcher) Transport() Transport { return d.transport }

func (d *Dispatcher) message(m Mail) Message {
	to := cleanAddrs(m.To)
	if len(to) == 0 {
		to = []string{d.cfg.To}
	}
	return Message{
		From:     d.cfg.From,
		To:       to,
		ReplyTo:  m.ReplyTo,
		Subject:  m.Subject,
		TextBody: m.Text,
		HTMLBody: m.HTML,
	}
}

// Send tries the transport up to MaxAttempts times without backoff and
// returns ErrExhausted wrapping the last failure. Every transport error
// counts as a failed attempt.
func (d *Dispatcher) Send(ctx context.Context, m Mail) error {
	if !d.cfg.Enabled {
		return ErrDisabled{}
	}

	msg := d.message(m)
	maxAttempts := d.cfg.attempts()

	var lastErr error
	attempt := 0
	for attempt < maxAttempts {
		attempt++
		err := d.transport.Send(ctx, msg)
		d.record(ctx, err)
		if err == nil {
			return nil
		}
		lastErr = err

		d.log.WarnContext(ctx, "send mail error",
			"attempt", attempt,
			"transport", d.transport.Name(),
			"err", err,
		)
	}

	return ErrExhausted{Attempts: attempt, Err: lastErr}
}

// Dispatch sends m and logs, rather than returns, any final failure
// together with the full message content.
func (d *Dispatcher) Dispatch(ctx context.Context, m Mail) {
	err := d.Send(ctx, m)
	if err == nil {
		return
	}

	if errors.As(err, new(ErrDisabled)) {
		d.log.InfoContext(ctx, "email disabled, mail dropped", "subject", m.Subject)
		return
	}

	attempts := 0
	var exhausted ErrExhausted
	if errors.As(err, &exhausted) {
		attempts = exhausted.Attempts
	}

	d.log.ErrorContext(ctx, "mail dispatch failed",
		"err", err,
		"attempts", attempts,
		"transport", d.transport.Name(),
		"to", strings.Join(d.message(m).To, ", "),
		"subject", m.Subject,
		"content", m.Text,
	)
}

func (d *Dispatcher) record(ctx context.Context, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	d.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transport", d.transport.Name()),
		attribute.String("outcome", outcome),
	))
}
