package email

import (
	"context"
	"crypto/tls"
	"time"

	"gopkg.in/gomail.v2"
)

// SMTPTransport delivers through a plain SMTP relay.
type SMTPTransport struct {
	cfg Config
}

func NewSMTPTransport(cfg Config) *SMTPTransport {
	return &SMTPTransport{cfg: cfg}
}

func (t *SMTPTransport) Name() string { return TransportSMTP }

func (t *SMTPTransport) Send(ctx context.Context, m Message) error {
	msg, err := buildMessage(m)
	if err != nil {
		return err
	}

	d := t.newDialer()

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(msg)
	}()

	// Respect ctx deadline if it's sooner than our config timeout.
	wait := t.cfg.SMTPTimeout()
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < wait {
			wait = d
		}
	}

	select {
	case err := <-done:
		if err != nil {
			return ErrSend{Provider: "gomail/smtp", Err: err}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		// The gomail dialer exposes no connection deadline, so the abandoned
		// DialAndSend can still complete. A relay slower than the timeout may
		// deliver a retried mail twice; that is accepted over losing it.
		return ErrSend{Provider: "gomail/smtp", Err: context.DeadlineExceeded}
	}
}

func (t *SMTPTransport) newDialer() *gomail.Dialer {
	d := gomail.NewDialer(t.cfg.Host, t.cfg.SMTPPort, t.cfg.SMTPUsername, t.cfg.SMTPPassword)

	// Implicit TLS on the submissions port, STARTTLS otherwise.
	d.SSL = t.cfg.SMTPUseTLS && t.cfg.SMTPPort == 465
	if t.cfg.SMTPUseTLS {
		d.TLSConfig = &tls.Config{ServerName: t.cfg.Host, MinVersion: tls.VersionTLS12}
	}

	return d
}
