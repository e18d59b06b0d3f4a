package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/usegalaxy-au/galaxy_web/pkg/constants"
)

const (
	TransportSMTP    = "smtp"
	TransportPostal  = "postal"
	TransportConsole = "console"
)

type Transport interface {
	Name() string
	Send(ctx context.Context, m Message) error
}

// TransportName resolves the configured transport. An empty setting picks
// Postal for the Galaxy Australia mail host and SMTP for anything else.
func TransportName(cfg Config) string {
	if name := strings.ToLower(strings.TrimSpace(cfg.Transport)); name != "" {
		return name
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Host), constants.PostalMailHost) {
		return TransportPostal
	}
	return TransportSMTP
}

func NewTransport(cfg Config, log *slog.Logger) (Transport, error) {
	switch name := TransportName(cfg); name {
	case TransportSMTP:
		return NewSMTPTransport(cfg), nil
	case TransportPostal:
		return NewPostalTransport(cfg), nil
	case TransportConsole:
		return NewConsoleTransport(log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, name)
	}
}
