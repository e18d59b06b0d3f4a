package email

import (
	"time"

	"github.com/usegalaxy-au/galaxy_web/config"
	"github.com/usegalaxy-au/galaxy_web/pkg/constants"
)

const DefaultMaxAttempts = 3

// Config holds email service configuration
type Config struct {
	Enabled bool
	From    string
	// To is the support inbox used when a Mail carries no recipient.
	To string

	Host        string
	Transport   string
	MaxAttempts int
	Async       bool

	// SMTP settings
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	SMTPUseTLS         bool
	SMTPTimeoutSeconds int

	// Postal settings
	PostalBaseURL        string
	PostalAPIKey         string
	PostalTimeoutSeconds int
}

// DefaultConfig returns sensible defaults for email configuration
func DefaultConfig() Config {
	return Config{
		Enabled:              false,
		MaxAttempts:          DefaultMaxAttempts,
		SMTPPort:             587,
		SMTPUseTLS:           true,
		SMTPTimeoutSeconds:   10,
		PostalTimeoutSeconds: 10,
	}
}

// SMTPTimeout returns the SMTP timeout as a duration
func (c Config) SMTPTimeout() time.Duration {
	if c.SMTPTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.SMTPTimeoutSeconds) * time.Second
}

func (c Config) PostalTimeout() time.Duration {
	if c.PostalTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.PostalTimeoutSeconds) * time.Second
}

// PostalURL returns the Postal API base, defaulting to the mail host itself.
func (c Config) PostalURL() string {
	if c.PostalBaseURL != "" {
		return c.PostalBaseURL
	}
	host := c.Host
	if host == "" {
		host = constants.PostalMailHost
	}
	return "https://" + host
}

func (c Config) attempts() int {
	if c.MaxAttempts < 1 {
		return DefaultMaxAttempts
	}
	return c.MaxAttempts
}

// FromCentralConfig converts central config.EmailConfig to package Config
func FromCentralConfig(c config.EmailConfig) Config {
	return Config{
		Enabled:              c.Enabled,
		From:                 c.FromAddress,
		To:                   c.ToAddress,
		Host:                 c.Host,
		Transport:            c.Transport,
		MaxAttempts:          c.MaxAttempts,
		Async:                c.Async,
		SMTPPort:             c.SMTP.Port,
		SMTPUsername:         c.SMTP.Username,
		SMTPPassword:         c.SMTP.Password,
		SMTPUseTLS:           c.SMTP.UseTLS,
		SMTPTimeoutSeconds:   c.SMTP.TimeoutSeconds,
		PostalBaseURL:        c.Postal.BaseURL,
		PostalAPIKey:         c.Postal.APIKey,
		PostalTimeoutSeconds: c.Postal.TimeoutSeconds,
	}
}
