package config

import (
	"errors"
	"fmt"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Email         EmailConfig         `mapstructure:"email"`
	Captcha       CaptchaConfig       `mapstructure:"captcha"`
	Institution   InstitutionConfig   `mapstructure:"institution"`
	Access        AccessConfig        `mapstructure:"access"`
	Content       ContentConfig       `mapstructure:"content"`
	Unsubscribe   UnsubscribeConfig   `mapstructure:"unsubscribe"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	S3            S3Config            `mapstructure:"s3"`
	Nats          NatsConfig          `mapstructure:"nats"`
}

type NatsConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	Subject string `mapstructure:"subject" yaml:"subject"`
	Queue   string `mapstructure:"queue" yaml:"queue"`
}

type RedisConfig struct {
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
}

type ServerConfig struct {
	Port           int    `mapstructure:"port"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Environment    string `mapstructure:"environment"`
	// Hostname is the public host name used in links inside outgoing mail.
	Hostname  string          `mapstructure:"hostname"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Session   SessionConfig   `mapstructure:"session"`
}

type SessionConfig struct {
	IdleTimeoutMinutes int  `mapstructure:"idle_timeout_minutes"`
	CookieSecure       bool `mapstructure:"cookie_secure"`
}

type CORSConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type EmailConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// ToAddress is the support inbox receiving form submissions.
	ToAddress   string `mapstructure:"to_address"`
	FromAddress string `mapstructure:"from_address"`
	// Host selects the transport when Transport is empty.
	Host string `mapstructure:"host"`
	// Transport is one of smtp, postal or console. Empty selects by Host.
	Transport   string       `mapstructure:"transport"`
	MaxAttempts int          `mapstructure:"max_attempts"`
	Async       bool         `mapstructure:"async"`
	SMTP        SMTPConfig   `mapstructure:"smtp"`
	Postal      PostalConfig `mapstructure:"postal"`
}

type SMTPConfig struct {
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	UseTLS         bool   `mapstructure:"use_tls"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type PostalConfig struct {
	// BaseURL defaults to https://<email.host>.
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type CaptchaConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	SiteKey   string `mapstructure:"site_key"`
	SecretKey string `mapstructure:"secret_key"`
	VerifyURL string `mapstructure:"verify_url"`
}

type InstitutionConfig struct {
	// File overrides the embedded institution list.
	File string `mapstructure:"file"`
}

type AccessConfig struct {
	// AdvisoryResources lists access-form keys whose institutional email
	// check warns the user instead of rejecting the submission.
	AdvisoryResources []string `mapstructure:"advisory_resources"`
}

type ContentConfig struct {
	PagesDir     string `mapstructure:"pages_dir"`
	NoticesDir   string `mapstructure:"notices_dir"`
	TemplatesDir string `mapstructure:"templates_dir"`
	// ImageBaseURL prefixes image keys when S3 is not configured.
	ImageBaseURL string `mapstructure:"image_base_url"`
}

type UnsubscribeConfig struct {
	SecretKey string `mapstructure:"secret_key"`
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level"`  // debug, info, warn, error
	Format string       `mapstructure:"format"` // text, json
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
	Loki   LokiConfig    `mapstructure:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`        // e.g. "logs/main.log"
	MaxSizeMB  int    `mapstructure:"max_size_mb"` // rotate after N MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"` // e.g. "http://localhost:3100"
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type S3Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	// PublicBaseURL serves images directly; when empty image URIs are presigned.
	PublicBaseURL string `mapstructure:"public_base_url"`
	PresignTTLSec int    `mapstructure:"presign_ttl_sec"`
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch c.Email.Transport {
	case "", "smtp", "postal", "console":
	default:
		return fmt.Errorf("email.transport %q is not one of smtp, postal, console", c.Email.Transport)
	}

	if c.Email.Enabled {
		if c.Email.ToAddress == "" {
			return errors.New("email.to_address is required when email is enabled")
		}
		if c.Email.FromAddress == "" {
			return errors.New("email.from_address is required when email is enabled")
		}
		if c.Email.MaxAttempts < 1 {
			return errors.New("email.max_attempts must be at least 1")
		}
	}

	if c.Email.Async && c.Nats.URL == "" {
		return errors.New("email.async requires nats.url")
	}

	if c.Captcha.Enabled && c.Captcha.SecretKey == "" {
		return errors.New("captcha.secret_key is required when captcha is enabled")
	}

	if c.S3.Enabled && c.S3.Bucket == "" {
		return errors.New("s3.bucket is required when s3 is enabled")
	}

	return nil
}
