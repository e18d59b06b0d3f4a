package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/usegalaxy-au/galaxy_web/pkg/constants"
)

// ReadConfig loads config.yaml from configPath. A missing file is not an
// error; defaults and GALAXY_* environment variables still apply.
func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	// e.g. GALAXY_EMAIL_HOST overrides email.host
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func MustReadConfig(path string) *Config {
	config, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}
	return config
}

// setDefaults registers every key viper should know about. AutomaticEnv only
// resolves keys that have a default or appear in the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.hostname", "site.usegalaxy.org.au")
	v.SetDefault("server.cors.enabled", false)
	v.SetDefault("server.cors.allow_origins", []string{})
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.requests_per_minute", 30)
	v.SetDefault("server.session.idle_timeout_minutes", 60*24*14)
	v.SetDefault("server.session.cookie_secure", false)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 1)
	v.SetDefault("redis.dial_timeout_seconds", 5)
	v.SetDefault("redis.read_timeout_seconds", 3)
	v.SetDefault("redis.write_timeout_seconds", 3)

	v.SetDefault("email.enabled", true)
	v.SetDefault("email.to_address", "help@genome.edu.au")
	v.SetDefault("email.from_address", "noreply@usegalaxy.org.au")
	v.SetDefault("email.host", "")
	v.SetDefault("email.transport", "")
	v.SetDefault("email.max_attempts", 3)
	v.SetDefault("email.async", false)
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("email.smtp.username", "")
	v.SetDefault("email.smtp.password", "")
	v.SetDefault("email.smtp.use_tls", true)
	v.SetDefault("email.smtp.timeout_seconds", 10)
	v.SetDefault("email.postal.base_url", "")
	v.SetDefault("email.postal.api_key", "")
	v.SetDefault("email.postal.timeout_seconds", 10)

	v.SetDefault("captcha.enabled", false)
	v.SetDefault("captcha.site_key", "")
	v.SetDefault("captcha.secret_key", "")
	v.SetDefault("captcha.verify_url", "https://www.google.com/recaptcha/api/siteverify")

	v.SetDefault("institution.file", "")
	v.SetDefault("access.advisory_resources", []string{})

	v.SetDefault("content.pages_dir", "content/pages")
	v.SetDefault("content.notices_dir", "content/notices")
	v.SetDefault("content.templates_dir", "")
	v.SetDefault("content.image_base_url", "/media/")

	v.SetDefault("unsubscribe.secret_key", "")

	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.service_name", "galaxy-web")
	v.SetDefault("observability.service_version", "dev")
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.otlp_endpoint", "localhost:4318")
	v.SetDefault("observability.tracing.otlp_insecure", true)
	v.SetDefault("observability.tracing.sampling_rate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output.stdout", true)
	v.SetDefault("logging.output.file.enabled", true)
	v.SetDefault("logging.output.file.path", "logs/main.log")
	v.SetDefault("logging.output.file.max_size_mb", 1)
	v.SetDefault("logging.output.file.max_backups", 5)
	v.SetDefault("logging.output.file.max_age_days", 0)
	v.SetDefault("logging.output.file.compress", false)
	v.SetDefault("logging.output.loki.enabled", false)
	v.SetDefault("logging.output.loki.endpoint", "")
	v.SetDefault("logging.output.loki.username", "")
	v.SetDefault("logging.output.loki.password", "")

	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "ap-southeast-2")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.public_base_url", "")
	v.SetDefault("s3.presign_ttl_sec", 3600)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject", "galaxy.mail.dispatch")
	v.SetDefault("nats.queue", "galaxy-mail")
}
