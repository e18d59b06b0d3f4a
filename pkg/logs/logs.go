package logs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/usegalaxy-au/galaxy_web/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level       string
	Format      string
	Environment string
	Service     string
	Version     string

	Stdout bool

	File struct {
		Enabled    bool
		Path       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
		Compress   bool
	}

	Loki struct {
		Enabled  bool
		Endpoint string
		Username string
		Password string
	}
}

func FromCentralConfig(c *config.Config) Config {
	var cfg Config
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Environment = c.Server.Environment
	cfg.Service = c.Observability.ServiceName
	cfg.Version = c.Observability.ServiceVersion
	cfg.Stdout = c.Logging.Output.Stdout

	f := c.Logging.Output.File
	cfg.File.Enabled = f.Enabled
	cfg.File.Path = f.Path
	cfg.File.MaxSizeMB = f.MaxSizeMB
	cfg.File.MaxBackups = f.MaxBackups
	cfg.File.MaxAgeDays = f.MaxAgeDays
	cfg.File.Compress = f.Compress

	l := c.Logging.Output.Loki
	cfg.Loki.Enabled = l.Enabled
	cfg.Loki.Endpoint = l.Endpoint
	cfg.Loki.Username = l.Username
	cfg.Loki.Password = l.Password
	return cfg
}

// New builds a logger with stdout, rotating file and Loki fan-out.
func New(cfg Config) *slog.Logger {
	return slog.New(contextHandler{newHandler(cfg, os.Stdout)}).With(
		slog.String("service", cfg.Service),
		slog.String("version", cfg.Version),
		slog.String("env", cfg.Environment),
	)
}

func newHandler(cfg Config, stdout io.Writer) slog.Handler {
	level := parseLevel(cfg.Level)
	isDev := strings.EqualFold(cfg.Environment, "development")

	var writers []io.Writer

	if cfg.Stdout || (!cfg.File.Enabled && !cfg.Loki.Enabled) {
		writers = append(writers, stdout)
	}

	if cfg.File.Enabled {
		maxSize := cfg.File.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 1
		}
		backups := cfg.File.MaxBackups
		if backups <= 0 {
			backups = 5
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    maxSize,
			MaxBackups: backups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		})
	}

	var handlers []slog.Handler

	if len(writers) > 0 {
		w := io.MultiWriter(writers...)
		opts := &slog.HandlerOptions{
			Level:     level,
			AddSource: isDev,
		}
		if strings.EqualFold(cfg.Format, "json") || !isDev {
			handlers = append(handlers, slog.NewJSONHandler(w, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(w, opts))
		}
	}

	if cfg.Loki.Enabled {
		handlers = append(handlers, newLokiHandler(cfg, level))
	}

	if len(handlers) == 1 {
		return handlers[0]
	}
	return &multiHandler{handlers: handlers}
}

func Default() *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: false,
	})
	return slog.New(h).With(slog.String("service", "galaxy-web"))
}

// Discard is used by tests and by commands that must stay quiet.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
