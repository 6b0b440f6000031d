package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Deployment environments recognised by WithEnvironment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Format is the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Redacted replaces the value of every redacted attribute.
const Redacted = "[REDACTED]"

// DefaultRedactedKeys are attribute keys whose values never reach the output.
// Matching ignores case.
var DefaultRedactedKeys = []string{
	"password",
	"secret",
	"access_token",
	"refresh_token",
	"totp_code",
	"authorization",
	"api_key",
}

// Config selects the preset and optional overrides from the environment.
type Config struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_NAME" envDefault:"authengine"`
	Level   string `env:"LOG_LEVEL"`  // debug, info, warn or error; empty keeps the preset
	Format  string `env:"LOG_FORMAT"` // json or text; empty keeps the preset
}

// Option configures logger creation.
type Option func(*config)

type config struct {
	level          slog.Level
	format         Format
	output         io.Writer
	attrs          []slog.Attr
	handlerOptions *slog.HandlerOptions
	extractors     []ContextExtractor
	redacted       map[string]struct{}
}

func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithLevelName sets the level from its name. Unknown names are ignored.
func WithLevelName(name string) Option {
	return func(c *config) {
		var l slog.Level
		if name != "" && l.UnmarshalText([]byte(name)) == nil {
			c.level = l
		}
	}
}

// WithFormat sets output format. Panics for unknown formats.
func WithFormat(f Format) Option {
	return func(c *config) {
		switch f {
		case FormatJSON, FormatText:
			c.format = f
		default:
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
	}
}

func WithTextFormatter() Option { return WithFormat(FormatText) }

func WithJSONFormatter() Option { return WithFormat(FormatJSON) }

// WithOutput sets the destination. Nil is ignored.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithHandlerOptions sets AddSource and ReplaceAttr, and Level when it is
// non-nil. Redaction still runs before ReplaceAttr.
func WithHandlerOptions(opts *slog.HandlerOptions) Option {
	return func(c *config) {
		if opts != nil {
			c.handlerOptions = opts
		}
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// WithContextExtractors registers functions that add attributes from the
// record's context. Nil extractors are dropped.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(c *config) {
		for _, ex := range extractors {
			if ex != nil {
				c.extractors = append(c.extractors, ex)
			}
		}
	}
}

// WithContextValue logs the value stored under key as name whenever it is present.
func WithContextValue(name string, key any) Option {
	return func(c *config) {
		if name == "" || key == nil {
			return
		}
		c.extractors = append(c.extractors, func(ctx context.Context) (slog.Attr, bool) {
			if v := ctx.Value(key); v != nil {
				return slog.Any(name, v), true
			}
			return slog.Attr{}, false
		})
	}
}

// WithRedactedKeys adds attribute keys to mask.
func WithRedactedKeys(keys ...string) Option {
	return func(c *config) {
		for _, k := range keys {
			c.redacted[strings.ToLower(k)] = struct{}{}
		}
	}
}

// WithoutRedaction turns masking off, including the default keys.
func WithoutRedaction() Option {
	return func(c *config) {
		clear(c.redacted)
	}
}

// WithDevelopment: text at debug level, tagged with service and env.
func WithDevelopment(service string) Option {
	return preset(service, EnvDevelopment, slog.LevelDebug, FormatText)
}

// WithStaging: JSON at info level, tagged with service and env.
func WithStaging(service string) Option {
	return preset(service, EnvStaging, slog.LevelInfo, FormatJSON)
}

// WithProduction: JSON at info level, tagged with service and env.
func WithProduction(service string) Option {
	return preset(service, EnvProduction, slog.LevelInfo, FormatJSON)
}

// WithEnvironment picks the preset for env. Unknown values fall back to development.
func WithEnvironment(env string, service string) Option {
	switch env {
	case EnvProduction, "prod":
		return WithProduction(service)
	case EnvStaging, "stage":
		return WithStaging(service)
	default:
		return WithDevelopment(service)
	}
}

// preset is a no-op for an empty service name.
func preset(service, env string, level slog.Level, format Format) Option {
	return func(c *config) {
		if service == "" {
			return
		}
		c.level = level
		c.format = format
		c.attrs = append(c.attrs,
			slog.String("service", service),
			slog.String("env", env),
		)
	}
}

func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// New creates a logger. Defaults: JSON at info level on stdout with the
// DefaultRedactedKeys masked.
func New(opts ...Option) *slog.Logger {
	cfg := &config{
		level:    slog.LevelInfo,
		format:   FormatJSON,
		output:   os.Stdout,
		redacted: make(map[string]struct{}, len(DefaultRedactedKeys)),
	}
	for _, k := range DefaultRedactedKeys {
		cfg.redacted[k] = struct{}{}
	}
	for _, opt := range opts {
		opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{Level: cfg.level}
	var replace func([]string, slog.Attr) slog.Attr
	if ho := cfg.handlerOptions; ho != nil {
		handlerOpts.AddSource = ho.AddSource
		if ho.Level != nil {
			handlerOpts.Level = ho.Level
		}
		replace = ho.ReplaceAttr
	}
	handlerOpts.ReplaceAttr = redactor(cfg.redacted, replace)

	var handler slog.Handler
	if cfg.format == FormatText {
		handler = slog.NewTextHandler(cfg.output, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(cfg.output, handlerOpts)
	}
	if len(cfg.attrs) > 0 {
		handler = handler.WithAttrs(cfg.attrs)
	}

	return slog.New(NewContextHandler(handler, cfg.extractors...))
}

// NewFromConfig applies the environment preset from cfg, then its overrides, then opts.
func NewFromConfig(cfg Config, opts ...Option) *slog.Logger {
	base := []Option{WithEnvironment(cfg.Env, cfg.Service), WithLevelName(cfg.Level)}
	switch Format(strings.ToLower(cfg.Format)) {
	case FormatJSON:
		base = append(base, WithJSONFormatter())
	case FormatText:
		base = append(base, WithTextFormatter())
	}
	return New(append(base, opts...)...)
}

func redactor(keys map[string]struct{}, next func([]string, slog.Attr) slog.Attr) func([]string, slog.Attr) slog.Attr {
	if len(keys) == 0 {
		return next
	}
	return func(groups []string, a slog.Attr) slog.Attr {
		if _, ok := keys[strings.ToLower(a.Key)]; ok && a.Value.Kind() != slog.KindGroup {
			a = slog.String(a.Key, Redacted)
		}
		if next != nil {
			return next(groups, a)
		}
		return a
	}
}
