// Package slogobs implements observability.Observer on top of the standard
// library's log/slog. Spans become paired start/end log records; span events
// and log calls become structured records with the span name attached.
package slogobs

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/telmok/anychat/providers/observability"
)

// Observer routes tracing and log events through a slog.Logger.
type Observer struct {
	logger *slog.Logger
}

// Option configures an Observer created by New.
type Option func(*config)

type config struct {
	logger *slog.Logger
	level  slog.Level
}

// WithLogger uses an existing slog.Logger instead of building one.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithLevel sets the minimum level when slogobs builds its own logger.
func WithLevel(level slog.Level) Option {
	return func(cfg *config) {
		cfg.level = level
	}
}

// New creates a slog-backed observer. Without options it logs text records
// to stderr at INFO level; the ANYCHAT_LOG_LEVEL environment variable
// ("debug", "info", "warn", "error") overrides the default level.
func New(opts ...Option) *Observer {
	cfg := config{level: levelFromEnv()}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.level}))
	}

	return &Observer{logger: logger}
}

func levelFromEnv() slog.Level {
	switch os.Getenv("ANYCHAT_LOG_LEVEL") {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StartSpan implements observability.Observer. The returned context carries
// the span so nested calls can attach events to it.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &slogSpan{
		logger: o.logger,
		name:   name,
		start:  time.Now(),
	}
	span.logger.LogAttrs(ctx, slog.LevelDebug, "span.start", append([]slog.Attr{slog.String("span", name)}, toSlogAttrs(attrs)...)...)
	return observability.ContextWithSpan(ctx, span), span
}

func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelDebug, msg, attrs)
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelDebug, msg, attrs)
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelInfo, msg, attrs)
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelWarn, msg, attrs)
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelError, msg, attrs)
}

func (o *Observer) log(ctx context.Context, level slog.Level, msg string, attrs []observability.Attribute) {
	o.logger.LogAttrs(ctx, level, msg, toSlogAttrs(attrs)...)
}

// slogSpan is the slog-backed Span implementation. It accumulates attributes
// and logs a single span.end record with the total duration.
type slogSpan struct {
	logger *slog.Logger
	name   string
	start  time.Time
	attrs  []observability.Attribute
	failed bool
}

func (s *slogSpan) End() {
	level := slog.LevelDebug
	if s.failed {
		level = slog.LevelWarn
	}
	attrs := append([]slog.Attr{
		slog.String("span", s.name),
		slog.Duration("duration", time.Since(s.start)),
	}, toSlogAttrs(s.attrs)...)
	s.logger.LogAttrs(context.Background(), level, "span.end", attrs...)
}

func (s *slogSpan) SetAttributes(attrs ...observability.Attribute) {
	s.attrs = append(s.attrs, attrs...)
}

func (s *slogSpan) RecordError(err error) {
	if err == nil {
		return
	}
	s.failed = true
	s.logger.LogAttrs(context.Background(), slog.LevelWarn, "span.error",
		slog.String("span", s.name),
		slog.String("error", err.Error()),
	)
}

func (s *slogSpan) AddEvent(name string, attrs ...observability.Attribute) {
	eventAttrs := append([]slog.Attr{slog.String("span", s.name)}, toSlogAttrs(attrs)...)
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, name, eventAttrs...)
}

func toSlogAttrs(attrs []observability.Attribute) []slog.Attr {
	converted := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		converted = append(converted, slog.Any(attr.Key, attr.Value))
	}
	return converted
}
