// Package logging builds the slog logger used for diagnostics.
//
// User-facing output never goes through the logger; commands print their
// own "error: ..." lines. The logger carries debug traces to stderr when
// --debug is set and, optionally, JSON records to a rotating file.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"

	"gopkg.in/natefinch/lumberjack.v2"

	"notelog/internal/config"
)

// Redacted replaces the value of sensitive attributes.
const Redacted = "[REDACTED]"

var sensitiveKey = regexp.MustCompile(`(?i)(token|authorization|bearer|secret|password|verifier|^code$)`)

// New returns a logger and a closer for any file it opened.
// stderr receives debug records when debug is true, warnings otherwise.
func New(debug bool, settings config.LoggingSettings, stderr io.Writer) (*slog.Logger, io.Closer) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redact,
	}

	handlers := []slog.Handler{slog.NewTextHandler(stderr, opts)}
	var closer io.Closer = nopCloser{}

	if settings.File != "" {
		file := &lumberjack.Logger{
			Filename:   settings.File,
			MaxSize:    settings.MaxSizeMB,
			MaxBackups: settings.MaxBackups,
			MaxAge:     settings.MaxAgeDays,
		}
		handlers = append(handlers, slog.NewJSONHandler(file, &slog.HandlerOptions{
			Level:       slog.LevelDebug,
			ReplaceAttr: redact,
		}))
		closer = file
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0]), closer
	}
	return slog.New(fanout(handlers)), closer
}

func redact(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey && sensitiveKey.MatchString(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	return a
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
