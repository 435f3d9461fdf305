package logging

import (
	"io"
	"log/slog"
	"os"
)

type options struct {
	out   io.Writer
	attrs []any
}

// Option customises the logger built by New.
type Option func(*options)

// WithOutput redirects log output, which defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithAttrs attaches attributes to every record, such as the app name.
func WithAttrs(attrs ...any) Option {
	return func(o *options) { o.attrs = append(o.attrs, attrs...) }
}

// New creates a JSON slog logger configured at the provided level. If the
// level string is invalid it defaults to info.
func New(level string, opts ...Option) *slog.Logger {
	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	handler := slog.NewJSONHandler(o.out, &slog.HandlerOptions{Level: ParseLevel(level)})
	logger := slog.New(handler)
	if len(o.attrs) > 0 {
		logger = logger.With(o.attrs...)
	}
	return logger
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Discard returns a logger that drops all output. Useful for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
