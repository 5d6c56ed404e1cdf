package logging

import (
	"io"
	"log/slog"
	"os"
)

// Format selects the handler used by New.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type settings struct {
	w      io.Writer
	format Format
}

// Option configures New.
type Option func(*settings)

// WithWriter sends log records to w instead of Stderr.
func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		s.w = w
	}
}

// WithFormat selects text or JSON output. Unknown formats fall back to text.
func WithFormat(f Format) Option {
	return func(s *settings) {
		s.format = f
	}
}

// New creates a configured application logger. By default it writes text to
// Stderr so that Stdout stays free for command output, and it renames the
// "error" key to "err".
func New(level slog.Level, opts ...Option) *slog.Logger {
	s := settings{w: os.Stderr, format: FormatText}
	for _, opt := range opts {
		opt(&s)
	}
	ho := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	if s.format == FormatJSON {
		return slog.New(slog.NewJSONHandler(s.w, ho))
	}
	return slog.New(slog.NewTextHandler(s.w, ho))
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a level name to a slog.Level. Unknown names yield Info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}
