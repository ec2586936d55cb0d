package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trigger events to an slog.Logger.
// Useful for development when you want to see transitions in the console.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given
// slog.Logger at Debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// WithLevel returns a copy of the adapter that logs at level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("node", event.NodeID),
		slog.String("event", event.Type.String()),
	}

	if event.Value != nil {
		attrs = append(attrs, slog.Float64("value", *event.Value))
	}
	if event.Expiry != nil {
		attrs = append(attrs, slog.Time("expiry", *event.Expiry))
	}
	if event.Policy != "" {
		attrs = append(attrs, slog.String("policy", event.Policy))
	}

	level := a.level
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
		level = slog.LevelWarn
	}

	a.logger.LogAttrs(context.Background(), level, "trigger", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
