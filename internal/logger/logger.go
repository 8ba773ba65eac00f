// Package logger holds the process-wide default logger for memkit packages.
package logger

import (
	"io"
	"log/slog"
	"sync/atomic"
)

var l atomic.Pointer[slog.Logger]

func init() {
	l.Store(discard())
}

// Options configures the logger initialization.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Output  io.Writer  // Destination. Required when Enabled
	JSON    bool       // JSON lines instead of text
	Level   slog.Level // Minimum log level. Default: LevelInfo when enabled
}

// Init configures the default logger. If opts.Enabled is false, all log output
// is discarded.
func Init(opts Options) {
	if !opts.Enabled || opts.Output == nil {
		l.Store(discard())
		return
	}
	hopts := &slog.HandlerOptions{Level: opts.Level}
	if opts.JSON {
		l.Store(slog.New(slog.NewJSONHandler(opts.Output, hopts)))
		return
	}
	l.Store(slog.New(slog.NewTextHandler(opts.Output, hopts)))
}

// Set installs lg as the default logger. A nil logger discards.
func Set(lg *slog.Logger) {
	if lg == nil {
		lg = discard()
	}
	l.Store(lg)
}

// L returns the current default logger.
func L() *slog.Logger { return l.Load() }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
