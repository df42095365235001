// Package cli implements the got command-line interface.
//
// The commands read patch graphs and delta files from disk, run them
// through the apply, rebase and feedback engines, and print or write the
// result. The CLI is built using cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - build, export: convert between delta batches and graph files
//   - apply, invert, rebase, merge: the delta operations
//   - show: pretty-print a graph or delta file
//   - feedback, render: loop detection and node-link diagrams
//   - snapshot, cache: named snapshots in the configured cache backend
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging; otherwise
// log_level from the config file applies. The logger is also attached to
// the command context for progress lines.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at level, with timestamps
// formatted as "15:04:05.00".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs an operation's completion with its elapsed time.
// Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Found 3 loops (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() if there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
