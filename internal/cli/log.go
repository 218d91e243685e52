// Package cli implements the graphit command-line interface.
//
// The commands wrap the analysis pipeline: analyze runs it end to end,
// roots lists the root definitions of a codebase, graph expands a single
// definition, render redraws a saved graph document, and watch reruns the
// analysis whenever a Python file changes. Project defaults may live in a
// .graphit.toml file next to the code; explicit flags always win.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The root
// command attaches its logger to the command context so helpers can fetch
// it with loggerFromContext.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger writes leveled, timestamped ("15:04:05.00") records to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// quietLogger returns a copy of l that only reports warnings and errors,
// unless l is already at debug level. Interactive commands use it so stage
// logs do not tear through the spinner.
func quietLogger(l *log.Logger) *log.Logger {
	q := l.With()
	if l.GetLevel() > log.DebugLevel {
		q.SetLevel(log.WarnLevel)
	}
	return q
}

// progress times one command and logs a structured completion record.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with keyvals and the elapsed time, e.g.
//
//	INFO Analysis complete modules=42 graphs=7 elapsed=1.234s
func (p *progress) done(msg string, keyvals ...any) {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	p.logger.Info(msg, append(keyvals, "elapsed", elapsed)...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by the root command, or
// log.Default() for commands executed on their own.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
