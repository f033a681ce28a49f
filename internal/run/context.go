// Package run holds the per-invocation state threaded through every stage:
// the strict/lenient mode, counters, warnings and the cleanup stack.
package run

import (
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/and161185/metricspush/internal/errs"
)

// Stats are the end-of-run counters.
type Stats struct {
	Processed       int
	Emitted         int
	SkippedInvalid  int
	SkippedFiltered int
	Warnings        int
}

type cleanup struct {
	name string
	once sync.Once
	fn   func() error
}

// Context is created once per invocation and is not safe for concurrent use.
type Context struct {
	Strict bool
	Log    *zap.SugaredLogger
	Stats  Stats

	cleanups []*cleanup
}

// New returns a run context. A nil logger is replaced with a no-op one.
func New(log *zap.SugaredLogger, strict bool) *Context {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Context{Strict: strict, Log: log}
}

// Warn logs a warning and counts it.
func (c *Context) Warn(msg string, keysAndValues ...any) {
	c.Stats.Warnings++
	c.Log.Warnw(msg, keysAndValues...)
}

// Check routes a recoverable failure through the run mode.
// Strict mode returns a Fatal carrying code; lenient mode records a warning and returns nil.
func (c *Context) Check(code errs.ExitCode, err error, keysAndValues ...any) error {
	if c.Strict {
		return errs.NewFatal(code, err)
	}
	c.Warn(err.Error(), keysAndValues...)
	return nil
}

// Defer registers fn to run when the context is closed.
// Each cleanup runs at most once even if Close is called repeatedly.
func (c *Context) Defer(name string, fn func() error) {
	c.cleanups = append(c.cleanups, &cleanup{name: name, fn: fn})
}

// Close runs every registered cleanup, newest first, and returns their combined errors.
// A failing cleanup never prevents the remaining ones from running.
func (c *Context) Close() error {
	var err error
	for i := len(c.cleanups) - 1; i >= 0; i-- {
		cl := c.cleanups[i]
		cl.once.Do(func() {
			if e := cl.fn(); e != nil {
				c.Log.Errorw("cleanup failed", "resource", cl.name, "error", e)
				err = multierr.Append(err, e)
			}
		})
	}
	return err
}

// LogSummary writes the end-of-run counters to the diagnostic log.
func (c *Context) LogSummary() {
	c.Log.Infow("run summary",
		"processed", c.Stats.Processed,
		"emitted", c.Stats.Emitted,
		"skipped_invalid", c.Stats.SkippedInvalid,
		"skipped_filtered", c.Stats.SkippedFiltered,
		"warnings", c.Stats.Warnings,
	)
}
