// Package plannerctx bundles the planner's process-wide collaborators —
// configuration, logger, metrics sink, and clock — into one value threaded
// explicitly through the driver and PRP wrapper, per spec.md 9. The
// teacher instead reaches for the charmbracelet/log package-level logger
// from anywhere in the call graph; this package keeps that same logger
// type but carries an instance explicitly instead of relying on package
// state, so a test can swap in a silent logger or a fake clock without
// touching global variables.
package plannerctx

import (
	"os"
	"time"

	"github.com/charmbracelet/log"

	"fondsynth.dev/planner/internal/config"
	"fondsynth.dev/planner/internal/o11y"
)

// Clock abstracts time.Now so epoch-resume tests can inject a fake clock
// instead of racing the wall clock.
type Clock func() time.Time

// Context bundles the planner's ambient collaborators.
type Context struct {
	Config  *config.Config
	Logger  *log.Logger
	Metrics *o11y.Metrics
	Now     Clock
}

// New builds a Context from cfg, a logger at the given level, and an
// optional metrics sink (nil disables metrics entirely, distinct from a
// Metrics with no push gateway configured, which still collects locally).
func New(cfg *config.Config, level log.Level, metrics *o11y.Metrics) *Context {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return &Context{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Now:     time.Now,
	}
}

// WithClock returns a copy of c using clock in place of time.Now, for
// deterministic epoch-resume tests.
func (c *Context) WithClock(clock Clock) *Context {
	cp := *c
	cp.Now = clock
	return &cp
}
