package plannerctx

import (
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"fondsynth.dev/planner/internal/config"
)

func TestNewPopulatesCollaboratorsAndDefaultClock(t *testing.T) {
	cfg := &config.Config{}
	c := New(cfg, log.InfoLevel, nil)

	if c.Config != cfg {
		t.Errorf("expected Config to be the passed-in value")
	}
	if c.Logger == nil {
		t.Fatal("expected a non-nil logger")
	}
	if c.Metrics != nil {
		t.Errorf("expected nil Metrics to pass through unchanged")
	}
	if c.Now == nil {
		t.Fatal("expected a default clock")
	}
	before := time.Now()
	now := c.Now()
	after := time.Now()
	if now.Before(before) || now.After(after) {
		t.Errorf("expected default clock to return the current time, got %v outside [%v, %v]", now, before, after)
	}
}

func TestWithClockReturnsIndependentCopy(t *testing.T) {
	cfg := &config.Config{}
	c := New(cfg, log.InfoLevel, nil)

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := func() time.Time { return fixed }

	c2 := c.WithClock(fake)

	if got := c2.Now(); !got.Equal(fixed) {
		t.Errorf("c2.Now() = %v, want %v", got, fixed)
	}
	if c.Now == nil {
		t.Fatal("expected original clock to remain set")
	}
	if got := c.Now(); got.Equal(fixed) {
		t.Errorf("expected original Context's clock to be unaffected by WithClock")
	}
	if c2.Config != c.Config || c2.Logger != c.Logger || c2.Metrics != c.Metrics {
		t.Errorf("expected WithClock to preserve the other collaborators unchanged")
	}
}
