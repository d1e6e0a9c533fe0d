// Package progress renders the terminal phase/step reporting spec.md's
// SPEC_FULL 2 (component 16) calls for during long epoch runs. Grounded on
// the teacher's Indicator (internal/progress/progress.go), repointed from
// LLM-call/review reporting to epoch/round/driver-case reporting.
package progress

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Indicator provides progress tracking for a solve run.
type Indicator struct {
	enabled bool
	mu      sync.Mutex
	phase   string
	step    string
	start   time.Time
}

// NewIndicator creates a new progress indicator. enabled gates all output,
// so a quiet/non-interactive CLI invocation can share the same call sites.
func NewIndicator(enabled bool) *Indicator {
	return &Indicator{
		enabled: enabled,
		start:   time.Now(),
	}
}

// Phase sets the current phase (e.g. "loading task", "solving").
func (p *Indicator) Phase(name string) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phase = name
	fmt.Printf("\n%s\n", name)
}

// Step sets the current step within a phase.
func (p *Indicator) Step(name string) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.step = name
	fmt.Printf("  |- %s\n", name)
}

// SubStep shows a sub-step.
func (p *Indicator) SubStep(name string) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Printf("  |  |- %s\n", name)
}

// Success marks a step as successful.
func (p *Indicator) Success(name string) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Printf("  `- OK %s\n", name)
}

// Error shows an error.
func (p *Indicator) Error(name string, err error) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Printf("  `- FAIL %s: %v\n", name, err)
}

// Info shows an informational message.
func (p *Indicator) Info(msg string) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Printf("  |  %s\n", msg)
}

// Epoch reports the start of one PRP epoch.
func (p *Indicator) Epoch(index, max int, timeLimit time.Duration, resumed bool) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	status := "fresh"
	if resumed {
		status = "resumed"
	}
	fmt.Printf("  |  |- epoch %d/%d (%s, budget %s)\n", index, max, status, timeLimit)
}

// EpochResult reports an epoch's driver verdict and wall time.
func (p *Indicator) EpochResult(outcome string, wall time.Duration) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Printf("  |  `- %s (%s)\n", outcome, formatDuration(wall))
}

// Round reports the start of one driver round within an epoch, with the
// incumbent PSGraph/FSAP-store sizes at the time.
func (p *Indicator) Round(index, psgraphSize, fsapSize int) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Printf("  |  |  round %d (psgraph=%s fsaps=%s)\n", index, formatNumber(psgraphSize), formatNumber(fsapSize))
}

// Elapsed returns time since start.
func (p *Indicator) Elapsed() time.Duration {
	return time.Since(p.start)
}

// Summary prints the final summary.
func (p *Indicator) Summary(success bool, details string) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	symbol := "OK"
	if !success {
		symbol = "FAIL"
	}

	elapsed := time.Since(p.start)
	fmt.Printf("\n%s complete in %s\n", symbol, formatDuration(elapsed))
	if details != "" {
		fmt.Printf("  %s\n", details)
	}
}

func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var parts []string
	for i := len(s); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		parts = append([]string{s[start:i]}, parts...)
	}
	return strings.Join(parts, ",")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}
