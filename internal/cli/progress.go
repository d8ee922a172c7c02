package cli

import (
	"fmt"
	"io"
	"time"
)

// ProgressTracker tracks a single phase's layer-completion progress and
// throttles how often Display actually writes, generalizing the
// teacher's line-oriented ProgressTracker to the slicer's per-phase,
// per-layer units (§5).
type ProgressTracker struct {
	total        int
	current      int
	lastUpdate   int
	lastUpdateAt time.Time
}

// NewProgressTracker creates a tracker for a phase with the given
// number of layers.
func NewProgressTracker(total int) *ProgressTracker {
	if total <= 0 {
		total = 1
	}
	return &ProgressTracker{total: total}
}

// Update records the current completion count.
func (p *ProgressTracker) Update(current int) {
	p.current = current
}

// ShouldUpdate reports whether enough layers or time have passed since
// the last display to warrant another one: every 100 layers or every 2
// seconds, whichever comes first (the teacher's "every 10,000 lines or
// 2 seconds" throttle, scaled down to per-layer granularity).
func (p *ProgressTracker) ShouldUpdate(now time.Time) bool {
	if p.current-p.lastUpdate >= 100 {
		return true
	}
	return now.Sub(p.lastUpdateAt) >= 2*time.Second
}

// PercentComplete returns completion as a percentage.
func (p *ProgressTracker) PercentComplete() float64 {
	return float64(p.current) / float64(p.total) * 100.0
}

// Display writes a single-line, carriage-return-overwritten progress
// line for phase to w, and records that a display happened now.
func (p *ProgressTracker) Display(w io.Writer, phase string, now time.Time) {
	fmt.Fprintf(w, "\r%s: %s / %s layers (%.1f%%)    ",
		phase, FormatNumber(p.current), FormatNumber(p.total), p.PercentComplete())
	p.lastUpdate = p.current
	p.lastUpdateAt = now
}

// ClearLine overwrites the current progress line with blanks, used once
// slicing finishes so the final summary prints cleanly below it.
func ClearLine(w io.Writer) {
	blank := make([]byte, 100)
	for i := range blank {
		blank[i] = ' '
	}
	fmt.Fprint(w, "\r"+string(blank)+"\r")
}
