// Package diagnostics collects non-fatal geometric warnings produced by
// parallel per-layer workers. It generalizes the teacher's
// Parser.Warnings() accumulate-then-display pattern to a
// concurrency-safe sink, since stage 1-7 workers run across many
// goroutines and must not interleave writes to a shared slice.
package diagnostics

import (
	"fmt"
	"sort"
	"sync"
)

// Warning is a single non-fatal geometric anomaly tied to a layer.
type Warning struct {
	Layer   int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("layer %d: %s", w.Layer, w.Message)
}

// Sink accumulates warnings from any number of goroutines.
type Sink struct {
	mu       sync.Mutex
	warnings []Warning
}

// NewSink creates an empty warning sink.
func NewSink() *Sink {
	return &Sink{}
}

// Warnf records a warning for the given layer. Safe for concurrent use.
func (s *Sink) Warnf(layer int, format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, Warning{Layer: layer, Message: fmt.Sprintf(format, args...)})
}

// All returns a snapshot of all recorded warnings ordered by layer, then
// insertion order within a layer. The pipeline does not guarantee
// cross-layer ordering of completion (§5), so warnings are explicitly
// sorted here rather than relied upon to arrive in layer order.
func (s *Sink) All() []Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Warning, len(s.warnings))
	copy(out, s.warnings)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Layer < out[j].Layer })
	return out
}

// Len reports how many warnings have been recorded so far.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.warnings)
}
