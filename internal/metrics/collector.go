package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector is the concurrency-safe outcome recorder. Every completed request
// attempt is recorded exactly once; the accumulated outcome set is read only
// after the run has drained. Alongside the raw outcomes it maintains an
// HdrHistogram and running counters so that live progress views are cheap.
type Collector struct {
	mu        sync.Mutex
	outcomes  []Outcome
	hist      *hdrhistogram.Histogram
	successes int64
	failures  int64
	errCounts map[string]int64
	start     time.Time
}

// Snapshot is a point-in-time view of the collector for live reporting.
// Percentiles come from the histogram and are approximate; the final report
// recomputes exact statistics from the frozen outcome set.
type Snapshot struct {
	Total          int64
	Successes      int64
	Failures       int64
	RequestsPerSec float64
	P50LatencyMs   float64
	P90LatencyMs   float64
	P99LatencyMs   float64
	Errors         map[string]int64
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:      h,
		errCounts: make(map[string]int64),
		start:     time.Now(),
	}
}

// Start marks the run start time so RequestsPerSec in snapshots reflects the
// actual test window rather than collector construction time.
func (c *Collector) Start() {
	c.mu.Lock()
	c.start = time.Now()
	c.mu.Unlock()
}

// Record appends one outcome. Safe for concurrent use.
func (c *Collector) Record(o Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.outcomes = append(c.outcomes, o)

	if o.Failed() {
		c.failures++
		c.errCounts[o.ErrorKey()]++
		return
	}

	c.successes++
	// The histogram tracks successful latencies only, matching the
	// success-only latency statistics of the final report.
	us := o.Latency.Microseconds()
	if us < c.hist.LowestTrackableValue() {
		us = c.hist.LowestTrackableValue()
	}
	if us > c.hist.HighestTrackableValue() {
		us = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(us)
}

// Snapshot returns current aggregate counts for progress display.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Total:     c.successes + c.failures,
		Successes: c.successes,
		Failures:  c.failures,
	}

	elapsed := time.Since(c.start)
	if elapsed > 0 && snap.Total > 0 {
		snap.RequestsPerSec = float64(snap.Total) / elapsed.Seconds()
	}

	if c.hist.TotalCount() > 0 {
		snap.P50LatencyMs = float64(c.hist.ValueAtQuantile(50)) / 1000
		snap.P90LatencyMs = float64(c.hist.ValueAtQuantile(90)) / 1000
		snap.P99LatencyMs = float64(c.hist.ValueAtQuantile(99)) / 1000
	}

	if len(c.errCounts) > 0 {
		snap.Errors = make(map[string]int64, len(c.errCounts))
		for k, v := range c.errCounts {
			snap.Errors[k] = v
		}
	}

	return snap
}

// Outcomes returns a copy of the recorded outcome set in arrival order.
// Call only after the run has completed; outcomes recorded afterwards (late
// arrivals past the abort cutoff) are not reflected in the returned slice.
func (c *Collector) Outcomes() []Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Outcome, len(c.outcomes))
	copy(out, c.outcomes)
	return out
}
