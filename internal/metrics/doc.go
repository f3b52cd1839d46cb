// Package metrics defines the per-request Outcome type and the Collector
// that accumulates outcomes during a run.
//
// The [Collector] is the only sink for results: request executors classify
// each attempt as success, HTTP error, or transport error and hand the
// resulting [Outcome] to [Collector.Record], which is safe to call from any
// number of concurrently completing attempts.
//
// Two consumers read from the collector:
//
//   - live progress (progress line, dashboard) uses [Collector.Snapshot],
//     which is backed by running counters and an HdrHistogram and is cheap
//     enough to poll every second
//   - the final report uses [Collector.Outcomes] after the run has drained,
//     and recomputes exact statistics from the raw outcome set
package metrics
