// Package engine is the rate-paced concurrent dispatch core.
//
// An [Engine] runs one load test: for the configured duration it admits
// request attempts on a fixed schedule, bounds how many execute at once, and
// delivers every outcome to a [Recorder]. The lifecycle is a strict state
// machine (idle, running, draining, completed) observable via [Engine.State]
// and [Engine.Progress].
//
// # Pacing
//
// The default uniform model schedules slot i at exactly start + i/rate,
// decoupling the offered rate from server latency: a slow target shows up as
// permit-wait saturation, never as a reduced or burst-compensated schedule.
// When admission falls behind, overdue slots fire immediately but the grid
// itself never moves. The optional Poisson model samples exponential
// inter-arrival gaps instead, for traffic with realistic jitter.
//
// # Concurrency
//
// A fixed pool of Concurrency workers drains an unbuffered permit channel.
// Admission of a slot is the (blocking) send of its permit; completion order
// across workers is unconstrained. The permit pool and the recorder are the
// only shared mutable state.
//
// # Termination
//
// When the schedule is exhausted the engine stops admitting and drains all
// in-flight attempts to natural completion. External cancellation instead
// cancels in-flight executor contexts and bounds the drain by DrainGrace;
// outcomes that miss the cutoff are dropped from the run's totals.
//
// There are no retries at this layer: a failed attempt is recorded as failed
// and never re-issued, so the offered load matches the schedule exactly.
package engine
