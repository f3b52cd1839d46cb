package engine

import (
	"context"
	"time"

	"github.com/volleyproj/volley/internal/metrics"
)

// Executor performs one request attempt and classifies the result. It must
// always return an Outcome value: every failure class, including context
// cancellation, is folded into the outcome rather than surfaced as an error.
// The engine relies on this to run unattended for the full duration.
type Executor interface {
	Execute(ctx context.Context) metrics.Outcome
}

// Recorder receives one outcome per completed attempt. Implementations must
// be safe for concurrent use.
type Recorder interface {
	Record(metrics.Outcome)
}

// ArrivalModel selects how slot fire times are spaced.
type ArrivalModel string

const (
	// ArrivalModelUniform fires slot i at exactly start + i/rate.
	ArrivalModelUniform ArrivalModel = "uniform"
	// ArrivalModelPoisson samples exponential inter-arrival gaps so the
	// long-run rate matches while individual gaps vary.
	ArrivalModelPoisson ArrivalModel = "poisson"
)

const defaultDrainGrace = 5 * time.Second

// Options configure the Engine.
type Options struct {
	Concurrency  int           // max in-flight executor calls (>= 1)
	Rate         float64       // target queries per second (> 0)
	Duration     time.Duration // admission window; no slot fires at or past start+Duration
	DrainGrace   time.Duration // abort only: max wait for in-flight attempts (0 = default, negative = none)
	Executor     Executor      // required
	Recorder     Recorder      // optional; nil discards outcomes
	ArrivalModel ArrivalModel

	// PoissonSampler overrides the exponential sampler, for tests.
	PoissonSampler func() float64
	RandomSeed     int64
}

func (o *Options) normalize() {
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.DrainGrace == 0 {
		o.DrainGrace = defaultDrainGrace
	}
	if o.ArrivalModel == "" {
		o.ArrivalModel = ArrivalModelUniform
	}
}
