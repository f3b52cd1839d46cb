package engine

import (
	"math"
	"math/rand"
	"time"
)

// pacer produces the scheduled fire time of each successive slot. Returned
// times are monotonically non-decreasing. The engine decides termination by
// comparing fire times against the admission deadline, and never waits for a
// fire time that has already passed.
type pacer interface {
	next() time.Time
}

func newPacer(opt Options, start time.Time) pacer {
	if opt.ArrivalModel == ArrivalModelPoisson {
		sample := opt.PoissonSampler
		if sample == nil {
			seeded := rand.New(rand.NewSource(opt.RandomSeed))
			sample = seeded.ExpFloat64
		}
		return &poissonPacer{at: start, rate: opt.Rate, sample: sample}
	}
	return &uniformPacer{start: start, rate: opt.Rate}
}

// uniformPacer places slot i at exactly start + i/rate. The grid is fixed at
// run start: a slot whose admission overran its fire time does not shift the
// schedule, so lag never turns into a compensating burst.
type uniformPacer struct {
	start time.Time
	rate  float64
	slot  int64
}

func (p *uniformPacer) next() time.Time {
	offset := float64(p.slot) / p.rate * float64(time.Second)
	p.slot++
	return p.start.Add(time.Duration(offset))
}

// poissonPacer accumulates exponential inter-arrival gaps, approximating a
// Poisson arrival process with the configured mean rate.
type poissonPacer struct {
	at     time.Time
	rate   float64
	sample func() float64
}

func (p *poissonPacer) next() time.Time {
	fire := p.at
	gap := p.sample() / p.rate * float64(time.Second)
	if gap > math.MaxInt64 {
		gap = math.MaxInt64
	}
	p.at = p.at.Add(time.Duration(gap))
	return fire
}
