package main

import (
	"fmt"
	"io"
	"sync"

	"golang.org/x/time/rate"

	"github.com/volleyproj/volley/internal/engine"
	"github.com/volleyproj/volley/internal/metrics"
)

// loggingRecorder forwards every outcome and writes a line for each failure.
// Lines are throttled so a fully failing high-rate run cannot flood stderr.
type loggingRecorder struct {
	next    engine.Recorder
	limiter *rate.Limiter
	mu      sync.Mutex
	w       io.Writer
}

func newLoggingRecorder(next engine.Recorder, w io.Writer) *loggingRecorder {
	return &loggingRecorder{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(10), 10),
		w:       w,
	}
}

func (l *loggingRecorder) Record(o metrics.Outcome) {
	l.next.Record(o)
	if !o.Failed() || !l.limiter.Allow() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[volley] request failed (%s): %s\n", o.ErrorKey(), o.Message)
}
