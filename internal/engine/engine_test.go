package engine_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/volleyproj/volley/internal/engine"
	"github.com/volleyproj/volley/internal/metrics"
)

// fakeExecutor simulates an attempt with fixed latency and tracks the
// concurrent-call high-water mark.
type fakeExecutor struct {
	latency   time.Duration
	fail      bool
	calls     atomic.Int64
	inFlight  atomic.Int64
	highWater atomic.Int64
}

func (f *fakeExecutor) Execute(ctx context.Context) metrics.Outcome {
	f.calls.Add(1)
	cur := f.inFlight.Add(1)
	for {
		max := f.highWater.Load()
		if cur <= max || f.highWater.CompareAndSwap(max, cur) {
			break
		}
	}
	defer f.inFlight.Add(-1)

	start := time.Now()
	if f.latency > 0 {
		select {
		case <-time.After(f.latency):
		case <-ctx.Done():
			return metrics.TransportFailure(start, time.Since(start), ctx.Err().Error())
		}
	}
	if f.fail {
		return metrics.HTTPFailure(start, time.Since(start), 500, "Internal Server Error")
	}
	return metrics.Success(start, time.Since(start), 200)
}

func TestEngineAdmitsAtConfiguredRate(t *testing.T) {
	exec := &fakeExecutor{}
	collector := metrics.NewCollector()
	e := engine.New(engine.Options{
		Concurrency: 8,
		Rate:        100,
		Duration:    300 * time.Millisecond,
		Executor:    exec,
		Recorder:    collector,
	})

	res := e.Run(context.Background())

	// 100 qps over 300ms schedules 30 slots; allow scheduling fudge but
	// catch both rate overshoot and starvation.
	if res.Admitted < 24 || res.Admitted > 33 {
		t.Fatalf("admitted %d attempts, expected about 30", res.Admitted)
	}
	if res.Recorded != res.Admitted {
		t.Fatalf("drain incomplete: recorded %d of %d", res.Recorded, res.Admitted)
	}
	if got := exec.calls.Load(); got != res.Admitted {
		t.Fatalf("executor called %d times, admitted %d", got, res.Admitted)
	}

	snap := collector.Snapshot()
	if snap.Successes+snap.Failures != snap.Total {
		t.Fatalf("outcome counts do not partition: %+v", snap)
	}
	if snap.Total != res.Admitted {
		t.Fatalf("collector holds %d outcomes, admitted %d", snap.Total, res.Admitted)
	}
}

func TestEngineNeverExceedsConcurrencyLimit(t *testing.T) {
	exec := &fakeExecutor{latency: 10 * time.Millisecond}
	e := engine.New(engine.Options{
		Concurrency: 3,
		Rate:        500, // schedule far faster than 3 workers can drain
		Duration:    150 * time.Millisecond,
		Executor:    exec,
	})

	e.Run(context.Background())

	if hw := exec.highWater.Load(); hw > 3 {
		t.Fatalf("concurrent executor calls peaked at %d, limit 3", hw)
	}
}

// serialExecutor records the wall-clock window of every call so overlap can
// be asserted afterwards.
type serialExecutor struct {
	mu      sync.Mutex
	windows [][2]time.Time
}

func (s *serialExecutor) Execute(ctx context.Context) metrics.Outcome {
	start := time.Now()
	time.Sleep(3 * time.Millisecond)
	end := time.Now()

	s.mu.Lock()
	s.windows = append(s.windows, [2]time.Time{start, end})
	s.mu.Unlock()
	return metrics.Success(start, end.Sub(start), 200)
}

func TestConcurrencyOneSerializesAttempts(t *testing.T) {
	exec := &serialExecutor{}
	e := engine.New(engine.Options{
		Concurrency: 1,
		Rate:        1000,
		Duration:    80 * time.Millisecond,
		Executor:    exec,
	})

	res := e.Run(context.Background())
	if res.Admitted < 2 {
		t.Fatalf("expected multiple attempts, got %d", res.Admitted)
	}

	exec.mu.Lock()
	defer exec.mu.Unlock()
	for i := 1; i < len(exec.windows); i++ {
		prev, cur := exec.windows[i-1], exec.windows[i]
		if cur[0].Before(prev[1]) {
			t.Fatalf("attempt %d started at %s before attempt %d ended at %s",
				i, cur[0], i-1, prev[1])
		}
	}
}

func TestEngineStateMachine(t *testing.T) {
	exec := &fakeExecutor{}
	e := engine.New(engine.Options{
		Concurrency: 1,
		Rate:        50,
		Duration:    60 * time.Millisecond,
		Executor:    exec,
	})

	if e.State() != engine.StateIdle {
		t.Fatalf("expected idle before run, got %s", e.State())
	}

	e.Run(context.Background())

	if e.State() != engine.StateCompleted {
		t.Fatalf("expected completed after run, got %s", e.State())
	}

	p := e.Progress()
	if p.Admitted != p.Recorded {
		t.Fatalf("progress mismatch after completion: %+v", p)
	}
}

func TestEngineAbortStopsAdmission(t *testing.T) {
	exec := &fakeExecutor{}
	e := engine.New(engine.Options{
		Concurrency: 2,
		Rate:        100,
		Duration:    5 * time.Second,
		DrainGrace:  time.Second,
		Executor:    exec,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := e.Run(ctx)
	if !res.Aborted {
		t.Fatalf("expected aborted result")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("abort did not stop admission promptly: ran %s", elapsed)
	}
	// ~10 slots fit into 100ms at 100 qps.
	if res.Admitted > 20 {
		t.Fatalf("admitted %d attempts after abort, expected about 10", res.Admitted)
	}
}

// stubbornExecutor ignores cancellation for longer than the drain grace.
type stubbornExecutor struct{}

func (stubbornExecutor) Execute(ctx context.Context) metrics.Outcome {
	start := time.Now()
	<-ctx.Done()
	time.Sleep(300 * time.Millisecond)
	return metrics.TransportFailure(start, time.Since(start), ctx.Err().Error())
}

func TestEngineAbortGraceCutoffDropsStragglers(t *testing.T) {
	e := engine.New(engine.Options{
		Concurrency: 1,
		Rate:        100,
		Duration:    5 * time.Second,
		DrainGrace:  30 * time.Millisecond,
		Executor:    stubbornExecutor{},
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	res := e.Run(ctx)
	if !res.Aborted {
		t.Fatalf("expected aborted result")
	}
	if res.Recorded >= res.Admitted {
		t.Fatalf("expected straggler outcomes dropped: recorded %d of %d",
			res.Recorded, res.Admitted)
	}
}

func TestEngineDurationEndsAdmissionNotInFlightWork(t *testing.T) {
	// A single slow attempt admitted near the end of the window must still
	// complete and be recorded during the drain.
	exec := &fakeExecutor{latency: 80 * time.Millisecond}
	collector := metrics.NewCollector()
	e := engine.New(engine.Options{
		Concurrency: 1,
		Rate:        10,
		Duration:    50 * time.Millisecond,
		Executor:    exec,
		Recorder:    collector,
	})

	res := e.Run(context.Background())
	if res.Aborted {
		t.Fatalf("unexpected abort")
	}
	if res.Recorded != res.Admitted {
		t.Fatalf("in-flight attempt not drained: recorded %d of %d",
			res.Recorded, res.Admitted)
	}
	if res.Duration < 80*time.Millisecond {
		t.Fatalf("run returned before the in-flight attempt finished: %s", res.Duration)
	}
}
