package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// State tracks the engine lifecycle. Transitions are strictly
// Idle -> Running -> Draining -> Completed.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDraining
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Result summarizes a finished run.
type Result struct {
	Admitted int64 // attempts handed to the executor
	Recorded int64 // outcomes delivered to the recorder before Run returned
	Duration time.Duration
	Aborted  bool // run was cancelled externally before the admission window closed
}

// Progress is a live snapshot for periodic reporting.
type Progress struct {
	State    State
	Admitted int64
	Recorded int64
	Elapsed  time.Duration
}

// Engine paces request admission at the configured rate, bounds in-flight
// concurrency, and drains outstanding attempts before reporting. An Engine
// runs once; create a new one per run.
type Engine struct {
	opt   Options
	state atomic.Int32

	start    time.Time
	admitted atomic.Int64
	recorded atomic.Int64
}

func New(opt Options) *Engine {
	opt.normalize()
	return &Engine{opt: opt}
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Progress returns counts-so-far. Safe to call concurrently with Run.
func (e *Engine) Progress() Progress {
	p := Progress{
		State:    e.State(),
		Admitted: e.admitted.Load(),
		Recorded: e.recorded.Load(),
	}
	if p.State != StateIdle {
		p.Elapsed = time.Since(e.start)
	}
	return p
}

// Run executes the load schedule and blocks until the run completes or, on
// external cancellation, until in-flight attempts finish or the drain grace
// period expires. Outcomes not recorded before that cutoff are dropped.
func (e *Engine) Run(ctx context.Context) Result {
	e.start = time.Now()
	deadline := e.start.Add(e.opt.Duration)
	pace := newPacer(e.opt, e.start)

	// Executor contexts are independent of the admission context: closing
	// the admission window must not cancel attempts already in flight.
	execCtx, cancelExec := context.WithCancel(context.Background())
	defer cancelExec()

	// The permit channel is the concurrency governor. It is unbuffered and
	// drained by exactly Concurrency workers, so a send blocks until some
	// worker is free to take the attempt, and no more than Concurrency
	// executor calls are ever active at once.
	permits := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(e.opt.Concurrency)
	for i := 0; i < e.opt.Concurrency; i++ {
		go func() {
			defer wg.Done()
			for range permits {
				out := e.opt.Executor.Execute(execCtx)
				if e.opt.Recorder != nil {
					e.opt.Recorder.Record(out)
				}
				e.recorded.Add(1)
			}
		}()
	}

	e.state.Store(int32(StateRunning))

	if e.opt.Rate > 0 && e.opt.Duration > 0 {
	admission:
		for {
			fire := pace.next()
			if !fire.Before(deadline) {
				break
			}
			// A fire time already in the past means the previous slot's
			// permit wait overran the schedule; the slot fires immediately
			// and the grid is not compressed to catch up.
			if err := sleepUntil(ctx, fire); err != nil {
				break
			}
			select {
			case permits <- struct{}{}:
				e.admitted.Add(1)
			case <-ctx.Done():
				break admission
			}
		}
	}

	close(permits)
	e.state.Store(int32(StateDraining))

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	aborted := ctx.Err() != nil
	if aborted {
		cancelExec()
		grace := e.opt.DrainGrace
		if grace < 0 {
			grace = 0
		}
		timer := time.NewTimer(grace)
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
			// Hard cutoff: workers still blocked on a cancelled attempt are
			// abandoned and their outcomes excluded from the report.
		}
	} else {
		<-done
	}

	e.state.Store(int32(StateCompleted))
	return Result{
		Admitted: e.admitted.Load(),
		Recorded: e.recorded.Load(),
		Duration: time.Since(e.start),
		Aborted:  aborted,
	}
}

// sleepUntil waits for wall clock to reach t, returning early if ctx is
// cancelled. Fire times in the past return immediately.
func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
