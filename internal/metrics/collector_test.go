package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestOutcomeClassification(t *testing.T) {
	now := time.Now()

	ok := Success(now, 10*time.Millisecond, 204)
	if ok.Failed() {
		t.Fatalf("success outcome reported as failed")
	}
	if key := ok.ErrorKey(); key != "" {
		t.Fatalf("success outcome has error key %q", key)
	}

	httpErr := HTTPFailure(now, 5*time.Millisecond, 503, "Service Unavailable")
	if !httpErr.Failed() {
		t.Fatalf("http error outcome not failed")
	}
	if key := httpErr.ErrorKey(); key != "503" {
		t.Fatalf("expected error key 503, got %q", key)
	}

	transport := TransportFailure(now, time.Millisecond, "connection refused")
	if !transport.Failed() {
		t.Fatalf("transport outcome not failed")
	}
	if key := transport.ErrorKey(); key != ExceptionsKey {
		t.Fatalf("expected error key %q, got %q", ExceptionsKey, key)
	}
}

func TestCollectorRecordConcurrent(t *testing.T) {
	c := NewCollector()

	const workers = 16
	const perWorker = 200

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				start := time.Now()
				switch i % 3 {
				case 0:
					c.Record(Success(start, 10*time.Millisecond, 200))
				case 1:
					c.Record(HTTPFailure(start, 5*time.Millisecond, 500, "Internal Server Error"))
				default:
					c.Record(TransportFailure(start, time.Millisecond, "timeout"))
				}
			}
		}(w)
	}
	wg.Wait()

	snap := c.Snapshot()
	total := int64(workers * perWorker)
	if snap.Total != total {
		t.Fatalf("expected %d recorded outcomes, got %d", total, snap.Total)
	}
	if snap.Successes+snap.Failures != snap.Total {
		t.Fatalf("counts do not partition: %d + %d != %d", snap.Successes, snap.Failures, snap.Total)
	}
	if got := len(c.Outcomes()); int64(got) != total {
		t.Fatalf("outcome slice has %d entries, want %d", got, total)
	}
	if snap.Errors["500"] == 0 || snap.Errors[ExceptionsKey] == 0 {
		t.Fatalf("error counts missing: %v", snap.Errors)
	}
}

func TestCollectorSnapshotPercentiles(t *testing.T) {
	c := NewCollector()
	for i := 1; i <= 100; i++ {
		c.Record(Success(time.Now(), time.Duration(i)*time.Millisecond, 200))
	}

	snap := c.Snapshot()
	if snap.P50LatencyMs <= 0 || snap.P90LatencyMs <= 0 {
		t.Fatalf("expected positive percentile snapshot, got %+v", snap)
	}
	if snap.P90LatencyMs < snap.P50LatencyMs {
		t.Fatalf("p90 (%f) below p50 (%f)", snap.P90LatencyMs, snap.P50LatencyMs)
	}
	// Histogram precision is 3 significant figures; allow a loose band.
	if snap.P90LatencyMs < 85 || snap.P90LatencyMs > 95 {
		t.Fatalf("p90 out of expected band: %f", snap.P90LatencyMs)
	}
}

func TestCollectorFailuresExcludedFromHistogram(t *testing.T) {
	c := NewCollector()
	c.Record(HTTPFailure(time.Now(), time.Second, 500, "boom"))
	c.Record(TransportFailure(time.Now(), 2*time.Second, "refused"))

	snap := c.Snapshot()
	if snap.P50LatencyMs != 0 {
		t.Fatalf("failed latencies leaked into histogram: %+v", snap)
	}
	if snap.Failures != 2 || snap.Successes != 0 {
		t.Fatalf("unexpected counts: %+v", snap)
	}
}

func TestCollectorOutcomesIsACopy(t *testing.T) {
	c := NewCollector()
	c.Record(Success(time.Now(), time.Millisecond, 200))

	first := c.Outcomes()
	first[0].StatusCode = 999

	second := c.Outcomes()
	if second[0].StatusCode != 200 {
		t.Fatalf("mutating the returned slice affected the collector")
	}
}
