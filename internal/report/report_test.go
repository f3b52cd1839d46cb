package report

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/volleyproj/volley/internal/metrics"
)

func successes(latencies ...time.Duration) []metrics.Outcome {
	out := make([]metrics.Outcome, 0, len(latencies))
	for _, l := range latencies {
		out = append(out, metrics.Success(time.Now(), l, 200))
	}
	return out
}

func TestBuildPinnedStatistics(t *testing.T) {
	outcomes := successes(
		100*time.Millisecond,
		110*time.Millisecond,
		120*time.Millisecond,
		130*time.Millisecond,
		140*time.Millisecond,
	)

	rep := Build(outcomes)

	if rep.TotalRequests != 5 || rep.SuccessfulRequests != 5 || rep.FailedRequests != 0 {
		t.Fatalf("unexpected counts: %+v", rep)
	}
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"mean", rep.MeanLatency, 0.12},
		{"median", rep.MedianLatency, 0.12},
		// Sample stddev of [0.10..0.14] is sqrt(0.00025) = 0.015811..,
		// rounded to 0.0158.
		{"stddev", rep.StddevLatency, 0.0158},
		{"min", rep.MinLatency, 0.1},
		{"max", rep.MaxLatency, 0.14},
		// Interpolated p90: rank 0.9*(5-1)=3.6 -> 0.13 + 0.6*0.01 = 0.136.
		{"p90", rep.P90Latency, 0.136},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s latency = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestBuildErrorGrouping(t *testing.T) {
	now := time.Now()
	outcomes := []metrics.Outcome{
		metrics.HTTPFailure(now, 5*time.Millisecond, 500, "Internal Server Error"),
		metrics.HTTPFailure(now, 6*time.Millisecond, 500, "Internal Server Error"),
		metrics.TransportFailure(now, 7*time.Millisecond, "timeout"),
	}

	rep := Build(outcomes)

	want := map[string][]string{
		"500":        {"Internal Server Error", "Internal Server Error"},
		"exceptions": {"timeout"},
	}
	if !reflect.DeepEqual(rep.DetailedErrors, want) {
		t.Fatalf("detailed errors = %v, want %v", rep.DetailedErrors, want)
	}
	if rep.FailedRequests != 3 || rep.SuccessfulRequests != 0 {
		t.Fatalf("unexpected counts: %+v", rep)
	}
}

func TestBuildZeroSuccessesYieldsZeroLatencies(t *testing.T) {
	outcomes := []metrics.Outcome{
		metrics.HTTPFailure(time.Now(), 50*time.Millisecond, 502, "Bad Gateway"),
		metrics.TransportFailure(time.Now(), 30*time.Millisecond, "connection refused"),
	}

	rep := Build(outcomes)

	if rep.TotalRequests != 2 || rep.FailedRequests != 2 {
		t.Fatalf("unexpected counts: %+v", rep)
	}
	for name, v := range map[string]float64{
		"mean":   rep.MeanLatency,
		"median": rep.MedianLatency,
		"stddev": rep.StddevLatency,
		"min":    rep.MinLatency,
		"max":    rep.MaxLatency,
		"p90":    rep.P90Latency,
	} {
		if v != 0 {
			t.Errorf("%s latency = %v on zero-success run, want 0", name, v)
		}
	}
}

func TestBuildEmptyOutcomeSet(t *testing.T) {
	rep := Build(nil)
	if rep.TotalRequests != 0 {
		t.Fatalf("unexpected totals: %+v", rep)
	}
	if rep.DetailedErrors == nil {
		t.Fatalf("detailed errors map must be non-nil for stable JSON output")
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	outcomes := append(successes(10*time.Millisecond, 20*time.Millisecond),
		metrics.HTTPFailure(time.Now(), time.Millisecond, 404, "Not Found"))

	first := Build(outcomes)
	second := Build(outcomes)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("two builds over the same outcomes differ:\n%+v\n%+v", first, second)
	}
}

func TestBuildCountsPartition(t *testing.T) {
	outcomes := append(successes(time.Millisecond, 2*time.Millisecond, 3*time.Millisecond),
		metrics.TransportFailure(time.Now(), time.Millisecond, "reset"),
		metrics.HTTPFailure(time.Now(), time.Millisecond, 500, "boom"),
	)

	rep := Build(outcomes)
	if rep.SuccessfulRequests+rep.FailedRequests != rep.TotalRequests {
		t.Fatalf("counts do not partition: %+v", rep)
	}
}

func TestBuildSingleSuccess(t *testing.T) {
	rep := Build(successes(250 * time.Millisecond))
	if rep.StddevLatency != 0 {
		t.Fatalf("single sample has no spread, got stddev %v", rep.StddevLatency)
	}
	if rep.MedianLatency != 0.25 || rep.P90Latency != 0.25 {
		t.Fatalf("single-sample order statistics wrong: %+v", rep)
	}
}

func TestPercentileInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{50, 2.5},
		{90, 3.7},
		{100, 4},
	}
	for _, c := range cases {
		if got := percentile(sorted, c.p); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("percentile(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}
