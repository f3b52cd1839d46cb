// Package report reduces a frozen outcome set into the final statistics
// document. Build is a pure function: calling it twice on the same outcomes
// yields identical reports.
package report

import (
	"math"
	"sort"

	"github.com/volleyproj/volley/internal/metrics"
)

// Report is the run's statistical summary. Latency fields are seconds,
// rounded to four decimal places, and cover successful requests only;
// failed attempts are timed but excluded from the latency statistics.
type Report struct {
	TotalRequests      int64               `json:"total_requests"`
	SuccessfulRequests int64               `json:"successful_requests"`
	FailedRequests     int64               `json:"failed_requests"`
	MeanLatency        float64             `json:"mean_latency"`
	MedianLatency      float64             `json:"median_latency"`
	StddevLatency      float64             `json:"stddev_latency"`
	MaxLatency         float64             `json:"max_latency"`
	MinLatency         float64             `json:"min_latency"`
	P90Latency         float64             `json:"90th_percentile_latency"`
	DetailedErrors     map[string][]string `json:"detailed_errors"`
}

// Build computes the report from the complete outcome set of a finished run.
// With zero successful outcomes every latency field is zero; the function
// never faults on empty or degenerate input.
func Build(outcomes []metrics.Outcome) Report {
	rep := Report{
		TotalRequests:  int64(len(outcomes)),
		DetailedErrors: map[string][]string{},
	}

	latencies := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Failed() {
			rep.FailedRequests++
			key := o.ErrorKey()
			rep.DetailedErrors[key] = append(rep.DetailedErrors[key], o.Message)
			continue
		}
		rep.SuccessfulRequests++
		latencies = append(latencies, o.Latency.Seconds())
	}

	if len(latencies) == 0 {
		return rep
	}

	sort.Float64s(latencies)
	rep.MinLatency = round4(latencies[0])
	rep.MaxLatency = round4(latencies[len(latencies)-1])
	rep.MeanLatency = round4(mean(latencies))
	rep.MedianLatency = round4(percentile(latencies, 50))
	rep.StddevLatency = round4(stddev(latencies))
	rep.P90Latency = round4(percentile(latencies, 90))
	return rep
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation (n-1 divisor). A single sample has
// no spread and yields 0.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

// percentile interpolates linearly between order statistics: the p-th
// percentile of n sorted values sits at rank p/100*(n-1), with fractional
// ranks resolved by interpolation between the two neighboring values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
