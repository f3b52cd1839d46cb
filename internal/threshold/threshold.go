// Package threshold parses and evaluates pass/fail assertions over a
// finished run report, so load tests can gate CI pipelines.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/volleyproj/volley/internal/report"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // "latency", "failed", "requests"
	Aggregate string  // e.g. "p90", "mean", "max", "rate", "count"
	Operator  string  // "<", "<=", ">", ">=", "=="
	Value     float64 // value to compare against
	Raw       string  // original threshold string for display
}

// Result represents the outcome of evaluating a single threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

var thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses a threshold string into a Threshold.
// Supported formats:
//   - "latency:p90 < 0.5"      (latency aggregate in seconds)
//   - "latency:mean < 0.2"
//   - "failed:rate < 0.01"     (failure rate as a decimal fraction)
//   - "failed:count == 0"      (failure count)
//   - "requests:rate > 100"    (achieved requests per second)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected metric:aggregate operator value, e.g. 'latency:p90 < 0.5')", s)
	}

	metric, aggregate, operator := matches[1], matches[2], matches[3]
	value, err := strconv.ParseFloat(matches[4], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", matches[4], err)
	}

	if _, ok := metricAggregates[metric]; !ok {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: latency, failed, requests)", metric)
	}
	if !contains(metricAggregates[metric], aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for metric %q (supported: %s)",
			aggregate, metric, strings.Join(metricAggregates[metric], ", "))
	}
	if !contains(operators, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings, collecting all errors.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string
	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}
	return result, nil
}

var metricAggregates = map[string][]string{
	"latency":  {"mean", "avg", "median", "p90", "min", "max", "stddev"},
	"failed":   {"count", "rate"},
	"requests": {"count", "rate"},
}

var operators = []string{"<", "<=", ">", ">=", "=="}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Evaluator evaluates thresholds against a finished report.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate checks all thresholds against the report. The elapsed wall-clock
// time of the run is needed for rate aggregates.
func (e *Evaluator) Evaluate(rep report.Report, elapsed time.Duration) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		actual := extractValue(t, rep, elapsed)
		pass := compare(actual, t.Operator, t.Value)
		status := "PASS"
		if !pass {
			status = "FAIL"
		}
		results = append(results, Result{
			Threshold: t,
			Actual:    actual,
			Pass:      pass,
			Message:   fmt.Sprintf("%s %s (actual %.4f %s %.4f)", status, t.Raw, actual, t.Operator, t.Value),
		})
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func extractValue(t Threshold, rep report.Report, elapsed time.Duration) float64 {
	switch t.Metric {
	case "latency":
		switch t.Aggregate {
		case "mean", "avg":
			return rep.MeanLatency
		case "median":
			return rep.MedianLatency
		case "p90":
			return rep.P90Latency
		case "min":
			return rep.MinLatency
		case "max":
			return rep.MaxLatency
		case "stddev":
			return rep.StddevLatency
		}
	case "failed":
		switch t.Aggregate {
		case "count":
			return float64(rep.FailedRequests)
		case "rate":
			if rep.TotalRequests == 0 {
				return 0
			}
			return float64(rep.FailedRequests) / float64(rep.TotalRequests)
		}
	case "requests":
		switch t.Aggregate {
		case "count":
			return float64(rep.TotalRequests)
		case "rate":
			if elapsed <= 0 {
				return 0
			}
			return float64(rep.TotalRequests) / elapsed.Seconds()
		}
	}
	return 0
}

func compare(actual float64, operator string, expected float64) bool {
	const epsilon = 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
