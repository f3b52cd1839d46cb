package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/volleyproj/volley/internal/config"
	"github.com/volleyproj/volley/internal/httpclient"
	"github.com/volleyproj/volley/internal/metrics"
	"github.com/volleyproj/volley/internal/report"
)

func newExecutor(t *testing.T, cfg *config.Config) *httpExecutor {
	t.Helper()
	builder, err := httpclient.NewRequestBuilder(cfg)
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	return &httpExecutor{
		client:  httpclient.NewClient(5 * time.Second),
		builder: builder,
		method:  cfg.Method,
		target:  cfg.TargetURL,
	}
}

func TestHTTPExecutorSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	out := newExecutor(t, &config.Config{TargetURL: srv.URL}).Execute(context.Background())
	if out.Failed() {
		t.Fatalf("expected success, got %+v", out)
	}
	if out.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", out.StatusCode)
	}
	if out.Latency <= 0 {
		t.Fatalf("latency = %s", out.Latency)
	}
}

func TestHTTPExecutorHTTPFailureCapturesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("backend exploded"))
	}))
	defer srv.Close()

	out := newExecutor(t, &config.Config{TargetURL: srv.URL}).Execute(context.Background())
	if out.Class != metrics.ClassHTTPError || out.StatusCode != 500 {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Message != "backend exploded" {
		t.Fatalf("message = %q", out.Message)
	}
	if out.ErrorKey() != "500" {
		t.Fatalf("error key = %q", out.ErrorKey())
	}
}

func TestHTTPExecutorEmptyBodyFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	out := newExecutor(t, &config.Config{TargetURL: srv.URL}).Execute(context.Background())
	if out.Message != http.StatusText(http.StatusServiceUnavailable) {
		t.Fatalf("message = %q", out.Message)
	}
}

func TestHTTPExecutorTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	out := newExecutor(t, &config.Config{TargetURL: srv.URL}).Execute(context.Background())
	if out.Class != metrics.ClassTransport {
		t.Fatalf("outcome = %+v", out)
	}
	if out.ErrorKey() != metrics.ExceptionsKey {
		t.Fatalf("error key = %q", out.ErrorKey())
	}
	if out.Message == "" {
		t.Fatalf("transport failure must carry a message")
	}
}

func TestLoggingRecorderThrottles(t *testing.T) {
	collector := metrics.NewCollector()
	var buf bytes.Buffer
	rec := newLoggingRecorder(collector, &buf)

	now := time.Now()
	for i := 0; i < 100; i++ {
		rec.Record(metrics.HTTPFailure(now, time.Millisecond, 500, "boom"))
	}

	if got := collector.Snapshot().Failures; got != 100 {
		t.Fatalf("all outcomes must be forwarded, got %d", got)
	}
	lines := strings.Count(buf.String(), "\n")
	if lines == 0 || lines > 10 {
		t.Fatalf("throttled log lines = %d, want 1..10", lines)
	}
}

func TestLoggingRecorderIgnoresSuccesses(t *testing.T) {
	collector := metrics.NewCollector()
	var buf bytes.Buffer
	rec := newLoggingRecorder(collector, &buf)
	rec.Record(metrics.Success(time.Now(), time.Millisecond, 200))
	if buf.Len() != 0 {
		t.Fatalf("successes must not be logged: %q", buf.String())
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	if err := run([]string{"--target", "not-a-url"}); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := run([]string{"--target", "http://example.com", "--rate", "0"}); err == nil {
		t.Fatalf("expected rate validation error")
	}
}

func TestRunRejectsBadThresholdBeforeFiring(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	err := run([]string{srv.URL, "--threshold", "bogus", "-d", "1s"})
	if err == nil {
		t.Fatalf("expected threshold parse error")
	}
	if hits != 0 {
		t.Fatalf("no request may fire before threshold validation, got %d", hits)
	}
}

func TestRunHelp(t *testing.T) {
	if err := run([]string{"--help"}); err != nil {
		t.Fatalf("help must exit cleanly: %v", err)
	}
}

func TestRunEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "results.json")
	htmlPath := filepath.Join(dir, "results.html")

	err := run([]string{
		srv.URL,
		"-r", "100",
		"-d", "300ms",
		"-c", "4",
		"--json-output",
		"-o", jsonPath,
		"--html-output", htmlPath,
		"--threshold", "failed:count == 0",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rep.TotalRequests == 0 || rep.FailedRequests != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if rep.TotalRequests != rep.SuccessfulRequests {
		t.Fatalf("success partition broken: %+v", rep)
	}

	html, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	if !bytes.Contains(html, []byte("<!DOCTYPE html>")) {
		t.Fatalf("html report malformed")
	}
}

func TestRunThresholdFailureSetsExitError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := run([]string{
		srv.URL,
		"-r", "50",
		"-d", "200ms",
		"--json-output",
		"-o", filepath.Join(t.TempDir(), "results.json"),
		"--threshold", "failed:count == 0",
	})
	if err == nil {
		t.Fatalf("failing threshold must produce a non-nil error")
	}
}

func TestRunRequestFailuresAloneExitZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := run([]string{
		srv.URL,
		"-r", "50",
		"-d", "200ms",
		"--json-output",
		"-o", filepath.Join(t.TempDir(), "results.json"),
	})
	if err != nil {
		t.Fatalf("request failures without thresholds must not fail the process: %v", err)
	}
}
