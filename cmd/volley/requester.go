package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/volleyproj/volley/internal/httpclient"
	"github.com/volleyproj/volley/internal/metrics"
	"github.com/volleyproj/volley/internal/tracing"
)

const maxLoggedBodyBytes = 1024

// httpExecutor fires one HTTP request per Execute call and classifies the
// result. Every failure is folded into the outcome; Execute never errors.
type httpExecutor struct {
	client    *http.Client
	builder   *httpclient.RequestBuilder
	method    string
	target    string
	tracer    trace.Tracer
	traced    bool
	propagate bool
}

func (r *httpExecutor) Execute(ctx context.Context) metrics.Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	var span trace.Span
	if r.traced {
		ctx, span = tracing.StartRequestSpan(ctx, r.tracer, r.method, r.target)
	}

	out := r.execute(ctx, start)

	if span != nil {
		var spanErr error
		if out.Failed() {
			spanErr = fmt.Errorf("%s: %s", out.Class, out.Message)
		}
		attrs := []attribute.KeyValue{}
		if out.StatusCode > 0 {
			attrs = append(attrs, attribute.Int("http.response.status_code", out.StatusCode))
		}
		tracing.EndSpan(span, spanErr, attrs...)
	}
	return out
}

func (r *httpExecutor) execute(ctx context.Context, start time.Time) metrics.Outcome {
	req, err := r.builder.Build(ctx)
	if err != nil {
		return metrics.TransportFailure(start, time.Since(start), err.Error())
	}
	if r.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := r.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return metrics.TransportFailure(start, latency, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBodyBytes))
		_, _ = io.Copy(io.Discard, resp.Body)
		message := strings.TrimSpace(string(snippet))
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return metrics.HTTPFailure(start, latency, resp.StatusCode, message)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return metrics.Success(start, latency, resp.StatusCode)
}
