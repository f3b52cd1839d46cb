package metrics

import (
	"strconv"
	"time"
)

// Class is the terminal classification of one request attempt.
type Class int

const (
	// ClassSuccess covers responses with a 2xx or 3xx status code.
	ClassSuccess Class = iota
	// ClassHTTPError covers responses with a 4xx or 5xx status code.
	ClassHTTPError
	// ClassTransport covers failures before any status code was obtained:
	// connection refused, timeouts, DNS errors, cancellation.
	ClassTransport
)

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassHTTPError:
		return "http_error"
	case ClassTransport:
		return "transport_error"
	default:
		return "unknown"
	}
}

// ExceptionsKey groups all transport-level failures in error breakdowns.
const ExceptionsKey = "exceptions"

// Outcome is the immutable result of a single request attempt. Exactly one
// Outcome is produced per admitted attempt; it is never mutated after being
// handed to the Collector.
type Outcome struct {
	Start      time.Time
	Latency    time.Duration
	Class      Class
	StatusCode int    // set for ClassSuccess and ClassHTTPError
	Message    string // human-readable failure text, empty on success
}

// Failed reports whether the attempt counts as a failure. Both HTTP errors
// and transport errors fail; only 2xx/3xx responses succeed.
func (o Outcome) Failed() bool {
	return o.Class != ClassSuccess
}

// ErrorKey returns the detailed-errors grouping key for a failed outcome:
// the status code as a string for HTTP errors, ExceptionsKey for transport
// errors, and "" for successes.
func (o Outcome) ErrorKey() string {
	switch o.Class {
	case ClassHTTPError:
		return strconv.Itoa(o.StatusCode)
	case ClassTransport:
		return ExceptionsKey
	default:
		return ""
	}
}

// Success builds an outcome for a 2xx/3xx response.
func Success(start time.Time, latency time.Duration, status int) Outcome {
	return Outcome{Start: start, Latency: latency, Class: ClassSuccess, StatusCode: status}
}

// HTTPFailure builds an outcome for a response with an error status code.
func HTTPFailure(start time.Time, latency time.Duration, status int, message string) Outcome {
	return Outcome{Start: start, Latency: latency, Class: ClassHTTPError, StatusCode: status, Message: message}
}

// TransportFailure builds an outcome for a failure that produced no response.
func TransportFailure(start time.Time, latency time.Duration, message string) Outcome {
	return Outcome{Start: start, Latency: latency, Class: ClassTransport, Message: message}
}
