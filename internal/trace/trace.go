// Package trace instruments outgoing API requests: every request gets an
// X-Request-ID header, a start/completion log pair and a slot in the running
// metrics, so a slow or failing backend shows up in the logs with enough
// context to correlate against the server side.
package trace

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/log"
)

const requestIDHeader = "X-Request-ID"

// Metrics tracks request counters across the process lifetime.
type Metrics struct {
	TotalRequests       int64
	FailedRequests      int64
	AverageResponseTime int64 // in microseconds
}

// Transport is an http.RoundTripper that wraps another transport with
// request IDs, logging and metrics.
type Transport struct {
	next    http.RoundTripper
	logger  *log.Logger
	metrics Metrics
}

// NewTransport wraps next (http.DefaultTransport when nil).
func NewTransport(next http.RoundTripper, logger *log.Logger) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{
		next:   next,
		logger: logger.WithComponent(log.ComponentAPI),
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	requestID := uuid.NewString()

	// Per RoundTripper contract the request must not be mutated.
	clone := req.Clone(req.Context())
	clone.Header.Set(requestIDHeader, requestID)

	t.logger.Debug("Request started",
		"request_id", requestID,
		log.FieldMethod, req.Method,
		log.FieldEndpoint, req.URL.Path)

	atomic.AddInt64(&t.metrics.TotalRequests, 1)

	resp, err := t.next.RoundTrip(clone)
	duration := time.Since(start)
	atomic.StoreInt64(&t.metrics.AverageResponseTime, duration.Microseconds())

	if err != nil {
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
		t.logger.Warn("Request failed",
			"request_id", requestID,
			log.FieldMethod, req.Method,
			log.FieldEndpoint, req.URL.Path,
			log.FieldDuration, duration.String(),
			log.FieldError, err)
		return nil, err
	}

	logFn := t.logger.Debug
	if resp.StatusCode >= 500 {
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
		logFn = t.logger.Error
	} else if resp.StatusCode >= 400 {
		logFn = t.logger.Warn
	}
	logFn("Request completed",
		"request_id", requestID,
		log.FieldMethod, req.Method,
		log.FieldEndpoint, req.URL.Path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, duration.String())

	return resp, nil
}

// GetMetrics returns a snapshot of the current metrics.
func (t *Transport) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:       atomic.LoadInt64(&t.metrics.TotalRequests),
		FailedRequests:      atomic.LoadInt64(&t.metrics.FailedRequests),
		AverageResponseTime: atomic.LoadInt64(&t.metrics.AverageResponseTime),
	}
}
