package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/firewatch/pkg/metrics"
)

// MetricsMiddleware records request count, latency and error class under a
// fixed endpoint label. Cell tokens never reach the label.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		took := float64(time.Since(start).Microseconds()) / 1000
		code := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, code)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, code, took)

		if rec.status < http.StatusBadRequest {
			return
		}
		class, severity := classifyStatus(rec.status)
		metrics.RecordErrorByEndpoint(endpoint, r.Method, class)
		metrics.RecordErrorByType(class, severity)
		metrics.RecordErrorLatency("http", class, took)
	}
}

// classifyStatus maps an error status to the labels used by the error
// metrics. Client mistakes are medium severity, server faults high.
func classifyStatus(status int) (class, severity string) {
	switch status {
	case http.StatusBadRequest:
		return "bad_request", "medium"
	case http.StatusNotFound:
		return "not_found", "low"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed", "low"
	case http.StatusRequestEntityTooLarge:
		return "body_too_large", "medium"
	}
	if status >= http.StatusInternalServerError {
		return "internal", "high"
	}
	return "client_error", "medium"
}

// statusRecorder captures the status written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }
