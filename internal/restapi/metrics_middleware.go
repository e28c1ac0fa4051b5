package restapi

import (
	"mime"
	"net/http"
	"strconv"
	"time"

	"gpxracer.app/internal/metrics"
)

// MetricsHandler returns middleware that records HTTP metrics. Responses
// sent as text/event-stream are race streams: they are counted while open
// and timed in their own histogram so minute-long races do not skew request
// latency. A nil m disables the middleware.
func MetricsHandler(m *metrics.Metrics) func(http.Handler) http.Handler {
	if m == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &metricsResponseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				streams:        m.StreamsActive,
			}

			next.ServeHTTP(wrapped, r)

			// r.Pattern keeps session ids out of the label set
			path := r.Pattern
			if path == "" {
				path = "unmatched"
			}

			elapsed := time.Since(start).Seconds()
			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			if wrapped.streaming {
				m.StreamsActive.Dec()
				m.StreamDuration.Observe(elapsed)
				return
			}
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(elapsed)
		})
	}
}

// metricsResponseWriter captures the status code and notices when the
// handler starts an event stream.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	streaming   bool
	streams     interface{ Inc() }
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.statusCode = code
		mediaType, _, _ := mime.ParseMediaType(w.Header().Get("Content-Type"))
		if code == http.StatusOK && mediaType == "text/event-stream" {
			w.streaming = true
			if w.streams != nil {
				w.streams.Inc()
			}
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *metricsResponseWriter) Flush() {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	_ = http.NewResponseController(w.ResponseWriter).Flush()
}
