// Package metrics provides Prometheus metrics for the gpxracer application.
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Route build results.
const (
	ResultOK           = "ok"
	ResultParseError   = "parse_error"
	ResultInvalidRoute = "invalid_route"
	ResultTooLarge     = "too_large"
)

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Len() int
}

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Race metrics
	RouteBuildsTotal  *prometheus.CounterVec
	RoutePoints       prometheus.Histogram
	AlignmentDuration prometheus.Histogram
	SessionsActive    prometheus.Gauge

	// Event stream metrics, kept apart from request latency
	StreamsActive  prometheus.Gauge
	StreamDuration prometheus.Histogram

	logger *slog.Logger

	// collectorStarted prevents spawning multiple collector goroutines
	collectorStarted atomic.Bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpxracer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gpxracer_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	routeBuildsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpxracer_route_builds_total",
			Help: "GPX uploads by outcome",
		},
		[]string{"result"},
	)

	routePoints := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gpxracer_route_points",
		Help:    "Number of points in successfully built routes",
		Buckets: prometheus.ExponentialBuckets(10, 4, 7),
	})

	alignmentDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gpxracer_alignment_duration_seconds",
		Help:    "Time spent searching for the earliest alignment",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	sessionsActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gpxracer_sessions_active",
		Help: "Number of race sessions held in memory",
	})

	streamsActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gpxracer_streams_active",
		Help: "Number of open race event streams",
	})

	streamDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gpxracer_stream_duration_seconds",
		Help:    "How long race event streams stay open",
		Buckets: []float64{0.1, 1, 5, 15, 30, 60, 120, 300, 900},
	})

	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		routeBuildsTotal,
		routePoints,
		alignmentDuration,
		sessionsActive,
		streamsActive,
		streamDuration,
	)

	return &Metrics{
		Registry:            registry,
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
		RouteBuildsTotal:    routeBuildsTotal,
		RoutePoints:         routePoints,
		AlignmentDuration:   alignmentDuration,
		SessionsActive:      sessionsActive,
		StreamsActive:       streamsActive,
		StreamDuration:      streamDuration,
		logger:              logger,
	}
}

// ObserveRouteBuild records the outcome of one upload. points is ignored
// unless the build succeeded.
func (m *Metrics) ObserveRouteBuild(result string, points int) {
	if m == nil {
		return
	}
	m.RouteBuildsTotal.WithLabelValues(result).Inc()
	if result == ResultOK {
		m.RoutePoints.Observe(float64(points))
	}
}

// ObserveAlignment records how long an alignment search took.
func (m *Metrics) ObserveAlignment(d time.Duration) {
	if m == nil {
		return
	}
	m.AlignmentDuration.Observe(d.Seconds())
}

// StartSessionCollector starts a goroutine that periodically copies the
// session count into SessionsActive. It is idempotent; call Shutdown to stop.
func (m *Metrics) StartSessionCollector(sessions SessionCounter, interval time.Duration) {
	if sessions == nil {
		return
	}

	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Add to WaitGroup BEFORE exposing cancel to avoid race with Shutdown
	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if m.logger != nil {
					m.logger.Error("panic in session stats collector", "error", r)
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		m.SessionsActive.Set(float64(sessions.Len()))
		for {
			select {
			case <-ticker.C:
				m.SessionsActive.Set(float64(sessions.Len()))
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops the collector goroutine and waits for it to exit.
// This method is safe to call multiple times.
func (m *Metrics) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
