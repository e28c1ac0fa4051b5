package restapi

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gpxracer.app/internal/app"
	"gpxracer.app/internal/logging"
)

// RestAPI serves the race JSON API on top of the shared Application.
type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware

	// streams tracks open event streams so Shutdown can wait for them
	streams      sync.WaitGroup
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewRestAPI creates the API and its rate limiter. Call Shutdown when done.
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second, app.Clock),
		shutdown:    make(chan struct{}),
	}
}

// SetRoutes registers every endpoint on mux.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", api.healthHandler)
	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	mux.Handle("GET /api/config", api.limited(api.configHandler))

	mux.Handle("POST /api/sessions", api.limited(api.createSessionHandler))
	mux.Handle("GET /api/sessions/{id}", api.limited(api.getSessionHandler))
	mux.Handle("DELETE /api/sessions/{id}", api.limited(api.deleteSessionHandler))

	mux.Handle("PUT /api/sessions/{id}/routes/{slot}", api.limited(api.uploadRouteHandler))
	mux.Handle("GET /api/sessions/{id}/routes/{slot}/geometry", api.limited(api.routeGeometryHandler))
	mux.Handle("GET /api/sessions/{id}/routes/{slot}/nearby", api.limited(api.nearbyPointsHandler))

	mux.Handle("PUT /api/sessions/{id}/progress/{slot}", api.limited(api.routeProgressHandler))
	mux.Handle("PUT /api/sessions/{id}/sync", api.limited(api.syncProgressHandler))
	mux.Handle("POST /api/sessions/{id}/autoplay", api.limited(api.startAutoplayHandler))
	mux.Handle("DELETE /api/sessions/{id}/autoplay", api.limited(api.stopAutoplayHandler))
	mux.Handle("POST /api/sessions/{id}/align", api.limited(api.alignHandler))
	mux.Handle("POST /api/sessions/{id}/start-from/{slot}", api.limited(api.startFromHandler))

	// long-lived, so no rate limit accounting per tick
	mux.Handle("GET /api/sessions/{id}/stream", CacheControlMiddleware(0, http.HandlerFunc(api.streamHandler)))
}

// limited applies the per-client rate limit and disables caching.
func (api *RestAPI) limited(h http.HandlerFunc) http.Handler {
	return api.rateLimiter.Handler()(CacheControlMiddleware(0, h))
}

// Handler wraps mux with the server-wide middleware chain.
func (api *RestAPI) Handler(mux http.Handler) http.Handler {
	var h http.Handler = mux

	gzip, err := gzhttp.NewWrapper(
		gzhttp.MinSize(1024),
		gzhttp.ExceptContentTypes([]string{"text/event-stream"}),
	)
	if err != nil {
		logging.LogError(api.logger(), "gzip middleware disabled", err)
	} else {
		h = skipForStreams(gzip(h), mux)
	}

	h = MetricsHandler(api.Metrics)(h)
	h = NewRequestLoggingMiddleware(api.logger())(h)
	return RequestIDMiddleware(h)
}

// skipForStreams routes event streams around the compressing handler so
// every event is flushed as soon as it is written.
func skipForStreams(compressed, plain http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/stream") {
			plain.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})
}

func (api *RestAPI) logger() *slog.Logger {
	if api.Application == nil || api.Logger == nil {
		return slog.Default()
	}
	return api.Logger
}

// Shutdown stops background work and closes open event streams.
func (api *RestAPI) Shutdown() {
	api.shutdownOnce.Do(func() {
		close(api.shutdown)
	})
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
	api.streams.Wait()
}
