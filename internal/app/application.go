package app

import (
	"log/slog"

	"gpxracer.app/internal/appconf"
	"gpxracer.app/internal/clock"
	"gpxracer.app/internal/metrics"
	"gpxracer.app/internal/session"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config   appconf.Config
	Logger   *slog.Logger
	Clock    clock.Clock
	Metrics  *metrics.Metrics
	Sessions *session.Store
}

// IsProduction reports whether debug surfaces should be hidden.
func (app *Application) IsProduction() bool {
	return app.Config.Env == appconf.Production
}
