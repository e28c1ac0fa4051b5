// Package webui serves the browser client and, outside production, a page
// that dumps server internals.
package webui

import (
	"net/http"

	"gpxracer.app/internal/app"
)

type WebUI struct {
	*app.Application
}

// SetWebUIRoutes registers the map page, its assets and the debug page.
func (webUI *WebUI) SetWebUIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", webUI.indexHandler)
	mux.HandleFunc("GET /static/", webUI.staticHandler)
	mux.HandleFunc("GET /debug/", webUI.debugIndexHandler)
}
