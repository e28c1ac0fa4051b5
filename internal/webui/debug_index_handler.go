package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"gpxracer.app/internal/buildinfo"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

// dumper keeps session dumps readable; route point slices are deep.
var dumper = spew.ConfigState{
	Indent:                  "  ",
	MaxDepth:                4,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := debugTemplate.Execute(w, debugData{
		Title: title,
		Pre:   dumper.Sdump(data),
	})
	if err != nil {
		slog.Error("failed to execute debug template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Application == nil || webUI.IsProduction() {
		http.NotFound(w, r)
		return
	}

	var data interface{}
	var title string

	switch dataType := r.URL.Query().Get("dataType"); dataType {
	case "sessions":
		if webUI.Sessions == nil {
			data = map[string]string{"error": "session store not initialized"}
		} else {
			data = webUI.Sessions.Snapshot()
		}
		title = "Sessions"
	case "session":
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if webUI.Sessions == nil {
			data = map[string]string{"error": "session store not initialized"}
		} else if s, err := webUI.Sessions.Get(id); err != nil {
			data = map[string]string{"error": err.Error()}
		} else {
			data = s
		}
		title = "Session " + id
	case "config":
		data = webUI.Config
		title = "Configuration"
	case "build":
		data = map[string]string{
			"version":   buildinfo.Version,
			"commit":    buildinfo.CommitHash,
			"branch":    buildinfo.Branch,
			"buildTime": buildinfo.BuildTime,
			"dirty":     buildinfo.Dirty,
		}
		title = "Build"
	default:
		data = map[string]string{
			"error": "Please use one of the following: sessions, session (with id), config, build.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}
