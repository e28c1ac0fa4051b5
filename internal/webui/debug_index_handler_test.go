package webui

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gpxracer.app/internal/app"
	"gpxracer.app/internal/appconf"
	"gpxracer.app/internal/clock"
	"gpxracer.app/internal/session"
)

func newTestWebUI(env appconf.Environment) *WebUI {
	c := clock.NewMockClock(time.Date(2026, 4, 12, 8, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &WebUI{
		Application: &app.Application{
			Config:   appconf.Config{Env: env},
			Logger:   logger,
			Clock:    c,
			Sessions: session.NewStore(c, time.Hour, logger),
		},
	}
}

func TestDebugIndexHandler_ProductionReturns404(t *testing.T) {
	webUI := newTestWebUI(appconf.Production)

	req := httptest.NewRequest(http.MethodGet, "/debug/?dataType=sessions", nil)
	rr := httptest.NewRecorder()

	webUI.debugIndexHandler(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code, "Should return 404 in Production")
}

func TestDebugIndexHandler_NilApplication(t *testing.T) {
	webUI := &WebUI{}

	rr := httptest.NewRecorder()
	webUI.debugIndexHandler(rr, httptest.NewRequest(http.MethodGet, "/debug/", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDebugIndexHandler_Sessions(t *testing.T) {
	webUI := newTestWebUI(appconf.Development)
	s := webUI.Sessions.Create()

	req := httptest.NewRequest(http.MethodGet, "/debug/?dataType=sessions", nil)
	rr := httptest.NewRecorder()

	webUI.debugIndexHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	body := rr.Body.String()
	assert.Contains(t, body, "<h1>Sessions</h1>")
	assert.Contains(t, body, s.ID)
}

func TestDebugIndexHandler_DataTypes(t *testing.T) {
	webUI := newTestWebUI(appconf.Test)
	s := webUI.Sessions.Create()

	tests := []struct {
		query string
		want  string
	}{
		{"dataType=session&id=" + s.ID, s.ID},
		{"dataType=session&id=missing", "session not found"},
		{"dataType=config", "Configuration"},
		{"dataType=build", "version"},
		{"", "Choose a data type"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := httptest.NewRecorder()
			webUI.debugIndexHandler(rr, httptest.NewRequest(http.MethodGet, "/debug/?"+tt.query, nil))

			require.Equal(t, http.StatusOK, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.want)
		})
	}
}

func TestDebugIndexHandler_EscapesDump(t *testing.T) {
	webUI := newTestWebUI(appconf.Development)

	rr := httptest.NewRecorder()
	webUI.debugIndexHandler(rr, httptest.NewRequest(http.MethodGet, "/debug/?dataType=session&id=<script>", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "<script>")
	assert.Contains(t, rr.Body.String(), "&lt;script&gt;")
}
