package restapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gpxracer.app/internal/app"
	"gpxracer.app/internal/appconf"
	"gpxracer.app/internal/clock"
	"gpxracer.app/internal/metrics"
	"gpxracer.app/internal/models"
	"gpxracer.app/internal/route"
	"gpxracer.app/internal/session"
)

var testStart = time.Date(2026, 4, 12, 8, 0, 0, 0, time.UTC)

type testEnv struct {
	api    *RestAPI
	clock  *clock.MockClock
	server *httptest.Server
}

func testConfig() appconf.Config {
	cfg := appconf.Default()
	cfg.Env = appconf.Test
	cfg.RateLimit = 1000
	cfg.AutoplayDuration = 10 * time.Second
	cfg.TickInterval = 100 * time.Millisecond
	cfg.MaxUploadBytes = 64 << 10
	return cfg
}

// createTestApi builds a RestAPI over an in-memory store and a mock clock.
// The caller is responsible for calling api.Shutdown().
func createTestApi(t *testing.T) *RestAPI {
	t.Helper()
	return createTestApiWithConfig(t, testConfig(), clock.NewMockClock(testStart))
}

func createTestApiWithConfig(t *testing.T, cfg appconf.Config, c clock.Clock) *RestAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	application := &app.Application{
		Config:   cfg,
		Logger:   logger,
		Clock:    c,
		Metrics:  metrics.NewWithLogger(logger),
		Sessions: session.NewStore(c, cfg.SessionTTL, logger),
	}
	return NewRestAPI(application)
}

// newTestEnv serves the full handler chain from an httptest server.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mock := clock.NewMockClock(testStart)
	api := createTestApiWithConfig(t, testConfig(), mock)

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	server := httptest.NewServer(api.Handler(mux))

	t.Cleanup(func() {
		api.Shutdown()
		server.Close()
	})
	return &testEnv{api: api, clock: mock, server: server}
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) (*http.Response, models.ResponseModel) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var model models.ResponseModel
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &model), "body: %s", raw)
	}
	return resp, model
}

func (e *testEnv) doJSON(t *testing.T, method, path string, payload interface{}) (*http.Response, models.ResponseModel) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	return e.do(t, method, path, body, "application/json")
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	resp, model := e.doJSON(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return entry(t, model)["id"].(string)
}

func (e *testEnv) upload(t *testing.T, id string, slot int, gpx string) (*http.Response, models.ResponseModel) {
	t.Helper()
	path := fmt.Sprintf("/api/sessions/%s/routes/%d?name=slot%d.gpx", id, slot, slot)
	return e.do(t, http.MethodPut, path, strings.NewReader(gpx), "application/gpx+xml")
}

// readySession creates a session with both equator test routes loaded.
func (e *testEnv) readySession(t *testing.T) string {
	t.Helper()
	id := e.createSession(t)
	resp, _ := e.upload(t, id, 1, gpxDoc(route1Points...))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = e.upload(t, id, 2, gpxDoc(route2Points...))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return id
}

func entry(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object, got %T", model.Data)
	e, ok := data["entry"].(map[string]interface{})
	require.True(t, ok, "data.entry should be an object, got %T", data["entry"])
	return e
}

func stateOf(t *testing.T, view map[string]interface{}) (r1, r2, sync float64) {
	t.Helper()
	state, ok := view["state"].(map[string]interface{})
	require.True(t, ok)
	return state["route1Progress"].(float64), state["route2Progress"].(float64), state["syncProgress"].(float64)
}

// route 1: lon 0, 1, 2 on the equator; route 2: lon 0, 0.5, ..., 2
var (
	route1Points = []route.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 0, Lon: 2}}
	route2Points = []route.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.5}, {Lat: 0, Lon: 1}, {Lat: 0, Lon: 1.5}, {Lat: 0, Lon: 2}}
)

func gpxDoc(points ...route.GeoPoint) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1"><trk><trkseg>`)
	for _, p := range points {
		fmt.Fprintf(&b, `<trkpt lat="%g" lon="%g"></trkpt>`, p.Lat, p.Lon)
	}
	b.WriteString(`</trkseg></trk></gpx>`)
	return b.String()
}
