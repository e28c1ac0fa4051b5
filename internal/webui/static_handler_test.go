package webui

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gpxracer.app/internal/appconf"
)

func TestIndexHandler(t *testing.T) {
	webUI := &WebUI{}

	rr := httptest.NewRecorder()
	webUI.indexHandler(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "<title>GPX Racer</title>")
	assert.Contains(t, rr.Body.String(), "/static/app.js")
}

func TestStaticHandler_PathTraversal(t *testing.T) {
	webUI := &WebUI{}

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{
			name:       "valid script",
			path:       "/static/app.js",
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid stylesheet",
			path:       "/static/style.css",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing file",
			path:       "/static/missing.js",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "path traversal attempt",
			path:       "/static/../../../etc/passwd",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "traversal to an allowed extension",
			path:       "/static/../webui.go.js",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "nested directory",
			path:       "/static/nested/app.js",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "backslash traversal",
			path:       "/static/..\\debug_index.html",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "disallowed extension",
			path:       "/static/config.json",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "null byte injection",
			path:       "/static/app.js%00.png",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rr := httptest.NewRecorder()

			webUI.staticHandler(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestStaticHandler_ContentType(t *testing.T) {
	webUI := &WebUI{}

	rr := httptest.NewRecorder()
	webUI.staticHandler(rr, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/css")
}

func TestSetWebUIRoutes(t *testing.T) {
	webUI := newTestWebUI(appconf.Development)
	mux := http.NewServeMux()
	webUI.SetWebUIRoutes(mux)

	for path, want := range map[string]int{
		"/":                         http.StatusOK,
		"/static/app.js":            http.StatusOK,
		"/debug/?dataType=sessions": http.StatusOK,
		"/not-a-page":               http.StatusNotFound,
	} {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rr.Code, path)
	}
}
