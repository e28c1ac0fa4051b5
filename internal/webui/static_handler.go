package webui

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

//go:embed static
var staticFiles embed.FS

var staticFS = mustSub(staticFiles, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

var allowedExtensions = map[string]bool{
	".html": true, ".css": true, ".js": true,
	".png": true, ".svg": true, ".ico": true,
}

func (webUI *WebUI) indexHandler(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile(staticFS, "index.html")
	if err != nil {
		slog.Error("failed to read index page", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(page)
}

func (webUI *WebUI) staticHandler(w http.ResponseWriter, r *http.Request) {
	fileName := path.Base(r.URL.Path)

	ext := strings.ToLower(path.Ext(fileName))
	if !allowedExtensions[ext] {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	// only flat names inside the embedded directory are served
	if strings.Contains(fileName, "..") || strings.ContainsAny(fileName, "/\\\x00") || !fs.ValidPath(fileName) {
		slog.Warn("rejected static asset path", "path", r.URL.Path)
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	if r.URL.Path != "/static/"+fileName {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	stat, err := fs.Stat(staticFS, fileName)
	if err != nil || stat.IsDir() {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	http.ServeFileFS(w, r, staticFS, fileName)
}
