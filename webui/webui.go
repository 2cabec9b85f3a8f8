// Package webui serves the embedded browser UI for the control channel.
//
// The page connects to the control channel on its own port + 1, so the asset
// server and the control channel must use adjacent ports (see livetune.Service).
package webui

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed assets
var assets embed.FS

// Handler returns the asset server.
//
// GET / serves index.html; GET /<path> serves the embedded file. .html, .js
// and .css files get an explicit Content-Type; other files are served without
// one. Unknown paths are 404 and methods other than GET/HEAD are 405.
func Handler() http.Handler {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		panic("webui: " + err.Error())
	}
	return &handler{fsys: sub}
}

type handler struct {
	fsys fs.FS
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "index.html"
	}
	b, err := fs.ReadFile(h.fsys, name)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if ct, ok := ContentType(name); ok {
		w.Header().Set("Content-Type", ct)
	} else {
		// Suppress net/http's content sniffing.
		w.Header()["Content-Type"] = nil
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(b)
}

// ContentType returns the Content-Type for name's extension, if it has one.
func ContentType(name string) (string, bool) {
	switch path.Ext(name) {
	case ".html":
		return "text/html; charset=utf-8", true
	case ".js":
		return "application/javascript; charset=utf-8", true
	case ".css":
		return "text/css; charset=utf-8", true
	default:
		return "", false
	}
}
