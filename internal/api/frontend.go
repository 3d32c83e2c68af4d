package api

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/mux"
)

// RegisterFrontend serves the dashboard from fsys. Unknown paths without
// a file extension fall back to index.html. Register it last: it matches
// every path.
func RegisterFrontend(r *mux.Router, fsys fs.FS) {
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

		if name == "" || !strings.Contains(path.Base(name), ".") {
			serveFile(w, r, fsys, "index.html")
			return
		}
		if info, err := fs.Stat(fsys, name); err == nil && !info.IsDir() {
			serveFile(w, r, fsys, name)
			return
		}
		http.NotFound(w, r)
	})
}

func serveFile(w http.ResponseWriter, r *http.Request, fsys fs.FS, name string) {
	if _, err := fs.Stat(fsys, name); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFileFS(w, r, fsys, name)
}
