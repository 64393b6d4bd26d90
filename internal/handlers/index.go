// internal/handlers/index.go
package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/richard-senior/rocketrun/internal/logger"
)

type indexData struct {
	Mode string
}

// IndexHandler renders index.html from templateDir. The template is parsed
// on every request so edits show up without a restart.
func IndexHandler(templateDir, mode string) http.HandlerFunc {
	path := filepath.Join(templateDir, "index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		// "/" is the catch-all pattern on the mux
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		tmpl, err := template.ParseFiles(path)
		if err != nil {
			logger.Error("Failed to parse %s: %v", path, err)
			http.Error(w, "Failed to load page", http.StatusInternalServerError)
			return
		}
		// render to a buffer so a template error can still become a 500
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, indexData{Mode: mode}); err != nil {
			logger.Error("Failed to render %s: %v", path, err)
			http.Error(w, "Failed to render page", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		buf.WriteTo(w)
	}
}
