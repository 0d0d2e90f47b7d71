package web

import (
	"embed"
	"net/http"
)

//go:embed dashboard.html
var assets embed.FS

// ServeDashboard serves the embedded dashboard page. Embedding keeps
// the binary self-contained regardless of the working directory it
// starts from.
func ServeDashboard(w http.ResponseWriter, r *http.Request) {
	page, err := assets.ReadFile("dashboard.html")
	if err != nil {
		http.Error(w, "dashboard unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(page)
}
