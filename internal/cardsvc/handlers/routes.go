package handlers

import (
	"net/http"

	"github.com/avvvet/gate-services/internal/server"
	"github.com/go-chi/chi"
)

// SetRoutes mounts the gate API. ws and staticDir are optional.
func (h *Handler) SetRoutes(r chi.Router, ws http.HandlerFunc, staticDir string) {
	r.Get("/", server.Health("Gate API + SQLite up!"))

	r.Route("/cards", func(r chi.Router) {
		r.Get("/", h.ListCards)
		r.Post("/", h.CreateCard)
		r.Get("/{uid}", h.GetCard)
		r.Get("/{uid}/scans", h.ListCardScans)
	})

	r.Route("/scans", func(r chi.Router) {
		r.Get("/", h.ListScans)
		r.Post("/", h.CreateScan)
	})

	if ws != nil {
		r.Get("/ws", ws)
	}

	if staticDir != "" {
		fs := http.StripPrefix("/ui", http.FileServer(http.Dir(staticDir)))
		r.Get("/ui", http.RedirectHandler("/ui/", http.StatusMovedPermanently).ServeHTTP)
		r.Get("/ui/*", fs.ServeHTTP)
	}
}
