package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(cat Catalog, walker Walker, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(cat, walker)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Queries.
	r.Get("/search", h.Search)
	r.Get("/files", h.GetFile)
	r.Get("/stats", h.Stats)

	// Scans.
	r.Get("/scans", h.ListScans)
	r.Post("/scans", h.AddScan)
	r.Get("/scans/latest/files", h.LatestFiles)
	r.Get("/scans/{id}/files", h.ScanFiles)
	r.Delete("/scans/{id}", h.DeleteScan)
	r.Post("/scans/cleanup", h.Cleanup)

	r.Delete("/catalog", h.Clear)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
