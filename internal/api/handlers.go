package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/filecat/internal/search"
)

// Handler holds API route handlers.
type Handler struct {
	cat    Catalog
	walker Walker
}

// NewHandler creates a new Handler.
func NewHandler(cat Catalog, walker Walker) *Handler {
	return &Handler{cat: cat, walker: walker}
}

func scanID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// Search handles GET /api/search.
//
//	@Summary		Search the catalog by name, title, content, path or extension
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query; a leading dot filters by extension"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.cat.Search(q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: hits, Total: len(hits)})
}

// GetFile handles GET /api/files?path=.
//
//	@Summary		Get one record by path
//	@Tags			files
//	@Produce		json
//	@Param			path	query		string	true	"Absolute file path"
//	@Success		200		{object}	models.FileRecord
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/files [get]
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'path' is required"))
		return
	}
	rec, err := h.cat.GetFileDetails(path)
	if err != nil {
		writeError(w, "get file", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	st, err := h.cat.GetStats()
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ListScans handles GET /api/scans.
//
//	@Summary		List scans, newest first
//	@Tags			scans
//	@Produce		json
//	@Param			limit	query		int	false	"Max scans"
//	@Success		200		{object}	ScanListResponse
//	@Security		BearerAuth
//	@Router			/scans [get]
func (h *Handler) ListScans(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	scans, err := h.cat.GetRecentScans(limit)
	if err != nil {
		writeError(w, "list scans", err)
		return
	}
	writeJSON(w, http.StatusOK, ScanListResponse{Scans: scans})
}

// AddScan handles POST /api/scans.
//
//	@Summary		Ingest a scan of a directory
//	@Tags			scans
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AddScanRequest	true	"Scan root and optional listing"
//	@Success		201		{object}	AddScanResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scans [post]
func (h *Handler) AddScan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<20)
	var req AddScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.RootPath) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("root_path is required"))
		return
	}

	files := req.Files
	if len(files) == 0 {
		if h.walker == nil {
			writeJSON(w, http.StatusBadRequest, errorBody("files are required"))
			return
		}
		var err error
		if files, err = h.walker.Walk(r.Context(), req.RootPath); err != nil {
			writeError(w, "walk", err)
			return
		}
	}

	id, err := h.cat.AddScan(r.Context(), req.RootPath, files)
	if err != nil {
		writeError(w, "add scan", err)
		return
	}
	slog.Info("scan ingested via api", slog.Int64("scan_id", id), slog.String("root", req.RootPath))
	writeJSON(w, http.StatusCreated, AddScanResponse{ScanID: id, Files: len(files)})
}

// LatestFiles handles GET /api/scans/latest/files.
func (h *Handler) LatestFiles(w http.ResponseWriter, _ *http.Request) {
	recs, err := h.cat.GetLatestFiles()
	if err != nil {
		writeError(w, "latest files", err)
		return
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: recs, Total: len(recs)})
}

// ScanFiles handles GET /api/scans/{id}/files.
func (h *Handler) ScanFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := scanID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid scan id"))
		return
	}
	recs, err := h.cat.GetFilesByScan(id)
	if err != nil {
		writeError(w, "scan files", err)
		return
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: recs, Total: len(recs)})
}

// DeleteScan handles DELETE /api/scans/{id}.
//
//	@Summary		Delete a scan and its records
//	@Tags			scans
//	@Param			id	path		int	true	"Scan id"
//	@Success		200	{object}	RemovedResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scans/{id} [delete]
func (h *Handler) DeleteScan(w http.ResponseWriter, r *http.Request) {
	id, ok := scanID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid scan id"))
		return
	}
	removed, err := h.cat.DeleteScan(r.Context(), id)
	if err != nil {
		writeError(w, "delete scan", err)
		return
	}
	writeJSON(w, http.StatusOK, RemovedResponse{Removed: removed})
}

// Cleanup handles POST /api/scans/cleanup.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req CleanupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Keep == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("keep is required"))
		return
	}
	removed, err := h.cat.CleanupOldScans(r.Context(), *req.Keep)
	if err != nil {
		writeError(w, "cleanup", err)
		return
	}
	writeJSON(w, http.StatusOK, RemovedResponse{Removed: removed})
}

// Clear handles DELETE /api/catalog.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	res, err := h.cat.ClearDatabase(r.Context())
	if err != nil {
		writeError(w, "clear", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
