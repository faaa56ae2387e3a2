package api

import (
	"context"

	"github.com/starford/filecat/internal/models"
	"github.com/starford/filecat/internal/search"
)

// Catalog is the subset of the catalog the handlers use.
type Catalog interface {
	Search(query string, limit int) ([]search.Hit, error)
	GetFilesByScan(id int64) ([]models.FileRecord, error)
	GetLatestFiles() ([]models.FileRecord, error)
	GetRecentScans(limit int) ([]models.Scan, error)
	GetFileDetails(path string) (*models.FileRecord, error)
	GetStats() (*models.Stats, error)
	AddScan(ctx context.Context, rootPath string, files []models.RawFile) (int64, error)
	DeleteScan(ctx context.Context, id int64) (int, error)
	ClearDatabase(ctx context.Context) (models.ClearResult, error)
	CleanupOldScans(ctx context.Context, keep int) (int, error)
}

// Walker lists a directory tree for a scan request without explicit files.
type Walker interface {
	Walk(ctx context.Context, root string) ([]models.RawFile, error)
}

// AddScanRequest is the request body for ingesting a scan. When Files is
// empty the server walks RootPath itself.
type AddScanRequest struct {
	RootPath string           `json:"root_path" example:"/home/me/docs" validate:"required"`
	Files    []models.RawFile `json:"files,omitempty"`
}

// AddScanResponse is returned after a scan has been ingested.
type AddScanResponse struct {
	ScanID int64 `json:"scan_id" example:"1714816200000" validate:"required"`
	Files  int   `json:"files" example:"42" validate:"required"`
}

// CleanupRequest is the request body for retention.
type CleanupRequest struct {
	Keep *int `json:"keep" example:"5" validate:"required"`
}

// RemovedResponse reports how many records an operation removed.
type RemovedResponse struct {
	Removed int `json:"removed" example:"12" validate:"required"`
}

// SearchResponse wraps ranked search results.
type SearchResponse struct {
	Results []search.Hit `json:"results" validate:"required"`
	Total   int          `json:"total" example:"3" validate:"required"`
}

// ScanListResponse wraps scans, newest first.
type ScanListResponse struct {
	Scans []models.Scan `json:"scans" validate:"required"`
}

// FileListResponse wraps the records of one scan.
type FileListResponse struct {
	Files []models.FileRecord `json:"files" validate:"required"`
	Total int                 `json:"total" example:"42" validate:"required"`
}
