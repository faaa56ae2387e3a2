// Package models defines the domain types for the file catalog.
package models

import "time"

// RawFile is one entry produced by the external directory walk.
type RawFile struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	IsDirectory  bool      `json:"is_directory"`
	Size         int64     `json:"size"`
	ModifiedTime time.Time `json:"modified_time"`
	CreatedTime  time.Time `json:"created_time"`
}

// FileRecord is a filesystem entry observed during a scan, plus its
// extracted metadata. Title and Content are fixed at ingestion time.
type FileRecord struct {
	Name             string    `json:"name"`
	Path             string    `json:"path"`
	IsDirectory      bool      `json:"is_directory"`
	Size             int64     `json:"size"`
	ModifiedTime     time.Time `json:"modified_time"`
	CreatedTime      time.Time `json:"created_time"`
	Extension        string    `json:"extension"`
	ScanID           int64     `json:"scan_id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	Extractable      bool      `json:"extractable"`
	ContentLength    int       `json:"content_length"`
	WordCount        int       `json:"word_count"`
	ExtractionReason string    `json:"extraction_reason,omitempty"`
	AddedAt          time.Time `json:"added_at"`
}

// Scan is one ingestion run over a root path.
type Scan struct {
	ID                 int64     `json:"id"`
	RootPath           string    `json:"root_path"`
	ScanDate           time.Time `json:"scan_date"`
	TotalFiles         int       `json:"total_files"`
	TotalFolders       int       `json:"total_folders"`
	TotalSize          int64     `json:"total_size"`
	ExtractableFiles   int       `json:"extractable_files"`
	TotalContentLength int64     `json:"total_content_length"`
	DurationSeconds    float64   `json:"duration_seconds"`
}

// Snapshot is the durable catalog state. File order is significant: the
// ordinal position of a record is the key every inverted index refers to.
type Snapshot struct {
	Scans []Scan       `json:"scans"`
	Files []FileRecord `json:"files"`
}

// ClearResult reports what ClearDatabase removed.
type ClearResult struct {
	RemovedFiles int `json:"removed_files"`
	RemovedScans int `json:"removed_scans"`
}

// IndexStats reports the cardinality of each inverted index.
type IndexStats struct {
	NameKeys     int `json:"name_keys"`
	TitleKeys    int `json:"title_keys"`
	ContentKeys  int `json:"content_keys"`
	Extensions   int `json:"extensions"`
	PathSegments int `json:"path_segments"`
	Scans        int `json:"scans"`
}

// ExtensionCount is one row of the per-extension breakdown.
type ExtensionCount struct {
	Extension string `json:"extension"`
	Count     int    `json:"count"`
}

// Stats is the diagnostics payload returned by Catalog.GetStats.
type Stats struct {
	TotalRecords         int              `json:"total_records"`
	TotalFiles           int              `json:"total_files"`
	TotalFolders         int              `json:"total_folders"`
	TotalSize            int64            `json:"total_size"`
	TotalScans           int              `json:"total_scans"`
	LastScanDate         *time.Time       `json:"last_scan_date,omitempty"`
	ExtractableFiles     int              `json:"extractable_files"`
	ExtractionCoverage   float64          `json:"extraction_coverage"`
	AverageContentLength float64          `json:"average_content_length"`
	SnapshotBytes        int64            `json:"snapshot_bytes"`
	Index                IndexStats       `json:"index"`
	TopExtensions        []ExtensionCount `json:"top_extensions"`
}
