package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/filecat/internal/apperr"
	"github.com/starford/filecat/internal/extract"
	"github.com/starford/filecat/internal/index"
	"github.com/starford/filecat/internal/models"
)

// AddScan ingests files found under rootPath as a new scan and returns its
// id. A relative rootPath is resolved against the working directory. Scans
// stored under the root are replaced together with all of their records,
// as are records lying under the root. The snapshot is written shortly afterwards by the flush worker; until then a
// crash loses the scan.
//
// Extraction honours ctx. A cancelled scan leaves the catalog untouched.
func (c *Catalog) AddScan(ctx context.Context, rootPath string, files []models.RawFile) (int64, error) {
	if err := c.checkReady(); err != nil {
		return 0, err
	}
	if strings.TrimSpace(rootPath) == "" {
		return 0, fmt.Errorf("catalog: empty root path: %w", apperr.ErrInvalidArgument)
	}
	root := absPath(rootPath)
	started := c.now()
	id := c.ids.next(started)

	files = normalize(files)
	results, err := c.extractAll(ctx, files)
	if err != nil {
		c.logger.Warn("scan cancelled", slog.String("root", root), slog.String("error", err.Error()))
		return 0, err
	}

	addedAt := c.now().UTC().Round(0)
	records := make([]models.FileRecord, len(files))
	scan := models.Scan{ID: id, RootPath: root, ScanDate: started.UTC().Round(0)}
	for i, f := range files {
		res := results[i]
		rec := models.FileRecord{
			Name:             f.Name,
			Path:             f.Path,
			IsDirectory:      f.IsDirectory,
			Size:             f.Size,
			ModifiedTime:     f.ModifiedTime.UTC().Round(0),
			CreatedTime:      f.CreatedTime.UTC().Round(0),
			ScanID:           id,
			Title:            res.Title,
			Content:          res.Content,
			Extractable:      res.Extractable,
			ContentLength:    res.ContentLength,
			WordCount:        res.WordCount,
			ExtractionReason: res.Reason,
			AddedAt:          addedAt,
		}
		if !f.IsDirectory {
			rec.Extension = extract.Extension(f.Name)
		}
		records[i] = rec
		accumulate(&scan, &rec)
	}
	scan.DurationSeconds = c.now().Sub(started).Seconds()

	c.mu.Lock()
	scans := make([]models.Scan, 0, len(c.scans)+1)
	for _, s := range c.scans {
		if !underRoot(s.RootPath, root) {
			scans = append(scans, s)
		}
	}
	live := make(map[int64]struct{}, len(scans))
	for _, s := range scans {
		live[s.ID] = struct{}{}
	}
	scans = append(scans, scan)
	kept := make([]models.FileRecord, 0, len(c.files)+len(records))
	for _, f := range c.files {
		if _, ok := live[f.ScanID]; ok && !underRoot(f.Path, root) {
			kept = append(kept, f)
		}
	}
	replaced := len(c.files) - len(kept)
	kept = append(kept, records...)
	c.swapLocked(scans, kept)
	c.mu.Unlock()

	scansTotal.Inc()
	c.schedule()
	c.logger.Info("scan added",
		slog.Int64("scan_id", id),
		slog.String("root", root),
		slog.Int("files", scan.TotalFiles),
		slog.Int("folders", scan.TotalFolders),
		slog.Int("extractable", scan.ExtractableFiles),
		slog.Int("replaced", replaced),
		slog.Float64("duration_seconds", scan.DurationSeconds))
	c.emit(EventScanAdded, id)

	if c.keepScans > 0 {
		if _, err := c.CleanupOldScans(ctx, c.keepScans); err != nil {
			c.logger.Warn("auto cleanup failed", slog.String("error", err.Error()))
		}
	}
	return id, nil
}

// extractAll runs the extractor over files in batches. Tasks never fail;
// a panic becomes a non-extractable result. Only ctx aborts the run.
func (c *Catalog) extractAll(ctx context.Context, files []models.RawFile) ([]extract.Result, error) {
	results := make([]extract.Result, len(files))
	for start := 0; start < len(files); start += c.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+c.batchSize, len(files))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = c.extractOne(ctx, files[i])
				return nil
			})
		}
		_ = g.Wait()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, r := range results {
		outcome := "extracted"
		if !r.Extractable {
			outcome = r.Reason
		}
		filesIngested.WithLabelValues(outcome).Inc()
	}
	return results, nil
}

func (c *Catalog) extractOne(ctx context.Context, f models.RawFile) (res extract.Result) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("extractor panicked", slog.String("path", f.Path), slog.Any("panic", r))
			res = extract.Result{Title: f.Name, Reason: extract.ReasonFailed}
		}
	}()
	return c.extractor.Extract(ctx, f)
}

// swapLocked installs new scan and record sequences and rebuilds every
// derived structure. c.mu must be held for writing.
func (c *Catalog) swapLocked(scans []models.Scan, files []models.FileRecord) {
	c.scans = scans
	c.files = files
	c.idx = index.Build(files)
	c.gen++
	if c.cache != nil {
		c.cache.Purge()
	}
	recordsGauge.Set(float64(len(files)))
}

func (c *Catalog) emit(kind string, id int64) {
	if c.onEvent != nil {
		c.onEvent(kind, id)
	}
}

// normalize makes paths absolute and drops repeated entries, keeping the
// first.
func normalize(files []models.RawFile) []models.RawFile {
	seen := make(map[string]struct{}, len(files))
	out := make([]models.RawFile, 0, len(files))
	for _, f := range files {
		f.Path = absPath(f.Path)
		if f.Name == "" {
			f.Name = filepath.Base(f.Path)
		}
		if _, dup := seen[f.Path]; dup {
			continue
		}
		seen[f.Path] = struct{}{}
		out = append(out, f)
	}
	return out
}

// absPath resolves p against the working directory, falling back to a
// cleaned p when that is unavailable.
func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

func accumulate(s *models.Scan, r *models.FileRecord) {
	if r.IsDirectory {
		s.TotalFolders++
		return
	}
	s.TotalFiles++
	s.TotalSize += r.Size
	if r.Extractable {
		s.ExtractableFiles++
		s.TotalContentLength += int64(r.ContentLength)
	}
}

// underRoot reports whether p is root or lies below it, compared
// case-insensitively on path component boundaries. /data does not own
// /data2.
func underRoot(p, root string) bool {
	p, root = strings.ToLower(p), strings.ToLower(root)
	if p == root {
		return true
	}
	if !strings.HasPrefix(p, root) {
		return false
	}
	if strings.HasSuffix(root, "/") || strings.HasSuffix(root, `\`) {
		return true
	}
	next := p[len(root)]
	return next == '/' || next == '\\'
}
