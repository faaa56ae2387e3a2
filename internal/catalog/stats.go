package catalog

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/starford/filecat/internal/models"
)

const topExtensions = 10

// GetStats reports catalog totals, extraction coverage, snapshot size and
// index cardinalities.
func (c *Catalog) GetStats() (*models.Stats, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	st := &models.Stats{
		TotalRecords: len(c.files),
		TotalScans:   len(c.scans),
		Index:        c.idx.Stats(),
	}
	var contentTotal int64
	exts := make(map[string]int)
	for i := range c.files {
		f := &c.files[i]
		if f.IsDirectory {
			st.TotalFolders++
			continue
		}
		st.TotalFiles++
		st.TotalSize += f.Size
		if f.Extractable {
			st.ExtractableFiles++
			contentTotal += int64(f.ContentLength)
		}
		if f.Extension != "" {
			exts[f.Extension]++
		}
	}
	if recent := sortedByDate(c.scans); len(recent) > 0 {
		last := recent[0].ScanDate
		st.LastScanDate = &last
	}
	c.mu.RUnlock()

	if st.TotalFiles > 0 {
		st.ExtractionCoverage = float64(st.ExtractableFiles) / float64(st.TotalFiles) * 100
	}
	if st.ExtractableFiles > 0 {
		st.AverageContentLength = float64(contentTotal) / float64(st.ExtractableFiles)
	}
	st.TopExtensions = rankExtensions(exts, topExtensions)

	size, err := c.store.Size()
	if err != nil {
		c.logger.Warn("snapshot size unavailable", slog.String("error", err.Error()))
	}
	st.SnapshotBytes = size
	return st, nil
}

func rankExtensions(counts map[string]int, n int) []models.ExtensionCount {
	out := make([]models.ExtensionCount, 0, len(counts))
	for ext, cnt := range counts {
		out = append(out, models.ExtensionCount{Extension: ext, Count: cnt})
	}
	slices.SortFunc(out, func(a, b models.ExtensionCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Extension, b.Extension)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
