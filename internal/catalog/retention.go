package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/filecat/internal/apperr"
	"github.com/starford/filecat/internal/models"
)

// selector picks the scan ids to keep. It runs under the write lock.
type selector func(scans []models.Scan) (map[int64]struct{}, error)

// DeleteScan removes scan id and its records, persists synchronously and
// returns the number of records removed.
func (c *Catalog) DeleteScan(ctx context.Context, id int64) (int, error) {
	if err := c.checkReady(); err != nil {
		return 0, err
	}
	files, _, err := c.retain(ctx, func(scans []models.Scan) (map[int64]struct{}, error) {
		keep := make(map[int64]struct{}, len(scans))
		found := false
		for _, s := range scans {
			if s.ID == id {
				found = true
				continue
			}
			keep[s.ID] = struct{}{}
		}
		if !found {
			return nil, fmt.Errorf("catalog: scan %d: %w", id, apperr.ErrNotFound)
		}
		return keep, nil
	})
	if err != nil {
		return 0, err
	}
	c.emit(EventScanDeleted, id)
	return files, nil
}

// ClearDatabase removes every scan and record.
func (c *Catalog) ClearDatabase(ctx context.Context) (models.ClearResult, error) {
	if err := c.checkReady(); err != nil {
		return models.ClearResult{}, err
	}
	files, scans, err := c.retain(ctx, func([]models.Scan) (map[int64]struct{}, error) {
		return map[int64]struct{}{}, nil
	})
	if err != nil {
		return models.ClearResult{}, err
	}
	c.emit(EventCleared, 0)
	return models.ClearResult{RemovedFiles: files, RemovedScans: scans}, nil
}

// CleanupOldScans keeps the keep most recent scans by date and removes the
// rest. It returns the number of records removed.
func (c *Catalog) CleanupOldScans(ctx context.Context, keep int) (int, error) {
	if err := c.checkReady(); err != nil {
		return 0, err
	}
	if keep < 0 {
		return 0, fmt.Errorf("catalog: keep count %d: %w", keep, apperr.ErrInvalidArgument)
	}
	files, scans, err := c.retain(ctx, func(all []models.Scan) (map[int64]struct{}, error) {
		recent := sortedByDate(all)
		if len(recent) > keep {
			recent = recent[:keep]
		}
		ids := make(map[int64]struct{}, len(recent))
		for _, s := range recent {
			ids[s.ID] = struct{}{}
		}
		return ids, nil
	})
	if err != nil {
		return 0, err
	}
	if scans > 0 {
		c.emit(EventCleaned, 0)
	}
	return files, nil
}

// retain keeps the scans chosen by sel and the records they own, then
// writes the snapshot before returning. A failed write is logged and
// reported on Fatal; the in-memory change stands.
func (c *Catalog) retain(ctx context.Context, sel selector) (removedFiles, removedScans int, err error) {
	c.mu.Lock()
	keep, err := sel(c.scans)
	if err != nil {
		c.mu.Unlock()
		return 0, 0, err
	}
	scans := make([]models.Scan, 0, len(keep))
	for _, s := range c.scans {
		if _, ok := keep[s.ID]; ok {
			scans = append(scans, s)
		}
	}
	files := make([]models.FileRecord, 0, len(c.files))
	for _, f := range c.files {
		if _, ok := keep[f.ScanID]; ok {
			files = append(files, f)
		}
	}
	removedScans = len(c.scans) - len(scans)
	removedFiles = len(c.files) - len(files)
	if removedScans == 0 && removedFiles == 0 {
		c.mu.Unlock()
		return 0, 0, nil
	}
	c.swapLocked(scans, files)
	snap, gen := c.captureLocked()
	c.mu.Unlock()

	c.logger.Info("records removed",
		slog.Int("files", removedFiles),
		slog.Int("scans", removedScans))
	_ = c.save(ctx, snap, gen)
	return removedFiles, removedScans, nil
}
