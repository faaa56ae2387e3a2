package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/filecat/internal/apperr"
	"github.com/starford/filecat/internal/models"
)

const retryBackoff = 50 * time.Millisecond

// schedule asks the flush worker to save soon. Requests made while one is
// pending collapse into it.
func (c *Catalog) schedule() {
	select {
	case c.flushCh <- struct{}{}:
	default:
	}
}

// runFlusher saves the catalog flushDelay after each request until Close.
func (c *Catalog) runFlusher() {
	defer close(c.stopped)
	for {
		select {
		case <-c.stopCh:
			return
		case <-c.flushCh:
		}

		timer := time.NewTimer(c.flushDelay)
		select {
		case <-c.stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}
		_ = c.Flush(context.Background())
	}
}

// Flush writes the current catalog if it changed since the last save.
func (c *Catalog) Flush(ctx context.Context) error {
	c.mu.RLock()
	snap, gen := c.captureLocked()
	c.mu.RUnlock()
	return c.save(ctx, snap, gen)
}

// captureLocked returns the current sequences and their generation. Both
// slices are replaced, never modified, by later mutations, so the snapshot
// stays valid after the lock is released.
func (c *Catalog) captureLocked() (*models.Snapshot, uint64) {
	return &models.Snapshot{Scans: c.scans, Files: c.files}, c.gen
}

// save writes snap unless a newer generation has already been written.
// After flushRetries failed attempts the error is logged and offered on
// the Fatal channel.
func (c *Catalog) save(ctx context.Context, snap *models.Snapshot, gen uint64) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	if gen <= c.savedGen {
		return nil
	}

	var err error
retry:
	for attempt := 1; ; attempt++ {
		start := time.Now()
		if err = c.store.Save(ctx, snap); err == nil {
			saveDuration.Observe(time.Since(start).Seconds())
			c.savedGen = gen
			c.logger.Debug("snapshot saved",
				slog.Uint64("generation", gen),
				slog.Int("files", len(snap.Files)))
			return nil
		}
		saveFailures.Inc()
		c.logger.Warn("snapshot save failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		if attempt >= c.flushRetries {
			break
		}
		select {
		case <-ctx.Done():
			break retry
		case <-time.After(retryBackoff << (attempt - 1)):
		}
	}

	err = fmt.Errorf("catalog: save snapshot: %w: %w", apperr.ErrPersistence, err)
	c.logger.Error("snapshot not persisted", slog.String("error", err.Error()))
	select {
	case c.fatal <- err:
	default:
	}
	return err
}
