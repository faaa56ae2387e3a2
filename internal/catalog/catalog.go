// Package catalog owns the durable record set: it ingests scans, keeps the
// inverted indexes in step with the records, answers queries, enforces
// retention and persists snapshots.
//
// Concurrency model: one RWMutex guards scans, files and the index. Queries
// share the read lock; every mutation takes the write lock, swaps in freshly
// built slices and a freshly built index, and bumps a generation counter.
// Extraction for a new scan runs before the write lock is taken, so a search
// never observes a half-ingested scan.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/text/language"

	"github.com/starford/filecat/internal/apperr"
	"github.com/starford/filecat/internal/extract"
	"github.com/starford/filecat/internal/index"
	"github.com/starford/filecat/internal/models"
	"github.com/starford/filecat/internal/search"
	"github.com/starford/filecat/internal/snapshot"
)

// Event kinds passed to an EventCallback.
const (
	EventScanAdded   = "scan.added"
	EventScanDeleted = "scan.deleted"
	EventCleared     = "catalog.cleared"
	EventCleaned     = "catalog.cleaned"
)

// EventCallback is called after a mutation has been applied in memory.
type EventCallback func(kind string, scanID int64)

// Extractor turns a raw file into its extracted metadata.
type Extractor interface {
	Extract(ctx context.Context, f models.RawFile) extract.Result
}

// Catalog is the owned catalog component. Create it with New, call Load
// before use and Close on shutdown.
type Catalog struct {
	mu    sync.RWMutex
	scans []models.Scan
	files []models.FileRecord
	idx   *index.Index
	gen   uint64

	ready  atomic.Bool
	closed atomic.Bool
	ids    idAllocator

	store     snapshot.Store
	extractor Extractor
	engine    *search.Engine
	cache     *expirable.LRU[string, []search.Hit]
	logger    *slog.Logger
	onEvent   EventCallback
	now       func() time.Time

	batchSize    int
	keepScans    int
	flushDelay   time.Duration
	flushRetries int
	cacheSize    int
	cacheTTL     time.Duration
	locale       language.Tag
	searchLimit  int

	saveMu   sync.Mutex
	savedGen uint64

	flushCh   chan struct{}
	stopCh    chan struct{}
	stopped   chan struct{}
	fatal     chan error
	closeOnce sync.Once
}

// New creates an unloaded catalog backed by store. Every operation returns
// apperr.ErrNotReady until Load succeeds.
func New(store snapshot.Store, opts ...Option) *Catalog {
	c := &Catalog{
		store:        store,
		extractor:    extract.New(extract.Options{}),
		logger:       slog.Default(),
		now:          time.Now,
		batchSize:    DefaultBatchSize,
		flushDelay:   DefaultFlushDelay,
		flushRetries: DefaultFlushRetries,
		cacheSize:    DefaultCacheSize,
		cacheTTL:     DefaultCacheTTL,
		locale:       language.English,
		idx:          index.Build(nil),
		flushCh:      make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		stopped:      make(chan struct{}),
		fatal:        make(chan error, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.engine = search.New(c.locale, c.searchLimit)
	if c.cacheSize > 0 {
		c.cache = expirable.NewLRU[string, []search.Hit](c.cacheSize, nil, c.cacheTTL)
	}
	c.logger = c.logger.With(slog.String("component", "catalog"))
	return c
}

// Open is New followed by Load.
func Open(ctx context.Context, store snapshot.Store, opts ...Option) (*Catalog, error) {
	c := New(store, opts...)
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the snapshot, builds the indexes and starts the persistence
// worker. A missing or unreadable snapshot yields an empty catalog and a
// fresh empty snapshot; failing to write that snapshot is fatal. A closed
// catalog cannot be loaded again.
func (c *Catalog) Load(ctx context.Context) error {
	if c.closed.Load() {
		return fmt.Errorf("catalog: load after close: %w", apperr.ErrNotReady)
	}
	if c.ready.Load() {
		return nil
	}

	snap, err := c.store.Load(ctx)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotExist) {
			c.logger.Info("no snapshot found, starting empty")
		} else {
			c.logger.Warn("snapshot unreadable, starting empty", slog.String("error", err.Error()))
		}
		snap = &models.Snapshot{}
		if err := c.store.Save(ctx, snap); err != nil {
			return fmt.Errorf("catalog: write empty snapshot: %w: %w", apperr.ErrPersistence, err)
		}
	}

	c.mu.Lock()
	c.scans, c.files = dropOrphans(snap.Scans, snap.Files, c.logger)
	c.idx = index.Build(c.files)
	for _, s := range c.scans {
		c.ids.observe(s.ID)
	}
	c.mu.Unlock()
	recordsGauge.Set(float64(len(c.files)))

	go c.runFlusher()
	c.ready.Store(true)

	c.logger.Info("catalog loaded",
		slog.Int("scans", len(snap.Scans)),
		slog.Int("files", len(c.files)))
	return nil
}

// Close flushes pending changes and stops the persistence worker.
func (c *Catalog) Close() error {
	if !c.ready.Load() {
		return nil
	}
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.stopCh)
		<-c.stopped
		err = c.Flush(context.Background())
		c.ready.Store(false)
	})
	return err
}

// Fatal delivers an error when persistence has failed beyond its retries.
func (c *Catalog) Fatal() <-chan error {
	return c.fatal
}

// Ready reports whether Load has completed and Close has not been called.
func (c *Catalog) Ready() bool {
	return c.ready.Load()
}

func (c *Catalog) checkReady() error {
	if !c.ready.Load() {
		return apperr.ErrNotReady
	}
	return nil
}

// Search returns ranked records matching query. A limit of 0 uses the
// engine default.
func (c *Catalog) Search(query string, limit int) ([]search.Hit, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%d|%s", limit, strings.ToLower(strings.TrimSpace(query)))

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cache != nil {
		if hits, ok := c.cache.Get(key); ok {
			cacheHits.Inc()
			return slices.Clone(hits), nil
		}
		cacheMisses.Inc()
	}
	hits := c.engine.Search(c.idx, c.files, query, limit)
	if c.cache != nil {
		c.cache.Add(key, hits)
	}
	return slices.Clone(hits), nil
}

// GetFilesByScan returns the records owned by scan id in catalog order.
func (c *Catalog) GetFilesByScan(id int64) ([]models.FileRecord, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filesByScanLocked(id), nil
}

func (c *Catalog) filesByScanLocked(id int64) []models.FileRecord {
	ords := c.idx.ByScan(id)
	out := make([]models.FileRecord, 0, len(ords))
	for _, o := range ords {
		out = append(out, c.files[o])
	}
	return out
}

// GetLatestFiles returns the records of the most recent scan.
func (c *Catalog) GetLatestFiles() ([]models.FileRecord, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	recent := sortedByDate(c.scans)
	if len(recent) == 0 {
		return []models.FileRecord{}, nil
	}
	return c.filesByScanLocked(recent[0].ID), nil
}

// GetRecentScans returns up to limit scans, newest first. limit <= 0 means all.
func (c *Catalog) GetRecentScans(limit int) ([]models.Scan, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	recent := sortedByDate(c.scans)
	c.mu.RUnlock()
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

// GetFileDetails looks up a record by path. An exact match wins over a
// case-insensitive one.
func (c *Catalog) GetFileDetails(path string) (*models.FileRecord, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("catalog: empty path: %w", apperr.ErrInvalidArgument)
	}
	want := absPath(path)

	c.mu.RLock()
	defer c.mu.RUnlock()
	fold := -1
	for i := range c.files {
		if c.files[i].Path == want {
			rec := c.files[i]
			return &rec, nil
		}
		if fold < 0 && strings.EqualFold(c.files[i].Path, want) {
			fold = i
		}
	}
	if fold >= 0 {
		rec := c.files[fold]
		return &rec, nil
	}
	return nil, fmt.Errorf("catalog: file %s: %w", want, apperr.ErrNotFound)
}

// sortedByDate returns a copy of scans ordered newest first, ties broken by
// the larger (later allocated) id.
func sortedByDate(scans []models.Scan) []models.Scan {
	out := slices.Clone(scans)
	slices.SortStableFunc(out, func(a, b models.Scan) int {
		if c := b.ScanDate.Compare(a.ScanDate); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return out
}

// dropOrphans discards records whose owning scan is missing.
func dropOrphans(scans []models.Scan, files []models.FileRecord, logger *slog.Logger) ([]models.Scan, []models.FileRecord) {
	known := make(map[int64]struct{}, len(scans))
	for _, s := range scans {
		known[s.ID] = struct{}{}
	}
	kept := make([]models.FileRecord, 0, len(files))
	for _, f := range files {
		if _, ok := known[f.ScanID]; ok {
			kept = append(kept, f)
		}
	}
	if dropped := len(files) - len(kept); dropped > 0 {
		logger.Warn("dropped records without a scan", slog.Int("count", dropped))
	}
	if scans == nil {
		scans = []models.Scan{}
	}
	return scans, kept
}
