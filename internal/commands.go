package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/filecat/internal/mcpserver"
)

// RunMCP serves the catalog over MCP on stdin/stdout. Logs go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	cat, closeCatalog, err := app.openCatalog(ctx, logger, nil)
	if err != nil {
		return err
	}
	defer closeCatalog()

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(cat, app.walker(logger)).ServeStdio()
}

// RunScan walks root, ingests it and prints the resulting scan.
func RunScan(ctx context.Context, root string, opts ...Option) error {
	app, logger, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	cat, closeCatalog, err := app.openCatalog(ctx, logger, nil)
	if err != nil {
		return err
	}
	defer closeCatalog()

	files, err := app.walker(logger).Walk(ctx, root)
	if err != nil {
		return err
	}
	id, err := cat.AddScan(ctx, root, files)
	if err != nil {
		return fmt.Errorf("add scan: %w", err)
	}
	if err := cat.Flush(ctx); err != nil {
		return err
	}
	scans, err := cat.GetRecentScans(0)
	if err != nil {
		return err
	}
	for _, s := range scans {
		if s.ID == id {
			return app.print(s)
		}
	}
	return app.print(map[string]int64{"scan_id": id})
}

// RunSearch prints the ranked results for query.
func RunSearch(ctx context.Context, query string, limit int, opts ...Option) error {
	app, logger, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	cat, closeCatalog, err := app.openCatalog(ctx, logger, nil)
	if err != nil {
		return err
	}
	defer closeCatalog()

	hits, err := cat.Search(query, limit)
	if err != nil {
		return err
	}
	logger.Debug("search finished", slog.String("query", query), slog.Int("hits", len(hits)))
	return app.print(hits)
}

// RunStats prints catalog diagnostics.
func RunStats(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	cat, closeCatalog, err := app.openCatalog(ctx, logger, nil)
	if err != nil {
		return err
	}
	defer closeCatalog()

	st, err := cat.GetStats()
	if err != nil {
		return err
	}
	return app.print(st)
}

// RunCleanup keeps the keep most recent scans and prints the removed count.
func RunCleanup(ctx context.Context, keep int, opts ...Option) error {
	app, logger, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	cat, closeCatalog, err := app.openCatalog(ctx, logger, nil)
	if err != nil {
		return err
	}
	defer closeCatalog()

	removed, err := cat.CleanupOldScans(ctx, keep)
	if err != nil {
		return err
	}
	return app.print(map[string]int{"removed": removed})
}

func (a *application) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
