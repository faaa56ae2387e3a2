// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/filecat/internal/api"
	"github.com/starford/filecat/internal/catalog"
	"github.com/starford/filecat/internal/extract"
	"github.com/starford/filecat/internal/snapshot"
	"github.com/starford/filecat/internal/sse"
	"github.com/starford/filecat/internal/walker"
)

// newApplication applies opts and builds the JSON logger. logOut is used
// unless WithLogOutput overrides it.
func newApplication(logOut io.Writer, opts ...Option) (*application, *slog.Logger, error) {
	app := &application{out: os.Stdout, logOut: logOut}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

// openCatalog opens the configured snapshot store and loads the catalog.
// The returned close function flushes the catalog and releases the store.
func (a *application) openCatalog(ctx context.Context, logger *slog.Logger, onEvent catalog.EventCallback) (*catalog.Catalog, func(), error) {
	cfg := a.config

	store, err := snapshot.Open(cfg.Snapshot.Backend, cfg.Snapshot.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init snapshot store: %w", err)
	}

	cat, err := catalog.Open(ctx, store,
		catalog.WithLogger(logger),
		catalog.WithExtractor(extract.New(extract.Options{
			MaxFileSize:      cfg.Extract.MaxFileSize,
			MaxContentLength: cfg.Extract.MaxContentLength,
		})),
		catalog.WithBatchSize(cfg.Catalog.BatchSize),
		catalog.WithKeepScans(cfg.Catalog.KeepScans),
		catalog.WithFlushDelay(cfg.Catalog.FlushDelay),
		catalog.WithFlushRetries(cfg.Catalog.FlushRetries),
		catalog.WithCache(cfg.Search.CacheSize, cfg.Search.CacheTTL),
		catalog.WithLocale(cfg.Search.Tag()),
		catalog.WithSearchLimit(cfg.Search.DefaultLimit),
		catalog.WithEventCallback(onEvent),
	)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}

	closeFn := func() {
		if err := cat.Close(); err != nil {
			logger.Error("catalog close failed", slog.String("error", err.Error()))
		}
		if err := store.Close(); err != nil {
			logger.Error("snapshot store close failed", slog.String("error", err.Error()))
		}
	}
	return cat, closeFn, nil
}

func (a *application) walker(logger *slog.Logger) *walker.Walker {
	return walker.New(walker.Options{SkipHidden: a.config.Walk.SkipHidden}, logger)
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(os.Stdout, opts...)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("snapshot_backend", cfg.Snapshot.Backend),
		slog.String("snapshot_path", cfg.Snapshot.Path),
		slog.Int("keep_scans", cfg.Catalog.KeepScans),
		slog.String("log_level", cfg.App.LogLevel.String()))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The broker reads stats from the catalog it is notified by.
	var cat *catalog.Catalog
	broker := sse.NewBroker(2*time.Second, func() (any, error) {
		return cat.GetStats()
	})
	defer broker.Close()

	cat, closeCatalog, err := app.openCatalog(ctx, logger, broker.PublishCatalogEvent)
	if err != nil {
		return err
	}
	defer closeCatalog()

	apiRouter := api.NewRouter(cat, app.walker(logger), cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !cat.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"loading"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Persistence that keeps failing takes the server down.
	g.Go(func() error {
		select {
		case err := <-cat.Fatal():
			return err
		case <-gCtx.Done():
			return nil
		}
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
