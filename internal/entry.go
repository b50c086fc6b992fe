// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/starford/docctx/internal/api"
	"github.com/starford/docctx/internal/cache"
	"github.com/starford/docctx/internal/index"
	"github.com/starford/docctx/internal/metrics"
	"github.com/starford/docctx/internal/service"
	"github.com/starford/docctx/internal/sse"
	"github.com/starford/docctx/internal/watch"
)

// OpenService builds the service for root from the configuration, opening
// the fingerprint memo when one is configured. The returned close function
// releases it.
func OpenService(cfg *Config, root string, logger *slog.Logger, opts ...service.Option) (*service.Service, func() error, error) {
	cacheOpts := cfg.Context.CacheOptions()
	closeFn := func() error { return nil }

	if cfg.Index.Enabled() {
		db, err := index.Open(cfg.Index.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init index: %w", err)
		}
		cacheOpts = append(cacheOpts, cache.WithFingerprintIndex(db))
		closeFn = db.Close
	}

	opts = append([]service.Option{
		service.WithLogger(logger),
		service.WithCacheOptions(cacheOpts...),
	}, opts...)
	return service.New(root, opts...), closeFn, nil
}

// statusChange converts a watcher transition into an SSE payload.
func statusChange(t watch.Transition) sse.StatusChange {
	return sse.StatusChange{
		Path:    t.Path,
		From:    t.From.String(),
		To:      t.To.String(),
		Added:   t.Added,
		Removed: t.Removed,
	}
}

// Run starts the HTTP server with the given options: the read-only API, an
// SSE stream of status transitions fed by the file watcher, health checks
// and Prometheus metrics.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	if app.root == "" {
		return fmt.Errorf("documentation root is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("root", app.root),
		slog.String("index_path", cfg.Index.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	reg := prom.NewRegistry()
	m := metrics.New(reg)

	svc, closeIndex, err := OpenService(cfg, app.root, logger, service.WithMetrics(m))
	if err != nil {
		return err
	}
	defer func() {
		if err := closeIndex(); err != nil {
			logger.Warn("close index failed", slog.String("error", err.Error()))
		}
	}()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		if info, err := os.Stat(app.root); err != nil || !info.IsDir() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"root unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", m.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the tree and publish status transitions.
	tracker := watch.NewTracker(svc)
	g.Go(func() error {
		return watch.Follow(gCtx, tracker, logger, cfg.Context.Debounce, func(ts []watch.Transition) {
			for _, t := range ts {
				broker.PublishStatusChange(statusChange(t))
			}
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
