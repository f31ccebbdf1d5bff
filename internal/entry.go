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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/leafnote/internal/api"
	"github.com/starford/leafnote/internal/controller"
	"github.com/starford/leafnote/internal/kv"
	"github.com/starford/leafnote/internal/mcpserver"
	"github.com/starford/leafnote/internal/persist"
	"github.com/starford/leafnote/internal/sse"
	"github.com/starford/leafnote/internal/ui"
	"github.com/starford/leafnote/internal/watch"
)

// App holds the wired components of one leafnote process.
type App struct {
	Config     *Config
	Logger     *slog.Logger
	Store      kv.Provider
	Gateway    *persist.Gateway
	Controller *controller.Controller

	version string
}

// New opens storage and starts the controller with the given options.
// Call Close when done.
func New(ctx context.Context, opts ...Option) (*App, error) {
	a := &application{logOutput: os.Stderr, version: "dev"}
	for _, opt := range opts {
		opt(a)
	}

	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := a.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("theme_path", cfg.Theme.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := kv.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	gw := persist.New(store, cfg.Theme.Path)
	ctl := controller.New(gw, logger)
	if err := ctl.Start(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load state: %w", err)
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Gateway:    gw,
		Controller: ctl,
		version:    a.version,
	}, nil
}

// Close releases storage. It does not save; callers shut the controller
// down first.
func (a *App) Close() error {
	return a.Store.Close()
}

// Shutdown saves library and theme. A failure is logged and returned.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.Controller.Shutdown(ctx); err != nil {
		a.Logger.Error("save on shutdown failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// Run starts the HTTP server with the given options and blocks until it is
// stopped by a signal or ctx.
func Run(ctx context.Context, opts ...Option) error {
	app, err := New(ctx, opts...)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Serve(ctx)
}

// Serve runs the REST API, the change stream, the theme watcher and the
// autosave loop until SIGINT/SIGTERM or ctx cancellation, then saves.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.Config
	logger := a.Logger

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := api.NewService(a.Controller, broker)
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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Open event streams would otherwise hold Shutdown until its timeout.
	httpServer.RegisterOnShutdown(broker.Close)

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Watch.Enabled {
		g.Go(func() error {
			if err := os.MkdirAll(filepath.Dir(cfg.Theme.Path), 0o755); err != nil {
				return fmt.Errorf("create theme dir: %w", err)
			}
			return watch.File(gCtx, cfg.Theme.Path, logger, svc.ReloadTheme)
		})
	}

	g.Go(func() error {
		autosave(gCtx, cfg.App.AutosaveInterval, logger, svc.SaveIfDirty)
		return nil
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

	err := g.Wait()
	if shutdownErr := svc.Shutdown(context.Background()); shutdownErr != nil {
		logger.Error("save on shutdown failed", slog.String("error", shutdownErr.Error()))
	}
	if err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP runs the MCP server on stdio until the client disconnects, then
// saves.
func (a *App) ServeMCP(ctx context.Context) error {
	svc := api.NewService(a.Controller, nil)
	srv := mcpserver.New(svc, a.version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go autosave(ctx, a.Config.App.AutosaveInterval, a.Logger, svc.SaveIfDirty)

	err := srv.ServeStdio()
	cancel()
	if shutdownErr := svc.Shutdown(context.Background()); shutdownErr != nil {
		a.Logger.Error("save on shutdown failed", slog.String("error", shutdownErr.Error()))
	}
	return err
}

// RunTUI runs the terminal UI. Quitting saves library and theme.
func (a *App) RunTUI(ctx context.Context) error {
	return ui.RunTUI(ctx, a.Controller,
		ui.WithAutosave(a.Config.App.AutosaveInterval),
		ui.WithLogger(a.Logger))
}

// autosave calls save every interval until ctx is done. A zero interval
// disables it.
func autosave(ctx context.Context, interval time.Duration, logger *slog.Logger, save func(context.Context) error) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := save(ctx); err != nil {
				logger.Warn("autosave failed", slog.String("error", err.Error()))
			}
		}
	}
}
