// Package internal provides the main application initialization and
// runtime logic.
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
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/cache"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/queryservice"
	"github.com/starford/ansuz/internal/remote/confluence"
	"github.com/starford/ansuz/internal/remote/jira"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/vault"
)

// Run starts the application with the given options and blocks until
// shutdown.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Stdout carries the MCP stdio transport, so all logging goes to
	// stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.Bool("cache_enabled", cfg.Cache.Enabled),
		slog.Bool("http_enabled", cfg.App.HTTP.Enabled),
		slog.Bool("jira_configured", cfg.Jira.Configured()),
		slog.Bool("confluence_configured", cfg.Confluence.Configured()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	engine := vault.New(store, cfg.Vault.ExcludeFolders, logger)

	var qc *cache.Cache
	if cfg.Cache.Enabled {
		qc = cache.New(cfg.Cache.TTL())
	}

	svc := queryservice.New(engine, store, qc)

	var tracker mcpserver.IssueTracker
	if cfg.Jira.Configured() {
		jc, err := jira.New(jira.Config{
			BaseURL:  cfg.Jira.BaseURL,
			Email:    cfg.Jira.Email,
			APIToken: cfg.Jira.APIToken,
		})
		if err != nil {
			return fmt.Errorf("init jira client: %w", err)
		}
		tracker = jc
	}

	var wiki mcpserver.Wiki
	if cfg.Confluence.Configured() {
		wiki = confluence.New(confluence.Config{
			BaseURL:  cfg.Confluence.BaseURL,
			Email:    cfg.Confluence.Email,
			APIToken: cfg.Confluence.APIToken,
		})
	}

	srv := mcpserver.New(svc, tracker, wiki)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	// Cache invalidation watcher.
	if qc != nil {
		g.Go(func() error {
			return qc.Watch(gCtx, cfg.Vault.Path, logger)
		})
	}

	// MCP stdio server.
	g.Go(func() error {
		logger.Info("MCP server listening on stdio")
		return srv.Listen(gCtx)
	})

	// Optional HTTP mirror of the tool surface.
	if cfg.App.HTTP.Enabled {
		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.RealIP)
		r.Use(middleware.Recoverer)

		r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})

		r.Mount("/api", api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token))

		httpServer := &http.Server{
			Addr:    cfg.App.HTTP.Address(),
			Handler: r,
		}

		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
