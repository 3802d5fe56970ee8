// Package main provides the standardsctl binary.
package main

import (
	"context"
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
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"

	"github.com/solaius/standards-registry/pkg/audit"
	"github.com/solaius/standards-registry/pkg/registry"
	"github.com/solaius/standards-registry/pkg/watch"
)

func newServeCmd() *cobra.Command {
	var (
		listenAddr string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the management HTTP API",
		Long: `Serve the management HTTP API for the repository. Optionally persists
audit events to SQLite and watches registered documents for changes,
recording automatic patch versions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(listenAddr, configPath)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to the server YAML config")

	return cmd
}

func runServe(listenAddr, configPath string) error {
	logger := slog.Default()

	cfg, err := loadServerConfig(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	repo := cfg.Repo
	if repo == "" {
		repo = repoFlag
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	opts := []registry.Option{registry.WithLogger(logger)}

	// Audit persistence
	var auditStore *audit.Store
	if cfg.Audit.Enabled {
		dbPath := cfg.Audit.Path
		if dbPath == "" {
			dbPath = audit.DefaultConfig().Path
		}
		if !filepath.IsAbs(dbPath) && dbPath != ":memory:" {
			dbPath = filepath.Join(repo, dbPath)
		}
		db, err := audit.OpenDB(dbPath)
		if err != nil {
			return err
		}
		auditStore = audit.NewStore(db)
		if err := auditStore.AutoMigrate(); err != nil {
			return err
		}
		opts = append(opts, registry.WithAuditSink(audit.NewSink(auditStore, logger)))
		logger.Info("audit persistence enabled", "path", dbPath, "retentionDays", cfg.Audit.RetentionDays)
	}

	c, err := registry.New(repo, opts...)
	if err != nil {
		return err
	}

	logger.Info("starting standards registry server",
		"listen", cfg.Listen,
		"repo", c.Repo(),
		"versions", len(c.Versions()),
	)

	if auditStore != nil && cfg.Audit.RetentionDays > 0 {
		worker := audit.NewRetentionWorker(auditStore, cfg.Audit.RetentionDays, logger)
		go worker.Run(ctx)
	}

	if cfg.Watch.Enabled {
		watcher, err := watch.New(c, cfg.Watch.Artifacts, cfg.Watch.Debounce(), logger)
		if err != nil {
			return fmt.Errorf("configure artifact watcher: %w", err)
		}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("artifact watcher exited", "error", err)
			}
		}()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-Principal"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Mount("/api/v1", registry.NewRouter(c))

	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("standards registry server stopped")
	return nil
}
