package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/therafind/internal/config"
	"github.com/JonMunkholm/therafind/internal/core"
	"github.com/JonMunkholm/therafind/internal/dataset"
	"github.com/JonMunkholm/therafind/internal/logging"
	"github.com/JonMunkholm/therafind/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())

	// Resolve local fallbacks once; the working directory does not change.
	localPaths := dataset.ResolveLocalPaths(cfg.Dataset.LocalPaths)
	if path, ok := dataset.FirstExisting(localPaths); ok {
		slog.Info("local fallback found", "path", path)
	} else if cfg.Dataset.RemoteURL == "" {
		slog.Warn("no local table found and no remote configured; searches will fail until one appears",
			"candidates", localPaths,
		)
	} else {
		slog.Warn("no local fallback found; searches depend on the remote source", "candidates", localPaths)
	}

	loader := dataset.NewLoader(dataset.LoaderConfig{
		RemoteURL:  cfg.Dataset.RemoteURL,
		LocalPaths: localPaths,
		Timeout:    cfg.Dataset.FetchTimeout,
		Fetcher:    dataset.NewHTTPFetcher(&http.Client{Timeout: cfg.Dataset.FetchTimeout}, cfg.Dataset.MaxBytes),
		Files:      dataset.OSFiles{MaxBytes: cfg.Dataset.MaxBytes},
	})

	service, err := core.NewService(loader,
		core.WithLimiter(core.NewSearchLimiter(cfg.Search.MaxConcurrent, cfg.Search.MaxWait)),
	)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Shutdown stops new requests; let in-flight searches finish.
		if status := service.Limiter().Status(); status.Active > 0 {
			slog.Info("waiting for searches to complete", "active", status.Active)
			if err := service.Limiter().WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("searches did not complete in time", "error", err)
			}
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("server stopped")
}
