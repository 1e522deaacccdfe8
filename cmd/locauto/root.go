package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/locauto/locauto/internal/alerts"
	"github.com/locauto/locauto/internal/api"
	"github.com/locauto/locauto/internal/config"
	"github.com/locauto/locauto/internal/documents"
	"github.com/locauto/locauto/internal/tenant"
	"github.com/locauto/locauto/internal/worker"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "locauto",
	Short: "Locauto - Rental Agency Backend",
	RunE:  run,
}

func init() {
	rootCmd.AddCommand(tenantCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	initLogger(cfg.Log)
	slog.Info("configuration loaded")

	manager, err := tenant.NewManager(cfg.Tenants.RootPath)
	if err != nil {
		return err
	}
	slog.Info("tenant manager initialized", "root", cfg.Tenants.RootPath)

	storage, err := documents.NewStorage(cfg.Documents)
	if err != nil {
		return err
	}
	renderer := documents.NewHTTPRenderer(
		cfg.Documents.RenderURL,
		time.Duration(cfg.Documents.RenderTimeout),
		cfg.Documents.MaxAttempts)
	docs := documents.NewService(renderer, storage)

	registry := alerts.NewRegistry(time.Duration(cfg.Alerts.CacheWindow))

	handler := api.NewHandler(manager, registry, docs,
		cfg.Auth.APIKey, cfg.Auth.AdminKey, Version)
	router := api.NewRouter(handler)
	slog.Info("router initialized")

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	var wg sync.WaitGroup
	coordinator := worker.NewAlertCoordinator(manager, registry,
		time.Duration(cfg.Alerts.RefreshInterval))
	startWorker(ctx, &wg, coordinator.Run)

	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called
		// gracefully. Anything else is a real failure.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	wg.Wait()

	if err := manager.Close(); err != nil {
		slog.Error("tenant manager close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func initLogger(cfg config.LogConfig) {
	level := parseLogLevel(cfg.Level)
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context
// cancellation. Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn(ctx)
	}()
}
