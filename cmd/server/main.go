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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linkrunner-labs/pageone/internal/config"
	"github.com/linkrunner-labs/pageone/internal/domain/attribution"
	"github.com/linkrunner-labs/pageone/internal/domain/note"
	"github.com/linkrunner-labs/pageone/internal/metrics"
	"github.com/linkrunner-labs/pageone/internal/postback"
	"github.com/linkrunner-labs/pageone/internal/sqlite"
	"github.com/linkrunner-labs/pageone/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	noteRepo := sqlite.NewNoteRepository(db)
	stateRepo := sqlite.NewStateRepository(db)

	tracker, err := attribution.New(
		context.Background(),
		stateRepo,
		buildSink(cfg.Attribution, logger),
		buildPolicy(cfg.Attribution),
		logger,
		attribution.WithMetrics(m),
	)
	if err != nil {
		logger.Error("failed to initialize conversion tracker", "error", err)
		os.Exit(1)
	}

	noteSvc := note.NewService(noteRepo, tracker, note.Thresholds{
		MultipleNotes: cfg.Notes.MultiNoteThreshold,
		ActiveUser:    cfg.Notes.ActiveUserThreshold,
	}, logger)

	router := transport.NewRouter(noteSvc, logger, m.Middleware)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer)
}

// buildSink picks the postback client generation from config. An empty
// endpoint yields a nil sink, which disables conversion reporting.
func buildSink(cfg config.AttributionConfig, logger *slog.Logger) any {
	if cfg.Endpoint == "" {
		return nil
	}
	pcfg := postback.Config{Endpoint: cfg.Endpoint, APIKey: cfg.APIKey}
	switch cfg.APIVersion {
	case "v0":
		return postback.NewLegacyClient(pcfg, logger)
	case "v1":
		return postback.NewV1Client(pcfg)
	default:
		return postback.NewClient(pcfg)
	}
}

func buildPolicy(cfg config.AttributionConfig) attribution.Policy {
	policy := attribution.DefaultPolicy()
	if cfg.Window0Days > 0 {
		policy.Window0 = time.Duration(cfg.Window0Days) * 24 * time.Hour
	}
	if cfg.Window1Days > 0 {
		policy.Window1 = time.Duration(cfg.Window1Days) * 24 * time.Hour
	}
	if cfg.Window2Days > 0 {
		policy.Window2 = time.Duration(cfg.Window2Days) * 24 * time.Hour
	}
	if cfg.LockThreshold > 0 {
		policy.LockThreshold = cfg.LockThreshold
	}
	return policy
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
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
