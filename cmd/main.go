package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creaselab/crease/internal/adapters/repository"
	"github.com/creaselab/crease/internal/adapters/source"
	"github.com/creaselab/crease/internal/app"
	"github.com/creaselab/crease/internal/config"
	"github.com/creaselab/crease/internal/domain/decay"
	"github.com/creaselab/crease/internal/domain/elo"
	"github.com/creaselab/crease/pkg/logger"
	"github.com/creaselab/crease/pkg/metrics"
)

// HTTP timeouts for the optional metrics listener.
const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	force := flag.Bool("force", false, "clear all ratings and markers, then reprocess every match")
	dataDir := flag.String("data", "", "match data directory (overrides config)")
	dbPath := flag.String("db", "", "SQLite store path (overrides config)")
	flag.Parse()

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	store, err := repository.OpenSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Error(ctx, "failed to open rating store", logger.String("path", cfg.DBPath), logger.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	// Expose /metrics for the duration of the run when configured.
	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(ctx, cfg.MetricsAddr, log)
		defer stopMetricsServer(srv, log)
	}

	pipeline := app.NewPipeline(store, store,
		app.WithLogger(log),
		app.WithEloEngine(elo.NewEngine(
			elo.WithKFactor(cfg.KFactor),
			elo.WithDefaultRating(cfg.DefaultRating),
		)),
		app.WithDecayModule(decay.New(
			decay.WithThresholdDays(cfg.DecayTimeThresholdDays),
			decay.WithRate(cfg.DecayRate),
		)),
		app.WithSeasonalFactors(cfg.SeasonalFactors),
		app.WithForceReprocess(*force),
	)

	sum, err := pipeline.Run(ctx, source.New(cfg.DataDir))
	if err != nil {
		log.Error(ctx, "rating run aborted",
			logger.String("runID", sum.RunID),
			logger.Int("processed", sum.Processed),
			logger.Error(err),
		)
		os.Exit(1)
	}

	log.Info(ctx, "rating run complete",
		logger.String("runID", sum.RunID),
		logger.Int("matches", sum.Matches),
		logger.Int("processed", sum.Processed),
		logger.Int("skippedDuplicate", sum.SkippedDuplicate),
		logger.Int("skippedMissingVenue", sum.SkippedMissingVenue),
		logger.Int("failed", sum.Failed),
		logger.Int("decayedEntries", sum.DecayedEntries),
		logger.Int("players", sum.Players),
		logger.Duration("duration", sum.Duration),
	)
}

// startMetricsServer serves the Prometheus handler in the background.
func startMetricsServer(ctx context.Context, addr string, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		log.Info(ctx, "serving metrics", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(ctx, "metrics server failed", logger.Error(err))
		}
	}()
	return srv
}

func stopMetricsServer(srv *http.Server, log logger.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn(shutdownCtx, "metrics server shutdown failed", logger.Error(err))
	}
}
