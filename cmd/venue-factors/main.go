// Command venue-factors derives outcome factor profiles per venue from the
// match file corpus and writes them to the store. The rating pipeline skips
// any match at a venue without a profile, so this runs first.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/creaselab/crease/internal/adapters/repository"
	"github.com/creaselab/crease/internal/adapters/source"
	"github.com/creaselab/crease/internal/app"
	"github.com/creaselab/crease/internal/config"
	"github.com/creaselab/crease/internal/domain/venue"
	"github.com/creaselab/crease/pkg/logger"
)

func main() {
	seasonal := flag.Bool("seasonal", false, "also build one recency-weighted profile per venue per season")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := repository.OpenSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.String("path", cfg.DBPath), logger.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	builder := app.NewFactorBuilder(store,
		app.WithFactorLogger(log),
		app.WithFactorEngine(venue.NewEngine(
			venue.WithAdjustmentFactor(cfg.AdjustmentFactor),
			venue.WithBaseBattingFactors(cfg.BaseBattingFactors),
			venue.WithBaseBowlingFactors(cfg.BaseBowlingFactors),
		)),
		app.WithSeasonalProfiles(*seasonal || cfg.SeasonalFactors),
	)

	n, err := builder.Run(ctx, source.New(cfg.DataDir))
	if err != nil {
		log.Error(ctx, "venue factor build aborted", logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "venue factor build complete", logger.Int("profiles", n))
}
