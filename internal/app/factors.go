package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/creaselab/crease/internal/adapters/repository"
	"github.com/creaselab/crease/internal/domain/outcome"
	"github.com/creaselab/crease/internal/domain/venue"
	"github.com/creaselab/crease/pkg/logger"
	"github.com/creaselab/crease/pkg/metrics"
)

// FactorBuilder aggregates outcome frequencies per venue across all match
// files and writes factor profiles wholesale.
type FactorBuilder struct {
	venues   repository.VenueFactorStore
	engine   *venue.Engine
	seasonal bool
	log      logger.Logger
}

// FactorOption applies a configuration option to the FactorBuilder.
type FactorOption func(*FactorBuilder)

// WithFactorEngine overrides the factor engine.
func WithFactorEngine(e *venue.Engine) FactorOption {
	return func(b *FactorBuilder) {
		if e != nil {
			b.engine = e
		}
	}
}

// WithSeasonalProfiles additionally emits one recency-weighted profile per
// venue per season.
func WithSeasonalProfiles(on bool) FactorOption {
	return func(b *FactorBuilder) {
		b.seasonal = on
	}
}

// WithFactorLogger sets a custom logger for the builder.
func WithFactorLogger(l logger.Logger) FactorOption {
	return func(b *FactorBuilder) {
		if l != nil {
			b.log = l
		}
	}
}

// NewFactorBuilder constructs a builder over the given store.
func NewFactorBuilder(venues repository.VenueFactorStore, opts ...FactorOption) *FactorBuilder {
	b := &FactorBuilder{
		venues: venues,
		engine: venue.NewEngine(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logger.Get()
	}
	return b
}

// venueCounts accumulates per-venue outcome frequencies, split by season in
// first-seen (chronological) order.
type venueCounts struct {
	total    map[outcome.Outcome]int
	seasons  []string
	bySeason map[string]map[outcome.Outcome]int
}

// Run aggregates every match file and upserts the resulting profiles in one
// bulk write. Returns the number of profiles written.
func (b *FactorBuilder) Run(ctx context.Context, src MatchSource) (int, error) {
	files, err := src.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list match files: %w", err)
	}
	b.log.Info(ctx, "starting venue factor build",
		logger.Int("matches", len(files)),
		logger.Any("seasonal", b.seasonal),
	)

	byVenue := make(map[string]*venueCounts)
	for _, ref := range files {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		m, err := src.Read(ctx, ref)
		if err != nil {
			b.log.Warn(ctx, "skipping unreadable match file", logger.String("file", ref), logger.Error(err))
			continue
		}

		vc := byVenue[m.Venue]
		if vc == nil {
			vc = &venueCounts{
				total:    make(map[outcome.Outcome]int),
				bySeason: make(map[string]map[outcome.Outcome]int),
			}
			byVenue[m.Venue] = vc
		}
		if vc.bySeason[m.Season] == nil {
			vc.seasons = append(vc.seasons, m.Season)
			vc.bySeason[m.Season] = make(map[outcome.Outcome]int)
		}

		for _, ball := range m.Balls {
			o, ok := outcome.Classify(ball)
			if !ok {
				continue
			}
			vc.total[o]++
			vc.bySeason[m.Season][o]++
		}
	}

	names := make([]string, 0, len(byVenue))
	for name := range byVenue {
		names = append(names, name)
	}
	sort.Strings(names)

	var profiles []venue.Profile
	for _, name := range names {
		vc := byVenue[name]
		profiles = append(profiles, b.engine.ComputeFactors(name, vc.total))
		if b.seasonal {
			for _, season := range vc.seasons {
				profiles = append(profiles, b.engine.ComputeSeasonalFactors(name, vc.seasons, vc.bySeason, season))
			}
		}
	}
	if len(profiles) == 0 {
		b.log.Warn(ctx, "no venue data found; nothing written")
		return 0, nil
	}

	if err := b.venues.PutAll(ctx, profiles); err != nil {
		return 0, fmt.Errorf("write venue factors: %w", err)
	}
	metrics.UpdateVenueProfiles(len(profiles))

	b.log.Info(ctx, "venue factor build finished",
		logger.Int("venues", len(names)),
		logger.Int("profiles", len(profiles)),
	)
	return len(profiles), nil
}
