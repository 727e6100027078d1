// Package app orchestrates batch runs over match files: the rating pipeline
// and the venue factor build.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/creaselab/crease/internal/adapters/repository"
	"github.com/creaselab/crease/internal/domain/decay"
	"github.com/creaselab/crease/internal/domain/elo"
	"github.com/creaselab/crease/internal/domain/model"
	"github.com/creaselab/crease/internal/domain/outcome"
	"github.com/creaselab/crease/internal/domain/venue"
	"github.com/creaselab/crease/pkg/logger"
	"github.com/creaselab/crease/pkg/metrics"
)

// Status is the terminal state of one match file.
type Status int

const (
	StatusProcessed Status = iota
	StatusSkippedAlreadyProcessed
	StatusSkippedMissingVenueFactors
)

func (s Status) String() string {
	switch s {
	case StatusProcessed:
		return "processed"
	case StatusSkippedAlreadyProcessed:
		return "skipped-already-processed"
	case StatusSkippedMissingVenueFactors:
		return "skipped-missing-venue-factors"
	default:
		return "unknown"
	}
}

// MatchSource produces ordered match files and parses them on demand.
type MatchSource interface {
	// List returns match file references in ascending processing order.
	List(ctx context.Context) ([]string, error)
	// Read parses one match file into its context.
	Read(ctx context.Context, ref string) (model.MatchContext, error)
}

// Summary reports the outcome of one pipeline run.
type Summary struct {
	RunID               string
	Matches             int
	Processed           int
	SkippedDuplicate    int
	SkippedMissingVenue int
	Failed              int
	DecayedEntries      int
	Players             int
	Duration            time.Duration
}

// Pipeline folds match files into rating history exactly once each.
// Processing is single-threaded and strictly sequential: trajectories
// depend on match order, so no reordering or parallelism is permitted.
type Pipeline struct {
	ratings repository.RatingStore
	venues  repository.VenueFactorStore
	engine  *elo.Engine
	decayer *decay.Module

	seasonal bool
	force    bool

	log logger.Logger
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithEloEngine overrides the update engine.
func WithEloEngine(e *elo.Engine) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.engine = e
		}
	}
}

// WithDecayModule overrides the seasonal decay module.
func WithDecayModule(m *decay.Module) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.decayer = m
		}
	}
}

// WithSeasonalFactors makes venue factor lookups season-scoped, falling
// back to the whole-history profile when a season has none.
func WithSeasonalFactors(on bool) Option {
	return func(p *Pipeline) {
		p.seasonal = on
	}
}

// WithForceReprocess clears all ratings and markers before the run.
func WithForceReprocess(on bool) Option {
	return func(p *Pipeline) {
		p.force = on
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPipeline constructs a pipeline over the given stores.
func NewPipeline(ratings repository.RatingStore, venues repository.VenueFactorStore, opts ...Option) *Pipeline {
	p := &Pipeline{
		ratings: ratings,
		venues:  venues,
		engine:  elo.NewEngine(),
		decayer: decay.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get()
	}
	return p
}

// seasonTrack remembers the last-seen season within one run.
type seasonTrack struct {
	current string
	seen    bool
}

// Run processes every match file of the source in order. A match failing on
// bad input is surfaced and skipped; a store failure aborts the run.
// Cancellation is honored between matches, never mid-match.
func (p *Pipeline) Run(ctx context.Context, src MatchSource) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: uuid.NewString()}

	if p.force {
		p.log.Info(ctx, "force reprocess: clearing ratings and markers", logger.String("runID", sum.RunID))
		if err := p.ratings.ClearAll(ctx); err != nil {
			return sum, fmt.Errorf("clear for force reprocess: %w", err)
		}
	}

	files, err := src.List(ctx)
	if err != nil {
		return sum, fmt.Errorf("list match files: %w", err)
	}
	p.log.Info(ctx, "starting rating run",
		logger.String("runID", sum.RunID),
		logger.Int("matches", len(files)),
	)

	var track seasonTrack
	for _, ref := range files {
		if err := ctx.Err(); err != nil {
			sum.Duration = time.Since(start)
			return sum, err
		}
		sum.Matches++

		m, err := src.Read(ctx, ref)
		if err != nil {
			// Bad input aborts only this file; the run continues.
			p.log.Warn(ctx, "skipping unreadable match file", logger.String("file", ref), logger.Error(err))
			metrics.RecordMatchFailed()
			sum.Failed++
			continue
		}

		status, err := p.processMatch(ctx, m, &track, &sum)
		if err != nil {
			sum.Duration = time.Since(start)
			return sum, fmt.Errorf("process match %s: %w", m.ID, err)
		}
		switch status {
		case StatusProcessed:
			metrics.RecordMatchProcessed()
			sum.Processed++
		case StatusSkippedAlreadyProcessed:
			metrics.RecordMatchDuplicate()
			sum.SkippedDuplicate++
		case StatusSkippedMissingVenueFactors:
			metrics.RecordMatchMissingVenue()
			sum.SkippedMissingVenue++
		}
	}

	if players, err := p.ratings.ListPlayers(ctx); err == nil {
		sum.Players = len(players)
		metrics.UpdatePlayersTracked(len(players))
	}

	sum.Duration = time.Since(start)
	p.log.Info(ctx, "rating run finished",
		logger.String("runID", sum.RunID),
		logger.Int("processed", sum.Processed),
		logger.Int("skippedDuplicate", sum.SkippedDuplicate),
		logger.Int("skippedMissingVenue", sum.SkippedMissingVenue),
		logger.Int("failed", sum.Failed),
		logger.Int("players", sum.Players),
		logger.Duration("duration", sum.Duration),
	)
	return sum, nil
}

// processMatch walks one match through the state machine: idempotency check,
// season decay, write-ahead marker, venue factor lookup, batch read, Elo
// update, batch write.
func (p *Pipeline) processMatch(ctx context.Context, m model.MatchContext, track *seasonTrack, sum *Summary) (Status, error) {
	has, err := p.ratings.HasMarker(ctx, m.ID)
	if err != nil {
		return 0, fmt.Errorf("check marker: %w", err)
	}
	if has {
		p.log.Debug(ctx, "match already processed", logger.String("match", m.ID))
		return StatusSkippedAlreadyProcessed, nil
	}

	if (!track.seen || m.Season != track.current) && p.decayer.Rate() != 0 {
		n, err := p.decayer.Apply(ctx, p.ratings, m.Date)
		if err != nil {
			return 0, fmt.Errorf("seasonal decay: %w", err)
		}
		if n > 0 {
			p.log.Info(ctx, "applied seasonal decay",
				logger.String("season", m.Season),
				logger.Date("seasonStart", m.Date),
				logger.Int("entries", n),
			)
		}
		metrics.RecordDecayAppends(n)
		sum.DecayedEntries += n
	}
	track.current = m.Season
	track.seen = true

	// Write-ahead marker: a crash mid-match must never double-count on
	// retry. The cost is that a crash before the rating write leaves this
	// match permanently skipped.
	if err := p.ratings.WriteMarker(ctx, m.ID); err != nil {
		return 0, fmt.Errorf("write marker: %w", err)
	}

	profile, err := p.lookupFactors(ctx, m)
	if errors.Is(err, repository.ErrNotFound) {
		p.log.Warn(ctx, "no venue factors; skipping match",
			logger.String("match", m.ID),
			logger.String("venue", m.Venue),
		)
		return StatusSkippedMissingVenueFactors, nil
	}
	if err != nil {
		return 0, fmt.Errorf("venue factors for %s: %w", m.Venue, err)
	}

	seeds, err := p.ratings.GetBatch(ctx, m.Players())
	if err != nil {
		return 0, fmt.Errorf("preload ratings: %w", err)
	}

	entries := p.engine.UpdateMatch(ctx, m, profile, elo.Seeds(seeds))
	applied, excluded := countBalls(m)
	metrics.RecordBallsProcessed(applied)
	metrics.RecordBallsExcluded(excluded)

	writeStart := time.Now()
	if err := p.ratings.AppendBatch(ctx, entries); err != nil {
		return 0, fmt.Errorf("persist ratings: %w", err)
	}
	metrics.RecordBatchWriteMillis(float64(time.Since(writeStart).Microseconds()) / 1e3)
	metrics.RecordRatingAppends(len(entries))

	p.log.Debug(ctx, "match processed",
		logger.String("match", m.ID),
		logger.String("venue", m.Venue),
		logger.Int("balls", applied),
		logger.Int("entries", len(entries)),
	)
	return StatusProcessed, nil
}

// lookupFactors fetches the venue profile, preferring the season-scoped one
// in seasonal mode.
func (p *Pipeline) lookupFactors(ctx context.Context, m model.MatchContext) (profile venue.Profile, err error) {
	if p.seasonal {
		profile, err = p.venues.Get(ctx, m.Venue, m.Season)
		if !errors.Is(err, repository.ErrNotFound) {
			return profile, err
		}
	}
	return p.venues.Get(ctx, m.Venue, "")
}

func countBalls(m model.MatchContext) (applied, excluded int) {
	for _, b := range m.Balls {
		if _, ok := outcome.Classify(b); ok {
			applied++
		} else {
			excluded++
		}
	}
	return applied, excluded
}
