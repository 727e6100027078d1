// Package elo implements the per-ball rating update and its match-level
// aggregation.
package elo

import (
	"context"
	"math"
	"sort"

	"github.com/creaselab/crease/internal/domain/model"
	"github.com/creaselab/crease/internal/domain/outcome"
	"github.com/creaselab/crease/internal/domain/venue"
)

// Rating update configuration.
const (
	defaultRating = 1200
	defaultK      = 10
	// logisticDivisor is the standard Elo spread: a 400 point gap means
	// roughly 10:1 expected odds.
	logisticDivisor = 400
	// neutralTarget is used when an outcome key is absent from the venue
	// factor table.
	neutralTarget = 0.5
)

// Expected returns the expected success probability of a rating against an
// opponent rating. Expected(a, b) + Expected(b, a) == 1.
func Expected(rating, opponent float64) float64 {
	return 1 / (1 + math.Pow(10, (opponent-rating)/logisticDivisor))
}

// Seeds maps player name to their most recent rating per discipline, as
// preloaded from the store. Missing players or disciplines fall back to the
// engine's default rating.
type Seeds map[string]map[model.Discipline]model.Rated

// Engine applies venue-adjusted Elo updates over a match.
type Engine struct {
	k             float64
	defaultRating float64
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithKFactor sets the per-ball update magnitude.
func WithKFactor(k float64) Option {
	return func(e *Engine) {
		if k > 0 {
			e.k = k
		}
	}
}

// WithDefaultRating sets the starting rating for players with no history.
func WithDefaultRating(r float64) Option {
	return func(e *Engine) {
		if r > 0 {
			e.defaultRating = r
		}
	}
}

// NewEngine creates an update engine with default configuration.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		k:             defaultK,
		defaultRating: defaultRating,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultRating returns the configured starting rating.
func (e *Engine) DefaultRating() float64 { return e.defaultRating }

// UpdateMatch folds every non-excluded delivery of the match into working
// ratings and returns one history entry per player per discipline they
// exercised, dated with the match date. Working ratings live in a per-match
// cache seeded once from the preloaded seeds; nothing is persisted here.
//
// A single delivery changes exactly the striker's batting rating and the
// bowler's bowling rating.
func (e *Engine) UpdateMatch(_ context.Context, m model.MatchContext, profile venue.Profile, seeds Seeds) []model.RatingEntry {
	batting := make(map[string]float64)
	bowling := make(map[string]float64)

	for _, ball := range m.Balls {
		o, ok := outcome.Classify(ball)
		if !ok {
			continue
		}

		rBat := e.seed(batting, seeds, ball.Striker, model.Batting)
		rBowl := e.seed(bowling, seeds, ball.Bowler, model.Bowling)

		eBat := Expected(rBat, rBowl)
		eBowl := Expected(rBowl, rBat)

		sBat := target(profile.Batting, o)
		sBowl := target(profile.Bowling, o)

		batting[ball.Striker] = rBat + e.k*(sBat-eBat)
		bowling[ball.Bowler] = rBowl + e.k*(sBowl-eBowl)
	}

	entries := make([]model.RatingEntry, 0, len(batting)+len(bowling))
	for _, name := range sortedKeys(batting) {
		entries = append(entries, model.RatingEntry{
			Player: name, Discipline: model.Batting, Date: m.Date, Rating: batting[name],
		})
	}
	for _, name := range sortedKeys(bowling) {
		entries = append(entries, model.RatingEntry{
			Player: name, Discipline: model.Bowling, Date: m.Date, Rating: bowling[name],
		})
	}
	return entries
}

// seed returns the player's working rating, pulling it into the cache from
// the preloaded seeds (or the default) on first sight.
func (e *Engine) seed(cache map[string]float64, seeds Seeds, player string, d model.Discipline) float64 {
	if r, ok := cache[player]; ok {
		return r
	}
	r := e.defaultRating
	if latest, ok := seeds[player][d]; ok {
		r = latest.Rating
	}
	cache[player] = r
	return r
}

func target(factors map[string]float64, o outcome.Outcome) float64 {
	if f, ok := factors[o.Key()]; ok {
		return f
	}
	return neutralTarget
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
