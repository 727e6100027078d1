// Package decay reduces ratings of players left inactive across seasons.
package decay

import (
	"context"
	"fmt"
	"time"

	"github.com/creaselab/crease/internal/domain/model"
)

// Default decay configuration.
const (
	defaultThresholdDays = 400
	defaultRate          = 30
	hoursPerDay          = 24
)

// Store is the narrow slice of the rating store the decay module needs.
type Store interface {
	ListPlayers(ctx context.Context) ([]string, error)
	GetBatch(ctx context.Context, players []string) (map[string]map[model.Discipline]model.Rated, error)
	AppendBatch(ctx context.Context, entries []model.RatingEntry) error
}

// Module applies the seasonal inactivity decay rule.
type Module struct {
	thresholdDays int
	rate          float64
}

// Option applies a configuration option to the Module.
type Option func(*Module)

// WithThresholdDays sets the inactivity window in days.
func WithThresholdDays(days int) Option {
	return func(m *Module) {
		if days > 0 {
			m.thresholdDays = days
		}
	}
}

// WithRate sets the points lost per fully elapsed threshold. A zero rate
// disables decay.
func WithRate(rate float64) Option {
	return func(m *Module) {
		if rate >= 0 {
			m.rate = rate
		}
	}
}

// New creates a decay module with default configuration.
func New(opts ...Option) *Module {
	m := &Module{
		thresholdDays: defaultThresholdDays,
		rate:          defaultRate,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Rate returns the configured decay rate.
func (m *Module) Rate() float64 { return m.rate }

// Apply evaluates every player independently per discipline against the
// cutoff seasonStart - threshold. A stale last entry gets one decayed entry
// appended, dated at seasonStart; players without history in a discipline
// are skipped. Returns the number of appended entries.
//
// The decay factor (cutoff - last) / threshold is floored to zero below 1,
// so a stale-but-recent player gets a fresh entry at an unchanged rating.
func (m *Module) Apply(ctx context.Context, store Store, seasonStart time.Time) (int, error) {
	if m.rate == 0 {
		return 0, nil
	}

	players, err := store.ListPlayers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list players: %w", err)
	}
	if len(players) == 0 {
		return 0, nil
	}

	latest, err := store.GetBatch(ctx, players)
	if err != nil {
		return 0, fmt.Errorf("read latest ratings: %w", err)
	}

	cutoff := seasonStart.AddDate(0, 0, -m.thresholdDays)

	var entries []model.RatingEntry
	for _, player := range players {
		for _, d := range model.Disciplines() {
			last, ok := latest[player][d]
			if !ok || !last.Date.Before(cutoff) {
				continue
			}
			factor := cutoff.Sub(last.Date).Hours() / hoursPerDay / float64(m.thresholdDays)
			if factor < 1 {
				factor = 0
			}
			entries = append(entries, model.RatingEntry{
				Player:     player,
				Discipline: d,
				Date:       seasonStart,
				Rating:     last.Rating - factor*m.rate,
			})
		}
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := store.AppendBatch(ctx, entries); err != nil {
		return 0, fmt.Errorf("append decayed ratings: %w", err)
	}
	return len(entries), nil
}
