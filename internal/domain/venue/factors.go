// Package venue derives difficulty-adjusted outcome factors per venue.
package venue

import (
	"math"

	"github.com/creaselab/crease/internal/domain/outcome"
)

// Default factor configuration.
const (
	defaultAdjustmentFactor = 0.1
	// neutralMidpoint is the probability around which factors are nudged:
	// outcomes more frequent than it move down, rarer ones move up.
	neutralMidpoint = 0.5
	// recencyBase drives the exponential season weighting 1.5^(j-i).
	recencyBase = 1.5
)

// DefaultBattingFactors returns the base batting factor table. A wicket
// earns no partial credit.
func DefaultBattingFactors() map[string]float64 {
	return map[string]float64{
		"0": 0.3, "1": 0.45, "2": 0.6, "3": 0.7, "4": 0.8, "5": 0.9, "6": 1.0,
		"wicket": 0.0,
	}
}

// DefaultBowlingFactors returns the base bowling factor table. Wide and
// no-ball are rule-driven penalties.
func DefaultBowlingFactors() map[string]float64 {
	return map[string]float64{
		"0": 0.7, "1": 0.55, "2": 0.4, "3": 0.3, "4": 0.25, "5": 0.2, "6": 0.1,
		"wicket": 1.0, "wide": 0.2, "no-ball": 0.07,
	}
}

// Profile holds the batting and bowling scoring targets for one venue,
// optionally scoped to a season. Every factor lies in [0,1].
type Profile struct {
	Venue   string
	Season  string // empty for whole-history profiles
	Batting map[string]float64
	Bowling map[string]float64
}

// Engine computes factor profiles from outcome frequencies.
type Engine struct {
	adjustment  float64
	baseBatting map[string]float64
	baseBowling map[string]float64
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithAdjustmentFactor sets the frequency adjustment scalar. It is kept
// small so venue identity dominates over noise.
func WithAdjustmentFactor(a float64) Option {
	return func(e *Engine) {
		if a >= 0 {
			e.adjustment = a
		}
	}
}

// WithBaseBattingFactors overrides the base batting table.
func WithBaseBattingFactors(base map[string]float64) Option {
	return func(e *Engine) {
		if len(base) > 0 {
			e.baseBatting = copyFactors(base)
		}
	}
}

// WithBaseBowlingFactors overrides the base bowling table.
func WithBaseBowlingFactors(base map[string]float64) Option {
	return func(e *Engine) {
		if len(base) > 0 {
			e.baseBowling = copyFactors(base)
		}
	}
}

// NewEngine creates a factor engine with the default tables.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		adjustment:  defaultAdjustmentFactor,
		baseBatting: DefaultBattingFactors(),
		baseBowling: DefaultBowlingFactors(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeFactors derives a whole-history profile for a venue from raw
// outcome counts. With no qualifying events the base tables are returned
// unchanged.
func (e *Engine) ComputeFactors(name string, counts map[outcome.Outcome]int) Profile {
	weighted := make(map[string]float64, len(counts))
	for o, c := range counts {
		weighted[o.Key()] = float64(c)
	}
	batting, bowling := e.adjust(weighted)
	return Profile{Venue: name, Batting: batting, Bowling: bowling}
}

// ComputeSeasonalFactors derives a profile reflecting a venue's character as
// understood using data up to and including the target season. Seasons must
// be in chronological order; an earlier season j is weighted 1.5^(j-i)
// relative to the target index i, so recent seasons dominate.
func (e *Engine) ComputeSeasonalFactors(name string, seasons []string, counts map[string]map[outcome.Outcome]int, target string) Profile {
	targetIdx := -1
	for i, s := range seasons {
		if s == target {
			targetIdx = i
			break
		}
	}

	weighted := make(map[string]float64)
	if targetIdx >= 0 {
		for j := 0; j <= targetIdx; j++ {
			w := math.Pow(recencyBase, float64(j-targetIdx))
			for o, c := range counts[seasons[j]] {
				weighted[o.Key()] += w * float64(c)
			}
		}
	}

	batting, bowling := e.adjust(weighted)
	return Profile{Venue: name, Season: target, Batting: batting, Bowling: bowling}
}

// adjust applies the frequency adjustment to copies of the base tables.
// weighted holds (possibly recency-weighted) outcome counts.
func (e *Engine) adjust(weighted map[string]float64) (batting, bowling map[string]float64) {
	batting = copyFactors(e.baseBatting)
	bowling = copyFactors(e.baseBowling)

	var total float64
	for _, c := range weighted {
		total += c
	}
	if total == 0 {
		return batting, bowling
	}

	for key, base := range batting {
		if c, ok := weighted[key]; ok {
			batting[key] = clamp(base + e.adjustment*(neutralMidpoint-c/total))
		}
	}
	for key, base := range bowling {
		if c, ok := weighted[key]; ok {
			bowling[key] = clamp(base + e.adjustment*(neutralMidpoint-c/total))
		}
	}

	// Wide and no-ball are fixed rule penalties, never empirical signals.
	bowling[outcome.Wide.Key()] = e.baseBowling[outcome.Wide.Key()]
	bowling[outcome.NoBall.Key()] = e.baseBowling[outcome.NoBall.Key()]
	return batting, bowling
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func copyFactors(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
