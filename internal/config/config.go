// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Values are layered: defaults, then optional YAML file, then env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"github.com/creaselab/crease/internal/domain/venue"
)

// Config contains process configuration. The rating values are contractually
// load-bearing: changing them changes every computed trajectory.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DataDir is the directory of ball-by-ball match CSV files.
	DataDir string `koanf:"data_dir"`

	// DBPath is the SQLite store location.
	DBPath string `koanf:"db_path"`

	// MetricsAddr, when non-empty, exposes /metrics on this address for the
	// duration of a run.
	MetricsAddr string `koanf:"metrics_addr"`

	// DefaultRating seeds players with no history.
	DefaultRating float64 `koanf:"default_rating"`

	// KFactor scales every per-ball rating update.
	KFactor float64 `koanf:"k_factor"`

	// DecayTimeThresholdDays is the inactivity window before seasonal decay.
	DecayTimeThresholdDays int `koanf:"decay_time_threshold_days"`

	// DecayRate is the points lost per fully elapsed threshold; zero
	// disables decay.
	DecayRate float64 `koanf:"decay_rate"`

	// AdjustmentFactor bounds how far venue frequency moves a base factor.
	AdjustmentFactor float64 `koanf:"adjustment_factor"`

	// BaseBattingFactors and BaseBowlingFactors are the outcome target
	// tables before venue adjustment, keyed "0".."6", "wicket", "wide",
	// "no-ball".
	BaseBattingFactors map[string]float64 `koanf:"base_batting_factors"`
	BaseBowlingFactors map[string]float64 `koanf:"base_bowling_factors"`

	// SeasonalFactors switches venue factor lookups and builds to
	// per-season profiles with recency weighting.
	SeasonalFactors bool `koanf:"seasonal_factors"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		DataDir:                "data/raw",
		DBPath:                 "crease.db",
		DefaultRating:          1200,
		KFactor:                10,
		DecayTimeThresholdDays: 400,
		DecayRate:              30,
		AdjustmentFactor:       0.1,
		BaseBattingFactors:     venue.DefaultBattingFactors(),
		BaseBowlingFactors:     venue.DefaultBowlingFactors(),
	}
}
