package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// A .env file in the working directory is read first so credentials and
// paths can live beside the data.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if CREASE_CONFIG is set
//  3. env (prefix CREASE_)
func Load(ctx context.Context) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Missing .env is fine; it is a convenience, not a requirement.
	_ = godotenv.Load()

	base := New()

	k := koanf.New(".")

	if path := os.Getenv("CREASE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: CREASE_DATA_DIR, CREASE_K_FACTOR, ...
	// Keys keep their underscores to match the koanf tags on the struct.
	envProvider := env.Provider("CREASE_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "crease_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.DefaultRating <= 0:
		return fmt.Errorf("%w: default_rating must be positive", ErrInvalidConfig)
	case c.KFactor <= 0:
		return fmt.Errorf("%w: k_factor must be positive", ErrInvalidConfig)
	case c.DecayTimeThresholdDays <= 0:
		return fmt.Errorf("%w: decay_time_threshold_days must be positive", ErrInvalidConfig)
	case c.DecayRate < 0:
		return fmt.Errorf("%w: decay_rate must not be negative", ErrInvalidConfig)
	case c.AdjustmentFactor < 0:
		return fmt.Errorf("%w: adjustment_factor must not be negative", ErrInvalidConfig)
	}
	return nil
}
