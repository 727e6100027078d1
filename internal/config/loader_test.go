package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/creaselab/crease/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadDefaults(t *testing.T) {
	Convey("Given no overrides", t, func() {
		cfg, err := config.Load(t.Context())
		So(err, ShouldBeNil)
		So(cfg.DataDir, ShouldEqual, "data/raw")
		So(cfg.KFactor, ShouldEqual, 10)
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CREASE_DATA_DIR", "/srv/matches")
	t.Setenv("CREASE_K_FACTOR", "16")
	t.Setenv("CREASE_DECAY_RATE", "0")
	t.Setenv("CREASE_SEASONAL_FACTORS", "true")

	Convey("Given environment overrides", t, func() {
		cfg, err := config.Load(t.Context())
		So(err, ShouldBeNil)
		So(cfg.DataDir, ShouldEqual, "/srv/matches")
		So(cfg.KFactor, ShouldEqual, 16)
		So(cfg.DecayRate, ShouldEqual, 0)
		So(cfg.SeasonalFactors, ShouldBeTrue)
	})
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crease.yaml")
	if err := os.WriteFile(path, []byte("default_rating: 1000\nk_factor: 12\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CREASE_CONFIG", path)

	Convey("Given a YAML config file", t, func() {
		cfg, err := config.Load(t.Context())
		So(err, ShouldBeNil)
		So(cfg.DefaultRating, ShouldEqual, 1000)
		So(cfg.KFactor, ShouldEqual, 12)
	})
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crease.yaml")
	if err := os.WriteFile(path, []byte("k_factor: 12\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CREASE_CONFIG", path)
	t.Setenv("CREASE_K_FACTOR", "14")

	Convey("Given both a config file and an env override", t, func() {
		cfg, err := config.Load(t.Context())
		So(err, ShouldBeNil)
		So(cfg.KFactor, ShouldEqual, 14)
	})
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("CREASE_K_FACTOR", "-1")

	Convey("Given a negative K factor", t, func() {
		_, err := config.Load(t.Context())
		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
	})
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CREASE_CONFIG", "/nonexistent/crease.yaml")

	Convey("Given a config path that does not exist", t, func() {
		_, err := config.Load(t.Context())
		So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
	})
}
