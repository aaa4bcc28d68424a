package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"radius", func(c *Config) { c.Planet.RadiusMeters = 0 }, "planet.radiusMeters"},
		{"minLevel", func(c *Config) { c.Planet.MinLevel = 0 }, "planet.minLevel"},
		{"maxLevel", func(c *Config) { c.Planet.MaxLevel = c.Planet.MinLevel - 1 }, "planet.maxLevel"},
		{"gridResolution even", func(c *Config) { c.Patch.GridResolution = 64 }, "patch.gridResolution"},
		{"gridResolution tiny", func(c *Config) { c.Patch.GridResolution = 2 }, "patch.gridResolution"},
		{"pixelError", func(c *Config) { c.LOD.PixelError = 0 }, "lod.pixelError"},
		{"mergeHysteresis", func(c *Config) { c.LOD.MergeHysteresis = 1 }, "lod.mergeHysteresis"},
		{"fov", func(c *Config) { c.LOD.FOVDegrees = 180 }, "lod.fovDegrees"},
		{"regime band", func(c *Config) { c.Regime.HighAltitude = c.Regime.LowAltitude }, "regime"},
		{"chunkDim", func(c *Config) { c.Volume.ChunkDim = 1 }, "volume.chunkDim"},
		{"voxelSize", func(c *Config) { c.Volume.VoxelSize = 0 }, "volume.voxelSize"},
		{"frameBudget", func(c *Config) { c.Sim.FrameBudgetMs = 0 }, "sim.frameBudgetMs"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("invalid config accepted")
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("error type %T, want *ConfigError", err)
			}
			if ce.Field != tc.field {
				t.Errorf("field = %q, want %q", ce.Field, tc.field)
			}
		})
	}
}

func TestGridResolutionPowersOfTwoPlusOne(t *testing.T) {
	for _, r := range []int{3, 5, 9, 17, 33, 65, 129} {
		cfg := Default()
		cfg.Patch.GridResolution = r
		if err := cfg.Validate(); err != nil {
			t.Errorf("resolution %d rejected: %v", r, err)
		}
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planetsim.yaml")
	body := []byte(`
planet:
  radiusMeters: 1000
  seed: 7
lod:
  pixelError: 3.5
volume:
  chunkDim: 16
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Planet.RadiusMeters != 1000 || cfg.Planet.Seed != 7 {
		t.Errorf("planet overrides not applied: %+v", cfg.Planet)
	}
	if cfg.LOD.PixelError != 3.5 {
		t.Errorf("lod.pixelError = %g, want 3.5", cfg.LOD.PixelError)
	}
	if cfg.Volume.ChunkDim != 16 {
		t.Errorf("volume.chunkDim = %d, want 16", cfg.Volume.ChunkDim)
	}
	// Untouched settings keep their defaults.
	if cfg.Planet.MaxLevel != Default().Planet.MaxLevel {
		t.Errorf("unrelated default changed: maxLevel = %d", cfg.Planet.MaxLevel)
	}
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("missing explicit config accepted")
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("planet:\n  radiusMeters: -5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("config with negative radius accepted")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	want := Default()
	want.Planet.Seed = 99
	want.Patch.GridResolution = 33
	want.Logging.Level = "debug"
	if err := Save(want, path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *want {
		t.Errorf("round trip changed the config:\n got %+v\nwant %+v", *got, *want)
	}
}
