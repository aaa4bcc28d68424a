// Package config holds the runtime settings of the planet renderer.
package config

import (
	"fmt"

	"planetsim/core"
	"planetsim/meshing"
)

// Config is the full settings tree: planet shape, LOD tuning, meshing,
// regime band, pipeline sizing, telemetry server and logging.
type Config struct {
	Planet  PlanetConfig         `yaml:"planet"`
	Terrain core.TerrainParams   `yaml:"terrain"`
	LOD     core.LODConfig       `yaml:"lod"`
	Regime  core.RegimeConfig    `yaml:"regime"`
	Patch   meshing.PatchConfig  `yaml:"patch"`
	Volume  meshing.VolumeConfig `yaml:"volume"`
	Sim     SimConfig            `yaml:"sim"`
	Server  ServerConfig         `yaml:"server"`
	Logging LoggingConfig        `yaml:"logging"`
}

// PlanetConfig fixes the planet itself.
type PlanetConfig struct {
	// RadiusMeters is the nominal sphere radius.
	RadiusMeters float64 `yaml:"radiusMeters"`
	// Seed drives the terrain noise permutation.
	Seed int64 `yaml:"seed"`
	// MinLevel is the coarsest quadtree level kept resident; level 1
	// means four patches per cube face.
	MinLevel int `yaml:"minLevel"`
	// MaxLevel caps subdivision depth.
	MaxLevel int `yaml:"maxLevel"`
}

// SimConfig sizes the frame pipeline.
type SimConfig struct {
	// Workers is the meshing worker pool size; zero means GOMAXPROCS.
	Workers int `yaml:"workers"`
	// FrameBudgetMs bounds per-frame mesh generation time. Work left
	// over carries to the next frame.
	FrameBudgetMs int `yaml:"frameBudgetMs"`
	// VertexCacheSize bounds the shared boundary-vertex cache.
	VertexCacheSize int `yaml:"vertexCacheSize"`
	// MaxPatchesPerFrame caps patch mesh builds per frame.
	MaxPatchesPerFrame int `yaml:"maxPatchesPerFrame"`
}

// ServerConfig controls the websocket telemetry server.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	// UpdateIntervalMs is the broadcast period.
	UpdateIntervalMs int `yaml:"updateIntervalMs"`
}

// LoggingConfig selects log level and optional rotating file output.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"logFile"`
}

// Default returns an Earth-sized planet with the renderer defaults.
func Default() *Config {
	return &Config{
		Planet: PlanetConfig{
			RadiusMeters: 6371000,
			Seed:         1337,
			MinLevel:     1,
			MaxLevel:     20,
		},
		Terrain: core.DefaultTerrainParams(),
		LOD:     core.DefaultLODConfig(),
		Regime:  core.DefaultRegimeConfig(),
		Patch:   meshing.DefaultPatchConfig(),
		Volume:  meshing.DefaultVolumeConfig(),
		Sim: SimConfig{
			Workers:            0,
			FrameBudgetMs:      12,
			VertexCacheSize:    1 << 20,
			MaxPatchesPerFrame: 64,
		},
		Server: ServerConfig{
			Enabled:          false,
			Addr:             ":8080",
			UpdateIntervalMs: 100,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ConfigError reports one rejected setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Planet.RadiusMeters <= 0 {
		return &ConfigError{"planet.radiusMeters", "must be positive"}
	}
	if c.Planet.MinLevel < 1 {
		return &ConfigError{"planet.minLevel", "must be at least 1"}
	}
	if c.Planet.MaxLevel < c.Planet.MinLevel {
		return &ConfigError{"planet.maxLevel", "must be >= planet.minLevel"}
	}
	if r := c.Patch.GridResolution; r < 3 || (r-1)&(r-2) != 0 {
		return &ConfigError{"patch.gridResolution", "must be a power of two plus one, at least 3"}
	}
	if c.LOD.PixelError <= 0 {
		return &ConfigError{"lod.pixelError", "must be positive"}
	}
	if c.LOD.MergeHysteresis <= 0 || c.LOD.MergeHysteresis >= 1 {
		return &ConfigError{"lod.mergeHysteresis", "must be in (0, 1)"}
	}
	if c.LOD.FOVDegrees <= 0 || c.LOD.FOVDegrees >= 180 {
		return &ConfigError{"lod.fovDegrees", "must be in (0, 180)"}
	}
	if c.Regime.LowAltitude <= 0 || c.Regime.HighAltitude <= c.Regime.LowAltitude {
		return &ConfigError{"regime", "need 0 < lowAltitude < highAltitude"}
	}
	if c.Volume.ChunkDim < 2 {
		return &ConfigError{"volume.chunkDim", "must be at least 2"}
	}
	if c.Volume.VoxelSize <= 0 {
		return &ConfigError{"volume.voxelSize", "must be positive"}
	}
	if c.Sim.FrameBudgetMs <= 0 {
		return &ConfigError{"sim.frameBudgetMs", "must be positive"}
	}
	return nil
}
