// Package config loads the lightpath YAML configuration.
//
// Values of the form ${VAR} are expanded from the environment before parsing,
// so secrets such as the enhancement API key never need to live in the file.
// Unknown keys are rejected.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sanonone/lightpath/pkg/enhance"
	"gopkg.in/yaml.v3"
)

// Config is the top-level structure of the configuration file.
type Config struct {
	Lights    LightsConfig    `yaml:"lights"`
	Canvas    CanvasConfig    `yaml:"canvas"`
	Server    ServerConfig    `yaml:"server"`
	Depth     ProviderConfig  `yaml:"depth"`
	Lines     LinesConfig     `yaml:"lines"`
	Enhance   enhance.Config  `yaml:"enhance"`
	Animation AnimationConfig `yaml:"animation"`
}

// LightsConfig holds the end-user knobs that reach the placement engine and palette.
type LightsConfig struct {
	Density     float64 `yaml:"density"`      // 0.1 .. 4, inverse of spacing
	Speed       float64 `yaml:"speed"`        // phase advance multiplier
	CycleLength float64 `yaml:"cycle_length"` // lights per colour cycle
	GlowSize    float64 `yaml:"glow_size"`    // rendering only
}

// CanvasConfig fixes the working resolutions.
type CanvasConfig struct {
	Size     int `yaml:"size"`      // drawing canvas, square
	GridSize int `yaml:"grid_size"` // depth/line processing grid, square
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token"`
}

// ProviderConfig points at an external analysis server.
// An empty URL disables the provider and the fallback data is used.
type ProviderConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// LinesConfig adds the snapping threshold to the line provider.
type LinesConfig struct {
	URL           string        `yaml:"url"`
	Timeout       time.Duration `yaml:"timeout"`
	SnapThreshold float64       `yaml:"snap_threshold"`
}

// AnimationConfig sets the frame loop cadence. Zero means "pick from the host".
type AnimationConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Defaults returns a configuration that works without any external server
// except the enhancement API.
func Defaults() Config {
	return Config{
		Lights: LightsConfig{
			Density:     1.0,
			Speed:       1.0,
			CycleLength: 10,
			GlowSize:    1.0,
		},
		Canvas: CanvasConfig{
			Size:     1000,
			GridSize: 400,
		},
		Server: ServerConfig{
			Addr: ":9191",
		},
		Depth: ProviderConfig{
			URL:     "http://localhost:5000/depth",
			Timeout: 30 * time.Second,
		},
		Lines: LinesConfig{
			URL:           "http://localhost:5001/lines",
			Timeout:       30 * time.Second,
			SnapThreshold: 20,
		},
		Enhance: enhance.DefaultConfig(),
	}
}

// Load reads the YAML file at path on top of Defaults.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read configuration file '%s': %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	decoder := yaml.NewDecoder(strings.NewReader(expanded))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("YAML syntax error in '%s': %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration '%s': %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the engine cannot work with.
func (c Config) Validate() error {
	if c.Lights.Density <= 0 {
		return fmt.Errorf("lights.density must be positive, got %v", c.Lights.Density)
	}
	if c.Lights.CycleLength < 1 {
		return fmt.Errorf("lights.cycle_length must be at least 1, got %v", c.Lights.CycleLength)
	}
	if c.Lights.Speed < 0 {
		return fmt.Errorf("lights.speed must not be negative, got %v", c.Lights.Speed)
	}
	if c.Canvas.Size <= 0 || c.Canvas.GridSize <= 0 {
		return fmt.Errorf("canvas sizes must be positive")
	}
	return nil
}
