package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lightpath.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Lights.Density != 1 || cfg.Lights.CycleLength != 10 || cfg.Canvas.Size != 1000 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Enhance.Strength != 0.30 || cfg.Enhance.Timeout != 30*time.Second {
		t.Errorf("unexpected enhance defaults %+v", cfg.Enhance)
	}
}

func TestLoadOverridesAndExpandsEnv(t *testing.T) {
	t.Setenv("LIGHTPATH_TEST_KEY", "sk-test")
	path := writeFile(t, `
lights:
  density: 2.5
  cycle_length: 6
server:
  addr: ":8080"
depth:
  url: ""
enhance:
  api_key: ${LIGHTPATH_TEST_KEY}
  timeout: 10s
animation:
  interval: 50ms
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lights.Density != 2.5 || cfg.Lights.CycleLength != 6 {
		t.Errorf("lights not overridden: %+v", cfg.Lights)
	}
	if cfg.Lights.Speed != 1 {
		t.Errorf("unset keys should keep defaults, speed = %v", cfg.Lights.Speed)
	}
	if cfg.Server.Addr != ":8080" || cfg.Depth.URL != "" {
		t.Errorf("unexpected server/depth %+v %+v", cfg.Server, cfg.Depth)
	}
	if cfg.Enhance.APIKey != "sk-test" {
		t.Errorf("api key not expanded, got %q", cfg.Enhance.APIKey)
	}
	if cfg.Enhance.Timeout != 10*time.Second || cfg.Animation.Interval != 50*time.Millisecond {
		t.Errorf("durations not parsed: %v %v", cfg.Enhance.Timeout, cfg.Animation.Interval)
	}
	if cfg.Enhance.Model != "sd3.5-medium" {
		t.Errorf("nested defaults lost, model = %q", cfg.Enhance.Model)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "lights:\n  densty: 2\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a misspelled key")
	}
}

func TestLoadValidates(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"zero density", "lights:\n  density: 0\n", "density"},
		{"short cycle", "lights:\n  cycle_length: 0.5\n", "cycle_length"},
		{"negative speed", "lights:\n  speed: -1\n", "speed"},
		{"no canvas", "canvas:\n  size: 0\n", "canvas"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
