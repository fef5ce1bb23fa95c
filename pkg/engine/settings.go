package engine

import (
	"fmt"

	"github.com/sanonone/lightpath/pkg/palette"
	"github.com/sanonone/lightpath/pkg/placement"
)

// Settings are the end-user knobs of a session.
type Settings struct {
	Density     float64 `json:"density"`
	Speed       float64 `json:"animation_speed"`
	CycleLength float64 `json:"cycle_length"`
	GlowSize    float64 `json:"glow_size"`
}

// DefaultSettings returns density 1, speed 1, 10 lights per colour cycle and glow 1.
func DefaultSettings() Settings {
	return Settings{
		Density:     placement.DefaultDensity,
		Speed:       1,
		CycleLength: palette.DefaultCycleLength,
		GlowSize:    1,
	}
}

// SettingsUpdate changes only the fields that are set.
type SettingsUpdate struct {
	Density     *float64 `json:"density,omitempty"`
	Speed       *float64 `json:"animation_speed,omitempty"`
	CycleLength *float64 `json:"cycle_length,omitempty"`
	GlowSize    *float64 `json:"glow_size,omitempty"`
}

// Settings returns the current settings.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// UpdateSettings applies u. Density is clamped to its supported range; the
// other fields are validated and the update is rejected as a whole on error.
func (e *Engine) UpdateSettings(u SettingsUpdate) (Settings, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.settings
	if u.Density != nil {
		s.Density = placement.ClampDensity(*u.Density)
	}
	if u.Speed != nil {
		if *u.Speed < 0 {
			return e.settings, fmt.Errorf("animation speed must not be negative, got %v", *u.Speed)
		}
		s.Speed = *u.Speed
	}
	if u.CycleLength != nil {
		if *u.CycleLength < 1 {
			return e.settings, fmt.Errorf("cycle length must be at least 1, got %v", *u.CycleLength)
		}
		s.CycleLength = *u.CycleLength
	}
	if u.GlowSize != nil {
		if *u.GlowSize < 0 {
			return e.settings, fmt.Errorf("glow size must not be negative, got %v", *u.GlowSize)
		}
		s.GlowSize = *u.GlowSize
	}

	e.applySettings(s)
	return e.settings, nil
}

// applySettings pushes s into the placer, palette and driver. Caller holds e.mu
// or owns e exclusively.
func (e *Engine) applySettings(s Settings) {
	e.placer.SetDensity(s.Density)
	s.Density = e.placer.Density()
	e.palette.SetCycleLength(s.CycleLength)
	s.CycleLength = e.palette.CycleLength()
	e.driver.SetSpeed(s.Speed)
	e.settings = s
}
