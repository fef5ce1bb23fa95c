// Package depth supplies normalized scene depth for canvas coordinates.
//
// Depth is 0 for far and 1 for near. Providers never fail: when no data is
// loaded, or a coordinate falls outside the sample grid, they answer with
// Fallback so light placement degrades to uniform spacing.
package depth

import (
	"fmt"
	"math"
	"sync"

	"github.com/x448/float16"
)

const (
	// Fallback is returned when no depth data covers a coordinate.
	Fallback = 1.0

	// DefaultGridSize is the side of the square sample field produced by the depth server.
	DefaultGridSize = 400
)

// Provider returns depth in [0,1] for a canvas coordinate.
type Provider interface {
	Depth(x, y float64) float64
}

// Constant is a provider that answers the same depth everywhere.
type Constant float64

func (c Constant) Depth(_, _ float64) float64 {
	return clamp01(float64(c))
}

// Map is a row-major depth field as exchanged with the depth server.
type Map struct {
	Depth  []float32 `json:"depth"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
}

// Filler returns an all-ones map, used when the depth server is unreachable.
func Filler(w, h int) Map {
	d := make([]float32, w*h)
	for i := range d {
		d[i] = 1
	}
	return Map{Depth: d, Width: w, Height: h}
}

// Grid is a Provider backed by a sample field. Samples are kept as float16,
// which is plenty for a [0,1] value that only modulates spacing. Canvas
// coordinates are rescaled to grid cells on lookup. Grid is safe for
// concurrent use.
type Grid struct {
	mu       sync.RWMutex
	samples  []float16.Float16
	width    int
	height   int
	canvasW  float64
	canvasH  float64
	revision uint64
}

// NewGrid returns an empty grid for a canvas of the given size.
func NewGrid(canvasW, canvasH float64) *Grid {
	return &Grid{canvasW: canvasW, canvasH: canvasH}
}

// Load replaces the samples. Values are clamped to [0,1].
func (g *Grid) Load(m Map) error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("depth map: invalid size %dx%d", m.Width, m.Height)
	}
	if len(m.Depth) != m.Width*m.Height {
		return fmt.Errorf("depth map: got %d samples for %dx%d", len(m.Depth), m.Width, m.Height)
	}

	samples := make([]float16.Float16, len(m.Depth))
	for i, v := range m.Depth {
		samples[i] = float16.Fromfloat32(float32(clamp01(float64(v))))
	}

	g.mu.Lock()
	g.samples = samples
	g.width, g.height = m.Width, m.Height
	g.revision++
	g.mu.Unlock()
	return nil
}

// Reset drops all samples; every lookup then returns Fallback.
func (g *Grid) Reset() {
	g.mu.Lock()
	g.samples = nil
	g.width, g.height = 0, 0
	g.revision++
	g.mu.Unlock()
}

// SetCanvas changes the canvas size used to rescale coordinates.
func (g *Grid) SetCanvas(w, h float64) {
	g.mu.Lock()
	g.canvasW, g.canvasH = w, h
	g.revision++
	g.mu.Unlock()
}

// Revision changes whenever the answers of Depth may have changed.
func (g *Grid) Revision() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.revision
}

// Loaded reports whether samples are present.
func (g *Grid) Loaded() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.samples) > 0
}

// Depth implements Provider.
func (g *Grid) Depth(x, y float64) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(g.samples) == 0 || g.canvasW <= 0 || g.canvasH <= 0 {
		return Fallback
	}
	if math.IsNaN(x) || math.IsNaN(y) || x < 0 || y < 0 || x >= g.canvasW || y >= g.canvasH {
		return Fallback
	}
	gx := int(math.Floor(x / g.canvasW * float64(g.width)))
	gy := int(math.Floor(y / g.canvasH * float64(g.height)))
	if gx >= g.width || gy >= g.height {
		return Fallback
	}
	return float64(g.samples[gy*g.width+gx].Float32())
}

// Snapshot returns the samples as float32, e.g. for drawing an overlay.
func (g *Grid) Snapshot() Map {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := Map{Depth: make([]float32, len(g.samples)), Width: g.width, Height: g.height}
	for i, s := range g.samples {
		out.Depth[i] = s.Float32()
	}
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return Fallback
	}
	return math.Max(0, math.Min(1, v))
}
