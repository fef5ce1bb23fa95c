package animation

import (
	"sync"

	"github.com/sanonone/lightpath/pkg/palette"
	"github.com/sanonone/lightpath/pkg/placement"
)

// Colorize turns placements into lights for one phase. Each light takes the
// colour at step + phase.
func Colorize(ps []placement.Placement, seq *palette.Sequence, phase, glowSize float64) []Light {
	lights := make([]Light, len(ps))
	for i, p := range ps {
		size := LightSize(p.Depth)
		lights[i] = Light{
			X:     p.X,
			Y:     p.Y,
			Step:  p.Step,
			Color: seq.ColorAt(float64(p.Step) + phase),
			Size:  size,
			Glow:  GlowRadius(size, glowSize),
		}
	}
	return lights
}

// CacheKey identifies the inputs placement geometry depends on.
type CacheKey struct {
	GraphRevision uint64
	DepthRevision uint64
	Density       float64
}

// PlacementCache keeps the placements of the last computed key.
type PlacementCache struct {
	mu    sync.Mutex
	key   CacheKey
	valid bool
	ps    []placement.Placement
}

// Get returns the cached placements for key, calling compute on a miss.
// The returned slice must not be modified.
func (c *PlacementCache) Get(key CacheKey, compute func() []placement.Placement) []placement.Placement {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.key == key {
		return c.ps
	}
	c.ps = compute()
	c.key, c.valid = key, true
	return c.ps
}

// Invalidate drops the cached placements.
func (c *PlacementCache) Invalidate() {
	c.mu.Lock()
	c.valid, c.ps = false, nil
	c.mu.Unlock()
}
