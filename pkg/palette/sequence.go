// Package palette maps a light's sequence position to a colour.
//
// A Sequence holds colour markers placed on a vertical 0..100 bar. The
// position of a light (its step plus the animation phase) is wrapped by the
// cycle length onto that bar and the colour is interpolated between the two
// markers that bracket it.
package palette

import (
	"fmt"
	"math"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/tidwall/btree"
)

// DefaultCycleLength is the number of lights per full colour cycle.
const DefaultCycleLength = 10

// RGB is an 8-bit colour.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex formats the colour as #rrggbb.
func (c RGB) Hex() string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}

// ParseHex parses #rrggbb or #rgb.
func ParseHex(s string) (RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("parse colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// Colours of the default palette, in cycling order.
var (
	Red     = RGB{255, 0, 0}
	Green   = RGB{0, 255, 0}
	Blue    = RGB{0, 0, 255}
	Yellow  = RGB{255, 255, 0}
	Magenta = RGB{255, 0, 255}
)

// defaultPalette is cycled through when no marker is defined.
var defaultPalette = []RGB{Red, Green, Blue, Yellow, Magenta}

// MarkerID identifies a marker within one Sequence.
type MarkerID int

// Marker pins a colour to a position on the 0..100 bar.
type Marker struct {
	ID       MarkerID `json:"id"`
	Position float64  `json:"position"`
	Color    RGB      `json:"color"`
}

type markerItem struct {
	Marker
	seq uint64
}

// byPosition orders markers by position, then by insertion so equal positions stay stable.
func byPosition(a, b markerItem) bool {
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	return a.seq < b.seq
}

// Sequence is a mutable set of colour markers plus the cycle length. It is safe
// for concurrent use; ColorAt always reads the current marker order.
type Sequence struct {
	mu          sync.RWMutex
	tree        *btree.BTreeG[markerItem]
	byID        map[MarkerID]markerItem
	nextID      MarkerID
	seq         uint64
	cycleLength float64
}

// NewSequence returns a sequence without markers, which uses the default palette.
func NewSequence() *Sequence {
	return &Sequence{
		tree:        btree.NewBTreeG[markerItem](byPosition),
		byID:        make(map[MarkerID]markerItem),
		nextID:      1,
		cycleLength: DefaultCycleLength,
	}
}

// CycleLength returns the number of lights per colour cycle.
func (s *Sequence) CycleLength() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cycleLength
}

// SetCycleLength sets the cycle length. Values below 1 are raised to 1.
func (s *Sequence) SetCycleLength(n float64) {
	if n < 1 || math.IsNaN(n) {
		n = 1
	}
	s.mu.Lock()
	s.cycleLength = n
	s.mu.Unlock()
}

func clampPosition(p float64) float64 {
	if math.IsNaN(p) {
		return 0
	}
	return math.Max(0, math.Min(100, p))
}

// AddMarker inserts a marker. The position is clamped to [0,100].
func (s *Sequence) AddMarker(position float64, c RGB) MarkerID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.insert(Marker{ID: id, Position: clampPosition(position), Color: c})
	return id
}

func (s *Sequence) insert(m Marker) {
	s.seq++
	item := markerItem{Marker: m, seq: s.seq}
	s.tree.Set(item)
	s.byID[m.ID] = item
}

// UpdateMarker moves and recolours a marker. It returns false for unknown IDs.
func (s *Sequence) UpdateMarker(id MarkerID, position float64, c RGB) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.byID[id]
	if !ok {
		return false
	}
	s.tree.Delete(old)
	s.insert(Marker{ID: id, Position: clampPosition(position), Color: c})
	return true
}

// DeleteMarker removes a marker. It returns false for unknown IDs.
func (s *Sequence) DeleteMarker(id MarkerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.byID[id]
	if !ok {
		return false
	}
	s.tree.Delete(old)
	delete(s.byID, id)
	return true
}

// ClearMarkers removes every marker.
func (s *Sequence) ClearMarkers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.Clear()
	clear(s.byID)
}

// ResetMarkers replaces all markers with the default bar: red, yellow, green, magenta, blue.
func (s *Sequence) ResetMarkers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.Clear()
	clear(s.byID)
	for _, m := range DefaultMarkers() {
		m.ID = s.nextID
		s.nextID++
		s.insert(m)
	}
}

// DefaultMarkers returns the marker set installed when a photo is loaded.
func DefaultMarkers() []Marker {
	return []Marker{
		{Position: 0, Color: Red},
		{Position: 25, Color: Yellow},
		{Position: 50, Color: Green},
		{Position: 75, Color: Magenta},
		{Position: 100, Color: Blue},
	}
}

// Markers returns the markers sorted by position.
func (s *Sequence) Markers() []Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted()
}

func (s *Sequence) sorted() []Marker {
	out := make([]Marker, 0, s.tree.Len())
	s.tree.Scan(func(it markerItem) bool {
		out = append(out, it.Marker)
		return true
	})
	return out
}

// ColorAt returns the colour for an absolute sequence position such as
// step + phase. The result is periodic in the cycle length.
func (s *Sequence) ColorAt(position float64) RGB {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cyc := math.Mod(position, s.cycleLength)
	if cyc < 0 {
		cyc += s.cycleLength
	}
	if math.IsNaN(cyc) {
		cyc = 0
	}
	frac := cyc / s.cycleLength

	switch s.tree.Len() {
	case 0:
		i := int(math.Floor(frac * float64(len(defaultPalette))))
		return defaultPalette[min(i, len(defaultPalette)-1)]
	case 1:
		m, _ := s.tree.Min()
		return m.Color
	}
	return interpolate(s.sorted(), frac*100)
}

// interpolate blends the markers that bracket target. markers must be sorted
// and hold at least two entries.
func interpolate(markers []Marker, target float64) RGB {
	first, last := markers[0], markers[len(markers)-1]
	if target <= first.Position {
		return first.Color
	}
	if target >= last.Position {
		return last.Color
	}

	lo, hi := first, last
	for i := 0; i < len(markers)-1; i++ {
		if markers[i].Position <= target && markers[i+1].Position >= target {
			lo, hi = markers[i], markers[i+1]
			break
		}
	}
	span := hi.Position - lo.Position
	if span <= 0 {
		return lo.Color
	}
	f := (target - lo.Position) / span
	return RGB{
		R: lerp(lo.Color.R, hi.Color.R, f),
		G: lerp(lo.Color.G, hi.Color.G, f),
		B: lerp(lo.Color.B, hi.Color.B, f),
	}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

// Gradient samples the colour bar at n evenly spaced positions from top (0)
// to bottom (100). Used to draw the bar in previews.
func (s *Sequence) Gradient(n int) []RGB {
	if n <= 0 {
		return nil
	}
	out := make([]RGB, n)
	cl := s.CycleLength()
	for i := range out {
		var p float64
		if n > 1 {
			p = float64(i) / float64(n-1) * 100
		}
		// keep the last sample inside the cycle so it does not wrap to the top
		if p >= 100 {
			p = 100 - 1e-9
		}
		out[i] = s.ColorAt(p / 100 * cl)
	}
	return out
}
