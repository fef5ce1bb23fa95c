// Package snap pulls click positions onto structural lines detected in the photo.
package snap

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultThreshold is the maximum distance in canvas pixels at which a click snaps to a line.
const DefaultThreshold = 20.0

// Line is a detected segment in the line server's coordinate space.
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Score float64 `json:"score"`
}

// LineSet is the line server payload. Width and Height give the coordinate space of Lines.
type LineSet struct {
	Lines  []Line `json:"lines"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Placeholder is the line data used when the line server cannot be reached.
func Placeholder() LineSet {
	return LineSet{
		Lines:  []Line{{X1: 100, Y1: 100, X2: 300, Y2: 300, Score: 0.9}},
		Width:  400,
		Height: 400,
	}
}

// Snapper adjusts a click position.
type Snapper interface {
	Snap(x, y float64) (float64, float64)
}

// Identity never moves a point.
type Identity struct{}

func (Identity) Snap(x, y float64) (float64, float64) { return x, y }

type segment struct {
	a, b r2.Vec
}

// LineSnapper projects clicks onto the nearest line within Threshold.
type LineSnapper struct {
	Threshold float64

	segments []segment
}

// NewLineSnapper scales set from its own space to a canvas of canvasW x canvasH.
// A threshold <= 0 selects DefaultThreshold.
func NewLineSnapper(set LineSet, canvasW, canvasH, threshold float64) *LineSnapper {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	sx, sy := 1.0, 1.0
	if set.Width > 0 {
		sx = canvasW / float64(set.Width)
	}
	if set.Height > 0 {
		sy = canvasH / float64(set.Height)
	}

	s := &LineSnapper{Threshold: threshold}
	for _, l := range set.Lines {
		s.segments = append(s.segments, segment{
			a: r2.Vec{X: l.X1 * sx, Y: l.Y1 * sy},
			b: r2.Vec{X: l.X2 * sx, Y: l.Y2 * sy},
		})
	}
	return s
}

// Len returns the number of usable lines.
func (s *LineSnapper) Len() int { return len(s.segments) }

// Snap implements Snapper.
func (s *LineSnapper) Snap(x, y float64) (float64, float64) {
	p := r2.Vec{X: x, Y: y}
	best := p
	bestDist := math.Inf(1)
	for _, seg := range s.segments {
		q := closestOnSegment(p, seg)
		if d := r2.Norm(r2.Sub(p, q)); d < bestDist {
			best, bestDist = q, d
		}
	}
	if bestDist > s.Threshold {
		return x, y
	}
	return best.X, best.Y
}

func closestOnSegment(p r2.Vec, seg segment) r2.Vec {
	d := r2.Sub(seg.b, seg.a)
	l2 := r2.Dot(d, d)
	if l2 == 0 {
		return seg.a
	}
	t := r2.Dot(r2.Sub(p, seg.a), d) / l2
	t = math.Max(0, math.Min(1, t))
	return r2.Add(seg.a, r2.Scale(t, d))
}
