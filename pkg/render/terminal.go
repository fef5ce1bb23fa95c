package render

import (
	"github.com/gdamore/tcell/v2"
	"github.com/sanonone/lightpath/pkg/animation"
	"github.com/sanonone/lightpath/pkg/graph"
	"github.com/sanonone/lightpath/pkg/palette"
)

const (
	lightRune = '●'
	pathRune  = '·'
	barRune   = '█'
)

// Terminal draws frames on a tcell screen. Canvas coordinates are scaled to
// the screen; the rightmost column is reserved for the colour bar.
type Terminal struct {
	screen  tcell.Screen
	canvasW float64
	canvasH float64
}

// NewTerminal wraps an initialised screen.
func NewTerminal(s tcell.Screen, canvasW, canvasH float64) *Terminal {
	return &Terminal{screen: s, canvasW: canvasW, canvasH: canvasH}
}

// Cell maps a canvas coordinate to a screen cell.
func (t *Terminal) Cell(x, y float64) (int, int) {
	w, h := t.screen.Size()
	w-- // colour bar
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	cx := int(x / t.canvasW * float64(w))
	cy := int(y / t.canvasH * float64(h))
	return min(max(cx, 0), w-1), min(max(cy, 0), h-1)
}

// Draw renders the wiring of snap, the frame's lights and the colour bar, then shows the screen.
func (t *Terminal) Draw(snap graph.Snapshot, f animation.Frame, bar []palette.RGB) {
	t.screen.Clear()

	dim := tcell.StyleDefault.Foreground(tcell.ColorGray)
	points := make(map[graph.PointID]graph.Point, len(snap.Points))
	for _, p := range snap.Points {
		points[p.ID] = p
	}
	for _, sp := range snap.Splines {
		for i := 0; i+1 < len(sp.Points); i++ {
			a, okA := points[sp.Points[i]]
			b, okB := points[sp.Points[i+1]]
			if okA && okB {
				t.segment(a, b, dim)
			}
		}
	}

	for _, l := range f.Lights {
		x, y := t.Cell(l.X, l.Y)
		st := tcell.StyleDefault.Foreground(toColor(l.Color))
		t.screen.SetContent(x, y, lightRune, nil, st)
	}

	w, h := t.screen.Size()
	for i, c := range bar {
		if i >= h {
			break
		}
		t.screen.SetContent(w-1, i, barRune, nil, tcell.StyleDefault.Foreground(toColor(c)))
	}
	t.screen.Show()
}

func (t *Terminal) segment(a, b graph.Point, st tcell.Style) {
	x0, y0 := t.Cell(a.X, a.Y)
	x1, y1 := t.Cell(b.X, b.Y)
	n := max(abs(x1-x0), abs(y1-y0))
	for i := 0; i <= n; i++ {
		f := 0.0
		if n > 0 {
			f = float64(i) / float64(n)
		}
		x := x0 + int(float64(x1-x0)*f+0.5)
		y := y0 + int(float64(y1-y0)*f+0.5)
		t.screen.SetContent(x, y, pathRune, nil, st)
	}
}

func toColor(c palette.RGB) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
