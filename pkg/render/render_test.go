package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/sanonone/lightpath/pkg/animation"
	"github.com/sanonone/lightpath/pkg/graph"
	"github.com/sanonone/lightpath/pkg/palette"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func diff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestFitResizes(t *testing.T) {
	src := solid(37, 91, color.RGBA{10, 20, 30, 255})
	dst := Fit(src, GridSize, GridSize)
	if b := dst.Bounds(); b.Dx() != GridSize || b.Dy() != GridSize {
		t.Fatalf("unexpected size %v", b)
	}
	got := dst.RGBAAt(200, 200)
	if diff(got.R, 10) > 1 || diff(got.G, 20) > 1 || diff(got.B, 30) > 1 {
		t.Errorf("solid colour should survive resampling, got %v", got)
	}
}

func TestDecodeAndEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(8, 8, color.RGBA{200, 0, 0, 255})); err != nil {
		t.Fatal(err)
	}
	img, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, err := EncodeJPEG(img, JPEGQuality)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) < 2 || out[0] != 0xFF || out[1] != 0xD8 {
		t.Error("output is not a JPEG")
	}

	if _, err := Decode([]byte("garbage")); err == nil {
		t.Error("expected an error for garbage input")
	}
}

func TestComposeDrawsLights(t *testing.T) {
	photo := solid(100, 100, color.RGBA{0, 0, 0, 255})
	f := animation.Frame{Lights: []animation.Light{
		{X: 50, Y: 50, Color: palette.RGB{R: 255, G: 255}, Size: 3, Glow: 9},
	}}
	out := Compose(photo, f)

	if got := out.RGBAAt(50, 50); got != (color.RGBA{255, 255, 0, 255}) {
		t.Errorf("core should be solid light colour, got %v", got)
	}
	halo := out.RGBAAt(56, 50)
	if halo.R == 0 || halo.R == 255 {
		t.Errorf("glow should partially blend, got %v", halo)
	}
	if got := out.RGBAAt(5, 5); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("pixels outside the glow must be untouched, got %v", got)
	}
	if got := photo.RGBAAt(50, 50); got != (color.RGBA{0, 0, 0, 255}) {
		t.Error("Compose must not modify the source photo")
	}
}

func TestComposeClipsAtEdges(t *testing.T) {
	photo := solid(20, 20, color.RGBA{0, 0, 0, 255})
	f := animation.Frame{Lights: []animation.Light{
		{X: 0, Y: 0, Color: palette.Red, Size: 5, Glow: 30},
		{X: -100, Y: 500, Color: palette.Blue, Size: 5, Glow: 30},
	}}
	out := Compose(photo, f)
	if got := out.RGBAAt(0, 0); got.R != 255 {
		t.Errorf("light at the corner should be drawn, got %v", got)
	}
}

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func TestTerminalDraw(t *testing.T) {
	s := newSimScreen(t, 21, 10)
	term := NewTerminal(s, 1000, 1000)

	g := graph.New()
	a := g.AddPoint(0, 0)
	b := g.AddPoint(999, 0)
	if _, err := g.NewSpline(a, b); err != nil {
		t.Fatal(err)
	}

	f := animation.Frame{Lights: []animation.Light{{X: 500, Y: 500, Color: palette.Green}}}
	bar := []palette.RGB{palette.Red, palette.Blue}
	term.Draw(g.Snapshot(), f, bar)

	x, y := term.Cell(500, 500)
	if x != 10 || y != 5 {
		t.Fatalf("Cell(500,500) = (%d,%d), want (10,5)", x, y)
	}
	r, _, style, _ := s.GetContent(x, y)
	if r != lightRune {
		t.Errorf("expected a light rune, got %q", r)
	}
	fg, _, _ := style.Decompose()
	if fg != tcell.NewRGBColor(0, 255, 0) {
		t.Errorf("light should be drawn green, got %v", fg)
	}

	if r, _, _, _ := s.GetContent(5, 0); r != pathRune {
		t.Errorf("spline path should be drawn along the top row, got %q", r)
	}
	if r, _, _, _ := s.GetContent(20, 1); r != barRune {
		t.Errorf("colour bar should occupy the last column, got %q", r)
	}
}

func TestTerminalCellClamps(t *testing.T) {
	s := newSimScreen(t, 11, 5)
	term := NewTerminal(s, 100, 100)
	if x, y := term.Cell(-50, 500); x != 0 || y != 4 {
		t.Errorf("out of range coordinates should clamp, got (%d,%d)", x, y)
	}
}
