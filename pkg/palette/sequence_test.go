package palette

import (
	"reflect"
	"testing"
)

func TestColorAtPeriodic(t *testing.T) {
	seqs := map[string]*Sequence{
		"no markers": NewSequence(),
		"defaults": func() *Sequence {
			s := NewSequence()
			s.ResetMarkers()
			return s
		}(),
		"single": func() *Sequence {
			s := NewSequence()
			s.AddMarker(40, RGB{10, 20, 30})
			return s
		}(),
	}

	positions := []float64{0, 0.5, 1.25, 2.75, 5, 7.5, 9.75, -3.5}
	for name, s := range seqs {
		t.Run(name, func(t *testing.T) {
			cl := s.CycleLength()
			for _, p := range positions {
				want := s.ColorAt(p)
				for k := -3; k <= 3; k++ {
					if got := s.ColorAt(p + float64(k)*cl); got != want {
						t.Errorf("ColorAt(%v + %d*%v) = %v, want %v", p, k, cl, got, want)
					}
				}
			}
		})
	}
}

func TestColorAtMidpointIsExactAverage(t *testing.T) {
	tests := []struct {
		c0, c1 RGB
		want   RGB
	}{
		{RGB{0, 0, 0}, RGB{255, 255, 255}, RGB{128, 128, 128}},
		{RGB{255, 0, 0}, RGB{0, 0, 255}, RGB{128, 0, 128}},
		{RGB{10, 20, 30}, RGB{20, 40, 60}, RGB{15, 30, 45}},
		{RGB{100, 101, 0}, RGB{200, 200, 1}, RGB{150, 151, 1}},
	}
	for _, tc := range tests {
		s := NewSequence()
		s.AddMarker(0, tc.c0)
		s.AddMarker(100, tc.c1)

		mid := s.CycleLength() / 2
		if got := s.ColorAt(mid); got != tc.want {
			t.Errorf("midpoint of %v and %v: got %v, want %v", tc.c0, tc.c1, got, tc.want)
		}
	}
}

func TestColorAtClampsOutsideMarkerRange(t *testing.T) {
	s := NewSequence()
	s.AddMarker(30, Red)
	s.AddMarker(60, Blue)

	// 10 percent of the cycle is above the first marker.
	if got := s.ColorAt(1); got != Red {
		t.Errorf("before first marker: got %v, want %v", got, Red)
	}
	if got := s.ColorAt(9); got != Blue {
		t.Errorf("after last marker: got %v, want %v", got, Blue)
	}
}

func TestColorAtNoMarkersUsesDefaultPalette(t *testing.T) {
	s := NewSequence()
	want := []RGB{Red, Green, Blue, Yellow, Magenta}
	for i, c := range want {
		// cycle length 10 and 5 colours: each colour covers 2 positions
		if got := s.ColorAt(float64(i*2) + 0.5); got != c {
			t.Errorf("palette index %d: got %v, want %v", i, got, c)
		}
	}
}

func TestSingleMarkerIsConstant(t *testing.T) {
	s := NewSequence()
	c := RGB{1, 2, 3}
	s.AddMarker(70, c)
	for _, p := range []float64{0, 3, 6.5, 9.9} {
		if got := s.ColorAt(p); got != c {
			t.Errorf("ColorAt(%v) = %v, want %v", p, got, c)
		}
	}
}

func TestMarkerMutationsResort(t *testing.T) {
	s := NewSequence()
	a := s.AddMarker(80, Red)
	b := s.AddMarker(20, Green)
	c := s.AddMarker(20, Blue)

	ids := func() []MarkerID {
		var out []MarkerID
		for _, m := range s.Markers() {
			out = append(out, m.ID)
		}
		return out
	}

	if got := ids(); !reflect.DeepEqual(got, []MarkerID{b, c, a}) {
		t.Fatalf("initial order: got %v", got)
	}

	if !s.UpdateMarker(a, 0, Red) {
		t.Fatal("update should succeed")
	}
	if got := ids(); !reflect.DeepEqual(got, []MarkerID{a, b, c}) {
		t.Errorf("order after update: got %v", got)
	}
	// Colour lookup must see the new order immediately.
	if got := s.ColorAt(0); got != Red {
		t.Errorf("ColorAt(0) after update: got %v, want %v", got, Red)
	}

	if !s.DeleteMarker(b) {
		t.Fatal("delete should succeed")
	}
	if s.DeleteMarker(b) {
		t.Error("second delete should report false")
	}
	if got := ids(); !reflect.DeepEqual(got, []MarkerID{a, c}) {
		t.Errorf("order after delete: got %v", got)
	}
	if s.UpdateMarker(999, 10, Red) {
		t.Error("updating an unknown marker should report false")
	}
}

func TestAddMarkerClampsPosition(t *testing.T) {
	s := NewSequence()
	s.AddMarker(-20, Red)
	s.AddMarker(150, Blue)
	ms := s.Markers()
	if ms[0].Position != 0 || ms[1].Position != 100 {
		t.Errorf("positions not clamped: %+v", ms)
	}
}

func TestResetMarkers(t *testing.T) {
	s := NewSequence()
	s.AddMarker(33, Green)
	s.ResetMarkers()

	ms := s.Markers()
	if len(ms) != 5 {
		t.Fatalf("expected 5 default markers, got %d", len(ms))
	}
	if ms[0].Color != Red || ms[4].Color != Blue || ms[2].Position != 50 {
		t.Errorf("unexpected default markers: %+v", ms)
	}
}

func TestSetCycleLength(t *testing.T) {
	s := NewSequence()
	s.SetCycleLength(0)
	if got := s.CycleLength(); got != 1 {
		t.Errorf("cycle length should be raised to 1, got %v", got)
	}
	s.SetCycleLength(20)
	s.AddMarker(0, RGB{0, 0, 0})
	s.AddMarker(100, RGB{200, 200, 200})
	if got := s.ColorAt(10); got != (RGB{100, 100, 100}) {
		t.Errorf("ColorAt(10) with cycle 20: got %v", got)
	}
}

func TestHexRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		want RGB
		hex  string
	}{
		{"#ff0000", Red, "#ff0000"},
		{"#00ff00", Green, "#00ff00"},
		{"#1a2b3c", RGB{0x1a, 0x2b, 0x3c}, "#1a2b3c"},
		{"#fff", RGB{255, 255, 255}, "#ffffff"},
	}
	for _, tc := range tests {
		got, err := ParseHex(tc.in)
		if err != nil {
			t.Fatalf("ParseHex(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tc.in, got, tc.want)
		}
		if h := got.Hex(); h != tc.hex {
			t.Errorf("Hex() = %q, want %q", h, tc.hex)
		}
	}

	if _, err := ParseHex("not-a-colour"); err == nil {
		t.Error("expected an error for invalid input")
	}
}

func TestGradient(t *testing.T) {
	s := NewSequence()
	s.AddMarker(0, RGB{0, 0, 0})
	s.AddMarker(100, RGB{250, 250, 250})

	g := s.Gradient(3)
	if len(g) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(g))
	}
	if g[0] != (RGB{0, 0, 0}) || g[1] != (RGB{125, 125, 125}) {
		t.Errorf("unexpected gradient head: %v", g)
	}
	if g[2] != (RGB{250, 250, 250}) {
		t.Errorf("last sample should be the bottom marker colour, got %v", g[2])
	}
	if s.Gradient(0) != nil {
		t.Error("Gradient(0) should be nil")
	}
}
