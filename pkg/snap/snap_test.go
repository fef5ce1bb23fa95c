package snap

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestLineSnapperProjectsOntoPlaceholder(t *testing.T) {
	// Placeholder line (100,100)-(300,300) in 400 space becomes (250,250)-(750,750) on a 1000 canvas.
	s := NewLineSnapper(Placeholder(), 1000, 1000, 0)
	if s.Len() != 1 {
		t.Fatalf("expected 1 line, got %d", s.Len())
	}

	tests := []struct {
		name         string
		x, y         float64
		wantX, wantY float64
	}{
		{"on the line", 500, 500, 500, 500},
		{"close, projected", 510, 500, 505, 505},
		{"beyond the end, clamped", 760, 760, 750, 750},
		{"too far, unchanged", 600, 400, 600, 400},
		{"far from the end, unchanged", 900, 900, 900, 900},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			x, y := s.Snap(tc.x, tc.y)
			if !near(x, tc.wantX) || !near(y, tc.wantY) {
				t.Errorf("Snap(%v,%v) = (%v,%v), want (%v,%v)", tc.x, tc.y, x, y, tc.wantX, tc.wantY)
			}
		})
	}
}

func TestLineSnapperPicksNearestLine(t *testing.T) {
	set := LineSet{
		Lines: []Line{
			{X1: 0, Y1: 100, X2: 1000, Y2: 100, Score: 1},
			{X1: 0, Y1: 110, X2: 1000, Y2: 110, Score: 1},
		},
		Width: 1000, Height: 1000,
	}
	s := NewLineSnapper(set, 1000, 1000, 20)

	if _, y := s.Snap(500, 104); y != 100 {
		t.Errorf("expected snap to y=100, got %v", y)
	}
	if _, y := s.Snap(500, 107); y != 110 {
		t.Errorf("expected snap to y=110, got %v", y)
	}
}

func TestLineSnapperDegenerateLine(t *testing.T) {
	set := LineSet{Lines: []Line{{X1: 50, Y1: 50, X2: 50, Y2: 50}}, Width: 100, Height: 100}
	s := NewLineSnapper(set, 100, 100, 10)
	if x, y := s.Snap(55, 55); x != 50 || y != 50 {
		t.Errorf("zero-length line should act as a point, got (%v,%v)", x, y)
	}
}

func TestIdentity(t *testing.T) {
	if x, y := (Identity{}).Snap(3, 4); x != 3 || y != 4 {
		t.Errorf("identity moved the point to (%v,%v)", x, y)
	}
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		w.Write([]byte(`{"lines":[{"x1":1,"y1":2,"x2":3,"y2":4,"score":0.5}],"width":400,"height":400}`))
	}))
	defer srv.Close()

	set, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background(), []byte("img"))
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Lines) != 1 || set.Lines[0].Y2 != 4 || set.Width != 400 {
		t.Errorf("unexpected line set: %+v", set)
	}
}

func TestHTTPSourceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background(), nil); err == nil {
		t.Error("expected an error on 502")
	}
}
