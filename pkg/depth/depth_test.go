package depth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestConstantClamps(t *testing.T) {
	tests := []struct {
		in   Constant
		want float64
	}{
		{0.5, 0.5},
		{-1, 0},
		{3, 1},
	}
	for _, tc := range tests {
		if got := tc.in.Depth(10, 10); got != tc.want {
			t.Errorf("Constant(%v).Depth = %v, want %v", float64(tc.in), got, tc.want)
		}
	}
}

func TestGridFallbackWhenEmpty(t *testing.T) {
	g := NewGrid(1000, 1000)
	if got := g.Depth(500, 500); got != Fallback {
		t.Errorf("empty grid: got %v, want %v", got, Fallback)
	}
	if g.Loaded() {
		t.Error("empty grid should not report loaded")
	}
}

func TestGridRescalesCanvasCoordinates(t *testing.T) {
	// 2x2 grid over a 1000x1000 canvas: each cell covers 500x500 pixels.
	g := NewGrid(1000, 1000)
	err := g.Load(Map{Depth: []float32{0, 0.25, 0.5, 0.75}, Width: 2, Height: 2})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		x, y float64
		want float64
	}{
		{0, 0, 0},
		{499, 10, 0},
		{500, 10, 0.25},
		{10, 999, 0.5},
		{999, 999, 0.75},
		{-1, 0, Fallback},
		{1000, 10, Fallback},
		{10, 1500, Fallback},
	}
	for _, tc := range tests {
		if got := g.Depth(tc.x, tc.y); got != tc.want {
			t.Errorf("Depth(%v,%v) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestGridLoadValidates(t *testing.T) {
	g := NewGrid(100, 100)
	if err := g.Load(Map{Depth: []float32{1, 1, 1}, Width: 2, Height: 2}); err == nil {
		t.Error("expected an error for a short sample slice")
	}
	if err := g.Load(Map{Width: 0, Height: 2}); err == nil {
		t.Error("expected an error for a zero width")
	}
	if g.Loaded() {
		t.Error("failed loads must not install samples")
	}
}

func TestGridRevision(t *testing.T) {
	g := NewGrid(100, 100)
	r0 := g.Revision()
	if err := g.Load(Filler(4, 4)); err != nil {
		t.Fatal(err)
	}
	if g.Revision() == r0 {
		t.Error("Load should bump the revision")
	}
	r1 := g.Revision()
	g.Reset()
	if g.Revision() == r1 {
		t.Error("Reset should bump the revision")
	}
}

func TestFiller(t *testing.T) {
	m := Filler(DefaultGridSize, DefaultGridSize)
	if len(m.Depth) != DefaultGridSize*DefaultGridSize {
		t.Fatalf("unexpected sample count %d", len(m.Depth))
	}
	g := NewGrid(1000, 1000)
	if err := g.Load(m); err != nil {
		t.Fatal(err)
	}
	if got := g.Depth(123, 456); got != 1 {
		t.Errorf("filler depth: got %v, want 1", got)
	}
}

func TestHTTPSource(t *testing.T) {
	img := []byte("fake-png")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var req struct {
			Image string `json:"image"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		raw, _ := base64.StdEncoding.DecodeString(req.Image)
		if string(raw) != string(img) {
			t.Errorf("image not forwarded: %q", raw)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"depth": []float32{0.5, 0.5, 0.5, 0.5},
			"width": 2, "height": 2,
		})
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.URL, time.Second)
	m, err := src.Fetch(context.Background(), img)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if m.Width != 2 || m.Height != 2 || len(m.Depth) != 4 {
		t.Errorf("unexpected map: %+v", m)
	}
}

func TestHTTPSourceDefaultsSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"depth":[]}`))
	}))
	defer srv.Close()

	m, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.Width != DefaultGridSize || m.Height != DefaultGridSize {
		t.Errorf("missing size should default to %d, got %dx%d", DefaultGridSize, m.Width, m.Height)
	}
}

func TestHTTPSourceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewHTTPSource(srv.URL, time.Second).Fetch(context.Background(), []byte("x")); err == nil {
		t.Error("expected an error on 500")
	}
}
