package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sanonone/lightpath/pkg/depth"
	"github.com/sanonone/lightpath/pkg/graph"
	"github.com/sanonone/lightpath/pkg/metrics"
	"github.com/sanonone/lightpath/pkg/palette"
	"github.com/sanonone/lightpath/pkg/render"
	"github.com/sanonone/lightpath/pkg/snap"
	"golang.org/x/sync/errgroup"
)

const (
	msgDepthFallback = "Depth estimation is unavailable. Lights are spaced uniformly."
	msgLinesFallback = "Line detection is unavailable. Clicks will not snap to the photo."
)

// LoadPhoto starts a new drawing on the given PNG or JPEG photo. The photo is
// fitted to the canvas, and a reduced copy is analysed by the depth and line
// sources concurrently. A failing source is replaced by its fallback data and
// the user is notified; only a bad image or a cancelled ctx fail the call.
func (e *Engine) LoadPhoto(ctx context.Context, data []byte) error {
	img, err := render.Decode(data)
	if err != nil {
		return err
	}
	canvas := render.Fit(img, e.opts.CanvasSize, e.opts.CanvasSize)
	small, err := render.EncodeJPEG(render.Fit(img, e.opts.GridSize, e.opts.GridSize), render.JPEGQuality)
	if err != nil {
		return err
	}

	var (
		depthMap depth.Map
		lineSet  snap.LineSet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		depthMap = e.fetchDepth(gctx, small)
		return ctx.Err()
	})
	g.Go(func() error {
		lineSet = e.fetchLines(gctx, small)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("photo analysis cancelled: %w", err)
	}

	// The old drawing belongs to the old photo.
	e.driver.Stop()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.grid.Load(depthMap); err != nil {
		slog.Warn("[Engine] invalid depth map, using filler", "error", err)
		metrics.ProviderFallbacks.WithLabelValues("depth").Inc()
		e.notes.Notify(msgDepthFallback)
		_ = e.grid.Load(depth.Filler(e.opts.GridSize, e.opts.GridSize))
	}

	canvasSize := float64(e.opts.CanvasSize)
	e.lines = lineSet
	e.editor.Clear()
	e.editor.Unlock()
	e.editor.SetSnapper(snap.NewLineSnapper(lineSet, canvasSize, canvasSize, e.opts.SnapThreshold))
	e.palette.ResetMarkers()
	e.cache.Invalidate()
	e.photo = canvas
	e.result = nil
	e.enhanced = false

	slog.Info("[Engine] photo loaded",
		"source_size", img.Bounds().Size().String(),
		"depth_samples", len(depthMap.Depth),
		"lines", len(lineSet.Lines))
	return nil
}

func (e *Engine) fetchDepth(ctx context.Context, img []byte) depth.Map {
	filler := depth.Filler(e.opts.GridSize, e.opts.GridSize)
	if e.opts.DepthSource == nil {
		return filler
	}
	m, err := e.opts.DepthSource.Fetch(ctx, img)
	if err != nil {
		slog.Warn("[Engine] depth source failed, using filler", "error", err)
		metrics.ProviderFallbacks.WithLabelValues("depth").Inc()
		e.notes.Notify(msgDepthFallback)
		return filler
	}
	return m
}

func (e *Engine) fetchLines(ctx context.Context, img []byte) snap.LineSet {
	if e.opts.LineSource == nil {
		return snap.Placeholder()
	}
	set, err := e.opts.LineSource.Fetch(ctx, img)
	if err != nil {
		slog.Warn("[Engine] line source failed, using placeholder", "error", err)
		metrics.ProviderFallbacks.WithLabelValues("lines").Inc()
		e.notes.Notify(msgLinesFallback)
		return snap.Placeholder()
	}
	return set
}

// GraphState is the drawing as shown to clients.
type GraphState struct {
	graph.Snapshot
	Selection *graph.Selection `json:"selection,omitempty"`
	Locked    bool             `json:"locked"`
	CanUndo   bool             `json:"can_undo"`
}

// Graph returns a copy of the drawing and the editor state.
func (e *Engine) Graph() GraphState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graphStateLocked()
}

func (e *Engine) graphStateLocked() GraphState {
	st := GraphState{
		Snapshot: e.graph.Snapshot(),
		Locked:   e.editor.Locked(),
		CanUndo:  e.editor.CanUndo(),
	}
	if sel, ok := e.editor.Selection(); ok {
		st.Selection = &sel
	}
	return st
}

// Click applies one canvas click to the drawing.
// Coordinates must lie within [0, CanvasSize].
func (e *Engine) Click(x, y float64) (graph.ClickResult, error) {
	size := float64(e.opts.CanvasSize)
	if !inCanvas(x, size) || !inCanvas(y, size) {
		return graph.ClickResult{Action: graph.ActionIgnored}, fmt.Errorf("%w: (%v, %v) not in [0, %v]", ErrOutOfCanvas, x, y, size)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.editor.Click(x, y)
	if err != nil {
		return res, err
	}
	slog.Debug("[Engine] click", "action", res.Action, "x", res.X, "y", res.Y)
	return res, nil
}

// inCanvas also rejects NaN, which fails both comparisons.
func inCanvas(v, size float64) bool {
	return v >= 0 && v <= size
}

// Undo reverts the last edit. It reports false when there was nothing to undo.
func (e *Engine) Undo() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editor.Locked() {
		return false, graph.ErrLocked
	}
	return e.editor.Undo(), nil
}

// Clear removes every path.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editor.Locked() {
		return graph.ErrLocked
	}
	e.editor.Clear()
	return nil
}

// SetStartPoint makes the given endpoint the seed of its network.
func (e *Engine) SetStartPoint(id graph.PointID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editor.Locked() {
		return graph.ErrLocked
	}
	return e.graph.SetStartPoint(id)
}

// Markers returns the colour markers in position order.
func (e *Engine) Markers() []palette.Marker {
	return e.palette.Markers()
}

// AddMarker adds a colour marker at position (0..100).
func (e *Engine) AddMarker(position float64, c palette.RGB) palette.Marker {
	id := e.palette.AddMarker(position, c)
	return e.marker(id)
}

// UpdateMarker moves and recolours a marker.
func (e *Engine) UpdateMarker(id palette.MarkerID, position float64, c palette.RGB) (palette.Marker, error) {
	if !e.palette.UpdateMarker(id, position, c) {
		return palette.Marker{}, fmt.Errorf("marker %d: %w", id, ErrMarkerNotFound)
	}
	return e.marker(id), nil
}

// DeleteMarker removes a marker.
func (e *Engine) DeleteMarker(id palette.MarkerID) error {
	if !e.palette.DeleteMarker(id) {
		return fmt.Errorf("marker %d: %w", id, ErrMarkerNotFound)
	}
	return nil
}

// ResetMarkers restores the default five markers.
func (e *Engine) ResetMarkers() {
	e.palette.ResetMarkers()
}

// Gradient samples the colour bar at n evenly spaced positions.
func (e *Engine) Gradient(n int) []palette.RGB {
	return e.palette.Gradient(n)
}

func (e *Engine) marker(id palette.MarkerID) palette.Marker {
	for _, m := range e.palette.Markers() {
		if m.ID == id {
			return m
		}
	}
	return palette.Marker{ID: id}
}
