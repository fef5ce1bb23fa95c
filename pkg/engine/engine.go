// Package engine provides the studio session: one photo, the light paths drawn
// over it, and everything needed to animate, compose and enhance the result.
//
// An Engine is safe for concurrent use. Every graph edit and every placement
// pass runs under the same lock, so a frame never observes a half-applied edit.
//
// Basic usage:
//
//	e := engine.New(engine.DefaultOptions())
//	defer e.Close()
//	if err := e.LoadPhoto(ctx, jpegBytes); err != nil {
//	    log.Fatal(err)
//	}
//	e.Click(100, 200)
//	e.Click(400, 220)
//	frame := e.Frame(0)
package engine

import (
	"errors"
	"image"
	"sync"
	"time"

	"github.com/sanonone/lightpath/pkg/animation"
	"github.com/sanonone/lightpath/pkg/config"
	"github.com/sanonone/lightpath/pkg/depth"
	"github.com/sanonone/lightpath/pkg/enhance"
	"github.com/sanonone/lightpath/pkg/graph"
	"github.com/sanonone/lightpath/pkg/palette"
	"github.com/sanonone/lightpath/pkg/placement"
	"github.com/sanonone/lightpath/pkg/render"
	"github.com/sanonone/lightpath/pkg/snap"
)

var (
	// ErrNoPhoto is returned by operations that need a loaded photo.
	ErrNoPhoto = errors.New("no photo loaded")
	// ErrNothingToDownload is returned by Download before any enhancement ran.
	ErrNothingToDownload = errors.New("nothing to download: run an enhancement first")
	// ErrEnhancing is returned while an enhancement is outstanding.
	ErrEnhancing = errors.New("enhancement in progress")
	// ErrMarkerNotFound is returned for unknown colour marker ids.
	ErrMarkerNotFound = errors.New("color marker not found")
	// ErrOutOfCanvas is returned for clicks that are not finite canvas coordinates.
	ErrOutOfCanvas = errors.New("click outside the canvas")

	errEnhancerUnavailable = errors.New("no enhancement provider configured")
)

// Options configures a session.
type Options struct {
	// CanvasSize is the side of the square drawing canvas (default 1000).
	CanvasSize int
	// GridSize is the side of the image sent to the depth and line servers (default 400).
	GridSize int

	Settings Settings

	// SnapThreshold is the distance within which clicks snap to detected lines.
	SnapThreshold float64

	// FrameInterval is the animation cadence. Zero picks one from the host.
	FrameInterval time.Duration

	// EnhanceTimeout bounds one enhancement (default 30s).
	EnhanceTimeout time.Duration

	// DepthSource and LineSource analyse a loaded photo. Nil sources use the
	// fallback data directly.
	DepthSource depth.Source
	LineSource  snap.Source

	// Enhancer is the image-to-image client. Nil makes every enhancement fall
	// back to the composed image.
	Enhancer enhance.Client
}

// DefaultOptions returns a session without external providers.
func DefaultOptions() Options {
	return Options{
		CanvasSize:     render.CanvasSize,
		GridSize:       render.GridSize,
		Settings:       DefaultSettings(),
		SnapThreshold:  snap.DefaultThreshold,
		EnhanceTimeout: 30 * time.Second,
	}
}

// OptionsFromConfig builds options and HTTP providers from a loaded configuration.
func OptionsFromConfig(cfg config.Config) Options {
	opts := DefaultOptions()
	opts.CanvasSize = cfg.Canvas.Size
	opts.GridSize = cfg.Canvas.GridSize
	opts.Settings = Settings{
		Density:     placement.ClampDensity(cfg.Lights.Density),
		Speed:       cfg.Lights.Speed,
		CycleLength: cfg.Lights.CycleLength,
		GlowSize:    cfg.Lights.GlowSize,
	}
	opts.SnapThreshold = cfg.Lines.SnapThreshold
	opts.FrameInterval = cfg.Animation.Interval
	opts.EnhanceTimeout = cfg.Enhance.Timeout

	if cfg.Depth.URL != "" {
		opts.DepthSource = depth.NewHTTPSource(cfg.Depth.URL, cfg.Depth.Timeout)
	}
	if cfg.Lines.URL != "" {
		opts.LineSource = snap.NewHTTPSource(cfg.Lines.URL, cfg.Lines.Timeout)
	}
	if cfg.Enhance.URL != "" {
		opts.Enhancer = enhance.NewClient(cfg.Enhance)
	}
	return opts
}

// Engine is one editing session.
type Engine struct {
	opts Options

	// mu guards everything below it.
	mu       sync.Mutex
	graph    *graph.Graph
	editor   *graph.Editor
	palette  *palette.Sequence
	settings Settings
	grid     *depth.Grid
	placer   *placement.Engine
	cache    animation.PlacementCache

	photo     *image.RGBA // canvas-sized
	lines     snap.LineSet
	enhancing bool
	result    []byte
	enhanced  bool

	driver *animation.Driver

	frameMu   sync.RWMutex
	lastFrame animation.Frame

	notes *notifications
}

// New creates an empty session.
func New(opts Options) *Engine {
	if opts.CanvasSize <= 0 {
		opts.CanvasSize = render.CanvasSize
	}
	if opts.GridSize <= 0 {
		opts.GridSize = render.GridSize
	}
	if opts.SnapThreshold <= 0 {
		opts.SnapThreshold = snap.DefaultThreshold
	}
	if opts.Settings == (Settings{}) {
		opts.Settings = DefaultSettings()
	}

	canvas := float64(opts.CanvasSize)
	g := graph.New()
	grid := depth.NewGrid(canvas, canvas)

	e := &Engine{
		opts:    opts,
		graph:   g,
		editor:  graph.NewEditor(g, nil),
		palette: palette.NewSequence(),
		grid:    grid,
		placer:  placement.New(grid, placement.Options{Density: placement.DefaultDensity}),
		notes:   newNotifications(),
	}
	e.driver = animation.NewDriver(animation.FrameSourceFunc(e.Frame), nil)
	e.applySettings(opts.Settings)
	return e
}

// Close stops the animation loop. The session must not be used afterwards.
func (e *Engine) Close() error {
	e.driver.Stop()
	return nil
}

// Notifications drains the pending user notifications.
func (e *Engine) Notifications() []Notification {
	return e.notes.drain()
}

// Notify queues a user notification.
func (e *Engine) Notify(msg string) {
	e.notes.Notify(msg)
}

// HasPhoto reports whether a photo is loaded.
func (e *Engine) HasPhoto() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.photo != nil
}

// Reset stops the animation and returns the session to its initial state:
// no photo, no paths, default settings and no colour markers.
func (e *Engine) Reset() {
	e.driver.Stop()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.editor.Clear()
	e.editor.Unlock()
	e.editor.SetSnapper(nil)
	e.palette.ClearMarkers()
	e.grid.Reset()
	e.cache.Invalidate()
	e.photo = nil
	e.lines = snap.LineSet{}
	e.result = nil
	e.enhanced = false
	e.applySettings(DefaultSettings())

	e.frameMu.Lock()
	e.lastFrame = animation.Frame{}
	e.frameMu.Unlock()
}
