// Package animation advances the colour phase over time and produces frames.
//
// Geometry does not depend on the phase, so a frame source may reuse the
// placements of a previous frame while the graph is unchanged; only colours
// are recomputed per frame.
//
// Basic usage:
//
//	d := animation.NewDriver(src, nil)
//	d.Start(ctx, animation.DefaultInterval(), func(f animation.Frame) { draw(f) })
//	defer d.Stop()
package animation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/klauspost/cpuid/v2"
	"github.com/sanonone/lightpath/pkg/metrics"
	"github.com/sanonone/lightpath/pkg/palette"
)

// PhaseRate is the phase advance in steps per second at speed 1.
const PhaseRate = 0.6

// ErrRunning is returned by Start when the loop is already active.
var ErrRunning = errors.New("animation already running")

// Light is one coloured light of a frame.
type Light struct {
	X     float64     `json:"x"`
	Y     float64     `json:"y"`
	Step  int         `json:"step"`
	Color palette.RGB `json:"color"`
	// Size is the core radius hint in pixels.
	Size float64 `json:"size"`
	// Glow is the glow radius in pixels.
	Glow float64 `json:"glow"`
}

// Frame is everything a renderer needs for one tick.
type Frame struct {
	Phase  float64 `json:"phase"`
	Lights []Light `json:"lights"`
}

// FrameSource builds the frame for a phase.
type FrameSource interface {
	Frame(phase float64) Frame
}

// FrameSourceFunc adapts a function to FrameSource.
type FrameSourceFunc func(phase float64) Frame

func (f FrameSourceFunc) Frame(phase float64) Frame { return f(phase) }

// Sink receives frames from the loop.
type Sink func(Frame)

// LightSize is the radius hint for a light at the given depth: 3px far, 10px near.
func LightSize(depth float64) float64 {
	return 3 + 7*depth
}

// GlowRadius is the glow radius for a light of the given size.
func GlowRadius(size, glowSize float64) float64 {
	return size * (2 + glowSize)
}

// DefaultInterval picks the frame interval for this host: 60 fps, or 30 fps
// on machines with two logical cores or fewer.
func DefaultInterval() time.Duration {
	if cpuid.CPU.LogicalCores > 0 && cpuid.CPU.LogicalCores <= 2 {
		return time.Second / 30
	}
	return time.Second / 60
}

// Driver owns the phase and the frame loop. At most one loop runs at a time.
type Driver struct {
	mu     sync.Mutex
	source FrameSource
	timer  *Timer
	phase  float64
	speed  float64

	running bool
	closed  chan struct{}
	// done is closed when the loop started with closed has exited.
	done chan struct{}
}

// NewDriver creates a driver. A nil timer uses the wall clock.
func NewDriver(src FrameSource, timer *Timer) *Driver {
	if timer == nil {
		timer = NewTimer(nil)
	}
	return &Driver{source: src, timer: timer, speed: 1}
}

// SetSpeed sets the animation speed multiplier. Negative values are treated as 0.
func (d *Driver) SetSpeed(s float64) {
	d.mu.Lock()
	d.speed = max(s, 0)
	d.mu.Unlock()
}

// Speed returns the speed multiplier.
func (d *Driver) Speed() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speed
}

// Phase returns the current phase.
func (d *Driver) Phase() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// Tick advances the phase by the time elapsed since the previous tick and
// returns the frame for the new phase.
func (d *Driver) Tick() Frame {
	d.mu.Lock()
	d.phase += d.timer.Delta() * d.speed * PhaseRate
	phase := d.phase
	d.mu.Unlock()

	f := d.source.Frame(phase)
	f.Phase = phase
	metrics.FramesTotal.Inc()
	return f
}

// Start runs the frame loop in a goroutine, calling sink once per interval
// until ctx is done or Stop is called. sink must not call Stop.
func (d *Driver) Start(ctx context.Context, interval time.Duration, sink Sink) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return ErrRunning
	}
	if interval <= 0 {
		interval = DefaultInterval()
	}
	d.running = true
	d.closed = make(chan struct{})
	d.done = make(chan struct{})
	d.timer.Reset()

	go d.loop(ctx, interval, sink, d.closed, d.done)
	return nil
}

func (d *Driver) loop(ctx context.Context, interval time.Duration, sink Sink, closed <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case <-ticker.C:
			// Stop may have raced with the ticker; do not deliver after it.
			select {
			case <-closed:
				return
			default:
			}
			sink(d.Tick())
		}
	}
}

// Stop cancels the loop and waits for it to exit. After Stop returns no
// further sink call happens. Stopping an idle driver is a no-op.
func (d *Driver) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	close(d.closed)
	d.running = false
	done := d.done
	d.mu.Unlock()

	<-done
}

// Running reports whether the loop is active. A loop ended by its context
// still counts as running until Stop is called.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}
