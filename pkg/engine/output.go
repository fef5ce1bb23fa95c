package engine

import (
	"context"
	"log/slog"

	"github.com/sanonone/lightpath/pkg/animation"
	"github.com/sanonone/lightpath/pkg/enhance"
	"github.com/sanonone/lightpath/pkg/placement"
	"github.com/sanonone/lightpath/pkg/render"
)

// Frame returns the lights for the given phase. Placements are reused until
// the drawing, the depth map or the density changes; colours are recomputed
// on every call.
func (e *Engine) Frame(phase float64) animation.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameLocked(phase)
}

func (e *Engine) frameLocked(phase float64) animation.Frame {
	key := animation.CacheKey{
		GraphRevision: e.graph.Revision(),
		DepthRevision: e.grid.Revision(),
		Density:       e.placer.Density(),
	}
	ps := e.cache.Get(key, func() []placement.Placement {
		return e.placer.PlaceAll(e.graph)
	})
	return animation.Frame{
		Phase:  phase,
		Lights: animation.Colorize(ps, e.palette, phase, e.settings.GlowSize),
	}
}

// Phase returns the animation phase.
func (e *Engine) Phase() float64 {
	return e.driver.Phase()
}

// StartAnimation runs the frame loop until ctx is done or StopAnimation is
// called. onFrame, if not nil, receives every frame; it must not call back
// into StopAnimation.
func (e *Engine) StartAnimation(ctx context.Context, onFrame animation.Sink) error {
	// Start does not block on the loop, so it may run under e.mu.
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.enhancing {
		return ErrEnhancing
	}

	return e.driver.Start(ctx, e.opts.FrameInterval, func(f animation.Frame) {
		e.frameMu.Lock()
		e.lastFrame = f
		e.frameMu.Unlock()
		if onFrame != nil {
			onFrame(f)
		}
	})
}

// StopAnimation stops the frame loop and waits for it to exit.
func (e *Engine) StopAnimation() {
	e.driver.Stop()
}

// Animating reports whether the frame loop is running.
func (e *Engine) Animating() bool {
	return e.driver.Running()
}

// LastFrame returns the most recent frame produced by the loop.
func (e *Engine) LastFrame() animation.Frame {
	e.frameMu.RLock()
	defer e.frameMu.RUnlock()
	return e.lastFrame
}

// Compose renders the lights at the current phase over the photo as JPEG.
func (e *Engine) Compose() ([]byte, error) {
	phase := e.driver.Phase()

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.composeLocked(phase)
}

func (e *Engine) composeLocked(phase float64) ([]byte, error) {
	if e.photo == nil {
		return nil, ErrNoPhoto
	}
	return render.EncodeJPEG(render.Compose(e.photo, e.frameLocked(phase)), render.JPEGQuality)
}

// Enhance enters enhance mode: drawing is locked, the animation is stopped and
// the composed image is sent to the enhancer. Any enhancer failure falls back
// to the composed image and notifies the user; the returned error is reserved
// for session state problems (no photo, already enhancing).
func (e *Engine) Enhance(ctx context.Context) (enhance.Result, error) {
	phase := e.driver.Phase()

	e.mu.Lock()
	if e.enhancing {
		e.mu.Unlock()
		return enhance.Result{}, ErrEnhancing
	}
	composed, err := e.composeLocked(phase)
	if err != nil {
		e.mu.Unlock()
		return enhance.Result{}, err
	}
	e.enhancing = true
	e.editor.Lock()
	e.mu.Unlock()

	client := e.opts.Enhancer
	if client == nil {
		client = unavailable{}
	}
	p := &enhance.Pipeline{
		Client:   client,
		Timeout:  e.opts.EnhanceTimeout,
		Notifier: e.notes,
		Before:   e.driver.Stop,
	}
	res := p.Run(ctx, composed)

	e.mu.Lock()
	e.enhancing = false
	e.result = res.Image
	e.enhanced = res.Enhanced
	e.mu.Unlock()

	slog.Info("[Engine] enhancement finished", "enhanced", res.Enhanced, "bytes", len(res.Image))
	return res, nil
}

// Download returns the enhanced image, or the composed fallback when the
// enhancement failed, and whether it is enhanced.
func (e *Engine) Download() ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.result == nil {
		return nil, false, ErrNothingToDownload
	}
	return e.result, e.enhanced, nil
}

type unavailable struct{}

func (unavailable) Enhance(context.Context, []byte) ([]byte, error) {
	return nil, errEnhancerUnavailable
}
