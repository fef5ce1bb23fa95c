package enhance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sanonone/lightpath/pkg/metrics"
)

const (
	msgTimeout = "Request timed out. You can still download the non-enhanced image."
	msgFailed  = "AI enhancement failed. You can still download the non-enhanced image."
)

// Notifier delivers a non-blocking message to the user.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// Result is the outcome of a pipeline run. Image is always usable: the
// enhanced image on success, the composed input otherwise.
type Result struct {
	Image    []byte
	Enhanced bool
	Err      error
}

// Pipeline runs one enhancement with a deadline and a fallback.
type Pipeline struct {
	Client   Client
	Timeout  time.Duration
	Notifier Notifier
	// Before runs ahead of the outbound call; the engine stops the animation here.
	Before func()
}

// Run enhances composed. Failures are not returned as errors: the result
// carries the composed image, the cause, and the user is notified once.
func (p *Pipeline) Run(ctx context.Context, composed []byte) Result {
	if p.Before != nil {
		p.Before()
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	img, err := p.Client.Enhance(ctx, composed)
	if err == nil && len(img) == 0 {
		err = errors.New("enhancement api returned an empty image")
	}
	if err != nil {
		msg := msgFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrPollTimeout) {
			msg = msgTimeout
		}
		slog.Warn("[Enhance] falling back to composed image", "error", err, "duration", time.Since(start))
		metrics.EnhanceTotal.WithLabelValues("fallback").Inc()
		if p.Notifier != nil {
			p.Notifier.Notify(msg)
		}
		return Result{Image: composed, Err: err}
	}

	slog.Info("[Enhance] image enhanced", "bytes", len(img), "duration", time.Since(start))
	metrics.EnhanceTotal.WithLabelValues("enhanced").Inc()
	return Result{Image: img, Enhanced: true}
}
