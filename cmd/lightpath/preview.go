package main

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/sanonone/lightpath/pkg/animation"
	"github.com/sanonone/lightpath/pkg/engine"
	"github.com/sanonone/lightpath/pkg/render"
)

// demoClicks draws a roof line with a branch down to the door.
var demoClicks = [][2]float64{
	{100, 700}, {500, 300}, // roof left
	{500, 300}, {900, 700}, // select the ridge end, extend to the right
	{500, 300}, {500, 900}, // branch from the ridge down
}

// runPreview animates the current drawing, or the demo drawing when the
// canvas is empty, until ctx is done or q/Esc is pressed.
func runPreview(ctx context.Context, eng *engine.Engine) error {
	if len(eng.Graph().Splines) == 0 {
		for _, c := range demoClicks {
			if _, err := eng.Click(c[0], c[1]); err != nil {
				return fmt.Errorf("demo drawing: %w", err)
			}
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	_, h := screen.Size()
	term := render.NewTerminal(screen, 1000, 1000)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	err = eng.StartAnimation(ctx, func(f animation.Frame) {
		term.Draw(eng.Graph().Snapshot, f, eng.Gradient(h))
	})
	if err != nil {
		return err
	}
	defer eng.StopAnimation()

	events := make(chan tcell.Event)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		}
	}
}
