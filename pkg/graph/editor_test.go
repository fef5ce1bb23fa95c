package graph

import (
	"errors"
	"reflect"
	"testing"
)

type offsetSnapper struct{ dx, dy float64 }

func (o offsetSnapper) Snap(x, y float64) (float64, float64) { return x + o.dx, y + o.dy }

func TestEditorDrawsSplineWithTwoClicks(t *testing.T) {
	e := NewEditor(New(), nil)

	res, err := e.Click(100, 100)
	if err != nil {
		t.Fatal(err)
	}
	if res.Action != ActionStarted {
		t.Fatalf("first click: got %s, want %s", res.Action, ActionStarted)
	}

	res, err = e.Click(300, 100)
	if err != nil {
		t.Fatal(err)
	}
	if res.Action != ActionCompleted {
		t.Fatalf("second click: got %s, want %s", res.Action, ActionCompleted)
	}

	splines := e.Graph().Splines()
	if len(splines) != 1 || len(splines[0].Points) != 2 {
		t.Fatalf("expected one 2-point spline, got %+v", splines)
	}

	// A third click far away starts a new spline because the active one is complete.
	res, _ = e.Click(600, 600)
	if res.Action != ActionStarted {
		t.Errorf("third click: got %s, want %s", res.Action, ActionStarted)
	}
}

func TestEditorExtendFromSelectedEndpoint(t *testing.T) {
	e := NewEditor(New(), nil)
	e.Click(100, 100)
	e.Click(200, 100)

	// Select the first point then click elsewhere: prepend.
	res, _ := e.Click(101, 101)
	if res.Action != ActionSelected {
		t.Fatalf("clicking an endpoint should select it, got %s", res.Action)
	}
	sel, ok := e.Selection()
	if !ok || !sel.AtStart {
		t.Fatalf("selection should be at the spline start, got %+v", sel)
	}

	res, _ = e.Click(0, 100)
	if res.Action != ActionExtended {
		t.Fatalf("expected extension, got %s", res.Action)
	}
	sp, _ := e.Graph().Spline(res.Spline)
	first, _ := sp.First()
	p, _ := e.Graph().Point(first)
	if p.X != 0 || len(sp.Points) != 3 {
		t.Errorf("point should be prepended, got spline %v first=%+v", sp.Points, p)
	}

	// Select the last point then click elsewhere: append.
	e.Click(200, 100)
	res, _ = e.Click(300, 100)
	sp, _ = e.Graph().Spline(res.Spline)
	last, _ := sp.Last()
	p, _ = e.Graph().Point(last)
	if p.X != 300 || len(sp.Points) != 4 {
		t.Errorf("point should be appended, got spline %v last=%+v", sp.Points, p)
	}
}

func TestEditorBranchesFromJunction(t *testing.T) {
	e := NewEditor(New(), nil)
	e.Click(0, 0)
	e.Click(100, 0)
	// Extend into a three point spline so (100,0) becomes interior.
	e.Click(100, 0)
	e.Click(200, 0)

	res, _ := e.Click(100, 2)
	if res.Action != ActionBranched {
		t.Fatalf("clicking an interior point should branch, got %s", res.Action)
	}
	res, _ = e.Click(100, 150)
	if res.Action != ActionCompleted {
		t.Fatalf("branch should complete on the next click, got %s", res.Action)
	}

	nets := e.Graph().Networks()
	if len(nets) != 1 || len(nets[0].Splines) != 2 {
		t.Errorf("branch should join the existing network, got %+v", nets)
	}
}

func TestEditorJoinsExistingPoint(t *testing.T) {
	e := NewEditor(New(), nil)
	e.Click(0, 0)
	e.Click(100, 0)
	e.Click(0, 200)

	res, _ := e.Click(99, 1)
	if res.Action != ActionJoined {
		t.Fatalf("pending spline clicked onto an existing point should join, got %s", res.Action)
	}
	if n := len(e.Graph().Networks()); n != 1 {
		t.Errorf("join should produce one network, got %d", n)
	}
	if n := len(e.Graph().Points()); n != 3 {
		t.Errorf("join must reuse the existing point, got %d points", n)
	}
}

func TestEditorIgnoresSameSelectedPoint(t *testing.T) {
	e := NewEditor(New(), nil)
	e.Click(0, 0)
	e.Click(100, 0)
	e.Click(100, 0)

	res, _ := e.Click(100, 1)
	if res.Action != ActionIgnored {
		t.Errorf("clicking the selected point again should be ignored, got %s", res.Action)
	}
}

func TestEditorUndo(t *testing.T) {
	e := NewEditor(New(), nil)
	e.Click(0, 0)
	e.Click(100, 0)
	e.Click(100, 0) // select end
	e.Click(200, 0) // extend

	g := e.Graph()
	if !e.Undo() {
		t.Fatal("undo should revert the extension")
	}
	sp := g.Splines()[0]
	if len(sp.Points) != 2 {
		t.Fatalf("expected 2 points after undo, got %v", sp.Points)
	}
	if len(g.Points()) != 2 {
		t.Errorf("undone point should be deleted, got %d points", len(g.Points()))
	}

	e.Undo()
	e.Undo()
	if len(g.Splines()) != 0 || len(g.Points()) != 0 {
		t.Errorf("graph should be empty after undoing everything, got %+v", g.Snapshot())
	}
	if e.Undo() {
		t.Error("undo on an empty journal should report false")
	}
}

func TestEditorUndoClearsSelectionFirst(t *testing.T) {
	e := NewEditor(New(), nil)
	e.Click(0, 0)
	e.Click(100, 0)
	e.Click(100, 0)

	if _, ok := e.Selection(); !ok {
		t.Fatal("expected a selection")
	}
	e.Undo()
	if _, ok := e.Selection(); ok {
		t.Error("undo should clear the selection first")
	}
	if n := len(e.Graph().Points()); n != 2 {
		t.Errorf("clearing the selection must not remove points, got %d", n)
	}
}

func TestEditorUndoKeepsSharedPoint(t *testing.T) {
	e := NewEditor(New(), nil)
	e.Click(0, 0)
	e.Click(100, 0)
	e.Click(100, 0) // select end point
	e.Click(100, 0) // ignored
	e.Undo()        // drop selection

	e.Click(50, 1) // not a point, starts a new spline
	e.Click(100, 0)

	before := len(e.Graph().Points())
	e.Undo() // revert the join
	if got := len(e.Graph().Points()); got != before {
		t.Errorf("reverting a join must keep the shared point: %d -> %d", before, got)
	}
}

func TestEditorLocked(t *testing.T) {
	e := NewEditor(New(), nil)
	e.Lock()
	if _, err := e.Click(1, 1); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
	e.Unlock()
	if _, err := e.Click(1, 1); err != nil {
		t.Errorf("unlocked editor should accept clicks: %v", err)
	}
}

func TestEditorUsesSnapper(t *testing.T) {
	e := NewEditor(New(), offsetSnapper{dx: 5, dy: -5})
	res, _ := e.Click(10, 10)
	if res.X != 15 || res.Y != 5 {
		t.Errorf("snapped position: got (%v,%v), want (15,5)", res.X, res.Y)
	}
	p, _ := e.Graph().Point(res.Point)
	if !reflect.DeepEqual([]float64{p.X, p.Y}, []float64{15, 5}) {
		t.Errorf("stored point should be snapped, got %+v", p)
	}
}

func TestEditorClear(t *testing.T) {
	e := NewEditor(New(), nil)
	e.Click(0, 0)
	e.Click(10, 10)
	e.Clear()

	if len(e.Graph().Points()) != 0 || e.CanUndo() {
		t.Error("clear should empty graph and journal")
	}
	if _, ok := e.Active(); ok {
		t.Error("clear should reset the active spline")
	}
}
