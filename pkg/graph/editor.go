package graph

// HitRadius is the distance in canvas pixels within which a click selects an existing point.
const HitRadius = 10.0

// Snapper adjusts a click position before it reaches the graph. The snap
// package provides line-based implementations.
type Snapper interface {
	Snap(x, y float64) (float64, float64)
}

type noSnap struct{}

func (noSnap) Snap(x, y float64) (float64, float64) { return x, y }

// ClickAction describes what a click did to the graph.
type ClickAction string

const (
	ActionStarted   ClickAction = "started"   // new pending spline
	ActionCompleted ClickAction = "completed" // pending spline got its second point
	ActionExtended  ClickAction = "extended"  // selected endpoint extended with a new point
	ActionJoined    ClickAction = "joined"    // spline connected to an existing point
	ActionSelected  ClickAction = "selected"  // endpoint selected for extension
	ActionBranched  ClickAction = "branched"  // new spline started at a junction
	ActionIgnored   ClickAction = "ignored"
)

// ClickResult reports the outcome of Editor.Click.
type ClickResult struct {
	Action ClickAction `json:"action"`
	Point  PointID     `json:"point_id,omitempty"`
	Spline SplineID    `json:"spline_id,omitempty"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
}

// Selection is an endpoint chosen for extension. The next click extends the
// spline at that end.
type Selection struct {
	Spline  SplineID `json:"spline_id"`
	Point   PointID  `json:"point_id"`
	AtStart bool     `json:"at_start"`
}

type journalKind int

const (
	opNewSpline journalKind = iota
	opExtend
)

// journalEntry records one undoable edit.
type journalEntry struct {
	kind         journalKind
	spline       SplineID
	point        PointID
	atStart      bool
	createdPoint bool
}

// Editor turns canvas clicks into graph edits and keeps an undo journal.
// It is not safe for concurrent use.
type Editor struct {
	g       *Graph
	snapper Snapper

	selection *Selection
	active    SplineID
	hasActive bool

	journal []journalEntry
	locked  bool
}

// NewEditor creates an editor over g. A nil snapper leaves clicks unchanged.
func NewEditor(g *Graph, s Snapper) *Editor {
	e := &Editor{g: g}
	e.SetSnapper(s)
	return e
}

// SetSnapper replaces the snap provider, e.g. after new line data arrives.
func (e *Editor) SetSnapper(s Snapper) {
	if s == nil {
		s = noSnap{}
	}
	e.snapper = s
}

// Graph returns the edited graph.
func (e *Editor) Graph() *Graph {
	return e.g
}

// Lock disables drawing. Used while an enhancement is in progress or done.
func (e *Editor) Lock() { e.locked = true }

// Unlock re-enables drawing.
func (e *Editor) Unlock() { e.locked = false }

// Locked reports whether drawing is disabled.
func (e *Editor) Locked() bool { return e.locked }

// Selection returns the endpoint currently selected for extension.
func (e *Editor) Selection() (Selection, bool) {
	if e.selection == nil {
		return Selection{}, false
	}
	return *e.selection, true
}

// Active returns the spline most recently created or extended.
func (e *Editor) Active() (SplineID, bool) {
	if !e.hasActive {
		return 0, false
	}
	if _, ok := e.g.Spline(e.active); !ok {
		return 0, false
	}
	return e.active, true
}

// Click applies one canvas click at (x, y).
//
// On an existing point it joins the selected or pending spline to that point,
// selects a structural endpoint for extension, or branches a new spline from a
// junction. On empty canvas it extends the selection, completes the pending
// spline, or starts a new pending spline.
func (e *Editor) Click(x, y float64) (ClickResult, error) {
	if e.locked {
		return ClickResult{Action: ActionIgnored}, ErrLocked
	}

	sx, sy := e.snapper.Snap(x, y)
	res := ClickResult{X: sx, Y: sy}

	if hit, ok := e.g.FindPointNear(sx, sy, HitRadius); ok {
		return e.clickExisting(hit, res)
	}

	pid := e.g.AddPoint(sx, sy)
	res.Point = pid

	if sel := e.selection; sel != nil {
		e.selection = nil
		return e.extend(sel.Spline, pid, sel.AtStart, true, ActionExtended, res)
	}
	if id, ok := e.pending(); ok {
		return e.extend(id, pid, false, true, ActionCompleted, res)
	}

	id, err := e.g.NewSpline(pid)
	if err != nil {
		return res, err
	}
	e.journal = append(e.journal, journalEntry{kind: opNewSpline, spline: id, point: pid, createdPoint: true})
	e.setActive(id)
	res.Action, res.Spline = ActionStarted, id
	return res, nil
}

func (e *Editor) clickExisting(hit PointID, res ClickResult) (ClickResult, error) {
	res.Point = hit
	if p, ok := e.g.Point(hit); ok {
		res.X, res.Y = p.X, p.Y
	}

	if sel := e.selection; sel != nil {
		if sel.Point == hit {
			res.Action, res.Spline = ActionIgnored, sel.Spline
			return res, nil
		}
		e.selection = nil
		return e.extend(sel.Spline, hit, sel.AtStart, false, ActionJoined, res)
	}

	if id, ok := e.pending(); ok {
		sp, _ := e.g.Spline(id)
		if sp.Points[0] == hit {
			res.Action, res.Spline = ActionIgnored, id
			return res, nil
		}
		return e.extend(id, hit, false, false, ActionJoined, res)
	}

	if e.g.IsEndpoint(hit) {
		owner := e.g.SplinesAt(hit)[0]
		sp, _ := e.g.Spline(owner)
		last, _ := sp.Last()
		e.selection = &Selection{Spline: owner, Point: hit, AtStart: last != hit}
		e.setActive(owner)
		res.Action, res.Spline = ActionSelected, owner
		return res, nil
	}

	id, err := e.g.BranchFromPoint(hit)
	if err != nil {
		return res, err
	}
	e.journal = append(e.journal, journalEntry{kind: opNewSpline, spline: id, point: hit})
	e.setActive(id)
	res.Action, res.Spline = ActionBranched, id
	return res, nil
}

func (e *Editor) extend(id SplineID, pid PointID, atStart, created bool, action ClickAction, res ClickResult) (ClickResult, error) {
	if err := e.g.ExtendSpline(id, pid, atStart); err != nil {
		if created {
			_ = e.g.RemovePoint(pid)
		}
		return res, err
	}
	e.journal = append(e.journal, journalEntry{kind: opExtend, spline: id, point: pid, atStart: atStart, createdPoint: created})
	e.setActive(id)
	res.Action, res.Spline = action, id
	return res, nil
}

// pending returns the active spline when it still has a single point.
func (e *Editor) pending() (SplineID, bool) {
	id, ok := e.Active()
	if !ok {
		return 0, false
	}
	sp, _ := e.g.Spline(id)
	return id, len(sp.Points) == 1
}

func (e *Editor) setActive(id SplineID) {
	e.active, e.hasActive = id, true
}

// Undo cancels a pending endpoint selection, or reverts the most recent edit.
// Points that are no longer referenced after the revert are removed. It
// returns false when there was nothing to undo.
func (e *Editor) Undo() bool {
	if e.locked {
		return false
	}
	if e.selection != nil {
		e.selection = nil
		return true
	}
	if len(e.journal) == 0 {
		return false
	}

	last := e.journal[len(e.journal)-1]
	e.journal = e.journal[:len(e.journal)-1]

	switch last.kind {
	case opExtend:
		_, _ = e.g.PopSplineEnd(last.spline, last.atStart)
	case opNewSpline:
		_ = e.g.RemoveSpline(last.spline)
	}
	if last.createdPoint {
		// ErrPointInUse means a later join still references it, keep it.
		_ = e.g.RemovePoint(last.point)
	}

	e.hasActive = false
	for i := len(e.journal) - 1; i >= 0; i-- {
		if _, ok := e.g.Spline(e.journal[i].spline); ok {
			e.setActive(e.journal[i].spline)
			break
		}
	}
	return true
}

// CanUndo reports whether Undo would change anything.
func (e *Editor) CanUndo() bool {
	return !e.locked && (e.selection != nil || len(e.journal) > 0)
}

// Clear removes everything from the graph and resets editing state.
func (e *Editor) Clear() {
	e.g.Clear()
	e.selection = nil
	e.hasActive = false
	e.journal = nil
}
