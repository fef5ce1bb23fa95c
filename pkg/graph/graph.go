// Package graph holds the light-path data model: points placed on the canvas,
// splines that chain points together, and networks of splines connected
// through shared points.
//
// A Graph is not safe for concurrent use. The studio engine owns one Graph per
// session and serializes every edit and every placement pass behind its own
// lock, so a placement traversal never observes a half-applied edit.
//
// Basic usage:
//
//	g := graph.New()
//	a := g.AddPoint(100, 100)
//	b := g.AddPoint(300, 120)
//	s, _ := g.NewSpline(a, b)
//	for _, net := range g.Networks() {
//	    fmt.Println(net.ID, net.Splines)
//	}
package graph

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// PointID identifies a point for the lifetime of a session. IDs are never reused.
type PointID int

// SplineID identifies a spline for the lifetime of a session.
type SplineID int

// NetworkID identifies a network. It equals the smallest SplineID of the
// network, so recomputing an unchanged graph yields the same IDs.
type NetworkID int

// Point is a canvas coordinate owned by the graph.
type Point struct {
	ID PointID `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Vec returns the point as a gonum vector.
func (p Point) Vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Spline is an ordered chain of point IDs. Straight segments join consecutive points.
type Spline struct {
	ID     SplineID  `json:"id"`
	Points []PointID `json:"points"`
}

// Pending reports whether the spline still waits for its second point.
func (s Spline) Pending() bool {
	return len(s.Points) < 2
}

// First returns the first point of the spline.
func (s Spline) First() (PointID, bool) {
	if len(s.Points) == 0 {
		return 0, false
	}
	return s.Points[0], true
}

// Last returns the last point of the spline.
func (s Spline) Last() (PointID, bool) {
	if len(s.Points) == 0 {
		return 0, false
	}
	return s.Points[len(s.Points)-1], true
}

// Network is a maximal set of splines connected through shared points.
type Network struct {
	ID       NetworkID  `json:"id"`
	Splines  []SplineID `json:"splines"`
	Start    PointID    `json:"start_point_id,omitempty"`
	HasStart bool       `json:"has_start"`
}

// Graph stores points and splines and derives networks from them.
type Graph struct {
	points  map[PointID]Point
	splines map[SplineID][]PointID
	starts  map[PointID]struct{}

	nextPoint  PointID
	nextSpline SplineID

	// revision increases on every structural mutation.
	revision uint64

	networks    []Network
	networksRev uint64
	networksOK  bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		points:     make(map[PointID]Point),
		splines:    make(map[SplineID][]PointID),
		starts:     make(map[PointID]struct{}),
		nextPoint:  1,
		nextSpline: 1,
	}
}

// Revision returns a counter that changes whenever the graph is mutated.
// Callers use it to decide whether cached placements are still valid.
func (g *Graph) Revision() uint64 {
	return g.revision
}

func (g *Graph) touch() {
	g.revision++
}

// AddPoint creates a new point and returns its ID.
func (g *Graph) AddPoint(x, y float64) PointID {
	id := g.nextPoint
	g.nextPoint++
	g.points[id] = Point{ID: id, X: x, Y: y}
	g.touch()
	return id
}

// Point returns the point with the given ID.
func (g *Graph) Point(id PointID) (Point, bool) {
	p, ok := g.points[id]
	return p, ok
}

// Points returns all points ordered by ID.
func (g *Graph) Points() []Point {
	out := make([]Point, 0, len(g.points))
	for _, p := range g.points {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Point) int { return int(a.ID - b.ID) })
	return out
}

// NewSpline creates a spline over existing points. Zero or one point yields a
// pending spline.
func (g *Graph) NewSpline(points ...PointID) (SplineID, error) {
	for _, p := range points {
		if _, ok := g.points[p]; !ok {
			return 0, fmt.Errorf("new spline: %w: %d", ErrPointNotFound, p)
		}
	}
	id := g.nextSpline
	g.nextSpline++
	g.splines[id] = slices.Clone(points)
	g.touch()
	return id, nil
}

// Spline returns a copy of the spline with the given ID.
func (g *Graph) Spline(id SplineID) (Spline, bool) {
	pts, ok := g.splines[id]
	if !ok {
		return Spline{}, false
	}
	return Spline{ID: id, Points: slices.Clone(pts)}, true
}

// Splines returns copies of all splines ordered by ID.
func (g *Graph) Splines() []Spline {
	ids := make([]SplineID, 0, len(g.splines))
	for id := range g.splines {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]Spline, 0, len(ids))
	for _, id := range ids {
		out = append(out, Spline{ID: id, Points: slices.Clone(g.splines[id])})
	}
	return out
}

// ExtendSpline appends a point to the end of a spline, or prepends it when atStart is set.
func (g *Graph) ExtendSpline(id SplineID, point PointID, atStart bool) error {
	pts, ok := g.splines[id]
	if !ok {
		return fmt.Errorf("extend spline: %w: %d", ErrSplineNotFound, id)
	}
	if _, ok := g.points[point]; !ok {
		return fmt.Errorf("extend spline: %w: %d", ErrPointNotFound, point)
	}
	if atStart {
		pts = slices.Insert(pts, 0, point)
	} else {
		pts = append(pts, point)
	}
	g.splines[id] = pts
	g.touch()
	return nil
}

// BranchFromPoint starts a new pending spline at an existing point. The branch
// shares the point ID, so once completed it joins the network of that point.
func (g *Graph) BranchFromPoint(point PointID) (SplineID, error) {
	if _, ok := g.points[point]; !ok {
		return 0, fmt.Errorf("branch: %w: %d", ErrPointNotFound, point)
	}
	return g.NewSpline(point)
}

// PopSplineEnd removes the first or last point from a spline and returns it.
// The point itself stays in the graph.
func (g *Graph) PopSplineEnd(id SplineID, atStart bool) (PointID, error) {
	pts, ok := g.splines[id]
	if !ok {
		return 0, fmt.Errorf("pop spline end: %w: %d", ErrSplineNotFound, id)
	}
	if len(pts) == 0 {
		return 0, fmt.Errorf("pop spline end: %w: %d", ErrEmptySpline, id)
	}

	var removed PointID
	if atStart {
		removed = pts[0]
		pts = slices.Delete(pts, 0, 1)
	} else {
		removed = pts[len(pts)-1]
		pts = pts[:len(pts)-1]
	}
	g.splines[id] = pts
	g.touch()
	return removed, nil
}

// RemoveSpline deletes a spline. Its points stay in the graph.
func (g *Graph) RemoveSpline(id SplineID) error {
	if _, ok := g.splines[id]; !ok {
		return fmt.Errorf("remove spline: %w: %d", ErrSplineNotFound, id)
	}
	delete(g.splines, id)
	g.touch()
	return nil
}

// RemovePoint deletes a point that no spline references any more.
func (g *Graph) RemovePoint(id PointID) error {
	if _, ok := g.points[id]; !ok {
		return fmt.Errorf("remove point: %w: %d", ErrPointNotFound, id)
	}
	if len(g.SplinesAt(id)) > 0 {
		return fmt.Errorf("remove point %d: %w", id, ErrPointInUse)
	}
	delete(g.points, id)
	delete(g.starts, id)
	g.touch()
	return nil
}

// Clear removes every point, spline and start marker. IDs keep increasing.
func (g *Graph) Clear() {
	g.points = make(map[PointID]Point)
	g.splines = make(map[SplineID][]PointID)
	g.starts = make(map[PointID]struct{})
	g.touch()
}

// SplinesAt returns the IDs of every spline that references the point, in ID order.
func (g *Graph) SplinesAt(point PointID) []SplineID {
	var out []SplineID
	for id, pts := range g.splines {
		if slices.Contains(pts, point) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// IsEndpoint reports whether the point belongs to exactly one spline and is
// that spline's first or last point. Junctions and interior points are not endpoints.
func (g *Graph) IsEndpoint(point PointID) bool {
	owners := 0
	var owner []PointID
	for _, pts := range g.splines {
		if slices.Contains(pts, point) {
			owners++
			if owners > 1 {
				return false
			}
			owner = pts
		}
	}
	if owners != 1 {
		return false
	}
	return owner[0] == point || owner[len(owner)-1] == point
}

// FindPointNear returns the point closest to (x, y) within radius. Ties go to the lower ID.
func (g *Graph) FindPointNear(x, y, radius float64) (PointID, bool) {
	target := r2.Vec{X: x, Y: y}
	best := PointID(0)
	bestDist := radius
	found := false
	for _, p := range g.Points() {
		d := r2.Norm(r2.Sub(p.Vec(), target))
		if d < bestDist || (!found && d <= radius) {
			best, bestDist, found = p.ID, d, true
		}
	}
	return best, found
}

// SetStartPoint marks a point as the step seed of its network. The point must
// be the first or last point of at least one spline.
func (g *Graph) SetStartPoint(point PointID) error {
	if _, ok := g.points[point]; !ok {
		return fmt.Errorf("set start: %w: %d", ErrPointNotFound, point)
	}
	logical := false
	for _, pts := range g.splines {
		if len(pts) > 0 && (pts[0] == point || pts[len(pts)-1] == point) {
			logical = true
			break
		}
	}
	if !logical {
		return fmt.Errorf("set start %d: %w", point, ErrNotEndpoint)
	}
	g.starts[point] = struct{}{}
	g.touch()
	return nil
}

// ClearStartPoint removes a start marker. It is a no-op for unmarked points.
func (g *Graph) ClearStartPoint(point PointID) {
	if _, ok := g.starts[point]; ok {
		delete(g.starts, point)
		g.touch()
	}
}

// Networks returns the current network partition, recomputing it when the
// graph changed since the last call.
func (g *Graph) Networks() []Network {
	if !g.networksOK || g.networksRev != g.revision {
		g.networks = g.ComputeNetworks()
		g.networksRev = g.revision
		g.networksOK = true
	}
	return cloneNetworks(g.networks)
}

// ComputeNetworks groups splines with at least two points by point-sharing
// transitivity. Pending splines belong to no network. Networks are ordered by ID.
func (g *Graph) ComputeNetworks() []Network {
	uf := newUnionFind()
	owners := make(map[PointID]SplineID)

	ids := make([]SplineID, 0, len(g.splines))
	for id, pts := range g.splines {
		if len(pts) >= 2 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	for _, id := range ids {
		uf.add(id)
		for _, p := range g.splines[id] {
			if other, ok := owners[p]; ok {
				uf.union(other, id)
			} else {
				owners[p] = id
			}
		}
	}

	groups := make(map[SplineID][]SplineID)
	for _, id := range ids {
		root := uf.find(id)
		groups[root] = append(groups[root], id)
	}

	out := make([]Network, 0, len(groups))
	for _, members := range groups {
		// members are already ascending because ids was sorted
		net := Network{ID: NetworkID(members[0]), Splines: members}
		if start, ok := g.startFor(members); ok {
			net.Start, net.HasStart = start, true
		}
		out = append(out, net)
	}
	slices.SortFunc(out, func(a, b Network) int { return int(a.ID - b.ID) })
	return out
}

// startFor picks the lowest marked start point referenced by any of the splines.
func (g *Graph) startFor(members []SplineID) (PointID, bool) {
	var best PointID
	found := false
	for _, id := range members {
		for _, p := range g.splines[id] {
			if _, ok := g.starts[p]; ok && (!found || p < best) {
				best, found = p, true
			}
		}
	}
	return best, found
}

// Snapshot is a JSON-ready view of the whole graph.
type Snapshot struct {
	Revision uint64    `json:"revision"`
	Points   []Point   `json:"points"`
	Splines  []Spline  `json:"splines"`
	Networks []Network `json:"networks"`
}

// Snapshot returns a deep copy of the graph state.
func (g *Graph) Snapshot() Snapshot {
	return Snapshot{
		Revision: g.revision,
		Points:   g.Points(),
		Splines:  g.Splines(),
		Networks: g.Networks(),
	}
}

func cloneNetworks(in []Network) []Network {
	out := make([]Network, len(in))
	for i, n := range in {
		n.Splines = slices.Clone(n.Splines)
		out[i] = n
	}
	return out
}

// unionFind is a disjoint-set forest over spline IDs with path compression.
type unionFind struct {
	parent map[SplineID]SplineID
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[SplineID]SplineID)}
}

func (u *unionFind) add(id SplineID) {
	if _, ok := u.parent[id]; !ok {
		u.parent[id] = id
	}
}

func (u *unionFind) find(id SplineID) SplineID {
	root := id
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[id] != root {
		next := u.parent[id]
		u.parent[id] = root
		id = next
	}
	return root
}

// union keeps the smaller ID as root so roots are stable.
func (u *unionFind) union(a, b SplineID) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
