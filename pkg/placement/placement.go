// Package placement decides where lights sit along the drawn splines.
//
// Each network is walked breadth-first from its seed point. Every light gets
// a step, its ordinal along the network, and steps continue across junctions
// so colour animation flows from one spline into the next. Spacing comes from
// a depth accumulator: nearer regions (higher depth) fill it faster and get
// denser lights.
package placement

import (
	"math"
	"slices"
	"sync"
	"time"

	"github.com/sanonone/lightpath/pkg/depth"
	"github.com/sanonone/lightpath/pkg/graph"
	"github.com/sanonone/lightpath/pkg/metrics"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// BaseThreshold is the accumulator level that emits a light at density 1.
	BaseThreshold = 10.0
	// Stride is the sub-step length along a segment, in pixels, up to MaxSegmentSteps.
	Stride = 1.0
	// MinSegmentLength drops shorter segments from the walk.
	MinSegmentLength = 5.0
	// DebounceSteps is the minimum number of sub-steps between two lights.
	DebounceSteps = 3
	// EndGuardSteps: a spline end with no light in this many sub-steps gets a forced light.
	EndGuardSteps = 5
	// EndpointWindow is the distance from a spline end inside which accumulation is boosted.
	EndpointWindow = 10.0
	// MaxSegmentSteps bounds the sub-steps of one segment; longer segments use longer sub-steps.
	MaxSegmentSteps = 1 << 14

	boostAtEnd  = 3.5
	boostAtEdge = 2.0

	// MinDensity and MaxDensity bound the density factor.
	MinDensity = 0.1
	MaxDensity = 4.0
	// DefaultDensity replaces a zero or NaN density.
	DefaultDensity = 1.0
)

// Placement is one light.
type Placement struct {
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Step      int             `json:"step"`
	Depth     float64         `json:"depth"`
	SplineID  graph.SplineID  `json:"spline_id"`
	NetworkID graph.NetworkID `json:"network_id"`
}

// Options tune an Engine.
type Options struct {
	// Density scales light count. 0.5 is sparse, 2 is dense.
	Density float64
}

// Engine computes placements. It is safe for concurrent use, but the graph
// passed to it must not be mutated during a call.
type Engine struct {
	mu      sync.RWMutex
	depth   depth.Provider
	density float64
}

// New creates an engine. A nil provider means constant depth Fallback.
func New(p depth.Provider, opts Options) *Engine {
	if p == nil {
		p = depth.Constant(depth.Fallback)
	}
	e := &Engine{depth: p}
	e.SetDensity(opts.Density)
	return e
}

// ClampDensity maps zero or NaN to DefaultDensity and clamps the rest to [MinDensity, MaxDensity].
func ClampDensity(d float64) float64 {
	if d == 0 || math.IsNaN(d) {
		return DefaultDensity
	}
	return math.Max(MinDensity, math.Min(MaxDensity, d))
}

// SetDensity changes the density factor.
func (e *Engine) SetDensity(d float64) {
	e.mu.Lock()
	e.density = ClampDensity(d)
	e.mu.Unlock()
}

// Density returns the current density factor.
func (e *Engine) Density() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.density
}

// SetDepth swaps the depth provider.
func (e *Engine) SetDepth(p depth.Provider) {
	if p == nil {
		p = depth.Constant(depth.Fallback)
	}
	e.mu.Lock()
	e.depth = p
	e.mu.Unlock()
}

// Threshold is the accumulator level that emits a light.
func (e *Engine) Threshold() float64 {
	return BaseThreshold / e.Density()
}

// PlaceAll places lights for every network of g, concatenated in network ID order.
func (e *Engine) PlaceAll(g *graph.Graph) []Placement {
	start := time.Now()
	nets := g.Networks()

	var out []Placement
	for _, net := range nets {
		out = append(out, e.PlaceNetwork(g, net)...)
	}

	metrics.PlacementDuration.Observe(time.Since(start).Seconds())
	metrics.LightsPlaced.Set(float64(len(out)))
	metrics.Networks.Set(float64(len(nets)))
	return out
}

// PlaceNetwork places lights for one network.
func (e *Engine) PlaceNetwork(g *graph.Graph, net graph.Network) []Placement {
	if len(net.Splines) == 0 {
		return nil
	}
	e.mu.RLock()
	w := &walker{
		g:         g,
		net:       net.ID,
		depth:     e.depth,
		threshold: BaseThreshold / e.density,
		stepAt:    make(map[graph.PointID]int),
	}
	e.mu.RUnlock()

	first, seed, ok := w.seedFor(net)
	if !ok {
		return nil
	}
	w.seed = seed
	w.stepAt[seed] = 0

	// Point adjacency restricted to this network.
	members := make(map[graph.SplineID]struct{}, len(net.Splines))
	for _, id := range net.Splines {
		members[id] = struct{}{}
	}
	adjacent := func(id graph.SplineID) []graph.SplineID {
		sp, _ := g.Spline(id)
		var out []graph.SplineID
		for _, p := range sp.Points {
			for _, other := range g.SplinesAt(p) {
				if _, in := members[other]; in && other != id && !slices.Contains(out, other) {
					out = append(out, other)
				}
			}
		}
		slices.Sort(out)
		return out
	}

	visited := map[graph.SplineID]bool{first: true}
	queue := []graph.SplineID{first}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		w.walkSpline(id)

		for _, next := range adjacent(id) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	// Splines unreachable through shared points cannot exist in a network,
	// but keep the pass total if the graph was edited without recomputing.
	for _, id := range net.Splines {
		if !visited[id] {
			visited[id] = true
			w.walkSpline(id)
		}
	}
	return w.out
}

// walker carries the state of one network pass.
type walker struct {
	g         *graph.Graph
	net       graph.NetworkID
	depth     depth.Provider
	threshold float64

	// stepAt holds, per vertex, the step the next light continuing from it should get.
	stepAt  map[graph.PointID]int
	seed    graph.PointID
	seedLit bool

	out []Placement
}

// seedFor returns the spline the traversal starts from and the seed point.
func (w *walker) seedFor(net graph.Network) (graph.SplineID, graph.PointID, bool) {
	if net.HasStart {
		for _, id := range net.Splines {
			sp, _ := w.g.Spline(id)
			f, _ := sp.First()
			l, _ := sp.Last()
			if f == net.Start || l == net.Start {
				return id, net.Start, true
			}
		}
	}
	for _, id := range net.Splines {
		pts := w.resolve(id)
		if len(pts) > 0 {
			return id, pts[0].ID, true
		}
	}
	return 0, 0, false
}

// resolve returns the spline's points, skipping IDs missing from the graph.
func (w *walker) resolve(id graph.SplineID) []graph.Point {
	sp, ok := w.g.Spline(id)
	if !ok {
		return nil
	}
	pts := make([]graph.Point, 0, len(sp.Points))
	for _, pid := range sp.Points {
		if p, ok := w.g.Point(pid); ok {
			pts = append(pts, p)
		}
	}
	return pts
}

func (w *walker) record(p graph.PointID, step int) {
	if _, ok := w.stepAt[p]; !ok {
		w.stepAt[p] = step
	}
}

func (w *walker) emit(pos r2.Vec, step int, spline graph.SplineID) {
	w.out = append(w.out, Placement{
		X:         pos.X,
		Y:         pos.Y,
		Step:      step,
		Depth:     clamp01(w.depth.Depth(pos.X, pos.Y)),
		SplineID:  spline,
		NetworkID: w.net,
	})
}

// walkSpline walks one spline in the direction that continues an existing numbering.
func (w *walker) walkSpline(id graph.SplineID) {
	pts := w.resolve(id)
	if len(pts) < 2 {
		return
	}

	_, firstKnown := w.stepAt[pts[0].ID]
	_, lastKnown := w.stepAt[pts[len(pts)-1].ID]
	fresh := false
	switch {
	case firstKnown:
	case lastKnown:
		slices.Reverse(pts)
	default:
		// New sub-path: numbering restarts at its first point.
		w.stepAt[pts[0].ID] = 0
		fresh = true
	}

	// Only segments of at least MinSegmentLength take part.
	total := 0.0
	lastSeg := -1
	for i := 0; i < len(pts)-1; i++ {
		if l := r2.Norm(r2.Sub(pts[i+1].Vec(), pts[i].Vec())); l >= MinSegmentLength {
			total += l
			lastSeg = i
		}
	}
	if lastSeg < 0 {
		for _, p := range pts[1:] {
			w.record(p.ID, w.stepAt[pts[0].ID])
		}
		return
	}

	start := pts[0].ID
	// An end that already carries a step is a junction reached before; it is not forced again.
	_, endKnown := w.stepAt[pts[len(pts)-1].ID]

	step := w.stepAt[start]
	acc := w.threshold - Stride
	sub := 0
	lastLight := -1

	switch {
	case start == w.seed && !w.seedLit:
		w.emit(pts[0].Vec(), step, id)
		step++
		w.stepAt[start] = step
		w.seedLit = true
		acc, lastLight = 0, 0
	case !fresh:
		// A junction continues an earlier walk: its light already exists.
		acc, lastLight = 0, 0
	}

	arc := 0.0
	for i := 0; i < len(pts)-1; i++ {
		a, b := pts[i].Vec(), pts[i+1].Vec()
		d := r2.Sub(b, a)
		length := r2.Norm(d)
		if length < MinSegmentLength {
			w.record(pts[i+1].ID, step)
			continue
		}

		n := int(math.Min(math.Ceil(length/Stride), MaxSegmentSteps))
		ds := length / float64(n)
		for k := 1; k <= n; k++ {
			pos := r2.Add(a, r2.Scale(float64(k)/float64(n), d))
			sub++
			arc += ds

			depthFactor := 0.5 + 1.5*clamp01(w.depth.Depth(pos.X, pos.Y))
			acc += depthFactor * endpointBoost(math.Min(arc, total-arc)) * ds / 10

			if acc < w.threshold {
				continue
			}
			if lastLight >= 0 && sub-lastLight < DebounceSteps {
				continue
			}
			w.emit(pos, step, id)
			step++
			acc -= w.threshold
			lastLight = sub
		}

		if i == lastSeg && !endKnown && (lastLight < 0 || sub-lastLight >= EndGuardSteps) {
			w.emit(b, step, id)
			step++
			lastLight = sub
		}
		w.record(pts[i+1].ID, step)
	}
}

// endpointBoost multiplies accumulation near spline ends: boostAtEnd at the
// end itself, falling linearly to boostAtEdge at EndpointWindow, 1 beyond.
func endpointBoost(dist float64) float64 {
	if dist >= EndpointWindow {
		return 1
	}
	if dist < 0 {
		dist = 0
	}
	return boostAtEnd - (boostAtEnd-boostAtEdge)*dist/EndpointWindow
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return depth.Fallback
	}
	return math.Max(0, math.Min(1, v))
}
