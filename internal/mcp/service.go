package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sanonone/lightpath/pkg/engine"
	"github.com/sanonone/lightpath/pkg/graph"
	"github.com/sanonone/lightpath/pkg/palette"
)

const defaultLightLimit = 200

type Service struct {
	engine *engine.Engine
}

func NewService(eng *engine.Engine) *Service {
	return &Service{engine: eng}
}

// --- Tool Handlers ---

func (s *Service) Click(ctx context.Context, req *mcp.CallToolRequest, args ClickArgs) (*mcp.CallToolResult, ClickResult, error) {
	res, err := s.engine.Click(args.X, args.Y)
	if err != nil {
		return nil, ClickResult{}, err
	}
	return nil, ClickResult{
		Action:   string(res.Action),
		PointID:  int(res.Point),
		SplineID: int(res.Spline),
		X:        res.X,
		Y:        res.Y,
	}, nil
}

func (s *Service) Undo(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, UndoResult, error) {
	undone, err := s.engine.Undo()
	return nil, UndoResult{Undone: undone}, err
}

func (s *Service) Clear(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, StatusResult, error) {
	if err := s.engine.Clear(); err != nil {
		return nil, StatusResult{}, err
	}
	return nil, StatusResult{Status: "cleared"}, nil
}

func (s *Service) SetStartPoint(ctx context.Context, req *mcp.CallToolRequest, args SetStartArgs) (*mcp.CallToolResult, StatusResult, error) {
	if err := s.engine.SetStartPoint(graph.PointID(args.PointID)); err != nil {
		return nil, StatusResult{}, err
	}
	return nil, StatusResult{Status: "start point set"}, nil
}

func (s *Service) GetGraph(ctx context.Context, req *mcp.CallToolRequest, args EmptyArgs) (*mcp.CallToolResult, GraphResult, error) {
	st := s.engine.Graph()
	return nil, GraphResult{
		Points:   len(st.Points),
		Splines:  len(st.Splines),
		Networks: len(st.Networks),
		Locked:   st.Locked,
		Summary:  describeGraph(st),
	}, nil
}

func (s *Service) PlaceLights(ctx context.Context, req *mcp.CallToolRequest, args PlaceLightsArgs) (*mcp.CallToolResult, PlaceLightsResult, error) {
	limit := args.Limit
	if limit <= 0 {
		limit = defaultLightLimit
	}
	f := s.engine.Frame(args.Phase)
	out := PlaceLightsResult{Total: len(f.Lights), Lights: []PlacedLight{}}
	for i, l := range f.Lights {
		if i >= limit {
			break
		}
		out.Lights = append(out.Lights, PlacedLight{X: l.X, Y: l.Y, Step: l.Step, Color: l.Color.Hex()})
	}
	return nil, out, nil
}

func (s *Service) AddColorMarker(ctx context.Context, req *mcp.CallToolRequest, args AddColorMarkerArgs) (*mcp.CallToolResult, AddColorMarkerResult, error) {
	c, err := palette.ParseHex(args.Color)
	if err != nil {
		return nil, AddColorMarkerResult{}, err
	}
	m := s.engine.AddMarker(args.Position, c)
	return nil, AddColorMarkerResult{MarkerID: int(m.ID), Position: m.Position, Color: m.Color.Hex()}, nil
}

func (s *Service) UpdateSettings(ctx context.Context, req *mcp.CallToolRequest, args UpdateSettingsArgs) (*mcp.CallToolResult, SettingsResult, error) {
	st, err := s.engine.UpdateSettings(engine.SettingsUpdate{
		Density:     args.Density,
		Speed:       args.Speed,
		CycleLength: args.CycleLength,
		GlowSize:    args.GlowSize,
	})
	if err != nil {
		return nil, SettingsResult{}, err
	}
	return nil, SettingsResult{
		Density:     st.Density,
		Speed:       st.Speed,
		CycleLength: st.CycleLength,
		GlowSize:    st.GlowSize,
	}, nil
}

// describeGraph formats the drawing as lines an LLM can follow, e.g.
// "network 1: spline 1 [1 (100,800) -> 2 (400,800)]".
func describeGraph(st engine.GraphState) string {
	if len(st.Splines) == 0 {
		return "The canvas is empty."
	}
	points := make(map[graph.PointID]graph.Point, len(st.Points))
	for _, p := range st.Points {
		points[p.ID] = p
	}
	splines := make(map[graph.SplineID]graph.Spline, len(st.Splines))
	for _, sp := range st.Splines {
		splines[sp.ID] = sp
	}

	var b strings.Builder
	describe := func(sp graph.Spline) {
		fmt.Fprintf(&b, "spline %d [", sp.ID)
		for i, pid := range sp.Points {
			if i > 0 {
				b.WriteString(" -> ")
			}
			p := points[pid]
			fmt.Fprintf(&b, "%d (%.0f,%.0f)", pid, p.X, p.Y)
		}
		b.WriteString("]")
	}

	for _, n := range st.Networks {
		fmt.Fprintf(&b, "network %d:", n.ID)
		for _, id := range n.Splines {
			b.WriteString(" ")
			describe(splines[id])
		}
		if n.HasStart {
			fmt.Fprintf(&b, " start=%d", n.Start)
		}
		b.WriteString("\n")
	}
	for _, sp := range st.Splines {
		if sp.Pending() {
			b.WriteString("pending ")
			describe(sp)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
