// Package mcp exposes a studio session as Model Context Protocol tools, so an
// assistant can draw light paths and inspect the placed lights.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sanonone/lightpath/pkg/engine"
)

func NewMCPServer(eng *engine.Engine, version string) *mcp.Server {
	service := NewService(eng)

	// Create Server instance
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "lightpath",
		Version: version,
	}, nil) // Options can be nil for default

	// Register Tools using the Generic AddTool which inspects structs!

	mcp.AddTool(s, &mcp.Tool{
		Name:        "click",
		Description: "Click on the 1000x1000 canvas: starts, completes, extends, joins or branches light paths like a user clicking in the editor.",
	}, service.Click)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "undo",
		Description: "Undo the last drawing edit, or cancel the current endpoint selection.",
	}, service.Undo)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "clear",
		Description: "Remove every light path from the canvas.",
	}, service.Clear)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "set_start_point",
		Description: "Make a path endpoint the place where light numbering (and the colour sequence) starts for its network.",
	}, service.SetStartPoint)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_graph",
		Description: "Describe the drawn points, splines and networks.",
	}, service.GetGraph)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "place_lights",
		Description: "Compute the light positions and colours for an animation phase.",
	}, service.PlaceLights)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "add_color_marker",
		Description: "Add a colour stop to the colour sequence bar.",
	}, service.AddColorMarker)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "update_settings",
		Description: "Change light density, animation speed, lights per colour cycle or glow size.",
	}, service.UpdateSettings)

	return s
}
