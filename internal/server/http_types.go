package server

import (
	"github.com/sanonone/lightpath/pkg/animation"
	"github.com/sanonone/lightpath/pkg/engine"
	"github.com/sanonone/lightpath/pkg/graph"
	"github.com/sanonone/lightpath/pkg/palette"
)

// ClickRequest is a canvas click.
type ClickRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StartPointRequest designates a network seed.
type StartPointRequest struct {
	PointID graph.PointID `json:"point_id"`
}

// UndoResponse reports whether anything was undone.
type UndoResponse struct {
	Undone bool `json:"undone"`
}

// MarkerRequest creates or updates a colour marker. Color is "#rrggbb".
type MarkerRequest struct {
	Position float64 `json:"position"`
	Color    string  `json:"color"`
}

// MarkerResponse is a colour marker with its colour as hex.
type MarkerResponse struct {
	ID       palette.MarkerID `json:"id"`
	Position float64          `json:"position"`
	Color    string           `json:"color"`
}

func toMarkerResponse(m palette.Marker) MarkerResponse {
	return MarkerResponse{ID: m.ID, Position: m.Position, Color: m.Color.Hex()}
}

// LightResponse is one light of a frame.
type LightResponse struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Step  int     `json:"step"`
	Color string  `json:"color"`
	Size  float64 `json:"size"`
	Glow  float64 `json:"glow"`
}

// LightsResponse is a frame.
type LightsResponse struct {
	Phase  float64         `json:"phase"`
	Lights []LightResponse `json:"lights"`
}

func toLightsResponse(f animation.Frame) LightsResponse {
	out := LightsResponse{Phase: f.Phase, Lights: make([]LightResponse, len(f.Lights))}
	for i, l := range f.Lights {
		out.Lights[i] = LightResponse{
			X: l.X, Y: l.Y, Step: l.Step,
			Color: l.Color.Hex(),
			Size:  l.Size, Glow: l.Glow,
		}
	}
	return out
}

// EnhanceResponse returns the id of the enhancement task.
type EnhanceResponse struct {
	TaskID string `json:"task_id"`
}

// EnhanceResult is the result of a completed enhancement task.
type EnhanceResult struct {
	Enhanced bool   `json:"enhanced"`
	Error    string `json:"error,omitempty"`
}

// NotificationsResponse lists drained notifications.
type NotificationsResponse struct {
	Notifications []engine.Notification `json:"notifications"`
}

// StatusResponse is a generic acknowledgement.
type StatusResponse struct {
	Status string `json:"status"`
}
