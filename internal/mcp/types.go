package mcp

// --- Tool Arguments ---

type ClickArgs struct {
	X float64 `json:"x" jsonschema:"Canvas x coordinate in pixels (0 to 1000)"`
	Y float64 `json:"y" jsonschema:"Canvas y coordinate in pixels (0 to 1000)"`
}

type ClickResult struct {
	Action   string  `json:"action"`
	PointID  int     `json:"point_id"`
	SplineID int     `json:"spline_id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type EmptyArgs struct{}

type UndoResult struct {
	Undone bool `json:"undone"`
}

type StatusResult struct {
	Status string `json:"status"`
}

type SetStartArgs struct {
	PointID int `json:"point_id" jsonschema:"ID of a point that is the first or last point of a spline"`
}

type GraphResult struct {
	Points   int    `json:"points"`
	Splines  int    `json:"splines"`
	Networks int    `json:"networks"`
	Locked   bool   `json:"locked"`
	Summary  string `json:"summary"` // Readable description for the LLM
}

type PlaceLightsArgs struct {
	Phase float64 `json:"phase,omitempty" jsonschema:"Animation phase in steps. Defaults to 0"`
	Limit int     `json:"limit,omitempty" jsonschema:"Maximum number of lights to return (default 200)"`
}

type PlacedLight struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Step  int     `json:"step"`
	Color string  `json:"color"`
}

type PlaceLightsResult struct {
	Total  int           `json:"total"`
	Lights []PlacedLight `json:"lights"`
}

type AddColorMarkerArgs struct {
	Position float64 `json:"position" jsonschema:"Position on the colour bar from 0 (top) to 100 (bottom)"`
	Color    string  `json:"color" jsonschema:"Hex colour such as #ff8800"`
}

type AddColorMarkerResult struct {
	MarkerID int     `json:"marker_id"`
	Position float64 `json:"position"`
	Color    string  `json:"color"`
}

type UpdateSettingsArgs struct {
	Density     *float64 `json:"density,omitempty" jsonschema:"Light density between 0.1 and 4. Higher means more lights"`
	Speed       *float64 `json:"animation_speed,omitempty" jsonschema:"Colour cycling speed multiplier"`
	CycleLength *float64 `json:"cycle_length,omitempty" jsonschema:"Number of lights per colour cycle (at least 1)"`
	GlowSize    *float64 `json:"glow_size,omitempty" jsonschema:"Glow radius multiplier used when rendering"`
}

type SettingsResult struct {
	Density     float64 `json:"density"`
	Speed       float64 `json:"animation_speed"`
	CycleLength float64 `json:"cycle_length"`
	GlowSize    float64 `json:"glow_size"`
}
