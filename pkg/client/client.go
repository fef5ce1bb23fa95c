// Package client provides a Go client for the lightpath HTTP API.
//
// It offers a type-safe way to drive a studio session remotely:
//   - Photo upload and session reset.
//   - Drawing (click, undo, clear, start point) and graph inspection.
//   - Frames of lights, colour markers and settings.
//   - Enhancement tasks, download and notifications.
//
// The client handles HTTP communication, JSON serialization/deserialization, and
// standardized error handling.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Custom Errors ---

// APIError represents an error returned by the lightpath API (status >= 400).
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// --- JSON Response Structs ---

// Point is a vertex on the canvas.
type Point struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Spline is an ordered chain of point ids.
type Spline struct {
	ID     int   `json:"id"`
	Points []int `json:"points"`
}

// Network is a set of connected splines.
type Network struct {
	ID           int   `json:"id"`
	Splines      []int `json:"splines"`
	StartPointID int   `json:"start_point_id,omitempty"`
	HasStart     bool  `json:"has_start"`
}

// Selection is the endpoint selected for extension.
type Selection struct {
	SplineID int  `json:"spline_id"`
	PointID  int  `json:"point_id"`
	AtStart  bool `json:"at_start"`
}

// Graph is the drawing and the editor state.
type Graph struct {
	Revision  uint64     `json:"revision"`
	Points    []Point    `json:"points"`
	Splines   []Spline   `json:"splines"`
	Networks  []Network  `json:"networks"`
	Selection *Selection `json:"selection,omitempty"`
	Locked    bool       `json:"locked"`
	CanUndo   bool       `json:"can_undo"`
}

// ClickResult reports what a click did.
type ClickResult struct {
	Action   string  `json:"action"`
	PointID  int     `json:"point_id,omitempty"`
	SplineID int     `json:"spline_id,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Light is one light of a frame. Color is "#rrggbb".
type Light struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Step  int     `json:"step"`
	Color string  `json:"color"`
	Size  float64 `json:"size"`
	Glow  float64 `json:"glow"`
}

// Frame is the set of lights at one phase.
type Frame struct {
	Phase  float64 `json:"phase"`
	Lights []Light `json:"lights"`
}

// Marker is a colour stop on the sequence bar.
type Marker struct {
	ID       int     `json:"id"`
	Position float64 `json:"position"`
	Color    string  `json:"color"`
}

// Settings are the session knobs.
type Settings struct {
	Density     float64 `json:"density"`
	Speed       float64 `json:"animation_speed"`
	CycleLength float64 `json:"cycle_length"`
	GlowSize    float64 `json:"glow_size"`
}

// SettingsUpdate changes only the non-nil fields.
type SettingsUpdate struct {
	Density     *float64 `json:"density,omitempty"`
	Speed       *float64 `json:"animation_speed,omitempty"`
	CycleLength *float64 `json:"cycle_length,omitempty"`
	GlowSize    *float64 `json:"glow_size,omitempty"`
}

// Notification is a message for the user.
type Notification struct {
	ID      int       `json:"id"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// EnhanceResult is the outcome of a completed enhancement task.
type EnhanceResult struct {
	Enhanced bool   `json:"enhanced"`
	Error    string `json:"error,omitempty"`
}

// Task represents an asynchronous operation on the lightpath server.
type Task struct {
	ID              string         `json:"id"`
	Status          string         `json:"status"`
	ProgressMessage string         `json:"progress_message,omitempty"`
	Error           string         `json:"error,omitempty"`
	Result          *EnhanceResult `json:"result,omitempty"`

	client *Client // Reference to the client for polling.
}

// Download is a downloaded image.
type Download struct {
	Data        []byte
	ContentType string
	Enhanced    bool
}

// --- Client ---

// Client is the Go client for interacting with lightpath.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// New creates a new client for http://host:port. An empty token sends no
// Authorization header.
func New(host string, port int, token string) *Client {
	return NewWithURL(fmt.Sprintf("http://%s:%d", host, port), token)
}

// NewWithURL creates a client for a full base URL.
func NewWithURL(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		authToken:  token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// jsonRequest is a helper method to execute all requests to the API.
// It handles JSON serialization, HTTP calls, and error management.
func (c *Client) jsonRequest(method, endpoint string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON payload: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}
	body, _, err := c.do(method, endpoint, "application/json", reqBody)
	return body, err
}

func (c *Client) do(method, endpoint, contentType string, body io.Reader) ([]byte, http.Header, error) {
	req, err := http.NewRequest(method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("connection error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, resp.Header, nil // For 204 responses (e.g., DELETE).
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		if json.Unmarshal(respBody, &errResp) == nil {
			return nil, nil, &APIError{StatusCode: resp.StatusCode, Message: errResp["error"]}
		}
		return nil, nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	return respBody, resp.Header, nil
}

func decodeInto[T any](body []byte, err error) (T, error) {
	var v T
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("failed to decode response: %w", err)
	}
	return v, nil
}

// --- Task Methods ---

// Refresh updates the task's status by querying the server.
func (t *Task) Refresh() error {
	if t.client == nil {
		return fmt.Errorf("client is not associated with the task")
	}
	updatedTask, err := t.client.GetTaskStatus(t.ID)
	if err != nil {
		return err
	}
	t.Status = updatedTask.Status
	t.ProgressMessage = updatedTask.ProgressMessage
	t.Error = updatedTask.Error
	t.Result = updatedTask.Result
	return nil
}

// Wait blocks until the task is completed, checking its status at regular intervals.
func (t *Task) Wait(interval, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-timer.C:
			return fmt.Errorf("timeout exceeded while waiting for task %s", t.ID)
		case <-ticker.C:
			if err := t.Refresh(); err != nil {
				return err
			}
			switch t.Status {
			case "completed":
				return nil
			case "failed":
				return fmt.Errorf("task %s failed with error: %s", t.ID, t.Error)
			case "running", "started":
				// Continue waiting.
			default:
				return fmt.Errorf("unknown task status: %s", t.Status)
			}
		}
	}
}

// GetTaskStatus fetches a task by id.
func (c *Client) GetTaskStatus(taskID string) (*Task, error) {
	t, err := decodeInto[Task](c.jsonRequest(http.MethodGet, "/tasks/"+url.PathEscape(taskID), nil))
	if err != nil {
		return nil, err
	}
	t.client = c
	return &t, nil
}

// --- Session Methods ---

// Health checks the server liveness endpoint.
func (c *Client) Health() error {
	_, err := c.jsonRequest(http.MethodGet, "/healthz", nil)
	return err
}

// UploadPhoto starts a new drawing on a PNG or JPEG photo.
func (c *Client) UploadPhoto(image []byte) (*Graph, error) {
	body, _, err := c.do(http.MethodPost, "/photo", http.DetectContentType(image), bytes.NewReader(image))
	g, err := decodeInto[Graph](body, err)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Reset returns the session to its initial state.
func (c *Client) Reset() error {
	_, err := c.jsonRequest(http.MethodPost, "/reset", nil)
	return err
}

// Notifications drains the pending user notifications.
func (c *Client) Notifications() ([]Notification, error) {
	resp, err := decodeInto[struct {
		Notifications []Notification `json:"notifications"`
	}](c.jsonRequest(http.MethodGet, "/notifications", nil))
	return resp.Notifications, err
}

// --- Drawing Methods ---

// Graph returns the drawing.
func (c *Client) Graph() (*Graph, error) {
	g, err := decodeInto[Graph](c.jsonRequest(http.MethodGet, "/graph", nil))
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Click applies a canvas click.
func (c *Client) Click(x, y float64) (*ClickResult, error) {
	res, err := decodeInto[ClickResult](c.jsonRequest(http.MethodPost, "/graph/click", map[string]float64{"x": x, "y": y}))
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Undo reverts the last edit and reports whether anything changed.
func (c *Client) Undo() (bool, error) {
	resp, err := decodeInto[struct {
		Undone bool `json:"undone"`
	}](c.jsonRequest(http.MethodPost, "/graph/undo", nil))
	return resp.Undone, err
}

// Clear removes every path.
func (c *Client) Clear() error {
	_, err := c.jsonRequest(http.MethodPost, "/graph/clear", nil)
	return err
}

// SetStartPoint makes an endpoint the seed of its network.
func (c *Client) SetStartPoint(pointID int) error {
	_, err := c.jsonRequest(http.MethodPost, "/graph/start", map[string]int{"point_id": pointID})
	return err
}

// --- Lights Methods ---

// Lights returns the frame at the given phase.
func (c *Client) Lights(phase float64) (*Frame, error) {
	q := url.Values{"phase": {strconv.FormatFloat(phase, 'f', -1, 64)}}
	f, err := decodeInto[Frame](c.jsonRequest(http.MethodGet, "/lights?"+q.Encode(), nil))
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// StartAnimation starts the server-side frame loop.
func (c *Client) StartAnimation() error {
	_, err := c.jsonRequest(http.MethodPost, "/animation/start", nil)
	return err
}

// StopAnimation stops the server-side frame loop.
func (c *Client) StopAnimation() error {
	_, err := c.jsonRequest(http.MethodPost, "/animation/stop", nil)
	return err
}

// --- Marker Methods ---

// Markers lists the colour markers.
func (c *Client) Markers() ([]Marker, error) {
	return decodeInto[[]Marker](c.jsonRequest(http.MethodGet, "/markers", nil))
}

// AddMarker adds a colour marker. color is "#rrggbb".
func (c *Client) AddMarker(position float64, color string) (*Marker, error) {
	m, err := decodeInto[Marker](c.jsonRequest(http.MethodPost, "/markers", Marker{Position: position, Color: color}))
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMarker moves and recolours a marker.
func (c *Client) UpdateMarker(id int, position float64, color string) (*Marker, error) {
	m, err := decodeInto[Marker](c.jsonRequest(http.MethodPut, "/markers/"+strconv.Itoa(id), Marker{Position: position, Color: color}))
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMarker removes a marker.
func (c *Client) DeleteMarker(id int) error {
	_, err := c.jsonRequest(http.MethodDelete, "/markers/"+strconv.Itoa(id), nil)
	return err
}

// --- Settings Methods ---

// Settings returns the session settings.
func (c *Client) Settings() (*Settings, error) {
	s, err := decodeInto[Settings](c.jsonRequest(http.MethodGet, "/settings", nil))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSettings applies a partial settings update.
func (c *Client) UpdateSettings(u SettingsUpdate) (*Settings, error) {
	s, err := decodeInto[Settings](c.jsonRequest(http.MethodPut, "/settings", u))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// --- Enhancement Methods ---

// Enhance starts an enhancement and returns its task. Use Task.Wait to block
// until it finishes.
func (c *Client) Enhance() (*Task, error) {
	resp, err := decodeInto[struct {
		TaskID string `json:"task_id"`
	}](c.jsonRequest(http.MethodPost, "/enhance", nil))
	if err != nil {
		return nil, err
	}
	return &Task{ID: resp.TaskID, Status: "started", client: c}, nil
}

// Download fetches the enhanced image, or the composed fallback.
func (c *Client) Download() (*Download, error) {
	body, header, err := c.do(http.MethodGet, "/download", "", nil)
	if err != nil {
		return nil, err
	}
	return &Download{
		Data:        body,
		ContentType: header.Get("Content-Type"),
		Enhanced:    header.Get("X-Lightpath-Enhanced") == "true",
	}, nil
}
