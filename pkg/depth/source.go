package depth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Source produces a depth map for an image.
type Source interface {
	Fetch(ctx context.Context, image []byte) (Map, error)
}

// HTTPSource asks a depth-estimation server for a map. The server receives
// {"image": "<base64>"} and answers {"depth": [...], "width": w, "height": h}.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource creates a source for the given endpoint.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		URL:    strings.TrimSuffix(url, "/"),
		Client: &http.Client{Timeout: timeout},
	}
}

type fetchRequest struct {
	Image string `json:"image"`
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, image []byte) (Map, error) {
	body, err := json.Marshal(fetchRequest{Image: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return Map{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return Map{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return Map{}, fmt.Errorf("depth server request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Map{}, fmt.Errorf("depth server returned status: %s", resp.Status)
	}

	var m Map
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return Map{}, fmt.Errorf("failed to decode depth response: %w", err)
	}
	if m.Width == 0 {
		m.Width = DefaultGridSize
	}
	if m.Height == 0 {
		m.Height = DefaultGridSize
	}
	return m, nil
}
