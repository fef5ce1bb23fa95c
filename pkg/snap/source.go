package snap

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

// Source produces structural lines for an image.
type Source interface {
	Fetch(ctx context.Context, image []byte) (LineSet, error)
}

// HTTPSource asks a line-detection server for segments. The request body is
// {"image": "<base64>"}.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		URL:    strings.TrimSuffix(url, "/"),
		Client: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, image []byte) (LineSet, error) {
	payload := map[string]string{"image": base64.StdEncoding.EncodeToString(image)}
	body, err := json.Marshal(payload)
	if err != nil {
		return LineSet{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return LineSet{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return LineSet{}, fmt.Errorf("line server request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return LineSet{}, fmt.Errorf("line server returned status: %s", resp.Status)
	}

	var set LineSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return LineSet{}, fmt.Errorf("failed to decode line response: %w", err)
	}
	return set, nil
}
