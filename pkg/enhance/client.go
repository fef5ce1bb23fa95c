// Package enhance sends the composed light simulation to an image-to-image
// API and falls back to the composed image when that fails.
package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrPollTimeout is returned when an asynchronous job is still running after MaxAttempts polls.
var ErrPollTimeout = errors.New("enhancement still pending after maximum poll attempts")

// Client enhances an image.
// This abstraction allows for easy mocking in tests.
type Client interface {
	Enhance(ctx context.Context, image []byte) ([]byte, error)
}

// APIError is a non-success answer from the provider.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("enhancement api error (status %d): %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func newAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
}

// StabilityClient posts a multipart image-to-image request and receives the
// image in the response body.
type StabilityClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewStabilityClient creates a synchronous client. The HTTP timeout is
// cfg.Timeout; the pipeline applies its own overall deadline as well.
func NewStabilityClient(cfg Config) *StabilityClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &StabilityClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enhance implements Client.
func (c *StabilityClient) Enhance(ctx context.Context, image []byte) ([]byte, error) {
	resp, err := submit(ctx, c.httpClient, c.cfg, image, "image/*")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp)
	}
	return io.ReadAll(resp.Body)
}

// submit sends the generation request.
func submit(ctx context.Context, hc *http.Client, cfg Config, image []byte, accept string) (*http.Response, error) {
	body, contentType, err := buildForm(cfg, image)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", accept)
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("enhancement connection failed: %w", err)
	}
	return resp, nil
}

func buildForm(cfg Config, image []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("image", "lightpath.jpg")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}

	fields := []struct{ k, v string }{
		{"prompt", cfg.Prompt},
		{"negative_prompt", cfg.NegativePrompt},
		{"strength", strconv.FormatFloat(cfg.Strength, 'f', 2, 64)},
		{"seed", strconv.Itoa(cfg.Seed)},
		{"output_format", cfg.OutputFormat},
		{"mode", cfg.Mode},
		{"model", cfg.Model},
	}
	for _, f := range fields {
		if f.v == "" {
			continue
		}
		if err := w.WriteField(f.k, f.v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// AsyncClient submits a job and polls for its result at a fixed interval.
// HTTP 202 from the result endpoint means the job is still running.
type AsyncClient struct {
	cfg        Config
	httpClient *http.Client
	// sleep waits between polls; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewAsyncClient creates a polling client. cfg.ResultURL must be set.
func NewAsyncClient(cfg Config) *AsyncClient {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	cfg.ResultURL = strings.TrimSuffix(cfg.ResultURL, "/")
	return &AsyncClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sleep:      sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Enhance implements Client.
func (c *AsyncClient) Enhance(ctx context.Context, image []byte) ([]byte, error) {
	id, err := c.start(ctx, image)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
			return nil, err
		}
		img, done, err := c.poll(ctx, id)
		if err != nil {
			return nil, err
		}
		if done {
			return img, nil
		}
	}
	return nil, fmt.Errorf("job %s: %w", id, ErrPollTimeout)
}

func (c *AsyncClient) start(ctx context.Context, image []byte) (string, error) {
	resp, err := submit(ctx, c.httpClient, c.cfg, image, "application/json")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", newAPIError(resp)
	}
	var job struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return "", fmt.Errorf("failed to decode job response: %w", err)
	}
	if job.ID == "" {
		return "", errors.New("empty job id from enhancement api")
	}
	return job.ID, nil
}

func (c *AsyncClient) poll(ctx context.Context, id string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ResultURL+"/"+id, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "image/*")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("enhancement poll failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		return nil, false, nil
	case http.StatusOK:
		img, err := io.ReadAll(resp.Body)
		return img, true, err
	default:
		return nil, false, newAPIError(resp)
	}
}

// NewClient picks the asynchronous client when cfg.ResultURL is set.
func NewClient(cfg Config) Client {
	if cfg.ResultURL != "" {
		return NewAsyncClient(cfg)
	}
	return NewStabilityClient(cfg)
}
