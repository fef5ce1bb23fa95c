package enhance

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestStabilityClientSendsForm(t *testing.T) {
	var gotAuth, gotAccept, gotPrompt, gotStrength string
	var gotImage []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("bad multipart body: %v", err)
			return
		}
		gotPrompt = r.FormValue("prompt")
		gotStrength = r.FormValue("strength")
		f, _, err := r.FormFile("image")
		if err != nil {
			t.Errorf("missing image field: %v", err)
			return
		}
		gotImage, _ = io.ReadAll(f)
		w.Write([]byte("enhanced"))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL
	cfg.APIKey = "secret"
	out, err := NewStabilityClient(cfg).Enhance(context.Background(), []byte("jpeg"))
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if string(out) != "enhanced" {
		t.Errorf("unexpected body %q", out)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccept != "image/*" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotPrompt != cfg.Prompt {
		t.Error("prompt not forwarded")
	}
	if gotStrength != "0.30" {
		t.Errorf("strength = %q", gotStrength)
	}
	if string(gotImage) != "jpeg" {
		t.Errorf("image field = %q", gotImage)
	}
}

func TestStabilityClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL
	_, err := NewStabilityClient(cfg).Enhance(context.Background(), []byte("x"))
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || !strings.Contains(apiErr.Body, "bad key") {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func TestAsyncClientPolls(t *testing.T) {
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"job-1"}`))
	})
	mux.HandleFunc("GET /result/job-1", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.Write([]byte("done"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL + "/generate"
	cfg.ResultURL = srv.URL + "/result/"
	c := NewAsyncClient(cfg)
	c.sleep = noSleep

	out, err := c.Enhance(context.Background(), []byte("x"))
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if string(out) != "done" || polls.Load() != 3 {
		t.Errorf("got %q after %d polls", out, polls.Load())
	}
}

func TestAsyncClientGivesUp(t *testing.T) {
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /generate", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"slow"}`))
	})
	mux.HandleFunc("GET /result/slow", func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		w.WriteHeader(http.StatusAccepted)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = srv.URL + "/generate"
	cfg.ResultURL = srv.URL + "/result"
	cfg.MaxAttempts = 4
	c := NewAsyncClient(cfg)
	c.sleep = noSleep

	_, err := c.Enhance(context.Background(), []byte("x"))
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}
	if polls.Load() != 4 {
		t.Errorf("expected 4 polls, got %d", polls.Load())
	}
}

type fakeClient struct {
	out   []byte
	err   error
	block bool
}

func (f *fakeClient) Enhance(ctx context.Context, _ []byte) ([]byte, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.out, f.err
}

func TestPipelineSuccess(t *testing.T) {
	var before, notified int
	p := &Pipeline{
		Client:   &fakeClient{out: []byte("new")},
		Notifier: NotifierFunc(func(string) { notified++ }),
		Before:   func() { before++ },
	}
	res := p.Run(context.Background(), []byte("old"))
	if !res.Enhanced || string(res.Image) != "new" || res.Err != nil {
		t.Errorf("unexpected result %+v", res)
	}
	if before != 1 || notified != 0 {
		t.Errorf("before=%d notified=%d", before, notified)
	}
}

func TestPipelineFallsBackOnError(t *testing.T) {
	var msgs []string
	p := &Pipeline{
		Client:   &fakeClient{err: errors.New("boom")},
		Notifier: NotifierFunc(func(m string) { msgs = append(msgs, m) }),
	}
	res := p.Run(context.Background(), []byte("old"))
	if res.Enhanced || string(res.Image) != "old" || res.Err == nil {
		t.Errorf("unexpected result %+v", res)
	}
	if len(msgs) != 1 || msgs[0] != msgFailed {
		t.Errorf("expected one failure notification, got %q", msgs)
	}
}

func TestPipelineTimeout(t *testing.T) {
	var msgs []string
	p := &Pipeline{
		Client:   &fakeClient{block: true},
		Timeout:  20 * time.Millisecond,
		Notifier: NotifierFunc(func(m string) { msgs = append(msgs, m) }),
	}
	res := p.Run(context.Background(), []byte("old"))
	if string(res.Image) != "old" || !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Errorf("unexpected result %+v", res)
	}
	if len(msgs) != 1 || msgs[0] != msgTimeout {
		t.Errorf("expected one timeout notification, got %q", msgs)
	}
}

func TestPipelineEmptyImageIsFailure(t *testing.T) {
	p := &Pipeline{Client: &fakeClient{}}
	res := p.Run(context.Background(), []byte("old"))
	if res.Enhanced || string(res.Image) != "old" {
		t.Errorf("empty answer must fall back, got %+v", res)
	}
}

func TestNewClientSelectsMode(t *testing.T) {
	cfg := DefaultConfig()
	if _, ok := NewClient(cfg).(*StabilityClient); !ok {
		t.Error("expected synchronous client without result_url")
	}
	cfg.ResultURL = "http://example.invalid/result"
	if _, ok := NewClient(cfg).(*AsyncClient); !ok {
		t.Error("expected polling client with result_url")
	}
}
