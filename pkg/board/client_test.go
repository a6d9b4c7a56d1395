package board

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"flapboard/pkg/tracker"
)

var testGrid = [][]int{{1, 2, 3}, {4, 5, 6}}

func fastClient(url string, opts ...Option) *Client {
	base := []Option{WithBaseDelay(time.Millisecond)}
	return New(url, "test-key", append(base, opts...)...)
}

func TestPost_Success(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Board-Api-Key")
		if r.Method != http.MethodPost || r.URL.Path != "/api/message" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	if err := c.Post(context.Background(), testGrid); err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
}

func TestPost_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := tracker.New()
	c := fastClient(srv.URL, WithTracker(tr))
	if err := c.Post(context.Background(), testGrid); err != nil {
		t.Fatalf("Post should succeed on third attempt: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
	if snap := tr.Snapshot()["board"]; snap.Retries != 2 || snap.Failures != 2 || snap.Success != 1 {
		t.Errorf("tracker stats wrong: %+v", snap)
	}
}

func TestPost_ExhaustionSurfacesLastError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := fastClient(srv.URL, WithMaxRetries(2))
	err := c.Post(context.Background(), testGrid)
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	// First attempt plus two retries.
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
	var derr *DispatchError
	if !errors.As(err, &derr) || derr.Kind != KindServer {
		t.Errorf("expected server DispatchError, got %v", err)
	}
}

func TestPost_AuthenticationNeverRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	err := c.Post(context.Background(), testGrid)
	var derr *DispatchError
	if !errors.As(err, &derr) || derr.Kind != KindAuthentication {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want 1", got)
	}
}

func TestPost_AuthErrorInOKBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"error": "Invalid API key"}`))
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	err := c.Post(context.Background(), testGrid)
	var derr *DispatchError
	if !errors.As(err, &derr) || derr.Kind != KindAuthentication {
		t.Fatalf("expected authentication error from 200 body, got %v", err)
	}
}

func TestPost_RateLimitCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	err := c.Post(context.Background(), testGrid)
	var derr *DispatchError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DispatchError, got %v", err)
	}
	if derr.Kind != KindRateLimit {
		t.Errorf("kind = %s, want %s", derr.Kind, KindRateLimit)
	}
	if derr.RetryAfter != 120 {
		t.Errorf("RetryAfter = %d, want 120", derr.RetryAfter)
	}
	if !derr.Retryable() {
		t.Error("rate limits are retryable")
	}
}

func TestPost_AttemptTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := fastClient(srv.URL, WithMaxRetries(0), WithAttemptTimeout(20*time.Millisecond))
	err := c.Post(context.Background(), testGrid)
	var derr *DispatchError
	if !errors.As(err, &derr) || derr.Kind != KindTimeout {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestPost_ConnectionRefused(t *testing.T) {
	// Port from a just-closed listener, nothing is listening there.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := fastClient(url, WithMaxRetries(0))
	err := c.Post(context.Background(), testGrid)
	var derr *DispatchError
	if !errors.As(err, &derr) || derr.Kind != KindConnection {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestPost_BackoffCancellable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "k", WithBaseDelay(10*time.Second))
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := c.Post(ctx, testGrid)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("backoff did not honor cancellation, took %v", elapsed)
	}
}

func TestPostWithAnimation_Defaults(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := fastClient(srv.URL)
	if err := c.PostWithAnimation(context.Background(), testGrid, nil); err != nil {
		t.Fatalf("PostWithAnimation failed: %v", err)
	}
	for _, want := range []string{`"strategy":"column"`, `"stepIntervalMs":200`, `"stepSize":1`} {
		if !bytes.Contains(gotBody, []byte(want)) {
			t.Errorf("body missing %s: %s", want, gotBody)
		}
	}
}

func TestGet_BareAndWrappedGrid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bare", `[[1,2],[3,4]]`},
		{"wrapped", `{"message": [[1,2],[3,4]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			grid, err := fastClient(srv.URL).Get(context.Background())
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if len(grid) != 2 || grid[0][0] != 1 || grid[1][1] != 4 {
				t.Errorf("grid = %v", grid)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		header string
		want   int
	}{
		{"", 0},
		{"120", 120},
		{" 5 ", 5},
		{"-1", 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.header); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %d, want %d", tt.header, got, tt.want)
		}
	}
}
