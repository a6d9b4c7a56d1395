package board

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"flapboard/pkg/tracker"
)

// Defaults for the retry machine.
const (
	DefaultMaxRetries     = 2
	DefaultBaseDelay      = 1 * time.Second
	DefaultAttemptTimeout = 5 * time.Second
)

const apiKeyHeader = "X-Board-Api-Key"

// AnimationOptions control how a frame is revealed on the board.
type AnimationOptions struct {
	Strategy       string `json:"strategy"`
	StepIntervalMs int    `json:"stepIntervalMs"`
	StepSize       int    `json:"stepSize"`
}

// applyDefaults fills in missing animation settings.
func (o *AnimationOptions) applyDefaults() {
	if o.Strategy == "" {
		o.Strategy = "column"
	}
	if o.StepIntervalMs <= 0 {
		o.StepIntervalMs = 200
	}
	if o.StepSize <= 0 {
		o.StepSize = 1
	}
}

// Client is the resilient transport to the physical display. It owns
// per-attempt timeouts, bounded retry with exponential backoff, and
// failure classification. Backoff delays are cancellable through the
// caller's context so shutdown never leaks a sleeping timer.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	baseDelay      time.Duration
	attemptTimeout time.Duration
	tracker        *tracker.Tracker
}

// Option configures a Client.
type Option func(*Client)

// WithMaxRetries bounds the number of retries after the first attempt.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithBaseDelay sets the backoff base delay.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) { c.baseDelay = d }
}

// WithAttemptTimeout sets the per-network-attempt timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Client) { c.attemptTimeout = d }
}

// WithTracker attaches a stats tracker.
func WithTracker(t *tracker.Tracker) Option {
	return func(c *Client) { c.tracker = t }
}

// New creates a Client for the display at baseURL.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		// Attempt timeouts are enforced per request via context.
		httpClient:     &http.Client{},
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		apiKey:         apiKey,
		maxRetries:     DefaultMaxRetries,
		baseDelay:      DefaultBaseDelay,
		attemptTimeout: DefaultAttemptTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post writes a full character grid to the display.
func (c *Client) Post(ctx context.Context, grid [][]int) error {
	body, err := json.Marshal(map[string]any{"characters": grid})
	if err != nil {
		return fmt.Errorf("failed to marshal grid: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "/api/message", body)
	return err
}

// PostWithAnimation writes a grid using the board's animated reveal.
// Missing options get defaults.
func (c *Client) PostWithAnimation(ctx context.Context, grid [][]int, opts *AnimationOptions) error {
	if opts == nil {
		opts = &AnimationOptions{}
	}
	opts.applyDefaults()

	body, err := json.Marshal(map[string]any{
		"characters": grid,
		"animation":  opts,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal grid: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, "/api/message", body)
	return err
}

// Get reads back the currently displayed grid. The controller firmware
// answers either with a bare grid or a {"message": grid} wrapper.
func (c *Client) Get(ctx context.Context) ([][]int, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/message", nil)
	if err != nil {
		return nil, err
	}

	var grid [][]int
	if err := json.Unmarshal(body, &grid); err == nil {
		return grid, nil
	}

	var wrapped struct {
		Message [][]int `json:"message"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("unexpected board response: %w", err)
	}
	return wrapped.Message, nil
}

// do runs the retry state machine: attempt, classify, back off,
// attempt again, bounded by maxRetries. Exhaustion surfaces the last
// classified failure.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var lastErr *DispatchError

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// base * 2^(n-1): 1s, 2s, 4s...
			delay := c.baseDelay << (attempt - 1)
			slog.Debug("Board dispatch backoff", "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			if c.tracker != nil {
				c.tracker.TrackRetry("board")
			}
		}

		respBody, derr := c.attempt(ctx, method, path, body)
		if derr == nil {
			if c.tracker != nil {
				c.tracker.TrackSuccess("board")
			}
			return respBody, nil
		}

		if c.tracker != nil {
			c.tracker.TrackFailure("board")
		}
		lastErr = derr
		if !derr.Retryable() {
			return nil, derr
		}
		slog.Warn("Board dispatch attempt failed", "attempt", attempt+1, "kind", derr.Kind, "error", derr)
	}

	return nil, lastErr
}

// attempt performs exactly one request and classifies the outcome.
func (c *Client) attempt(ctx context.Context, method, path string, body []byte) ([]byte, *DispatchError) {
	actx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(actx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &DispatchError{Kind: KindConnection, Message: err.Error(), Err: err}
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(actx, err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(resp.Body)

	if derr := classifyResponse(resp, respBody); derr != nil {
		return nil, derr
	}
	if readErr != nil {
		return nil, &DispatchError{Kind: KindConnection, Message: readErr.Error(), Err: readErr}
	}
	return respBody, nil
}

// classifyTransportError maps request errors to the closed taxonomy.
func classifyTransportError(ctx context.Context, err error) *DispatchError {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &DispatchError{Kind: KindTimeout, Message: "request timed out", Err: err}
	}
	msg := err.Error()
	if msg == "" {
		msg = "Unknown connection error"
	}
	return &DispatchError{Kind: KindConnection, Message: msg, Err: err}
}

// classifyResponse maps an HTTP response to the closed taxonomy,
// checked in order. Returns nil for an acceptable 2xx.
func classifyResponse(resp *http.Response, body []byte) *DispatchError {
	status := resp.StatusCode

	// Some controller firmwares answer 200 with an error body.
	if status == 401 || status == 403 ||
		(status >= 200 && status < 300 && bytes.Contains(bytes.ToLower(body), []byte("invalid api key"))) {
		return &DispatchError{Kind: KindAuthentication, Status: status, Message: "authentication rejected"}
	}

	switch {
	case status >= 200 && status < 300:
		return nil
	case status == 429:
		return &DispatchError{
			Kind:       KindRateLimit,
			Status:     status,
			Message:    "rate limited",
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case status >= 500:
		return &DispatchError{Kind: KindServer, Status: status, Message: resp.Status}
	default:
		return &DispatchError{
			Kind:    KindGeneric,
			Status:  status,
			Message: fmt.Sprintf("HTTP error %d: %s", status, http.StatusText(status)),
		}
	}
}

func parseRetryAfter(header string) int {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}
