package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"flapboard/pkg/llm"
	"flapboard/pkg/tracker"
	"flapboard/pkg/version"
)

var defaultUserAgent = fmt.Sprintf("Flapboard content service (Flapboard/%s)", version.Version)

// ctxKey is the type for context values set by callers.
type ctxKey string

// CtxProviderLabel overrides the tracker label derived from the host.
const CtxProviderLabel ctxKey = "provider_label"

// Client handles HTTP requests to AI provider APIs with per-provider
// queuing and typed failure classification. It deliberately performs
// no retries of its own: retry and failover policy live with the
// callers, which need to see one classified result per attempt.
type Client struct {
	httpClient *http.Client
	tracker    *tracker.Tracker

	// Queues per provider (domain)
	queues map[string]chan job
	mu     sync.Mutex // Protects queues map
}

// job represents a queued request.
type job struct {
	req      *http.Request
	headers  map[string]string
	provider string
	respChan chan jobResult
}

type jobResult struct {
	body []byte
	err  error
}

// New creates a new Client.
func New(t *tracker.Tracker, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		tracker:    t,
		queues:     make(map[string]chan job),
	}
}

// Get performs a GET request with queuing.
func (c *Client) Get(ctx context.Context, u string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.enqueue(ctx, req, headers)
}

// Post performs a POST request with queuing.
func (c *Client) Post(ctx context.Context, u string, body []byte, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.enqueue(ctx, req, headers)
}

func (c *Client) enqueue(ctx context.Context, req *http.Request, headers map[string]string) ([]byte, error) {
	provider := providerLabel(ctx, req.URL)

	respChan := make(chan jobResult, 1)
	j := job{req: req, headers: headers, provider: provider, respChan: respChan}

	c.dispatch(provider, j)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-respChan:
		return res.body, res.err
	}
}

func providerLabel(ctx context.Context, u *url.URL) string {
	if label, ok := ctx.Value(CtxProviderLabel).(string); ok && label != "" {
		return label
	}
	return u.Host
}

// dispatch sends the job to the provider's queue, creating the queue/worker if needed.
func (c *Client) dispatch(provider string, j job) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.queues[provider]
	if !ok {
		// Create new queue and start worker
		q = make(chan job, 100)
		c.queues[provider] = q
		go c.worker(provider, q)
	}

	// We block here if the queue is full, effectively throttling the caller
	select {
	case q <- j:
	case <-j.req.Context().Done():
		// Caller gave up before we could even enqueue
		j.respChan <- jobResult{err: j.req.Context().Err()}
	}
}

// worker processes requests for a specific provider sequentially.
func (c *Client) worker(provider string, q <-chan job) {
	for j := range q {
		// Check context before processing
		if j.req.Context().Err() != nil {
			slog.Warn("Job dropped from queue (context expired)", "provider", provider, "error", j.req.Context().Err())
			j.respChan <- jobResult{err: j.req.Context().Err()}
			continue
		}

		// Apply User-Agent (Default if not provided)
		uaMatch := false
		for k, v := range j.headers {
			j.req.Header.Set(k, v)
			if http.CanonicalHeaderKey(k) == "User-Agent" {
				uaMatch = true
			}
		}
		if !uaMatch {
			j.req.Header.Set("User-Agent", defaultUserAgent)
		}

		body, err := c.execute(j.provider, j.req)

		if c.tracker != nil {
			if err == nil {
				c.tracker.TrackSuccess(provider)
			} else {
				c.tracker.TrackFailure(provider)
			}
		}

		j.respChan <- jobResult{body: body, err: err}

		// Hardcoded safety gap to prevent hitting rate limits
		time.Sleep(100 * time.Millisecond)
	}
}

// execute performs exactly one attempt and classifies the outcome.
func (c *Client) execute(provider string, req *http.Request) ([]byte, error) {
	if req.Context().Err() != nil {
		return nil, req.Context().Err()
	}

	slog.Debug("Network Request", "host", req.URL.Host, "path", req.URL.Path, "provider", provider)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Check if the error is a context cancellation from OUR side
		if req.Context().Err() != nil {
			return nil, req.Context().Err()
		}
		return nil, llm.ClassifyError(provider, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	if cerr := llm.ClassifyStatus(provider, resp.StatusCode, resp.Status, body); cerr != nil {
		slog.Warn("API error", "provider", provider, "status", resp.StatusCode, "url", req.URL)
		return nil, cerr
	}
	if readErr != nil {
		return nil, fmt.Errorf("read error: %w", readErr)
	}

	return body, nil
}
