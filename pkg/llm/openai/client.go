package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"flapboard/pkg/config"
	"flapboard/pkg/llm"
	"flapboard/pkg/request"
)

// Client implements llm.Provider for any OpenAI-compatible API.
type Client struct {
	rc       *request.Client
	apiKey   string
	baseURL  string
	profiles map[string]string
	name     string

	mu sync.RWMutex
}

// Request follows the standard OpenAI Chat Completions format.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float32   `json:"temperature,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Response follows the standard Chat Completions response format.
type Response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewClient creates a new OpenAI-compatible client.
func NewClient(name string, cfg config.ProviderConfig, rc *request.Client) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}

	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiKey:   cfg.Key,
		profiles: cfg.Profiles,
		rc:       rc,
		name:     name,
	}, nil
}

// Name implements llm.Provider.
func (c *Client) Name() string { return c.name }

// GenerateText implements llm.Provider.
func (c *Client) GenerateText(ctx context.Context, profile, prompt string) (string, error) {
	model, err := c.resolveModel(profile)
	if err != nil {
		return "", err
	}

	req := Request{
		Model: model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.9,
	}

	return c.execute(ctx, req)
}

// HealthCheck verifies the API key against the /models endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("%s: api key is missing", c.name)
	}

	u := c.baseURL + "/models"
	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}

	ctx = context.WithValue(ctx, request.CtxProviderLabel, c.name)
	if _, err := c.rc.Get(ctx, u, headers); err != nil {
		return fmt.Errorf("failed to fetch models from %s: %w", u, err)
	}
	return nil
}

func (c *Client) execute(ctx context.Context, oreq Request) (string, error) {
	if c.apiKey == "" {
		return "", &llm.ProviderError{
			Kind:     llm.KindAuthentication,
			Provider: c.name,
			Message:  "api key is missing",
		}
	}

	body, err := json.Marshal(oreq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"Content-Type":  "application/json",
	}

	u := c.baseURL + "/chat/completions"

	ctx = context.WithValue(ctx, request.CtxProviderLabel, c.name)
	respBody, err := c.rc.Post(ctx, u, body, headers)
	if err != nil {
		return "", err
	}

	var oresp Response
	if err := json.Unmarshal(respBody, &oresp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if oresp.Error != nil {
		return "", llm.ClassifyError(c.name, fmt.Errorf("api error: %s (%s)", oresp.Error.Message, oresp.Error.Type))
	}

	if len(oresp.Choices) == 0 {
		return "", &llm.ProviderError{
			Kind:     llm.KindGeneric,
			Provider: c.name,
			Message:  "api returned no choices",
		}
	}

	return oresp.Choices[0].Message.Content, nil
}

// HasProfile implements llm.Provider.
func (c *Client) HasProfile(profile string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profiles[profile] != ""
}

// ModelFor implements llm.Provider.
func (c *Client) ModelFor(profile string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profiles[profile]
}

func (c *Client) resolveModel(profile string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if model, ok := c.profiles[profile]; ok && model != "" {
		return model, nil
	}
	return "", fmt.Errorf("profile %q not configured", profile)
}
