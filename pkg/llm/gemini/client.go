package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/iterator"
	"google.golang.org/genai"

	"flapboard/pkg/config"
	"flapboard/pkg/llm"
)

// Client implements llm.Provider for Google Gemini.
type Client struct {
	genaiClient *genai.Client
	apiKey      string
	profiles    map[string]string // Map profile -> modelName
	logPath     string

	mu sync.RWMutex
}

// NewClient creates a new Gemini client.
func NewClient(cfg config.ProviderConfig, logPath string) (*Client, error) {
	c := &Client{logPath: logPath}
	if err := c.Configure(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Configure updates the client with new settings.
func (c *Client) Configure(cfg config.ProviderConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.apiKey = cfg.Key
	c.profiles = cfg.Profiles

	if c.apiKey == "" {
		// Can't initialize without key.
		c.genaiClient = nil
		return nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: c.apiKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create genai client: %w", err)
	}
	c.genaiClient = client

	return nil
}

// Name implements llm.Provider.
func (c *Client) Name() string { return "gemini" }

// GenerateText sends a prompt and returns the text response.
func (c *Client) GenerateText(ctx context.Context, profile, prompt string) (string, error) {
	c.mu.RLock()
	client := c.genaiClient
	c.mu.RUnlock()

	if client == nil {
		return "", &llm.ProviderError{
			Kind:     llm.KindAuthentication,
			Provider: c.Name(),
			Message:  "gemini client not configured",
		}
	}

	modelName, ok := c.modelFor(profile)
	if !ok {
		return "", fmt.Errorf("profile %q not configured", profile)
	}

	resp, err := client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), &genai.GenerateContentConfig{})
	if err != nil {
		c.logPrompt(profile, prompt, fmt.Sprintf("ERROR: %v", err))
		return "", llm.ClassifyError(c.Name(), err)
	}

	text, err := getResponseText(resp)
	if err != nil {
		c.logPrompt(profile, prompt, fmt.Sprintf("TEXT_PARSE_ERROR: %v", err))
		return "", &llm.ProviderError{
			Kind:     llm.KindGeneric,
			Provider: c.Name(),
			Message:  err.Error(),
			Err:      err,
		}
	}

	c.logPrompt(profile, prompt, text)
	return text, nil
}

// HasProfile implements llm.Provider.
func (c *Client) HasProfile(profile string) bool {
	_, ok := c.modelFor(profile)
	return ok
}

// ModelFor implements llm.Provider.
func (c *Client) ModelFor(profile string) string {
	m, _ := c.modelFor(profile)
	return m
}

func (c *Client) modelFor(profile string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.profiles[profile]
	return m, ok && m != ""
}

// HealthCheck verifies that the configured models exist for this key.
func (c *Client) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	client := c.genaiClient
	profiles := c.profiles
	c.mu.RUnlock()

	if client == nil {
		return fmt.Errorf("gemini client not configured")
	}

	for profile, modelName := range profiles {
		name := modelName
		if !strings.HasPrefix(name, "models/") {
			name = "models/" + name
		}
		if _, err := client.Models.Get(ctx, name, nil); err != nil {
			c.listAvailableModels(ctx)
			return fmt.Errorf("model %q (profile %q) not available: %w", modelName, profile, err)
		}
	}
	return nil
}

// listAvailableModels logs the gemini models this key can use, for
// recovery after a failed validation.
func (c *Client) listAvailableModels(ctx context.Context) {
	iter, err := c.genaiClient.Models.List(ctx, nil)
	if err != nil {
		slog.Warn("Failed to list models for recovery", "error", err)
		return
	}

	for {
		resp, nextErr := iter.Next(ctx)
		if nextErr == iterator.Done {
			break
		}
		if nextErr != nil {
			break
		}
		if strings.Contains(strings.ToLower(resp.Name), "gemini") {
			slog.Info("Available model", "name", resp.Name)
		}
	}
}

func (c *Client) logPrompt(profile, prompt, response string) {
	if c.logPath == "" {
		return
	}

	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return
	}

	f, err := os.OpenFile(c.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	entry := fmt.Sprintf("[%s] PROMPT: %s\nPROMPT_TEXT:\n%s\n\nRESPONSE:\n%s\n%s\n",
		timestamp, profile, llm.TruncateForLog(prompt, 400), llm.WordWrap(response, 80), strings.Repeat("-", 80))

	_, _ = f.WriteString(entry)
}

func getResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}
