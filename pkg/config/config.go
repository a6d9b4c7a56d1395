package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Board   BoardConfig   `yaml:"board"`
	LLM     LLMConfig     `yaml:"llm"`
	Request RequestConfig `yaml:"request"`
	Log     LogConfig     `yaml:"log"`
	DB      DBConfig      `yaml:"db"`
	Updates UpdatesConfig `yaml:"updates"`
	API     APIConfig     `yaml:"api"`
}

// APIConfig holds settings for the operator HTTP API. An empty addr
// disables the server.
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// BoardConfig holds settings for the physical display transport.
type BoardConfig struct {
	BaseURL    string   `yaml:"base_url"` // e.g. http://192.168.1.50:7000
	Key        string   `yaml:"key"`      // API key sent as a request header
	MaxRetries int      `yaml:"max_retries"`
	BaseDelay  Duration `yaml:"base_delay"`
	Timeout    Duration `yaml:"timeout"` // per network attempt
	Rows       int      `yaml:"rows"`
	Cols       int      `yaml:"cols"`
}

// ProviderConfig holds settings for a single AI provider.
type ProviderConfig struct {
	Type     string            `yaml:"type"`     // "gemini", "openai"
	Key      string            `yaml:"key"`      // API key
	BaseURL  string            `yaml:"base_url"` // openai-compatible root URL
	Profiles map[string]string `yaml:"profiles"` // Map of intent -> model
}

// LLMConfig holds settings for the AI providers.
type LLMConfig struct {
	Preferred string                    `yaml:"preferred"`
	Alternate string                    `yaml:"alternate"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// RequestConfig holds HTTP settings for provider calls.
type RequestConfig struct {
	Timeout Duration `yaml:"timeout"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server LogSettings `yaml:"server"`
	LLM    LogSettings `yaml:"llm"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// UpdatesConfig holds the cadence of display refresh cycles.
type UpdatesConfig struct {
	MajorInterval Duration `yaml:"major_interval"`
	MinorInterval Duration `yaml:"minor_interval"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Board: BoardConfig{
			BaseURL:    "http://127.0.0.1:7000",
			MaxRetries: 2,
			BaseDelay:  Duration(1 * time.Second),
			Timeout:    Duration(5 * time.Second),
			Rows:       6,
			Cols:       22,
		},
		LLM: LLMConfig{
			Preferred: "gemini",
			Alternate: "openai",
			Providers: map[string]ProviderConfig{
				"gemini": {
					Type: "gemini",
					Profiles: map[string]string{
						"message":      "gemini-2.5-flash-lite",
						"notification": "gemini-2.5-flash-lite",
					},
				},
				"openai": {
					Type:    "openai",
					BaseURL: "https://api.openai.com/v1",
					Profiles: map[string]string{
						"message":      "gpt-4o-mini",
						"notification": "gpt-4o-mini",
					},
				},
			},
		},
		Request: RequestConfig{
			Timeout: Duration(60 * time.Second),
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			LLM: LogSettings{
				Path:  "./logs/llm.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/flapboard.db",
		},
		Updates: UpdatesConfig{
			MajorInterval: Duration(1 * time.Hour),
			MinorInterval: Duration(15 * time.Minute),
		},
		API: APIConfig{
			Addr: "127.0.0.1:8600",
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, defaults are used. API keys left empty in
// the file fall back to environment variables but are never written
// back to disk.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills in secrets from the environment when the config file
// leaves them empty.
func (c *Config) applyEnv() {
	if c.Board.Key == "" {
		c.Board.Key = os.Getenv("BOARD_API_KEY")
	}
	for name, p := range c.LLM.Providers {
		if p.Key != "" {
			continue
		}
		switch p.Type {
		case "gemini":
			p.Key = os.Getenv("GEMINI_API_KEY")
		case "openai":
			p.Key = os.Getenv("OPENAI_API_KEY")
		}
		c.LLM.Providers[name] = p
	}
}

// GenerateDefault writes the default configuration to the given path.
func GenerateDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}
