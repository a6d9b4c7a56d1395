package llm

import (
	"context"
)

// Provider defines the interface for interacting with AI text services.
type Provider interface {
	// Name returns the provider identity used in metadata and records.
	Name() string

	// GenerateText sends a prompt for the given profile and returns the
	// text response. Failures are *ProviderError where classifiable.
	GenerateText(ctx context.Context, profile, prompt string) (string, error)

	// HasProfile checks if the provider has a specific profile configured.
	HasProfile(profile string) bool

	// ModelFor returns the model a profile resolves to, or "" when the
	// profile is not configured. Used for content metadata.
	ModelFor(profile string) string

	// HealthCheck verifies that the provider is configured and reachable.
	HealthCheck(ctx context.Context) error
}
