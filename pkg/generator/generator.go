package generator

import (
	"context"

	"flapboard/pkg/llm"
	"flapboard/pkg/model"
)

// ContentGenerator produces display content for one update cycle.
type ContentGenerator interface {
	// Generate builds content for the given context. Provider failures
	// surface as *llm.ProviderError.
	Generate(ctx context.Context, gc model.GenerationContext) (*model.GeneratedContent, error)

	// Validate checks the generator's configuration and returns any
	// problems found. An empty slice means the generator is usable.
	Validate() []string
}

// ProviderBound is implemented by generators whose output comes from an
// AI provider. WithProvider binds a provider-specific instance so the
// caller can drive failover across providers.
type ProviderBound interface {
	WithProvider(p llm.Provider) ContentGenerator
}
