package orchestrator

import (
	"context"
	"time"

	"flapboard/pkg/model"
)

// CircuitBreaker is the external gate queried before generation. A nil
// breaker disables all gating.
type CircuitBreaker interface {
	// IsCircuitOpen reports whether the named circuit blocks generation.
	IsCircuitOpen(ctx context.Context, name string) bool

	// IsProviderAvailable reports whether the selected generator may be
	// invoked.
	IsProviderAvailable(ctx context.Context, reg model.GeneratorRegistration) bool
}

// Decorator turns text into a display-ready grid. Warnings are
// informational only.
type Decorator interface {
	Decorate(text string, ts time.Time, meta *model.Metadata, opts *model.FormatOptions) (*model.Layout, []string)
}

// Validator checks generated content against board constraints.
type Validator interface {
	ValidateContent(c *model.GeneratedContent) error
}

// Dispatcher sends a finished grid to the physical display.
type Dispatcher interface {
	Post(ctx context.Context, grid [][]int) error
}
