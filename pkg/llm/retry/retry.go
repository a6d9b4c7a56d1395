package retry

import (
	"context"
	"log/slog"

	"flapboard/pkg/llm"
	"flapboard/pkg/model"
	"flapboard/pkg/tracker"
)

// Generator is the single-attempt generation capability driven by the
// failover pipeline.
type Generator interface {
	Generate(ctx context.Context, gc model.GenerationContext) (*model.GeneratedContent, error)
}

// Factory binds a provider-specific generator instance.
type Factory func(p llm.Provider) Generator

// Orchestrator drives one generation request through up to two AI
// providers: one attempt on the preferred provider, and on a classified
// provider failure one more on the alternate. The pipeline is an
// explicit ordered list of attempts rather than nested error handling,
// so primary-versus-alternate reasoning stays visible.
type Orchestrator struct {
	tracker *tracker.Tracker
}

// New creates an Orchestrator. The tracker may be nil.
func New(t *tracker.Tracker) *Orchestrator {
	return &Orchestrator{tracker: t}
}

// Generate runs the attempt pipeline. On failover success the content
// metadata is tagged with the primary provider and its error. When all
// attempts fail the most recent classified failure is returned; the
// caller decides whether to fall back.
func (o *Orchestrator) Generate(ctx context.Context, factory Factory, gc model.GenerationContext, preferred, alternate llm.Provider) (*model.GeneratedContent, error) {
	content, primaryErr := factory(preferred).Generate(ctx, gc)
	if primaryErr == nil {
		o.track(preferred.Name(), true)
		return content, nil
	}
	o.track(preferred.Name(), false)

	if alternate == nil || !llm.IsFailoverable(primaryErr) {
		return nil, primaryErr
	}

	slog.Warn("Primary provider failed, trying alternate",
		"primary", preferred.Name(), "alternate", alternate.Name(),
		"kind", llm.Kind(primaryErr), "error", primaryErr)
	if o.tracker != nil {
		o.tracker.TrackFailover(preferred.Name())
	}

	content, err := factory(alternate).Generate(ctx, gc)
	if err != nil {
		o.track(alternate.Name(), false)
		// Most recent failure wins; the primary error travels in the log above.
		return nil, err
	}
	o.track(alternate.Name(), true)

	if content.Meta == nil {
		content.Meta = &model.Metadata{Provider: alternate.Name()}
	}
	content.Meta.FailedOver = true
	content.Meta.PrimaryProvider = preferred.Name()
	content.Meta.PrimaryError = primaryErr.Error()

	return content, nil
}

func (o *Orchestrator) track(provider string, ok bool) {
	if o.tracker == nil {
		return
	}
	if ok {
		o.tracker.TrackSuccess(provider)
	} else {
		o.tracker.TrackFailure(provider)
	}
}
