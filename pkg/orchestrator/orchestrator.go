package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"flapboard/pkg/breaker"
	"flapboard/pkg/generator"
	"flapboard/pkg/llm"
	"flapboard/pkg/llm/retry"
	"flapboard/pkg/model"
	"flapboard/pkg/registry"
	"flapboard/pkg/selector"
	"flapboard/pkg/store"
)

// BlockReasonMaster is reported when the master circuit stops a cycle.
const BlockReasonMaster = "master_circuit_off"

// Config wires an Orchestrator. Registry, Selector, Retry, Decorator
// and Board are required; Breaker, Validator, Store and the providers
// are optional collaborators.
type Config struct {
	Registry  *registry.Registry
	Selector  *selector.Selector
	Retry     *retry.Orchestrator
	Preferred llm.Provider
	Alternate llm.Provider
	Breaker   CircuitBreaker
	Decorator Decorator
	Validator Validator
	Board     Dispatcher
	Store     store.ContentStore
}

// Orchestrator coordinates one display update cycle: gate check,
// selection, resilient generation, validation, fallback, decoration,
// dispatch, and best-effort persistence. Callers serialize cycles; the
// only shared state is the cached content reference.
type Orchestrator struct {
	reg       *registry.Registry
	sel       *selector.Selector
	retry     *retry.Orchestrator
	preferred llm.Provider
	alternate llm.Provider
	breaker   CircuitBreaker
	decorator Decorator
	validator Validator
	board     Dispatcher
	store     store.ContentStore

	mu     sync.RWMutex
	cached *model.GeneratedContent

	persistCh chan *model.ContentRecord
	persistWG sync.WaitGroup
	closeOnce sync.Once
}

// New creates an Orchestrator and starts its persistence worker.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		reg:       cfg.Registry,
		sel:       cfg.Selector,
		retry:     cfg.Retry,
		preferred: cfg.Preferred,
		alternate: cfg.Alternate,
		breaker:   cfg.Breaker,
		decorator: cfg.Decorator,
		validator: cfg.Validator,
		board:     cfg.Board,
		store:     cfg.Store,
		persistCh: make(chan *model.ContentRecord, 16),
	}

	o.persistWG.Add(1)
	go o.persistWorker()

	return o
}

// Close stops the persistence worker. Queued records still in flight
// are drained; anything enqueued after Close is dropped.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		close(o.persistCh)
		o.persistWG.Wait()
	})
}

// GenerateAndSend runs one update cycle. Expected provider failures are
// absorbed into fallback and reported as success; a missing generator
// or an unreachable display propagate as errors.
func (o *Orchestrator) GenerateAndSend(ctx context.Context, gc model.GenerationContext) (*model.OrchestratorResult, error) {
	// GATE_CHECK
	if o.breaker != nil && o.breaker.IsCircuitOpen(ctx, breaker.MasterCircuit) {
		slog.Info("Cycle blocked by master circuit")
		return &model.OrchestratorResult{
			Blocked:     true,
			BlockReason: BlockReasonMaster,
			Circuit:     &model.CircuitState{Master: false},
		}, nil
	}

	// SELECT
	selected := o.sel.Select(gc)
	if selected == nil {
		return nil, fmt.Errorf("no content generator available for context")
	}
	reg := selected.Registration
	slog.Debug("Generator selected", "id", reg.ID, "tier", reg.Priority)

	// PROVIDER_CHECK + GENERATE_WITH_RETRY + VALIDATE
	var content *model.GeneratedContent
	var genErr error

	if o.breaker != nil && !o.breaker.IsProviderAvailable(ctx, reg) {
		// Known-bad provider: skip straight to fallback without a wasted call.
		genErr = &llm.ProviderError{
			Kind:     llm.KindGeneric,
			Provider: reg.ID,
			Message:  fmt.Sprintf("generator %q circuit open", reg.ID),
		}
		slog.Info("Generator circuit open, using fallback", "id", reg.ID)
	} else {
		content, genErr = o.generate(ctx, selected, gc)
		if genErr == nil && o.validator != nil {
			if verr := o.validator.ValidateContent(content); verr != nil {
				// Rejected output is logged before discard.
				slog.Warn("Generated content rejected",
					"generator", reg.ID,
					"provider", providerOf(content),
					"text", content.Text,
					"error", verr)
				content = nil
				genErr = verr
			}
		}
	}

	// FALLBACK
	usedFallback := false
	if genErr != nil {
		fb, fbErr := o.fallbackContent(ctx, gc)
		if fbErr != nil {
			return nil, fmt.Errorf("generation failed with no usable fallback: %w", genErr)
		}
		slog.Info("Using fallback content", "original_error", genErr)
		content = fb
		usedFallback = true
	}

	if gc.PromptsOnly {
		return &model.OrchestratorResult{Success: true, Content: content}, nil
	}

	// DECORATE_OR_PASSTHROUGH
	var grid [][]int
	if content.Mode == model.ModeLayout && content.Layout != nil {
		grid = content.Layout.CharacterCodes
	} else {
		layout, warnings := o.decorator.Decorate(content.Text, gc.Timestamp, content.Meta, reg.Format)
		for _, w := range warnings {
			slog.Info("Decoration warning", "generator", reg.ID, "warning", w)
		}
		grid = layout.CharacterCodes
	}

	// DISPATCH: failure is fatal, no further fallback exists once the
	// display itself is unreachable.
	if err := o.board.Post(ctx, grid); err != nil {
		return nil, err
	}

	// CACHE
	o.mu.Lock()
	o.cached = content
	o.mu.Unlock()

	// PERSIST (fire-and-forget)
	o.enqueueRecord(buildRecord(gc, reg, content, genErr, usedFallback))

	return &model.OrchestratorResult{Success: true, Content: content}, nil
}

// generate drives the provider failover pipeline for AI-backed
// generators and calls everything else directly.
func (o *Orchestrator) generate(ctx context.Context, selected *registry.RegisteredGenerator, gc model.GenerationContext) (*model.GeneratedContent, error) {
	if pb, ok := selected.Generator.(generator.ProviderBound); ok && o.preferred != nil && o.retry != nil {
		factory := func(p llm.Provider) retry.Generator {
			return pb.WithProvider(p)
		}
		return o.retry.Generate(ctx, factory, gc, o.preferred, o.alternate)
	}
	return selected.Generator.Generate(ctx, gc)
}

// fallbackContent invokes the first registered fallback-tier generator
// with the same context.
func (o *Orchestrator) fallbackContent(ctx context.Context, gc model.GenerationContext) (*model.GeneratedContent, error) {
	fallbacks := o.reg.GetByPriority(model.TierFallback)
	if len(fallbacks) == 0 {
		return nil, fmt.Errorf("no fallback generator registered")
	}
	return fallbacks[0].Generator.Generate(ctx, gc)
}

// GetCachedContent returns the last dispatched content, or nil.
func (o *Orchestrator) GetCachedContent() *model.GeneratedContent {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.cached
}

// ClearCache resets the cached content.
func (o *Orchestrator) ClearCache() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cached = nil
}

func providerOf(c *model.GeneratedContent) string {
	if c == nil || c.Meta == nil {
		return ""
	}
	return c.Meta.Provider
}
