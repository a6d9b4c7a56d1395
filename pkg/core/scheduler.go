package core

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"flapboard/pkg/model"
)

// CycleRunner runs one display update cycle. Satisfied by
// orchestrator.Orchestrator.
type CycleRunner interface {
	GenerateAndSend(ctx context.Context, gc model.GenerationContext) (*model.OrchestratorResult, error)
}

// Scheduler drives update cycles on a major/minor cadence and feeds
// inbound events to the orchestrator. All cycles run on one goroutine,
// so the orchestrator never sees overlapping invocations.
type Scheduler struct {
	runner     CycleRunner
	majorEvery time.Duration
	minorEvery time.Duration
	events     chan model.InboundEvent
}

// NewScheduler creates a Scheduler.
func NewScheduler(runner CycleRunner, majorEvery, minorEvery time.Duration) *Scheduler {
	if majorEvery <= 0 {
		majorEvery = time.Hour
	}
	if minorEvery <= 0 {
		minorEvery = 15 * time.Minute
	}
	return &Scheduler{
		runner:     runner,
		majorEvery: majorEvery,
		minorEvery: minorEvery,
		events:     make(chan model.InboundEvent, 8),
	}
}

// Notify queues an inbound event for an immediate notification cycle.
// Returns false when the queue is full.
func (s *Scheduler) Notify(ev model.InboundEvent) bool {
	select {
	case s.events <- ev:
		return true
	default:
		slog.Warn("Event queue full, dropping event", "type", ev.Type)
		return false
	}
}

// Run executes cycles until the context is cancelled. It starts with an
// immediate major update so the board is never blank after startup.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("Update scheduler started", "major_every", s.majorEvery, "minor_every", s.minorEvery)

	major := time.NewTicker(s.majorEvery)
	defer major.Stop()
	minor := time.NewTicker(s.minorEvery)
	defer minor.Stop()

	s.runCycle(ctx, model.GenerationContext{
		UpdateType: model.UpdateMajor,
		Timestamp:  time.Now(),
	})

	for {
		select {
		case <-ctx.Done():
			slog.Info("Update scheduler stopped")
			return
		case <-major.C:
			// A major tick also resets the minor cadence so the two
			// never fire back to back.
			minor.Reset(s.minorEvery)
			s.runCycle(ctx, model.GenerationContext{
				UpdateType: model.UpdateMajor,
				Timestamp:  time.Now(),
			})
		case <-minor.C:
			s.runCycle(ctx, model.GenerationContext{
				UpdateType: model.UpdateMinor,
				Timestamp:  time.Now(),
			})
		case ev := <-s.events:
			s.runCycle(ctx, model.GenerationContext{
				UpdateType: model.UpdateMinor,
				Timestamp:  time.Now(),
				Event:      &ev,
			})
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context, gc model.GenerationContext) {
	res, err := s.runner.GenerateAndSend(ctx, gc)
	switch {
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		// The display is unreachable or the registry is misconfigured.
		// The next tick is our retry cadence.
		slog.Error("Update cycle failed", "type", gc.UpdateType, "error", err)
	case res.Blocked:
		slog.Info("Update cycle blocked", "reason", res.BlockReason)
	default:
		slog.Info("Update cycle complete", "type", gc.UpdateType, "provider", cycleProvider(res))
	}
}

func cycleProvider(res *model.OrchestratorResult) string {
	if res.Content == nil || res.Content.Meta == nil {
		return ""
	}
	return res.Content.Meta.Provider
}
