package selector

import (
	"log/slog"
	"math/rand"

	"flapboard/pkg/model"
	"flapboard/pkg/registry"
)

// RandSource yields uniform values in [0,1). Injectable so tests can
// substitute a deterministic sequence.
type RandSource func() float64

// Selector picks exactly one registered generator per cycle by tier
// precedence. Pure function of registry state and context.
type Selector struct {
	reg    *registry.Registry
	random RandSource
}

// New creates a Selector. A nil random source falls back to the
// process PRNG.
func New(reg *registry.Registry, random RandSource) *Selector {
	if random == nil {
		random = rand.Float64
	}
	return &Selector{reg: reg, random: random}
}

// Select returns the generator for this cycle, or nil when nothing is
// registered that can serve it.
//
// Precedence, first match wins:
//  1. direct lookup via GeneratorID (bypasses tiers; unknown id ignored)
//  2. NOTIFICATION, when an inbound event matches a registered pattern
//  3. NORMAL, uniformly random
//  4. FALLBACK, first registered (deterministic so degraded behavior
//     stays predictable)
func (s *Selector) Select(gc model.GenerationContext) *registry.RegisteredGenerator {
	if gc.GeneratorID != "" {
		if g := s.reg.GetByID(gc.GeneratorID); g != nil {
			return g
		}
		slog.Warn("Unknown generator id requested, falling back to tier selection", "id", gc.GeneratorID)
	}

	if key := gc.Event.Key(); key != "" {
		for _, g := range s.reg.GetByEventPattern(key) {
			if g.Registration.Priority == model.TierNotification {
				return g
			}
		}
	}

	if normal := s.reg.GetByPriority(model.TierNormal); len(normal) > 0 {
		idx := int(s.random() * float64(len(normal)))
		if idx >= len(normal) {
			idx = len(normal) - 1
		}
		return normal[idx]
	}

	if fallback := s.reg.GetByPriority(model.TierFallback); len(fallback) > 0 {
		return fallback[0]
	}

	return nil
}
