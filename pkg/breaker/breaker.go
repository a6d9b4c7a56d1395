package breaker

import (
	"context"

	"flapboard/pkg/model"
	"flapboard/pkg/store"
)

// Circuit names and state keys. A circuit is open (blocking) when its
// state key holds "off"; anything else, or no key at all, means closed.
const (
	MasterCircuit = "MASTER"

	keyMaster         = "circuit:master"
	keyProviderPrefix = "circuit:generator:"
	valOff            = "off"
)

// StateBreaker answers circuit queries from the persistent state store,
// so an operator or outage detector can flip circuits without a
// restart. Read-only from the orchestrator's point of view.
type StateBreaker struct {
	st store.StateStore
}

// New creates a StateBreaker over the given state store.
func New(st store.StateStore) *StateBreaker {
	return &StateBreaker{st: st}
}

// IsCircuitOpen reports whether the named circuit blocks generation.
func (b *StateBreaker) IsCircuitOpen(ctx context.Context, name string) bool {
	key := keyMaster
	if name != MasterCircuit {
		key = keyProviderPrefix + name
	}
	val, ok := b.st.GetState(ctx, key)
	return ok && val == valOff
}

// IsProviderAvailable reports whether the selected generator's circuit
// allows generation.
func (b *StateBreaker) IsProviderAvailable(ctx context.Context, reg model.GeneratorRegistration) bool {
	val, ok := b.st.GetState(ctx, keyProviderPrefix+reg.ID)
	return !ok || val != valOff
}

// SetCircuit opens or closes a circuit. Used by operator tooling.
func (b *StateBreaker) SetCircuit(ctx context.Context, name string, open bool) error {
	key := keyMaster
	if name != MasterCircuit {
		key = keyProviderPrefix + name
	}
	if open {
		return b.st.SetState(ctx, key, valOff)
	}
	return b.st.DeleteState(ctx, key)
}
