package breaker

import (
	"context"
	"testing"

	"flapboard/pkg/model"
)

type memoryState map[string]string

func (m memoryState) GetState(_ context.Context, key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m memoryState) SetState(_ context.Context, key, val string) error {
	m[key] = val
	return nil
}

func (m memoryState) DeleteState(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

func TestIsCircuitOpen(t *testing.T) {
	ctx := context.Background()
	st := memoryState{}
	b := New(st)

	if b.IsCircuitOpen(ctx, MasterCircuit) {
		t.Error("absent key means closed circuit")
	}

	st["circuit:master"] = "off"
	if !b.IsCircuitOpen(ctx, MasterCircuit) {
		t.Error("master circuit should be open")
	}

	st["circuit:master"] = "on"
	if b.IsCircuitOpen(ctx, MasterCircuit) {
		t.Error("only the literal off value opens a circuit")
	}
}

func TestIsProviderAvailable(t *testing.T) {
	ctx := context.Background()
	st := memoryState{}
	b := New(st)
	reg := model.GeneratorRegistration{ID: "ai-message"}

	if !b.IsProviderAvailable(ctx, reg) {
		t.Error("absent key means available")
	}

	st["circuit:generator:ai-message"] = "off"
	if b.IsProviderAvailable(ctx, reg) {
		t.Error("generator circuit off means unavailable")
	}

	// Other generators are untouched.
	if !b.IsProviderAvailable(ctx, model.GeneratorRegistration{ID: "static-fallback"}) {
		t.Error("unrelated generator should stay available")
	}
}

func TestSetCircuit(t *testing.T) {
	ctx := context.Background()
	st := memoryState{}
	b := New(st)

	if err := b.SetCircuit(ctx, MasterCircuit, true); err != nil {
		t.Fatal(err)
	}
	if !b.IsCircuitOpen(ctx, MasterCircuit) {
		t.Error("SetCircuit(true) should open the circuit")
	}

	if err := b.SetCircuit(ctx, MasterCircuit, false); err != nil {
		t.Fatal(err)
	}
	if b.IsCircuitOpen(ctx, MasterCircuit) {
		t.Error("SetCircuit(false) should close the circuit")
	}

	if err := b.SetCircuit(ctx, "ai-message", true); err != nil {
		t.Fatal(err)
	}
	if _, ok := st["circuit:generator:ai-message"]; !ok {
		t.Error("generator circuits use the generator key prefix")
	}
}
