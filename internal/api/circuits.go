package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"flapboard/pkg/breaker"
	"flapboard/pkg/registry"
)

// CircuitHandler reads and flips circuits so an operator can pause the
// whole board or a single generator without a restart.
type CircuitHandler struct {
	breaker *breaker.StateBreaker
	reg     *registry.Registry
}

func NewCircuitHandler(b *breaker.StateBreaker, reg *registry.Registry) *CircuitHandler {
	return &CircuitHandler{breaker: b, reg: reg}
}

type circuitStatus struct {
	Master     bool            `json:"master"` // true = closed, cycles run
	Generators map[string]bool `json:"generators"`
}

// HandleStatus reports the master circuit and every registered
// generator's circuit. True means the circuit is closed (allowing).
func (h *CircuitHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := circuitStatus{
		Master:     !h.breaker.IsCircuitOpen(ctx, breaker.MasterCircuit),
		Generators: make(map[string]bool),
	}
	for _, g := range h.reg.GetAll() {
		status.Generators[g.Registration.ID] = h.breaker.IsProviderAvailable(ctx, g.Registration)
	}
	writeJSON(w, status)
}

type circuitRequest struct {
	Name string `json:"name"` // "MASTER" or a generator id
	Open bool   `json:"open"` // true blocks, false allows
}

// HandleSet opens or closes a circuit.
func (h *CircuitHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	var req circuitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "circuit name is required", http.StatusBadRequest)
		return
	}
	if req.Name != breaker.MasterCircuit && h.reg.GetByID(req.Name) == nil {
		http.Error(w, "unknown generator", http.StatusNotFound)
		return
	}

	if err := h.breaker.SetCircuit(r.Context(), req.Name, req.Open); err != nil {
		slog.Error("Failed to set circuit", "name", req.Name, "error", err)
		http.Error(w, "failed to set circuit", http.StatusInternalServerError)
		return
	}

	slog.Info("Circuit changed via API", "name", req.Name, "open", req.Open)
	writeJSON(w, map[string]any{"name": req.Name, "open": req.Open})
}
