package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"flapboard/pkg/model"
)

// Notifier queues an inbound event for a display update. Satisfied by
// core.Scheduler.
type Notifier interface {
	Notify(ev model.InboundEvent) bool
}

// EventHandler accepts external events that trigger notification
// content on the board.
type EventHandler struct {
	notifier Notifier
}

func NewEventHandler(n Notifier) *EventHandler {
	return &EventHandler{notifier: n}
}

type eventRequest struct {
	Type     string `json:"type"`
	EntityID string `json:"entity_id"`
}

// HandleInject queues an event for an immediate update cycle. Responds
// 202 when queued, 503 when the event queue is full.
func (h *EventHandler) HandleInject(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Type == "" && req.EntityID == "" {
		http.Error(w, "event requires a type or entity_id", http.StatusBadRequest)
		return
	}

	ev := model.InboundEvent{Type: req.Type, EntityID: req.EntityID}
	if !h.notifier.Notify(ev) {
		http.Error(w, "event queue full", http.StatusServiceUnavailable)
		return
	}

	slog.Info("Event accepted via API", "type", req.Type, "entity", req.EntityID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "queued"}); err != nil {
		slog.Error("Failed to write event response", "error", err)
	}
}
