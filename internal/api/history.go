package api

import (
	"net/http"
	"strconv"
	"time"

	"flapboard/pkg/model"
	"flapboard/pkg/store"
)

// HistoryHandler exposes recent content outcomes.
type HistoryHandler struct {
	store store.ContentStore
}

func NewHistoryHandler(st store.ContentStore) *HistoryHandler {
	return &HistoryHandler{store: st}
}

// ContentRecordDTO is the wire form of a persisted cycle outcome.
type ContentRecordDTO struct {
	ID              string    `json:"id"`
	Text            string    `json:"text"`
	CycleType       string    `json:"cycle_type"`
	GeneratedAt     time.Time `json:"generated_at"`
	DispatchedAt    time.Time `json:"dispatched_at"`
	Status          string    `json:"status"`
	GeneratorID     string    `json:"generator_id"`
	GeneratorName   string    `json:"generator_name"`
	Tier            string    `json:"tier"`
	Provider        string    `json:"provider,omitempty"`
	Model           string    `json:"model,omitempty"`
	TokensUsed      int       `json:"tokens_used,omitempty"`
	FailedOver      bool      `json:"failed_over,omitempty"`
	PrimaryProvider string    `json:"primary_provider,omitempty"`
	ErrorKind       string    `json:"error_kind,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
}

// HandleRecent returns the most recent content records, newest first.
// Accepts an optional ?limit= query parameter.
func (h *HistoryHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 || n > 500 {
			http.Error(w, "limit must be between 1 and 500", http.StatusBadRequest)
			return
		}
		limit = n
	}

	recs, err := h.store.GetRecentContent(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed to read history", http.StatusInternalServerError)
		return
	}

	dtos := make([]ContentRecordDTO, 0, len(recs))
	for _, rec := range recs {
		dtos = append(dtos, toDTO(rec))
	}
	writeJSON(w, dtos)
}

func toDTO(rec *model.ContentRecord) ContentRecordDTO {
	return ContentRecordDTO{
		ID:              rec.ID,
		Text:            rec.Text,
		CycleType:       string(rec.CycleType),
		GeneratedAt:     rec.GeneratedAt,
		DispatchedAt:    rec.DispatchedAt,
		Status:          rec.Status,
		GeneratorID:     rec.GeneratorID,
		GeneratorName:   rec.GeneratorName,
		Tier:            rec.Tier.String(),
		Provider:        rec.Provider,
		Model:           rec.Model,
		TokensUsed:      rec.TokensUsed,
		FailedOver:      rec.FailedOver,
		PrimaryProvider: rec.PrimaryProvider,
		ErrorKind:       rec.ErrorKind,
		ErrorMessage:    rec.ErrorMessage,
	}
}
