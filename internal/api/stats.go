package api

import (
	"net/http"

	"flapboard/pkg/tracker"
)

// StatsHandler exposes per-target transport counters.
type StatsHandler struct {
	tracker *tracker.Tracker
}

func NewStatsHandler(t *tracker.Tracker) *StatsHandler {
	return &StatsHandler{tracker: t}
}

// TargetStatsDTO mirrors tracker.TargetStats on the wire.
type TargetStatsDTO struct {
	Success    int64 `json:"success"`
	Failures   int64 `json:"failures"`
	FailedOver int64 `json:"failed_over"`
	Retries    int64 `json:"retries"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]TargetStatsDTO)
	for target, s := range h.tracker.Snapshot() {
		out[target] = TargetStatsDTO{
			Success:    s.Success,
			Failures:   s.Failures,
			FailedOver: s.FailedOver,
			Retries:    s.Retries,
		}
	}
	writeJSON(w, out)
}
