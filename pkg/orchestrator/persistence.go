package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"flapboard/pkg/frame"
	"flapboard/pkg/llm"
	"flapboard/pkg/model"
)

// enqueueRecord hands a record to the persistence worker. It never
// blocks the cycle: with no store configured it is a no-op, and a full
// queue drops the record with a log line.
func (o *Orchestrator) enqueueRecord(rec *model.ContentRecord) {
	if o.store == nil {
		return
	}
	select {
	case o.persistCh <- rec:
	default:
		slog.Warn("Content history queue full, dropping record", "generator", rec.GeneratorID)
	}
}

// persistWorker consumes records in the background. Store errors are
// logged and discarded; they never surface to a cycle.
func (o *Orchestrator) persistWorker() {
	defer o.persistWG.Done()
	for rec := range o.persistCh {
		if o.store == nil {
			continue
		}
		if _, err := o.store.SaveContent(context.Background(), rec); err != nil {
			slog.Warn("Failed to persist content record", "generator", rec.GeneratorID, "error", err)
		}
	}
}

// buildRecord assembles the persisted outcome of a cycle. When fallback
// content was shown, the record still carries the original failure.
func buildRecord(gc model.GenerationContext, reg model.GeneratorRegistration, content *model.GeneratedContent, genErr error, usedFallback bool) *model.ContentRecord {
	rec := &model.ContentRecord{
		Text:          content.Text,
		CycleType:     gc.UpdateType,
		GeneratedAt:   gc.Timestamp,
		DispatchedAt:  time.Now(),
		Status:        model.StatusSuccess,
		GeneratorID:   reg.ID,
		GeneratorName: reg.DisplayName,
		Tier:          reg.Priority,
	}

	if meta := content.Meta; meta != nil {
		rec.Provider = meta.Provider
		rec.Model = meta.Model
		rec.TokensUsed = meta.TokensUsed
		rec.FailedOver = meta.FailedOver
		rec.PrimaryProvider = meta.PrimaryProvider
	}

	if usedFallback && genErr != nil {
		rec.Status = model.StatusFailed
		rec.ErrorKind = errorKind(genErr)
		rec.ErrorMessage = genErr.Error()

		var pe *llm.ProviderError
		if errors.As(genErr, &pe) && pe.Provider != "" {
			rec.Provider = pe.Provider
		}
	}

	return rec
}

func errorKind(err error) string {
	var ve *frame.ValidationError
	if errors.As(err, &ve) {
		return "validation"
	}
	var pe *llm.ProviderError
	if errors.As(err, &pe) {
		return string(pe.Kind)
	}
	return "generic"
}
