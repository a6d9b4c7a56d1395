package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"flapboard/pkg/db"
	"flapboard/pkg/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	s := NewSQLiteStore(d)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveContent_AssignsID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &model.ContentRecord{
		Text:        "HELLO",
		CycleType:   model.UpdateMajor,
		Status:      model.StatusSuccess,
		GeneratorID: "ai-message",
	}
	id, err := s.SaveContent(ctx, rec)
	if err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}
	if id == "" {
		t.Error("expected generated id")
	}
	if rec.ID != id {
		t.Errorf("record id %q != returned id %q", rec.ID, id)
	}
}

func TestSaveAndGetRecentContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	rec := &model.ContentRecord{
		Text:            "STANDBY MESSAGE",
		CycleType:       model.UpdateMinor,
		GeneratedAt:     now,
		DispatchedAt:    now,
		Status:          model.StatusFailed,
		GeneratorID:     "ai-message",
		GeneratorName:   "AI Message",
		Tier:            model.TierNormal,
		Provider:        "gemini",
		Model:           "gemini-2.0-flash",
		TokensUsed:      42,
		FailedOver:      true,
		PrimaryProvider: "gemini",
		ErrorKind:       "server",
		ErrorMessage:    "HTTP 503",
	}
	if _, err := s.SaveContent(ctx, rec); err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}

	recs, err := s.GetRecentContent(ctx, 5)
	if err != nil {
		t.Fatalf("GetRecentContent failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}

	got := recs[0]
	if got.Text != rec.Text || got.Status != rec.Status || got.Provider != rec.Provider {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.CycleType != model.UpdateMinor || got.Tier != model.TierNormal {
		t.Errorf("typed fields wrong: cycle=%q tier=%d", got.CycleType, got.Tier)
	}
	if !got.FailedOver || got.PrimaryProvider != "gemini" {
		t.Errorf("failover fields wrong: %+v", got)
	}
	if got.ErrorKind != "server" || got.ErrorMessage != "HTTP 503" {
		t.Errorf("error fields wrong: %+v", got)
	}
	if got.TokensUsed != 42 {
		t.Errorf("tokens = %d", got.TokensUsed)
	}
}

func TestGetRecentContent_Limit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := &model.ContentRecord{Text: "X", Status: model.StatusSuccess}
		if _, err := s.SaveContent(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := s.GetRecentContent(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Errorf("got %d records, want 3", len(recs))
	}
}

func TestStateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, ok := s.GetState(ctx, "missing"); ok {
		t.Error("missing key should not be found")
	}

	if err := s.SetState(ctx, "circuit:master", "off"); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	val, ok := s.GetState(ctx, "circuit:master")
	if !ok || val != "off" {
		t.Errorf("GetState = (%q, %v)", val, ok)
	}

	// Upsert overwrites.
	if err := s.SetState(ctx, "circuit:master", "on"); err != nil {
		t.Fatal(err)
	}
	if val, _ := s.GetState(ctx, "circuit:master"); val != "on" {
		t.Errorf("upsert failed, val = %q", val)
	}

	if err := s.DeleteState(ctx, "circuit:master"); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.GetState(ctx, "circuit:master"); ok {
		t.Error("key survived DeleteState")
	}
}
