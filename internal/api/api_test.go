package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"flapboard/pkg/breaker"
	"flapboard/pkg/model"
	"flapboard/pkg/registry"
	"flapboard/pkg/tracker"
)

type stubNotifier struct {
	events []model.InboundEvent
	full   bool
}

func (s *stubNotifier) Notify(ev model.InboundEvent) bool {
	if s.full {
		return false
	}
	s.events = append(s.events, ev)
	return true
}

type stubContentStore struct {
	recs []*model.ContentRecord
}

func (s *stubContentStore) SaveContent(_ context.Context, rec *model.ContentRecord) (string, error) {
	s.recs = append(s.recs, rec)
	return rec.ID, nil
}

func (s *stubContentStore) GetRecentContent(_ context.Context, limit int) ([]*model.ContentRecord, error) {
	if limit > len(s.recs) {
		limit = len(s.recs)
	}
	return s.recs[:limit], nil
}

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

type noopGenerator struct{}

func (noopGenerator) Generate(_ context.Context, _ model.GenerationContext) (*model.GeneratedContent, error) {
	return &model.GeneratedContent{Mode: model.ModeText}, nil
}

func (noopGenerator) Validate() []string { return nil }

func testServer(t *testing.T, notifier *stubNotifier, st *stubContentStore, state memoryState) *httptest.Server {
	t.Helper()
	reg := registry.New()
	if err := reg.Register(model.GeneratorRegistration{ID: "ai-message", Priority: model.TierNormal}, noopGenerator{}); err != nil {
		t.Fatal(err)
	}

	srv := NewServer("127.0.0.1:0",
		NewEventHandler(notifier),
		NewHistoryHandler(st),
		NewCircuitHandler(breaker.New(state), reg),
		NewStatsHandler(tracker.New()),
		func() {},
	)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestHealth(t *testing.T) {
	ts := testServer(t, &stubNotifier{}, &stubContentStore{}, memoryState{})
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestInjectEvent(t *testing.T) {
	notifier := &stubNotifier{}
	ts := testServer(t, notifier, &stubContentStore{}, memoryState{})

	resp, err := http.Post(ts.URL+"/api/events", "application/json",
		strings.NewReader(`{"type":"visitor.arrived","entity_id":"ALICE"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(notifier.events) != 1 || notifier.events[0].Type != "visitor.arrived" {
		t.Errorf("events = %+v", notifier.events)
	}
}

func TestInjectEvent_Validation(t *testing.T) {
	ts := testServer(t, &stubNotifier{}, &stubContentStore{}, memoryState{})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", "{", http.StatusBadRequest},
		{"empty event", "{}", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/events", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestInjectEvent_QueueFull(t *testing.T) {
	ts := testServer(t, &stubNotifier{full: true}, &stubContentStore{}, memoryState{})

	resp, err := http.Post(ts.URL+"/api/events", "application/json",
		strings.NewReader(`{"type":"e"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestHistory(t *testing.T) {
	st := &stubContentStore{recs: []*model.ContentRecord{
		{ID: "1", Text: "HELLO", Status: model.StatusSuccess, Tier: model.TierNormal},
		{ID: "2", Text: "STANDBY", Status: model.StatusFailed, Tier: model.TierFallback, ErrorKind: "server"},
	}}
	ts := testServer(t, &stubNotifier{}, st, memoryState{})

	resp, err := http.Get(ts.URL + "/api/history?limit=2")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var dtos []ContentRecordDTO
	if err := json.NewDecoder(resp.Body).Decode(&dtos); err != nil {
		t.Fatal(err)
	}
	if len(dtos) != 2 {
		t.Fatalf("got %d records", len(dtos))
	}
	if dtos[0].Text != "HELLO" || dtos[0].Tier != "normal" {
		t.Errorf("dto = %+v", dtos[0])
	}
	if dtos[1].ErrorKind != "server" {
		t.Errorf("dto = %+v", dtos[1])
	}
}

func TestHistory_BadLimit(t *testing.T) {
	ts := testServer(t, &stubNotifier{}, &stubContentStore{}, memoryState{})
	resp, err := http.Get(ts.URL + "/api/history?limit=nope")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestCircuits(t *testing.T) {
	state := memoryState{}
	ts := testServer(t, &stubNotifier{}, &stubContentStore{}, state)

	// Everything starts closed (allowing).
	resp, err := http.Get(ts.URL + "/api/circuits")
	if err != nil {
		t.Fatal(err)
	}
	var status struct {
		Master     bool            `json:"master"`
		Generators map[string]bool `json:"generators"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&status)
	resp.Body.Close()
	if !status.Master || !status.Generators["ai-message"] {
		t.Errorf("initial status = %+v", status)
	}

	// Open the master circuit.
	resp, err = http.Post(ts.URL+"/api/circuits", "application/json",
		strings.NewReader(`{"name":"MASTER","open":true}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set status = %d", resp.StatusCode)
	}
	if state["circuit:master"] != "off" {
		t.Errorf("state = %v", state)
	}

	// Unknown generator is rejected.
	resp, err = http.Post(ts.URL+"/api/circuits", "application/json",
		strings.NewReader(`{"name":"nope","open":true}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown generator status = %d", resp.StatusCode)
	}
}

func TestStats(t *testing.T) {
	ts := testServer(t, &stubNotifier{}, &stubContentStore{}, memoryState{})
	resp, err := http.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
