package orchestrator

import (
	"context"
	"sync"
	"time"

	"flapboard/pkg/frame"
	"flapboard/pkg/model"
)

type mockBreaker struct {
	masterOff   bool
	unavailable map[string]bool
	gateCalls   int
}

func (m *mockBreaker) IsCircuitOpen(_ context.Context, _ string) bool {
	m.gateCalls++
	return m.masterOff
}

func (m *mockBreaker) IsProviderAvailable(_ context.Context, reg model.GeneratorRegistration) bool {
	return !m.unavailable[reg.ID]
}

type mockDispatcher struct {
	err   error
	grids [][][]int
}

func (m *mockDispatcher) Post(_ context.Context, grid [][]int) error {
	m.grids = append(m.grids, grid)
	return m.err
}

type mockDecorator struct {
	calls int
}

func (m *mockDecorator) Decorate(text string, _ time.Time, _ *model.Metadata, _ *model.FormatOptions) (*model.Layout, []string) {
	m.calls++
	return &model.Layout{Rows: 1, CharacterCodes: [][]int{{len(text)}}}, nil
}

func (m *mockDecorator) ValidateContent(_ *model.GeneratedContent) error { return nil }

type mockStore struct {
	mu      sync.Mutex
	records []*model.ContentRecord
	err     error
}

func (m *mockStore) SaveContent(_ context.Context, rec *model.ContentRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.records = append(m.records, rec)
	return "id-1", nil
}

func (m *mockStore) GetRecentContent(_ context.Context, _ int) ([]*model.ContentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records, nil
}

func (m *mockStore) saved() []*model.ContentRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.ContentRecord, len(m.records))
	copy(out, m.records)
	return out
}

type stubGenerator struct {
	content *model.GeneratedContent
	err     error
	calls   int
}

func (s *stubGenerator) Generate(_ context.Context, _ model.GenerationContext) (*model.GeneratedContent, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.content, nil
}

func (s *stubGenerator) Validate() []string { return nil }

type rejectingValidator struct {
	problems []string
}

func (v *rejectingValidator) ValidateContent(c *model.GeneratedContent) error {
	return &frame.ValidationError{Problems: v.problems, Content: c}
}
