package model

import (
	"time"
)

// UpdateType distinguishes full refresh cycles from lightweight ones.
type UpdateType string

const (
	UpdateMajor UpdateType = "major"
	UpdateMinor UpdateType = "minor"
)

// PriorityTier orders generator selection. Lower values win.
type PriorityTier int

const (
	TierNotification PriorityTier = 0
	TierNormal       PriorityTier = 2
	TierFallback     PriorityTier = 3
)

// String returns a human-readable tier name for logs and records.
func (t PriorityTier) String() string {
	switch t {
	case TierNotification:
		return "notification"
	case TierNormal:
		return "normal"
	case TierFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// CostTier is a coarse classification of which model class a generator
// should use. Orthogonal to PriorityTier.
type CostTier string

const (
	CostEconomy  CostTier = "economy"
	CostStandard CostTier = "standard"
	CostPremium  CostTier = "premium"
)

// InboundEvent describes an external event that may trigger a
// notification-tier generator.
type InboundEvent struct {
	Type     string
	EntityID string
}

// Key returns the lookup key used to match notification patterns.
// Type is preferred over EntityID.
func (e *InboundEvent) Key() string {
	if e == nil {
		return ""
	}
	if e.Type != "" {
		return e.Type
	}
	return e.EntityID
}

// GenerationContext carries everything a single update cycle needs.
// It is created per cycle by the scheduler and never mutated.
type GenerationContext struct {
	UpdateType  UpdateType
	Timestamp   time.Time
	Event       *InboundEvent
	GeneratorID string // direct lookup, bypasses tier selection when set and known
	PromptsOnly bool   // build content but skip dispatch/persist (preview)
}

// FormatOptions tweak how text content is placed on the board.
type FormatOptions struct {
	Align    string `yaml:"align"` // "left" or "center"
	ShowTime bool   `yaml:"show_time"`
}

// GeneratorRegistration describes a content source. Created at
// bootstrap, lives for the process lifetime.
type GeneratorRegistration struct {
	ID           string
	DisplayName  string
	Priority     PriorityTier
	Cost         CostTier
	AppliesFrame bool
	EventPattern string // regex matched against InboundEvent.Key()
	Format       *FormatOptions
	Tags         []string
}

// OutputMode declares whether a generator produced plain text or a
// ready-made character layout.
type OutputMode string

const (
	ModeText   OutputMode = "text"
	ModeLayout OutputMode = "layout"
)

// Layout is a display-ready character grid.
type Layout struct {
	Rows           int
	CharacterCodes [][]int
}

// Metadata records how a piece of content was produced.
type Metadata struct {
	Provider        string
	Model           string
	Cost            CostTier
	TokensUsed      int
	FailedOver      bool
	PrimaryProvider string
	PrimaryError    string
	UserPrompt      string
}

// GeneratedContent is the output of one generation attempt.
type GeneratedContent struct {
	Text   string
	Mode   OutputMode
	Layout *Layout
	Meta   *Metadata
}

// CircuitState is a read-only snapshot of the external breaker,
// reported back to callers when a cycle is blocked.
type CircuitState struct {
	Master    bool
	Providers map[string]bool
}

// OrchestratorResult is the outcome of one update cycle.
type OrchestratorResult struct {
	Success     bool
	Content     *GeneratedContent
	Blocked     bool
	BlockReason string
	Circuit     *CircuitState
}

// ContentRecord is the persisted outcome of a cycle. On fallback the
// record carries the original failure even though content was shown.
type ContentRecord struct {
	ID              string
	Text            string
	CycleType       UpdateType
	GeneratedAt     time.Time
	DispatchedAt    time.Time
	Status          string // "success" or "failed"
	GeneratorID     string
	GeneratorName   string
	Tier            PriorityTier
	Provider        string
	Model           string
	TokensUsed      int
	FailedOver      bool
	PrimaryProvider string
	ErrorKind       string
	ErrorMessage    string
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)
