package store

import (
	"context"

	"flapboard/pkg/model"
)

// ContentStore handles content outcome persistence.
type ContentStore interface {
	SaveContent(ctx context.Context, rec *model.ContentRecord) (string, error)
	GetRecentContent(ctx context.Context, limit int) ([]*model.ContentRecord, error)
}

// StateStore handles persistent application state (circuit flags,
// operator toggles).
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// Store composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	ContentStore
	StateStore

	// Close closes the store connection.
	Close() error
}
