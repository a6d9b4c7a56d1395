package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"flapboard/pkg/db"
	"flapboard/pkg/model"
)

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Content ---

func (s *SQLiteStore) SaveContent(ctx context.Context, rec *model.ContentRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO content_history
		 (id, text, cycle_type, generated_at, dispatched_at, status, generator_id, generator_name, tier,
		  provider, model, tokens_used, failed_over, primary_provider, error_kind, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Text, string(rec.CycleType), rec.GeneratedAt, rec.DispatchedAt, rec.Status,
		rec.GeneratorID, rec.GeneratorName, int(rec.Tier),
		rec.Provider, rec.Model, rec.TokensUsed, rec.FailedOver, rec.PrimaryProvider,
		rec.ErrorKind, rec.ErrorMessage,
	)
	if err != nil {
		return "", err
	}

	slog.Debug("Content record saved", "id", rec.ID, "status", rec.Status, "generator", rec.GeneratorID)
	return rec.ID, nil
}

func (s *SQLiteStore) GetRecentContent(ctx context.Context, limit int) ([]*model.ContentRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, cycle_type, generated_at, dispatched_at, status, generator_id, generator_name, tier,
		        provider, model, tokens_used, failed_over, primary_provider, error_kind, error_message
		 FROM content_history ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*model.ContentRecord
	for rows.Next() {
		var r model.ContentRecord
		var cycleType string
		var tier int
		var generatedAt, dispatchedAt sql.NullTime
		var provider, primaryProvider, errKind, errMsg sql.NullString

		err := rows.Scan(
			&r.ID, &r.Text, &cycleType, &generatedAt, &dispatchedAt, &r.Status,
			&r.GeneratorID, &r.GeneratorName, &tier,
			&provider, &r.Model, &r.TokensUsed, &r.FailedOver, &primaryProvider,
			&errKind, &errMsg,
		)
		if err != nil {
			return nil, err
		}

		r.CycleType = model.UpdateType(cycleType)
		r.Tier = model.PriorityTier(tier)
		if generatedAt.Valid {
			r.GeneratedAt = generatedAt.Time
		}
		if dispatchedAt.Valid {
			r.DispatchedAt = dispatchedAt.Time
		}
		r.Provider = provider.String
		r.PrimaryProvider = primaryProvider.String
		r.ErrorKind = errKind.String
		r.ErrorMessage = errMsg.String

		recs = append(recs, &r)
	}

	return recs, rows.Err()
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	row := s.db.QueryRowContext(ctx, `SELECT val FROM state WHERE key = ?`, key)

	var val string
	if err := row.Scan(&val); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("Failed to read state", "key", key, "error", err)
		}
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO state (key, val, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET val = excluded.val, updated_at = CURRENT_TIMESTAMP`,
		key, val)
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE key = ?`, key)
	return err
}
