package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"littlebird/internal/domain"
)

type SyncStateStore struct {
	db *sqlx.DB
}

func NewSyncStateStore(db *sqlx.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

func (s *SyncStateStore) Get(ctx context.Context, resource string) (*domain.SyncState, error) {
	var state domain.SyncState
	query := `
		SELECT id, resource, last_synced_at, last_created, last_updated, last_total, total_synced
		FROM sync_state
		WHERE resource = $1`

	err := s.db.GetContext(ctx, &state, query, resource)
	if errors.Is(err, sql.ErrNoRows) {
		// never synced
		return &domain.SyncState{Resource: resource}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *SyncStateStore) List(ctx context.Context) ([]domain.SyncState, error) {
	states := []domain.SyncState{}
	err := s.db.SelectContext(ctx, &states, `
		SELECT id, resource, last_synced_at, last_created, last_updated, last_total, total_synced
		FROM sync_state
		ORDER BY resource`)
	if err != nil {
		return nil, err
	}
	return states, nil
}

func (s *SyncStateStore) Update(ctx context.Context, state *domain.SyncState) error {
	query := `
		INSERT INTO sync_state (resource, last_synced_at, last_created, last_updated, last_total, total_synced)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (resource) DO UPDATE SET
			last_synced_at = EXCLUDED.last_synced_at,
			last_created = EXCLUDED.last_created,
			last_updated = EXCLUDED.last_updated,
			last_total = EXCLUDED.last_total,
			total_synced = EXCLUDED.total_synced`

	_, err := s.db.ExecContext(ctx, query,
		state.Resource,
		state.LastSyncedAt,
		state.LastCreated,
		state.LastUpdated,
		state.LastTotal,
		state.TotalSynced,
	)
	return err
}
