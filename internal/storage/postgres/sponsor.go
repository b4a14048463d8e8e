package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"littlebird/internal/domain"
)

const sponsorshipColumns = `
	id, external_id, bill_external_id, person_external_id, name,
	classification, is_primary, synced_at`

type SponsorshipStore struct {
	db *sqlx.DB
}

func NewSponsorshipStore(db *sqlx.DB) *SponsorshipStore {
	return &SponsorshipStore{db: db}
}

func (s *SponsorshipStore) FindByExternalID(ctx context.Context, externalID string) (int64, bool, error) {
	var id int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &id,
		"SELECT id FROM bill_sponsors WHERE external_id = $1", externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *SponsorshipStore) Insert(ctx context.Context, sp *domain.Sponsorship) (int64, error) {
	query := `
		INSERT INTO bill_sponsors (
			external_id, bill_external_id, person_external_id, name,
			classification, is_primary, synced_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		sp.ExternalID,
		sp.BillExternalID,
		sp.PersonExternalID,
		sp.Name,
		sp.Classification,
		sp.Primary,
		syncedAt(sp.SyncedAt),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SponsorshipStore) Update(ctx context.Context, id int64, sp *domain.Sponsorship) error {
	query := `
		UPDATE bill_sponsors SET
			external_id = $2,
			bill_external_id = $3,
			person_external_id = $4,
			name = $5,
			classification = $6,
			is_primary = $7,
			synced_at = $8
		WHERE id = $1`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		id,
		sp.ExternalID,
		sp.BillExternalID,
		sp.PersonExternalID,
		sp.Name,
		sp.Classification,
		sp.Primary,
		syncedAt(sp.SyncedAt),
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
