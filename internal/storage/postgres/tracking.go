package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"littlebird/internal/domain"
)

type TrackingStore struct {
	db *sqlx.DB
}

func NewTrackingStore(db *sqlx.DB) *TrackingStore {
	return &TrackingStore{db: db}
}

func (s *TrackingStore) UpsertBill(ctx context.Context, t *domain.TrackedBill) error {
	query := `
		INSERT INTO user_bills (user_id, bill_id, position, priority, watchlist)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, bill_id) DO UPDATE SET
			position = EXCLUDED.position,
			priority = EXCLUDED.priority,
			watchlist = EXCLUDED.watchlist,
			updated_at = NOW()
		RETURNING created_at, updated_at`

	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		t.UserID, t.BillID, t.Position, t.Priority, t.Watchlist,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	return mapError(err)
}

func (s *TrackingStore) DeleteBill(ctx context.Context, userID uuid.UUID, billID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM user_bills WHERE user_id = $1 AND bill_id = $2", userID, billID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type trackedBillRow struct {
	domain.TrackedBill
	BillJSON []byte `db:"bill"`
}

// ListBills returns the user's tracked bills with the bill row embedded.
func (s *TrackingStore) ListBills(ctx context.Context, userID uuid.UUID, watchlistOnly bool) ([]domain.TrackedBill, error) {
	query := `
		SELECT ub.user_id, ub.bill_id, ub.position, ub.priority, ub.watchlist,
			ub.created_at, ub.updated_at,
			json_build_object(
				'id', b.id,
				'external_id', b.external_id,
				'identifier', b.identifier,
				'title', b.title,
				'session', b.session,
				'jurisdiction', b.jurisdiction,
				'chamber', b.chamber,
				'status', b.status,
				'latest_action_date', b.latest_action_date
			) AS bill
		FROM user_bills ub
		JOIN bills b ON b.id = ub.bill_id
		WHERE ub.user_id = $1 AND ($2 = FALSE OR ub.watchlist)
		ORDER BY ub.updated_at DESC`

	var rows []trackedBillRow
	if err := s.db.SelectContext(ctx, &rows, query, userID, watchlistOnly); err != nil {
		return nil, err
	}

	out := make([]domain.TrackedBill, 0, len(rows))
	for _, r := range rows {
		t := r.TrackedBill
		var bill domain.Bill
		if err := json.Unmarshal(r.BillJSON, &bill); err != nil {
			return nil, err
		}
		t.Bill = &bill
		out = append(out, t)
	}
	return out, nil
}

func (s *TrackingStore) UpsertLegislator(ctx context.Context, t *domain.TrackedLegislator) error {
	query := `
		INSERT INTO user_legislators (user_id, legislator_id, priority, watchlist)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, legislator_id) DO UPDATE SET
			priority = EXCLUDED.priority,
			watchlist = EXCLUDED.watchlist,
			updated_at = NOW()
		RETURNING created_at, updated_at`

	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		t.UserID, t.LegislatorID, t.Priority, t.Watchlist,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	return mapError(err)
}

func (s *TrackingStore) DeleteLegislator(ctx context.Context, userID uuid.UUID, legislatorID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM user_legislators WHERE user_id = $1 AND legislator_id = $2", userID, legislatorID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type trackedLegislatorRow struct {
	domain.TrackedLegislator
	LegislatorJSON []byte `db:"legislator"`
}

func (s *TrackingStore) ListLegislators(ctx context.Context, userID uuid.UUID, watchlistOnly bool) ([]domain.TrackedLegislator, error) {
	query := `
		SELECT ul.user_id, ul.legislator_id, ul.priority, ul.watchlist,
			ul.created_at, ul.updated_at,
			json_build_object(
				'id', l.id,
				'external_id', l.external_id,
				'name', l.name,
				'party', l.party,
				'chamber', l.chamber,
				'district', l.district,
				'title', l.title,
				'jurisdiction', l.jurisdiction
			) AS legislator
		FROM user_legislators ul
		JOIN legislators l ON l.id = ul.legislator_id
		WHERE ul.user_id = $1 AND ($2 = FALSE OR ul.watchlist)
		ORDER BY ul.updated_at DESC`

	var rows []trackedLegislatorRow
	if err := s.db.SelectContext(ctx, &rows, query, userID, watchlistOnly); err != nil {
		return nil, err
	}

	out := make([]domain.TrackedLegislator, 0, len(rows))
	for _, r := range rows {
		t := r.TrackedLegislator
		var leg domain.Legislator
		if err := json.Unmarshal(r.LegislatorJSON, &leg); err != nil {
			return nil, err
		}
		t.Legislator = &leg
		out = append(out, t)
	}
	return out, nil
}
