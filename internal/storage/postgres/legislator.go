package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"littlebird/internal/domain"
)

const legislatorColumns = `
	id, external_id, name, given_name, family_name, party, chamber, district,
	title, jurisdiction, email, image_url, url, role_data, raw,
	upstream_updated_at, synced_at, created_at, updated_at`

var legislatorOrderColumns = map[string]string{
	"name":       "name",
	"party":      "party",
	"chamber":    "chamber",
	"district":   "district",
	"updated_at": "updated_at",
}

type LegislatorStore struct {
	db *sqlx.DB
}

func NewLegislatorStore(db *sqlx.DB) *LegislatorStore {
	return &LegislatorStore{db: db}
}

func (s *LegislatorStore) FindByExternalID(ctx context.Context, externalID string) (int64, bool, error) {
	var id int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &id,
		"SELECT id FROM legislators WHERE external_id = $1", externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *LegislatorStore) Insert(ctx context.Context, l *domain.Legislator) (int64, error) {
	query := `
		INSERT INTO legislators (
			external_id, name, given_name, family_name, party, chamber, district,
			title, jurisdiction, email, image_url, url, role_data, raw,
			upstream_updated_at, synced_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13::jsonb, $14::jsonb, $15, $16
		)
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		l.ExternalID,
		l.Name,
		l.GivenName,
		l.FamilyName,
		l.Party,
		l.Chamber,
		l.District,
		l.Title,
		l.Jurisdiction,
		l.Email,
		l.ImageURL,
		l.URL,
		jsonText(l.RoleData, "{}"),
		jsonText(l.Raw, "{}"),
		l.UpstreamUpdated,
		syncedAt(l.SyncedAt),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *LegislatorStore) Update(ctx context.Context, id int64, l *domain.Legislator) error {
	query := `
		UPDATE legislators SET
			external_id = $2,
			name = $3,
			given_name = $4,
			family_name = $5,
			party = $6,
			chamber = $7,
			district = $8,
			title = $9,
			jurisdiction = $10,
			email = $11,
			image_url = $12,
			url = $13,
			role_data = $14::jsonb,
			raw = $15::jsonb,
			upstream_updated_at = $16,
			synced_at = $17,
			updated_at = NOW()
		WHERE id = $1`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		id,
		l.ExternalID,
		l.Name,
		l.GivenName,
		l.FamilyName,
		l.Party,
		l.Chamber,
		l.District,
		l.Title,
		l.Jurisdiction,
		l.Email,
		l.ImageURL,
		l.URL,
		jsonText(l.RoleData, "{}"),
		jsonText(l.Raw, "{}"),
		l.UpstreamUpdated,
		syncedAt(l.SyncedAt),
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *LegislatorStore) Get(ctx context.Context, id int64) (*domain.Legislator, error) {
	var l domain.Legislator
	err := s.db.GetContext(ctx, &l, "SELECT "+legislatorColumns+" FROM legislators WHERE id = $1", id)
	if err != nil {
		return nil, mapError(err)
	}
	return &l, nil
}

func (s *LegislatorStore) List(ctx context.Context, f domain.ListFilter) ([]domain.Legislator, error) {
	var w where
	if f.Query != "" {
		w.add("name ILIKE ?", likePattern(f.Query))
	}
	if f.Party != "" {
		w.add("party = ?", f.Party)
	}
	if f.Chamber != "" {
		w.add("chamber = ?", f.Chamber)
	}
	if f.Jurisdiction != "" {
		w.add("jurisdiction = ?", f.Jurisdiction)
	}

	limit, offset := limitOffset(f)
	query := "SELECT " + legislatorColumns + " FROM legislators" + w.String() +
		orderBy(f, legislatorOrderColumns, "name") +
		" LIMIT ? OFFSET ?"

	legislators := []domain.Legislator{}
	err := s.db.SelectContext(ctx, &legislators, s.db.Rebind(query), append(w.args, limit, offset)...)
	if err != nil {
		return nil, err
	}
	return legislators, nil
}
