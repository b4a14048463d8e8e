package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"littlebird/internal/domain"
)

// billRow carries the array columns that domain.Bill leaves untagged.
type billRow struct {
	domain.Bill
	Classification pq.StringArray `db:"classification"`
	Subjects       pq.StringArray `db:"subjects"`
}

func (r billRow) toDomain() domain.Bill {
	b := r.Bill
	b.Classification = []string(r.Classification)
	b.Subjects = []string(r.Subjects)
	return b
}

const billColumns = `
	id, external_id, identifier, title, session, jurisdiction, chamber,
	classification, subjects, status, abstract, url, first_action_date,
	latest_action_date, sponsors_data, actions_data, raw, upstream_updated_at,
	synced_at, created_at, updated_at`

var billOrderColumns = map[string]string{
	"identifier":         "identifier",
	"title":              "title",
	"session":            "session",
	"latest_action_date": "latest_action_date",
	"updated_at":         "updated_at",
	"created_at":         "created_at",
}

type BillStore struct {
	db *sqlx.DB
}

func NewBillStore(db *sqlx.DB) *BillStore {
	return &BillStore{db: db}
}

func (s *BillStore) FindByExternalID(ctx context.Context, externalID string) (int64, bool, error) {
	var id int64
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &id,
		"SELECT id FROM bills WHERE external_id = $1", externalID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func (s *BillStore) Insert(ctx context.Context, b *domain.Bill) (int64, error) {
	query := `
		INSERT INTO bills (
			external_id, identifier, title, session, jurisdiction, chamber,
			classification, subjects, status, abstract, url, first_action_date,
			latest_action_date, sponsors_data, actions_data, raw,
			upstream_updated_at, synced_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14::jsonb, $15::jsonb, $16::jsonb, $17, $18
		)
		RETURNING id`

	var id int64
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		b.ExternalID,
		b.Identifier,
		b.Title,
		b.Session,
		b.Jurisdiction,
		b.Chamber,
		pq.Array(b.Classification),
		pq.Array(b.Subjects),
		b.Status,
		b.Abstract,
		b.URL,
		b.FirstActionDate,
		b.LatestActionDate,
		jsonText(b.SponsorsData, "[]"),
		jsonText(b.ActionsData, "[]"),
		jsonText(b.Raw, "{}"),
		b.UpstreamUpdated,
		syncedAt(b.SyncedAt),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update overwrites every synced column. created_at is left alone.
func (s *BillStore) Update(ctx context.Context, id int64, b *domain.Bill) error {
	query := `
		UPDATE bills SET
			external_id = $2,
			identifier = $3,
			title = $4,
			session = $5,
			jurisdiction = $6,
			chamber = $7,
			classification = $8,
			subjects = $9,
			status = $10,
			abstract = $11,
			url = $12,
			first_action_date = $13,
			latest_action_date = $14,
			sponsors_data = $15::jsonb,
			actions_data = $16::jsonb,
			raw = $17::jsonb,
			upstream_updated_at = $18,
			synced_at = $19,
			updated_at = NOW()
		WHERE id = $1`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		id,
		b.ExternalID,
		b.Identifier,
		b.Title,
		b.Session,
		b.Jurisdiction,
		b.Chamber,
		pq.Array(b.Classification),
		pq.Array(b.Subjects),
		b.Status,
		b.Abstract,
		b.URL,
		b.FirstActionDate,
		b.LatestActionDate,
		jsonText(b.SponsorsData, "[]"),
		jsonText(b.ActionsData, "[]"),
		jsonText(b.Raw, "{}"),
		b.UpstreamUpdated,
		syncedAt(b.SyncedAt),
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Get returns a bill with its sponsorships expanded.
func (s *BillStore) Get(ctx context.Context, id int64) (*domain.Bill, error) {
	var row billRow
	err := s.db.GetContext(ctx, &row, "SELECT "+billColumns+" FROM bills WHERE id = $1", id)
	if err != nil {
		return nil, mapError(err)
	}

	bill := row.toDomain()

	sponsors := []domain.Sponsorship{}
	err = s.db.SelectContext(ctx, &sponsors, `
		SELECT `+sponsorshipColumns+`
		FROM bill_sponsors
		WHERE bill_external_id = $1
		ORDER BY is_primary DESC, name`, bill.ExternalID)
	if err != nil {
		return nil, err
	}
	bill.Sponsors = sponsors

	return &bill, nil
}

func (s *BillStore) List(ctx context.Context, f domain.ListFilter) ([]domain.Bill, error) {
	var w where
	if f.Query != "" {
		p := likePattern(f.Query)
		w.add("(title ILIKE ? OR identifier ILIKE ?)", p, p)
	}
	if f.Session != "" {
		w.add("session = ?", f.Session)
	}
	if f.Jurisdiction != "" {
		w.add("jurisdiction = ?", f.Jurisdiction)
	}
	if f.Chamber != "" {
		w.add("chamber = ?", f.Chamber)
	}

	limit, offset := limitOffset(f)
	query := "SELECT " + billColumns + " FROM bills" + w.String() +
		orderBy(f, billOrderColumns, "latest_action_date") +
		" LIMIT ? OFFSET ?"
	args := append(w.args, limit, offset)

	var rows []billRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	bills := make([]domain.Bill, 0, len(rows))
	for _, r := range rows {
		bills = append(bills, r.toDomain())
	}
	return bills, nil
}

// jsonText hands jsonb parameters to the driver as text; lib/pq would send a
// raw []byte as bytea.
func jsonText(raw []byte, empty string) string {
	if len(raw) == 0 {
		return empty
	}
	return string(raw)
}

func syncedAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
