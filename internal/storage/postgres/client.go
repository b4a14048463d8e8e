package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"littlebird/internal/domain"
)

type ClientStore struct {
	db *sqlx.DB
}

func NewClientStore(db *sqlx.DB) *ClientStore {
	return &ClientStore{db: db}
}

func (s *ClientStore) Create(ctx context.Context, c *domain.Client) error {
	query := `
		INSERT INTO clients (id, user_id, name, industry, contact_name, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		c.ID, c.UserID, c.Name, c.Industry, c.ContactName, c.Email,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return mapError(err)
}

// Get returns the client with its linked bills. Clients owned by another
// user are reported as not found.
func (s *ClientStore) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Client, error) {
	var c domain.Client
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &c, `
		SELECT id, user_id, name, industry, contact_name, email, created_at, updated_at
		FROM clients
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, mapError(err)
	}

	var rows []billRow
	err = sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, `
		SELECT `+prefixed("b", billColumns)+`
		FROM client_bills cb
		JOIN bills b ON b.id = cb.bill_id
		WHERE cb.client_id = $1
		ORDER BY b.identifier`, id)
	if err != nil {
		return nil, err
	}

	c.Bills = make([]domain.Bill, 0, len(rows))
	for _, r := range rows {
		c.Bills = append(c.Bills, r.toDomain())
	}
	return &c, nil
}

func (s *ClientStore) List(ctx context.Context, userID uuid.UUID) ([]domain.Client, error) {
	clients := []domain.Client{}
	err := s.db.SelectContext(ctx, &clients, `
		SELECT id, user_id, name, industry, contact_name, email, created_at, updated_at
		FROM clients
		WHERE user_id = $1
		ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *ClientStore) Update(ctx context.Context, c *domain.Client) error {
	query := `
		UPDATE clients SET
			name = $3,
			industry = $4,
			contact_name = $5,
			email = $6,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`

	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		c.ID, c.UserID, c.Name, c.Industry, c.ContactName, c.Email,
	).Scan(&c.UpdatedAt)
	return mapError(err)
}

func (s *ClientStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM clients WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// LinkBill is idempotent. An unknown bill id yields ErrNotFound.
func (s *ClientStore) LinkBill(ctx context.Context, clientID uuid.UUID, billID int64) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO client_bills (client_id, bill_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, clientID, billID)
	return mapError(err)
}

func (s *ClientStore) UnlinkBill(ctx context.Context, clientID uuid.UUID, billID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM client_bills WHERE client_id = $1 AND bill_id = $2", clientID, billID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
