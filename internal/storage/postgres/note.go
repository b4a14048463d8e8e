package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"littlebird/internal/domain"
)

type NoteStore struct {
	db *sqlx.DB
}

func NewNoteStore(db *sqlx.DB) *NoteStore {
	return &NoteStore{db: db}
}

func (s *NoteStore) Create(ctx context.Context, n *domain.Note) error {
	query := `
		INSERT INTO notes (id, user_id, bill_id, legislator_id, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		n.ID, n.UserID, n.BillID, n.LegislatorID, n.Body,
	).Scan(&n.CreatedAt)
	return mapError(err)
}

// List returns the user's notes, newest first, optionally narrowed to one
// bill or legislator.
func (s *NoteStore) List(ctx context.Context, userID uuid.UUID, billID, legislatorID *int64) ([]domain.Note, error) {
	var w where
	w.add("user_id = ?", userID)
	if billID != nil {
		w.add("bill_id = ?", *billID)
	}
	if legislatorID != nil {
		w.add("legislator_id = ?", *legislatorID)
	}

	query := "SELECT id, user_id, bill_id, legislator_id, body, created_at FROM notes" +
		w.String() + " ORDER BY created_at DESC"

	notes := []domain.Note{}
	if err := s.db.SelectContext(ctx, &notes, s.db.Rebind(query), w.args...); err != nil {
		return nil, err
	}
	return notes, nil
}

func (s *NoteStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM notes WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
