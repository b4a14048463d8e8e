package domain

import (
	"time"

	"github.com/google/uuid"
)

// Position is a user's stance on a bill.
type Position string

const (
	PositionSupport Position = "support"
	PositionOppose  Position = "oppose"
	PositionNeutral Position = "neutral"
	PositionWatch   Position = "watch"
)

func (p Position) Valid() bool {
	switch p {
	case PositionSupport, PositionOppose, PositionNeutral, PositionWatch:
		return true
	}
	return false
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// TrackedBill is a user's annotation on a bill. Bill is populated when the
// listing expands the related row.
type TrackedBill struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	BillID    int64     `db:"bill_id" json:"bill_id"`
	Position  Position  `db:"position" json:"position"`
	Priority  Priority  `db:"priority" json:"priority"`
	Watchlist bool      `db:"watchlist" json:"watchlist"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Bill *Bill `db:"-" json:"bill,omitempty"`
}

type TrackedLegislator struct {
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	LegislatorID int64     `db:"legislator_id" json:"legislator_id"`
	Priority     Priority  `db:"priority" json:"priority"`
	Watchlist    bool      `db:"watchlist" json:"watchlist"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	Legislator *Legislator `db:"-" json:"legislator,omitempty"`
}

type Client struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Industry    *string   `db:"industry" json:"industry,omitempty"`
	ContactName *string   `db:"contact_name" json:"contact_name,omitempty"`
	Email       *string   `db:"email" json:"email,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Bills []Bill `db:"-" json:"bills,omitempty"`
}

// Note is attached to exactly one bill or one legislator.
type Note struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	BillID       *int64    `db:"bill_id" json:"bill_id,omitempty"`
	LegislatorID *int64    `db:"legislator_id" json:"legislator_id,omitempty"`
	Body         string    `db:"body" json:"body"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ListFilter selects and orders rows for bill and legislator listings.
type ListFilter struct {
	Query        string
	Session      string
	Jurisdiction string
	Party        string
	Chamber      string
	OrderBy      string
	Descending   bool
	Limit        int
	Offset       int
}
