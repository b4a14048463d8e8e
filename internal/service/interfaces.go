package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"littlebird/internal/domain"
)

// RowStore is the datastore side of the reconciler for one table.
type RowStore[T any] interface {
	FindByExternalID(ctx context.Context, externalID string) (int64, bool, error)
	Insert(ctx context.Context, row *T) (int64, error)
	Update(ctx context.Context, id int64, row *T) error
}

type Source interface {
	ID() string
	Name() string
	FetchBills(ctx context.Context, q domain.SyncQuery) ([]domain.Bill, error)
	FetchLegislators(ctx context.Context, q domain.SyncQuery) ([]domain.Legislator, error)
	FetchSponsorships(ctx context.Context, q domain.SyncQuery) ([]domain.Sponsorship, error)
}

type SyncStateStore interface {
	Get(ctx context.Context, resource string) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
}

type Publisher interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
	Close() error
}

type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type TrackingStore interface {
	UpsertBill(ctx context.Context, t *domain.TrackedBill) error
	DeleteBill(ctx context.Context, userID uuid.UUID, billID int64) error
	ListBills(ctx context.Context, userID uuid.UUID, watchlistOnly bool) ([]domain.TrackedBill, error)
	UpsertLegislator(ctx context.Context, t *domain.TrackedLegislator) error
	DeleteLegislator(ctx context.Context, userID uuid.UUID, legislatorID int64) error
	ListLegislators(ctx context.Context, userID uuid.UUID, watchlistOnly bool) ([]domain.TrackedLegislator, error)
}

type ClientStore interface {
	Create(ctx context.Context, c *domain.Client) error
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.Client, error)
	List(ctx context.Context, userID uuid.UUID) ([]domain.Client, error)
	Update(ctx context.Context, c *domain.Client) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	LinkBill(ctx context.Context, clientID uuid.UUID, billID int64) error
	UnlinkBill(ctx context.Context, clientID uuid.UUID, billID int64) error
}

type NoteStore interface {
	Create(ctx context.Context, n *domain.Note) error
	List(ctx context.Context, userID uuid.UUID, billID, legislatorID *int64) ([]domain.Note, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
