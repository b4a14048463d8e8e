package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littlebird/internal/domain"
)

// memStore is a RowStore keyed by external id.
type memStore[T any] struct {
	mu     sync.Mutex
	key    func(*T) string
	nextID int64
	ids    map[string]int64
	rows   map[int64]T
	failOn map[string]error
}

func newMemStore[T any](key func(*T) string) *memStore[T] {
	return &memStore[T]{
		key:    key,
		ids:    make(map[string]int64),
		rows:   make(map[int64]T),
		failOn: make(map[string]error),
	}
}

func (m *memStore[T]) FindByExternalID(_ context.Context, externalID string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.ids[externalID]
	return id, ok, nil
}

func (m *memStore[T]) Insert(_ context.Context, row *T) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[m.key(row)]; err != nil {
		return 0, err
	}
	m.nextID++
	m.ids[m.key(row)] = m.nextID
	m.rows[m.nextID] = *row
	return m.nextID, nil
}

func (m *memStore[T]) Update(_ context.Context, id int64, row *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[m.key(row)]; err != nil {
		return err
	}
	m.rows[id] = *row
	return nil
}

func (m *memStore[T]) get(externalID string) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[m.ids[externalID]]
	return row, ok
}

func (m *memStore[T]) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBillReconciler(store RowStore[domain.Bill]) *Reconciler[domain.Bill] {
	return NewReconciler(domain.ResourceBills, store, (*domain.Bill).Key, nil, discardLogger())
}

func TestReconcile_InsertThenUpdate(t *testing.T) {
	ctx := context.Background()
	store := newMemStore((*domain.Bill).Key)
	store.ids["b1"] = 1
	store.rows[1] = domain.Bill{ExternalID: "b1", Title: "Old"}
	store.nextID = 1

	r := newBillReconciler(store)
	result := r.Reconcile(ctx, []domain.Bill{
		{ExternalID: "b1", Title: "New"},
		{ExternalID: "b2", Title: "Fresh"},
	})

	assert.Equal(t, domain.SyncResult{Created: 1, Updated: 1, Total: 2}, result)

	b1, ok := store.get("b1")
	require.True(t, ok)
	assert.Equal(t, "New", b1.Title)
	b2, ok := store.get("b2")
	require.True(t, ok)
	assert.Equal(t, "Fresh", b2.Title)
	assert.Equal(t, 2, store.count())
}

func TestReconcile_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemStore((*domain.Bill).Key)
	r := newBillReconciler(store)
	rows := []domain.Bill{{ExternalID: "b1"}, {ExternalID: "b2"}, {ExternalID: "b3"}}

	first := r.Reconcile(ctx, rows)
	second := r.Reconcile(ctx, rows)

	assert.Equal(t, domain.SyncResult{Created: 3, Total: 3}, first)
	assert.Equal(t, domain.SyncResult{Updated: 3, Total: 3}, second)
	assert.Equal(t, 3, store.count())
}

func TestReconcile_DuplicateKeysLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := newMemStore((*domain.Bill).Key)
	r := newBillReconciler(store)

	result := r.Reconcile(ctx, []domain.Bill{
		{ExternalID: "b1", Title: "first"},
		{ExternalID: "b1", Title: "second"},
	})

	assert.Equal(t, domain.SyncResult{Created: 1, Updated: 1, Total: 2}, result)
	b1, _ := store.get("b1")
	assert.Equal(t, "second", b1.Title)
	assert.Equal(t, 1, store.count())
}

func TestReconcile_FailureKeepsEarlierWrites(t *testing.T) {
	ctx := context.Background()
	store := newMemStore((*domain.Bill).Key)
	store.failOn["b2"] = errors.New("value too long")
	r := newBillReconciler(store)

	result := r.Reconcile(ctx, []domain.Bill{
		{ExternalID: "b1"},
		{ExternalID: "b2"},
		{ExternalID: "b3"},
	})

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Failed())
	_, ok := store.get("b1")
	assert.True(t, ok)
	_, ok = store.get("b3")
	assert.True(t, ok)
}

func TestReconcile_EmptyKeyIsFailure(t *testing.T) {
	store := newMemStore((*domain.Legislator).Key)
	r := NewReconciler(domain.ResourceLegislators, store, (*domain.Legislator).Key, nil, discardLogger())

	result := r.Reconcile(context.Background(), []domain.Legislator{{Name: "No ID"}})

	assert.Equal(t, domain.SyncResult{Total: 1}, result)
	assert.Equal(t, 0, store.count())
}

func TestReconcile_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newMemStore((*domain.Bill).Key)
	r := newBillReconciler(store)

	result := r.Reconcile(ctx, []domain.Bill{{ExternalID: "b1"}})

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 0, store.count())
}

func TestSyncService_RepeatSyncWithChangedUpstream(t *testing.T) {
	ctx := context.Background()
	billStore := newMemStore((*domain.Bill).Key)

	src := &staticSource{bills: []domain.Bill{{ExternalID: "b1", Title: "A"}}}
	svc := NewSyncService(SyncServiceConfig{
		Source:           src,
		BillStore:        billStore,
		LegislatorStore:  newMemStore((*domain.Legislator).Key),
		SponsorshipStore: newMemStore((*domain.Sponsorship).Key),
		SyncState:        &memSyncState{},
		Logger:           discardLogger(),
	})

	first, err := svc.SyncBills(ctx, domain.SyncQuery{})
	require.NoError(t, err)
	assert.Equal(t, domain.SyncResult{Created: 1, Total: 1}, *first)

	src.bills = []domain.Bill{
		{ExternalID: "b1", Title: "A-amended"},
		{ExternalID: "b2", Title: "B"},
	}
	second, err := svc.SyncBills(ctx, domain.SyncQuery{})
	require.NoError(t, err)
	assert.Equal(t, domain.SyncResult{Created: 1, Updated: 1, Total: 2}, *second)

	b1, _ := billStore.get("b1")
	assert.Equal(t, "A-amended", b1.Title)
	assert.Equal(t, 2, billStore.count())
}

type staticSource struct {
	bills []domain.Bill
}

func (s *staticSource) ID() string   { return "static" }
func (s *staticSource) Name() string { return "Static" }

func (s *staticSource) FetchBills(context.Context, domain.SyncQuery) ([]domain.Bill, error) {
	return append([]domain.Bill(nil), s.bills...), nil
}

func (s *staticSource) FetchLegislators(context.Context, domain.SyncQuery) ([]domain.Legislator, error) {
	return nil, nil
}

func (s *staticSource) FetchSponsorships(context.Context, domain.SyncQuery) ([]domain.Sponsorship, error) {
	return nil, nil
}

type memSyncState struct {
	mu     sync.Mutex
	states map[string]domain.SyncState
}

func (m *memSyncState) Get(_ context.Context, resource string) (*domain.SyncState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.states[resource]
	state.Resource = resource
	return &state, nil
}

func (m *memSyncState) Update(_ context.Context, state *domain.SyncState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states == nil {
		m.states = make(map[string]domain.SyncState)
	}
	m.states[state.Resource] = *state
	return nil
}
