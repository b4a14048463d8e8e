//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"littlebird/internal/domain"
	"littlebird/testdata/utils"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	db        *sqlx.DB
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	s.db = db

	s.Require().NoError(Migrate(s.db))
}

func (s *PostgresIntegrationSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresIntegrationSuite) SetupTest() {
	_, _ = s.db.ExecContext(s.ctx, "TRUNCATE notes, client_bills, clients, user_bills, user_legislators, bill_sponsors, bills, legislators, sync_state")
}

func TestPostgresIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PostgresIntegrationSuite))
}

func testBill(externalID, title string) *domain.Bill {
	return &domain.Bill{
		ExternalID:       externalID,
		Identifier:       "HB 1",
		Title:            title,
		Session:          "2025",
		Jurisdiction:     "California",
		Chamber:          "lower",
		Classification:   []string{"bill"},
		Subjects:         []string{"Water", "Energy"},
		Status:           "Introduced",
		Abstract:         utils.Ptr("An abstract"),
		LatestActionDate: utils.Ptr("2025-03-01"),
		SponsorsData:     json.RawMessage(`[{"name":"Ann Smith"}]`),
		ActionsData:      json.RawMessage(`[]`),
		Raw:              json.RawMessage(`{"id":"` + externalID + `"}`),
		SyncedAt:         time.Now(),
	}
}

func (s *PostgresIntegrationSuite) TestMigrate_Idempotent() {
	s.NoError(Migrate(s.db))
}

func (s *PostgresIntegrationSuite) TestBillStore_InsertFindUpdate() {
	store := NewBillStore(s.db)

	_, found, err := store.FindByExternalID(s.ctx, "b1")
	s.NoError(err)
	s.False(found)

	id, err := store.Insert(s.ctx, testBill("b1", "Original"))
	s.NoError(err)
	s.Greater(id, int64(0))

	foundID, found, err := store.FindByExternalID(s.ctx, "b1")
	s.NoError(err)
	s.True(found)
	s.Equal(id, foundID)

	s.NoError(store.Update(s.ctx, id, testBill("b1", "Amended")))

	bill, err := store.Get(s.ctx, id)
	s.NoError(err)
	s.Equal("Amended", bill.Title)
	s.Equal([]string{"Water", "Energy"}, bill.Subjects)
	s.JSONEq(`[{"name":"Ann Smith"}]`, string(bill.SponsorsData))
	s.Equal("An abstract", *bill.Abstract)
	s.True(bill.UpdatedAt.After(bill.CreatedAt) || bill.UpdatedAt.Equal(bill.CreatedAt))
}

func (s *PostgresIntegrationSuite) TestBillStore_DuplicateExternalIDRejected() {
	store := NewBillStore(s.db)

	_, err := store.Insert(s.ctx, testBill("b1", "One"))
	s.NoError(err)

	_, err = store.Insert(s.ctx, testBill("b1", "Two"))
	s.Error(err)
	s.Equal(codeUniqueViolation, string(pqCode(err)))
}

func (s *PostgresIntegrationSuite) TestBillStore_UpdateMissingRow() {
	store := NewBillStore(s.db)

	err := store.Update(s.ctx, 999, testBill("b404", "Nope"))
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *PostgresIntegrationSuite) TestBillStore_GetExpandsSponsors() {
	bills := NewBillStore(s.db)
	sponsors := NewSponsorshipStore(s.db)

	id, err := bills.Insert(s.ctx, testBill("b1", "Water"))
	s.Require().NoError(err)

	_, err = sponsors.Insert(s.ctx, &domain.Sponsorship{
		ExternalID:       "b1|p1",
		BillExternalID:   "b1",
		PersonExternalID: utils.Ptr("p1"),
		Name:             "Ann Smith",
		Classification:   "primary",
		Primary:          true,
	})
	s.Require().NoError(err)
	_, err = sponsors.Insert(s.ctx, &domain.Sponsorship{
		ExternalID:     "b1|name:Bob Jones",
		BillExternalID: "b1",
		Name:           "Bob Jones",
		Classification: "cosponsor",
	})
	s.Require().NoError(err)

	bill, err := bills.Get(s.ctx, id)
	s.NoError(err)
	s.Require().Len(bill.Sponsors, 2)
	s.Equal("Ann Smith", bill.Sponsors[0].Name)
	s.Nil(bill.Sponsors[1].PersonExternalID)
}

func (s *PostgresIntegrationSuite) TestBillStore_ListFiltersAndOrders() {
	store := NewBillStore(s.db)

	for i, title := range []string{"Water rights", "Energy grid", "Water quality"} {
		b := testBill(uuid.NewString(), title)
		b.Identifier = []string{"HB 3", "HB 1", "HB 2"}[i]
		_, err := store.Insert(s.ctx, b)
		s.Require().NoError(err)
	}

	bills, err := store.List(s.ctx, domain.ListFilter{Query: "water", OrderBy: "identifier"})
	s.NoError(err)
	s.Require().Len(bills, 2)
	s.Equal("HB 2", bills[0].Identifier)
	s.Equal("HB 3", bills[1].Identifier)

	bills, err = store.List(s.ctx, domain.ListFilter{OrderBy: "identifier; DROP TABLE bills", Limit: 1})
	s.NoError(err)
	s.Len(bills, 1)
}

func (s *PostgresIntegrationSuite) TestLegislatorStore_InsertUpdateList() {
	store := NewLegislatorStore(s.db)

	leg := &domain.Legislator{
		ExternalID:   "p1",
		Name:         "Ann Smith",
		Party:        "Democratic",
		Chamber:      "upper",
		District:     "12",
		Title:        "Senator",
		Jurisdiction: "California",
		RoleData:     json.RawMessage(`{"district":"12"}`),
		Raw:          json.RawMessage(`{}`),
	}
	id, err := store.Insert(s.ctx, leg)
	s.Require().NoError(err)

	leg.Party = "Independent"
	s.NoError(store.Update(s.ctx, id, leg))

	got, err := store.Get(s.ctx, id)
	s.NoError(err)
	s.Equal("Independent", got.Party)

	legs, err := store.List(s.ctx, domain.ListFilter{Party: "Independent"})
	s.NoError(err)
	s.Len(legs, 1)

	_, err = store.Get(s.ctx, id+100)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *PostgresIntegrationSuite) TestSyncStateStore_GetUpdate() {
	store := NewSyncStateStore(s.db)

	state, err := store.Get(s.ctx, "bills")
	s.NoError(err)
	s.Equal("bills", state.Resource)
	s.True(state.LastSyncedAt.IsZero())

	state.LastSyncedAt = time.Now().Truncate(time.Microsecond)
	state.LastCreated = 3
	state.LastTotal = 4
	state.TotalSynced = 3
	s.NoError(store.Update(s.ctx, state))

	state.TotalSynced = 7
	s.NoError(store.Update(s.ctx, state))

	got, err := store.Get(s.ctx, "bills")
	s.NoError(err)
	s.Equal(int64(7), got.TotalSynced)
	s.Equal(3, got.LastCreated)

	states, err := store.List(s.ctx)
	s.NoError(err)
	s.Len(states, 1)
}

func (s *PostgresIntegrationSuite) TestTransactionManager_Rollback() {
	tm := NewTransactionManager(s.db)
	store := NewBillStore(s.db)

	err := tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if _, err := store.Insert(ctx, testBill("tx1", "In tx")); err != nil {
			return err
		}
		return errors.New("abort")
	})
	s.Error(err)

	_, found, err := store.FindByExternalID(s.ctx, "tx1")
	s.NoError(err)
	s.False(found)
}

func (s *PostgresIntegrationSuite) TestTrackingStore() {
	bills := NewBillStore(s.db)
	store := NewTrackingStore(s.db)
	userID := uuid.New()

	billID, err := bills.Insert(s.ctx, testBill("b1", "Water"))
	s.Require().NoError(err)

	tb := &domain.TrackedBill{UserID: userID, BillID: billID, Position: domain.PositionSupport, Priority: domain.PriorityHigh}
	s.NoError(store.UpsertBill(s.ctx, tb))
	s.False(tb.CreatedAt.IsZero())

	tb.Watchlist = true
	s.NoError(store.UpsertBill(s.ctx, tb))

	tracked, err := store.ListBills(s.ctx, userID, true)
	s.NoError(err)
	s.Require().Len(tracked, 1)
	s.Equal("Water", tracked[0].Bill.Title)

	err = store.UpsertBill(s.ctx, &domain.TrackedBill{UserID: userID, BillID: billID + 100, Position: domain.PositionWatch, Priority: domain.PriorityLow})
	s.ErrorIs(err, domain.ErrNotFound)

	s.NoError(store.DeleteBill(s.ctx, userID, billID))
	s.ErrorIs(store.DeleteBill(s.ctx, userID, billID), domain.ErrNotFound)
}

func (s *PostgresIntegrationSuite) TestClientStore() {
	bills := NewBillStore(s.db)
	store := NewClientStore(s.db)
	tm := NewTransactionManager(s.db)
	userID := uuid.New()

	billID, err := bills.Insert(s.ctx, testBill("b1", "Water"))
	s.Require().NoError(err)

	client := &domain.Client{ID: uuid.New(), UserID: userID, Name: "Acme"}
	err = tm.WithTransaction(s.ctx, func(ctx context.Context) error {
		if err := store.Create(ctx, client); err != nil {
			return err
		}
		return store.LinkBill(ctx, client.ID, billID)
	})
	s.Require().NoError(err)

	got, err := store.Get(s.ctx, userID, client.ID)
	s.NoError(err)
	s.Require().Len(got.Bills, 1)
	s.Equal("b1", got.Bills[0].ExternalID)

	_, err = store.Get(s.ctx, uuid.New(), client.ID)
	s.ErrorIs(err, domain.ErrNotFound)

	s.ErrorIs(store.LinkBill(s.ctx, client.ID, billID+100), domain.ErrNotFound)

	s.NoError(store.UnlinkBill(s.ctx, client.ID, billID))
	s.NoError(store.Delete(s.ctx, userID, client.ID))

	clients, err := store.List(s.ctx, userID)
	s.NoError(err)
	s.Empty(clients)
}

func (s *PostgresIntegrationSuite) TestNoteStore() {
	legs := NewLegislatorStore(s.db)
	store := NewNoteStore(s.db)
	userID := uuid.New()

	legID, err := legs.Insert(s.ctx, &domain.Legislator{ExternalID: "p1", Name: "Ann", Party: "D", Chamber: "upper", District: "1", Title: "Senator", Jurisdiction: "CA"})
	s.Require().NoError(err)

	note := &domain.Note{ID: uuid.New(), UserID: userID, LegislatorID: &legID, Body: "Met with staff"}
	s.NoError(store.Create(s.ctx, note))

	notes, err := store.List(s.ctx, userID, nil, &legID)
	s.NoError(err)
	s.Require().Len(notes, 1)
	s.Equal("Met with staff", notes[0].Body)

	s.NoError(store.Delete(s.ctx, userID, note.ID))
	s.ErrorIs(store.Delete(s.ctx, userID, note.ID), domain.ErrNotFound)
}

func (s *PostgresIntegrationSuite) TestAdvisoryLock() {
	a := NewAdvisoryLock(s.db)
	b := NewAdvisoryLock(s.db)

	ok, err := a.Acquire(s.ctx, "sync", time.Minute)
	s.NoError(err)
	s.True(ok)

	ok, err = b.Acquire(s.ctx, "sync", time.Minute)
	s.NoError(err)
	s.False(ok)

	s.NoError(a.Release(s.ctx, "sync"))

	ok, err = b.Acquire(s.ctx, "sync", time.Minute)
	s.NoError(err)
	s.True(ok)
	s.NoError(b.Release(s.ctx, "sync"))
}
