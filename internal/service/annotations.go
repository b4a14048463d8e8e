package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"littlebird/internal/domain"
)

type TrackBillInput struct {
	Position  domain.Position `json:"position"`
	Priority  domain.Priority `json:"priority"`
	Watchlist bool            `json:"watchlist"`
}

type TrackLegislatorInput struct {
	Priority  domain.Priority `json:"priority"`
	Watchlist bool            `json:"watchlist"`
}

// TrackingService manages a user's position, priority and watchlist flags on
// bills and legislators.
type TrackingService struct {
	store  TrackingStore
	logger *slog.Logger
}

func NewTrackingService(store TrackingStore, logger *slog.Logger) *TrackingService {
	return &TrackingService{store: store, logger: logger.With("component", "tracking")}
}

func (s *TrackingService) TrackBill(ctx context.Context, userID uuid.UUID, billID int64, in TrackBillInput) (*domain.TrackedBill, error) {
	if in.Position == "" {
		in.Position = domain.PositionWatch
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !in.Position.Valid() {
		return nil, fmt.Errorf("%w: position %q", domain.ErrInvalidInput, in.Position)
	}
	if !in.Priority.Valid() {
		return nil, fmt.Errorf("%w: priority %q", domain.ErrInvalidInput, in.Priority)
	}

	t := &domain.TrackedBill{
		UserID:    userID,
		BillID:    billID,
		Position:  in.Position,
		Priority:  in.Priority,
		Watchlist: in.Watchlist,
	}
	if err := s.store.UpsertBill(ctx, t); err != nil {
		return nil, fmt.Errorf("track bill: %w", err)
	}

	s.logger.Debug("bill tracked", "user_id", userID, "bill_id", billID, "position", in.Position)
	return t, nil
}

func (s *TrackingService) UntrackBill(ctx context.Context, userID uuid.UUID, billID int64) error {
	return s.store.DeleteBill(ctx, userID, billID)
}

func (s *TrackingService) ListBills(ctx context.Context, userID uuid.UUID, watchlistOnly bool) ([]domain.TrackedBill, error) {
	return s.store.ListBills(ctx, userID, watchlistOnly)
}

func (s *TrackingService) TrackLegislator(ctx context.Context, userID uuid.UUID, legislatorID int64, in TrackLegislatorInput) (*domain.TrackedLegislator, error) {
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, fmt.Errorf("%w: priority %q", domain.ErrInvalidInput, in.Priority)
	}

	t := &domain.TrackedLegislator{
		UserID:       userID,
		LegislatorID: legislatorID,
		Priority:     in.Priority,
		Watchlist:    in.Watchlist,
	}
	if err := s.store.UpsertLegislator(ctx, t); err != nil {
		return nil, fmt.Errorf("track legislator: %w", err)
	}
	return t, nil
}

func (s *TrackingService) UntrackLegislator(ctx context.Context, userID uuid.UUID, legislatorID int64) error {
	return s.store.DeleteLegislator(ctx, userID, legislatorID)
}

func (s *TrackingService) ListLegislators(ctx context.Context, userID uuid.UUID, watchlistOnly bool) ([]domain.TrackedLegislator, error) {
	return s.store.ListLegislators(ctx, userID, watchlistOnly)
}

type ClientInput struct {
	Name        string  `json:"name"`
	Industry    *string `json:"industry"`
	ContactName *string `json:"contact_name"`
	Email       *string `json:"email"`
	BillIDs     []int64 `json:"bill_ids"`
}

type ClientService struct {
	store     ClientStore
	txManager TransactionManager
	logger    *slog.Logger
}

func NewClientService(store ClientStore, txManager TransactionManager, logger *slog.Logger) *ClientService {
	return &ClientService{store: store, txManager: txManager, logger: logger.With("component", "clients")}
}

// Create inserts the client and its bill associations in one transaction.
func (s *ClientService) Create(ctx context.Context, userID uuid.UUID, in ClientInput) (*domain.Client, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: client name is required", domain.ErrInvalidInput)
	}

	client := &domain.Client{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Industry:    in.Industry,
		ContactName: in.ContactName,
		Email:       in.Email,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.store.Create(txCtx, client); err != nil {
			return fmt.Errorf("create client: %w", err)
		}
		for _, billID := range in.BillIDs {
			if err := s.store.LinkBill(txCtx, client.ID, billID); err != nil {
				return fmt.Errorf("link bill %d: %w", billID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("client created", "client_id", client.ID, "bills", len(in.BillIDs))
	return client, nil
}

func (s *ClientService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Client, error) {
	return s.store.Get(ctx, userID, id)
}

func (s *ClientService) List(ctx context.Context, userID uuid.UUID) ([]domain.Client, error) {
	return s.store.List(ctx, userID)
}

func (s *ClientService) Update(ctx context.Context, userID, id uuid.UUID, in ClientInput) (*domain.Client, error) {
	client, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		client.Name = name
	}
	if in.Industry != nil {
		client.Industry = in.Industry
	}
	if in.ContactName != nil {
		client.ContactName = in.ContactName
	}
	if in.Email != nil {
		client.Email = in.Email
	}

	if err := s.store.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return client, nil
}

func (s *ClientService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.Delete(ctx, userID, id)
}

// LinkBill associates a bill with a client owned by userID.
func (s *ClientService) LinkBill(ctx context.Context, userID, clientID uuid.UUID, billID int64) error {
	if _, err := s.store.Get(ctx, userID, clientID); err != nil {
		return err
	}
	return s.store.LinkBill(ctx, clientID, billID)
}

func (s *ClientService) UnlinkBill(ctx context.Context, userID, clientID uuid.UUID, billID int64) error {
	if _, err := s.store.Get(ctx, userID, clientID); err != nil {
		return err
	}
	return s.store.UnlinkBill(ctx, clientID, billID)
}

type NoteInput struct {
	BillID       *int64 `json:"bill_id"`
	LegislatorID *int64 `json:"legislator_id"`
	Body         string `json:"body"`
}

type NoteService struct {
	store NoteStore
}

func NewNoteService(store NoteStore) *NoteService {
	return &NoteService{store: store}
}

// Create attaches a note to exactly one bill or legislator.
func (s *NoteService) Create(ctx context.Context, userID uuid.UUID, in NoteInput) (*domain.Note, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, fmt.Errorf("%w: note body is required", domain.ErrInvalidInput)
	}
	if (in.BillID == nil) == (in.LegislatorID == nil) {
		return nil, fmt.Errorf("%w: note needs exactly one of bill_id or legislator_id", domain.ErrInvalidInput)
	}

	note := &domain.Note{
		ID:           uuid.New(),
		UserID:       userID,
		BillID:       in.BillID,
		LegislatorID: in.LegislatorID,
		Body:         body,
	}
	if err := s.store.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return note, nil
}

func (s *NoteService) List(ctx context.Context, userID uuid.UUID, billID, legislatorID *int64) ([]domain.Note, error) {
	return s.store.List(ctx, userID, billID, legislatorID)
}

func (s *NoteService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.store.Delete(ctx, userID, id)
}
