package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"littlebird/internal/domain"
)

const syncLockName = "sync"

// SyncService runs fetch, transform, reconcile and report for each resource
// and combines bills and legislators into a full sync.
type SyncService struct {
	source      Source
	bills       *Reconciler[domain.Bill]
	legislators *Reconciler[domain.Legislator]
	sponsors    *Reconciler[domain.Sponsorship]
	syncState   SyncStateStore
	locker      Locker
	lockTTL     time.Duration
	logger      *slog.Logger
}

type SyncServiceConfig struct {
	Source           Source
	BillStore        RowStore[domain.Bill]
	LegislatorStore  RowStore[domain.Legislator]
	SponsorshipStore RowStore[domain.Sponsorship]
	SyncState        SyncStateStore
	Publisher        Publisher
	// Locker is optional; without it concurrent syncs are not excluded.
	Locker  Locker
	LockTTL time.Duration
	Logger  *slog.Logger
}

func NewSyncService(cfg SyncServiceConfig) *SyncService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("source", cfg.Source.ID())

	return &SyncService{
		source:      cfg.Source,
		bills:       NewReconciler(domain.ResourceBills, cfg.BillStore, (*domain.Bill).Key, cfg.Publisher, logger),
		legislators: NewReconciler(domain.ResourceLegislators, cfg.LegislatorStore, (*domain.Legislator).Key, cfg.Publisher, logger),
		sponsors:    NewReconciler(domain.ResourceSponsors, cfg.SponsorshipStore, (*domain.Sponsorship).Key, cfg.Publisher, logger),
		syncState:   cfg.SyncState,
		locker:      cfg.Locker,
		lockTTL:     cfg.LockTTL,
		logger:      logger,
	}
}

// Run dispatches a sync action. The result is a *domain.SyncResult for single
// resources and a *domain.FullSyncResult for ActionFull.
func (s *SyncService) Run(ctx context.Context, action domain.SyncAction, q domain.SyncQuery) (any, error) {
	if _, err := domain.ParseSyncAction(string(action)); err != nil {
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, action)
	}

	release, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	switch action {
	case domain.ActionBills:
		return s.SyncBills(ctx, q)
	case domain.ActionLegislators:
		return s.SyncLegislators(ctx, q)
	case domain.ActionSponsors:
		return s.SyncSponsors(ctx, q)
	default:
		return s.FullSync(ctx, q)
	}
}

// FullSync runs the bill and legislator syncs concurrently. They touch
// disjoint tables. If either fails the error is returned alongside whatever
// results were produced; both errors are joined when both fail.
func (s *SyncService) FullSync(ctx context.Context, q domain.SyncQuery) (*domain.FullSyncResult, error) {
	startTime := time.Now()

	var (
		g       errgroup.Group
		result  domain.FullSyncResult
		billErr error
		legErr  error
	)

	g.Go(func() error {
		result.Bills, billErr = s.SyncBills(ctx, q)
		return billErr
	})
	g.Go(func() error {
		result.Legislators, legErr = s.SyncLegislators(ctx, q)
		return legErr
	})
	_ = g.Wait()

	if err := errors.Join(billErr, legErr); err != nil {
		s.logger.Error("full sync failed",
			"bills_error", billErr,
			"legislators_error", legErr,
			"duration", time.Since(startTime),
		)
		return &result, err
	}

	s.logger.Info("full sync completed", "duration", time.Since(startTime))
	return &result, nil
}

func (s *SyncService) SyncBills(ctx context.Context, q domain.SyncQuery) (*domain.SyncResult, error) {
	return syncResource(ctx, s, domain.ResourceBills, q, s.source.FetchBills, s.bills)
}

func (s *SyncService) SyncLegislators(ctx context.Context, q domain.SyncQuery) (*domain.SyncResult, error) {
	return syncResource(ctx, s, domain.ResourceLegislators, q, s.source.FetchLegislators, s.legislators)
}

// SyncSponsors refreshes bill sponsorships. Rows reference bills and people
// by external id only, so they can be synced before either exists locally.
func (s *SyncService) SyncSponsors(ctx context.Context, q domain.SyncQuery) (*domain.SyncResult, error) {
	return syncResource(ctx, s, domain.ResourceSponsors, q, s.source.FetchSponsorships, s.sponsors)
}

// syncResource fetches every page before writing anything, so an upstream
// failure leaves the table untouched.
func syncResource[T any](
	ctx context.Context,
	s *SyncService,
	resource domain.Resource,
	q domain.SyncQuery,
	fetch func(context.Context, domain.SyncQuery) ([]T, error),
	reconciler *Reconciler[T],
) (*domain.SyncResult, error) {
	startTime := time.Now()
	logger := s.logger.With("resource", string(resource))

	logger.Info("starting sync",
		"source_name", s.source.Name(),
		"jurisdiction", q.Jurisdiction,
		"session", q.Session,
	)

	rows, err := fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", resource, err)
	}

	logger.Info("fetched records from source", "count", len(rows))

	result := reconciler.Reconcile(ctx, rows)

	if err := s.updateSyncState(ctx, resource, result); err != nil {
		logger.Warn("failed to update sync state", "error", err)
	}

	logger.Info("sync completed",
		"created", result.Created,
		"updated", result.Updated,
		"failed", result.Failed(),
		"total", result.Total,
		"duration", time.Since(startTime),
	)

	return &result, nil
}

func (s *SyncService) updateSyncState(ctx context.Context, resource domain.Resource, result domain.SyncResult) error {
	state, err := s.syncState.Get(ctx, string(resource))
	if err != nil {
		return err
	}

	state.Resource = string(resource)
	state.LastSyncedAt = time.Now()
	state.LastCreated = result.Created
	state.LastUpdated = result.Updated
	state.LastTotal = result.Total
	state.TotalSynced += int64(result.Created + result.Updated)

	return s.syncState.Update(ctx, state)
}

func (s *SyncService) lock(ctx context.Context) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	acquired, err := s.locker.Acquire(ctx, syncLockName, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		return nil, domain.ErrSyncInProgress
	}

	return func() {
		// The request context may already be cancelled; release regardless.
		if err := s.locker.Release(context.WithoutCancel(ctx), syncLockName); err != nil {
			s.logger.Warn("failed to release sync lock", "error", err)
		}
	}, nil
}
