package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"littlebird/internal/domain"
)

type Syncer interface {
	Run(ctx context.Context, action domain.SyncAction, q domain.SyncQuery) (any, error)
}

// Scheduler runs a full sync once at start and then every interval. Each run
// is bounded by timeout.
type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

func NewScheduler(syncer Syncer, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:   syncer,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With("component", "scheduler"),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "timeout", s.timeout)

	s.runSync(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	syncCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.syncer.Run(syncCtx, domain.ActionFull, domain.SyncQuery{})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSyncInProgress):
		s.logger.Info("skipping scheduled sync, another sync is running")
	default:
		s.logger.Error("scheduled sync failed", "error", err)
	}
}
