package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"littlebird/internal/domain"
)

// Reconciler upserts rows into one table by external id. Each record is
// looked up, then updated or inserted; a failure on one record is logged and
// never aborts the batch or undoes earlier writes.
type Reconciler[T any] struct {
	resource  domain.Resource
	store     RowStore[T]
	key       func(*T) string
	publisher Publisher
	logger    *slog.Logger
}

// NewReconciler builds a reconciler; publisher may be nil.
func NewReconciler[T any](
	resource domain.Resource,
	store RowStore[T],
	key func(*T) string,
	publisher Publisher,
	logger *slog.Logger,
) *Reconciler[T] {
	return &Reconciler[T]{
		resource:  resource,
		store:     store,
		key:       key,
		publisher: publisher,
		logger:    logger.With("resource", string(resource)),
	}
}

// Reconcile applies rows in order. Duplicate external ids within rows are
// not collapsed: the first occurrence inserts and later ones overwrite it.
func (r *Reconciler[T]) Reconcile(ctx context.Context, rows []T) domain.SyncResult {
	result := domain.SyncResult{Total: len(rows)}

	for i := range rows {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("reconcile interrupted",
				"processed", i,
				"remaining", len(rows)-i,
				"error", err,
			)
			break
		}

		row := &rows[i]
		key := r.key(row)

		kind, id, err := r.apply(ctx, key, row)
		if err != nil {
			r.logger.Warn("failed to reconcile record",
				"external_id", key,
				"position", i,
				"error", err,
			)
			continue
		}

		if kind == domain.ChangeCreated {
			result.Created++
		} else {
			result.Updated++
		}

		r.publish(ctx, kind, key, id)
	}

	r.logger.Debug("reconciled batch",
		"created", result.Created,
		"updated", result.Updated,
		"failed", result.Failed(),
	)

	return result
}

func (r *Reconciler[T]) apply(ctx context.Context, key string, row *T) (domain.ChangeKind, int64, error) {
	if key == "" {
		return "", 0, fmt.Errorf("%w: missing external id", domain.ErrInvalidInput)
	}

	id, found, err := r.store.FindByExternalID(ctx, key)
	if err != nil {
		return "", 0, &domain.PersistenceError{Op: "find " + string(r.resource), Err: err}
	}

	if found {
		if err := r.store.Update(ctx, id, row); err != nil {
			return "", 0, &domain.PersistenceError{Op: "update " + string(r.resource), Err: err}
		}
		return domain.ChangeUpdated, id, nil
	}

	id, err = r.store.Insert(ctx, row)
	if err != nil {
		return "", 0, &domain.PersistenceError{Op: "insert " + string(r.resource), Err: err}
	}
	return domain.ChangeCreated, id, nil
}

func (r *Reconciler[T]) publish(ctx context.Context, kind domain.ChangeKind, key string, id int64) {
	if r.publisher == nil {
		return
	}

	event := domain.ChangeEvent{
		Resource:   r.resource,
		Kind:       kind,
		ExternalID: key,
		LocalID:    id,
		OccurredAt: time.Now().UTC(),
	}
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Warn("failed to publish change", "external_id", key, "error", err)
	}
}
