package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"littlebird/internal/config"
	"littlebird/internal/publisher"
	"littlebird/internal/service"
	"littlebird/internal/source/openstates"
	"littlebird/internal/storage/postgres"
	"littlebird/internal/storage/redis"
)

// app holds the wired services shared by serve and sync.
type app struct {
	db       *sqlx.DB
	source   *openstates.Client
	sync     *service.SyncService
	closers  []func() error
	syncLock string
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database")

	a := &app{db: db, closers: []func() error{db.Close}, syncLock: cfg.Sync.Lock}

	a.source = openstates.New(openstates.Config{
		BaseURL:        cfg.API.BaseURL,
		APIKey:         cfg.API.Key,
		KeyInQuery:     cfg.API.KeyLocation == config.KeyInQuery,
		Jurisdiction:   cfg.API.Jurisdiction,
		PageSize:       cfg.API.PageSize,
		MaxPages:       cfg.API.MaxPages,
		Timeout:        cfg.API.Timeout,
		MaxAttempts:    cfg.API.Retry.MaxAttempts,
		InitialBackoff: cfg.API.Retry.InitialBackoff,
		MaxBackoff:     cfg.API.Retry.MaxBackoff,
	}, logger)

	syncCfg := service.SyncServiceConfig{
		Source:           a.source,
		BillStore:        postgres.NewBillStore(db),
		LegislatorStore:  postgres.NewLegislatorStore(db),
		SponsorshipStore: postgres.NewSponsorshipStore(db),
		SyncState:        postgres.NewSyncStateStore(db),
		LockTTL:          cfg.Sync.LockTTL,
		Logger:           logger,
	}

	switch cfg.Sync.Lock {
	case config.LockPostgres:
		syncCfg.Locker = postgres.NewAdvisoryLock(db)
	case config.LockRedis:
		client, err := redis.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		lock := redis.NewLock(client)
		logger.Info("using redis sync lock", "owner", lock.OwnerID())
		syncCfg.Locker = lock
	}

	if cfg.RabbitMQ.URL != "" {
		pub, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init publisher: %w", err)
		}
		a.closers = append(a.closers, pub.Close)
		syncCfg.Publisher = pub
	}

	a.sync = service.NewSyncService(syncCfg)
	return a, nil
}
