package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"littlebird/internal/httpapi"
	"littlebird/internal/scheduler"
	"littlebird/internal/service"
	"littlebird/internal/storage/postgres"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run scheduled syncs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if migrateOnStart {
			if err := postgres.Migrate(a.db); err != nil {
				return err
			}
		}

		txManager := postgres.NewTransactionManager(a.db)
		server := httpapi.NewServer(httpapi.Config{
			Host:           cfg.HTTP.Host,
			Port:           cfg.HTTP.Port,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			JWTSecret:      cfg.Auth.JWTSecret,
		}, httpapi.Deps{
			Syncer:      a.sync,
			SyncState:   postgres.NewSyncStateStore(a.db),
			Bills:       postgres.NewBillStore(a.db),
			Legislators: postgres.NewLegislatorStore(a.db),
			Upstream:    a.source,
			Tracking:    service.NewTrackingService(postgres.NewTrackingStore(a.db), logger),
			Clients:     service.NewClientService(postgres.NewClientStore(a.db), txManager, logger),
			Notes:       service.NewNoteService(postgres.NewNoteStore(a.db)),
			DB:          a.db,
		}, logger)

		logger.Info("starting littlebird",
			"source", a.source.Name(),
			"addr", cfg.HTTP.Addr(),
			"sync_interval", cfg.Sync.Interval,
			"sync_lock", a.syncLock,
		)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.Start(ctx)
		})
		if cfg.Sync.Interval > 0 {
			sched := scheduler.NewScheduler(a.sync, cfg.Sync.Interval, cfg.Sync.Timeout, logger)
			g.Go(func() error {
				if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		}

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply migrations before serving")
	rootCmd.AddCommand(serveCmd)
}
