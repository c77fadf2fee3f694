package main

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/backend"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/cli"
	applog "github.com/hrcamilo11/Presupuesto-sub001/internal/log"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentWorker)

	logger.Info("Starting presupuesto-worker", applog.FieldOperation, applog.OpStartup)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	res := cli.InitBackend(ctx, logger, cfg, func(c *backend.Config) {
		c.WithSheets = true
	})
	defer cli.CloseBackend(logger, res)
	b := res.Backend

	syncWorker := worker.NewSyncWorker(b.Storage, b.Sheets, cfg.SyncBatchSize)
	notificationWorker := worker.NewNotificationWorker(b.Storage)
	poller := worker.NewPoller(syncWorker, worker.PollerConfig{Interval: cfg.SyncInterval})

	// Expenses committed while the worker was down carry no message.
	logger.Info("Performing startup sync check")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poller.Run(gctx)
	})

	if b.AMQP != nil {
		g.Go(func() error {
			return b.AMQP.ConsumeExpenseSync(gctx, syncWorker.HandleSyncMessage)
		})
		g.Go(func() error {
			return b.AMQP.ConsumeNotifications(gctx, notificationWorker.HandleNotificationMessage)
		})
	} else {
		logger.Warn("AMQP unavailable, relying on the periodic pending scan",
			"interval", cfg.SyncInterval)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
	}

	logger.Info("Worker shutdown complete", applog.FieldOperation, applog.OpShutdown)
}
