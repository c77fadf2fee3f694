package main

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/backend"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/cli"
	applog "github.com/hrcamilo11/Presupuesto-sub001/internal/log"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentNotifier)

	logger.Info("Starting overdue-notifier", applog.FieldOperation, applog.OpStartup)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	res := cli.InitBackend(ctx, logger, cfg, func(c *backend.Config) {
		c.WithSheets = false
	})
	defer cli.CloseBackend(logger, res)
	b := res.Backend

	var publisher services.Publisher
	if b.AMQP != nil {
		publisher = b.AMQP
	}
	processor := services.NewOverdueProcessor(b.Storage, publisher, cfg.ReminderDays)

	run := func(now time.Time) {
		logger.Info("Processing due loans")
		count, err := processor.ProcessDueLoans(ctx, now)
		if err != nil {
			logger.Error("Overdue processing failed", applog.FieldError, err)
			return
		}
		logger.Info("Overdue processing complete", "reminders_created", count)
	}

	// Reminders are deduplicated, so a run at startup is harmless.
	run(time.Now())

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(cfg.OverdueCron, func() { run(time.Now()) }); err != nil {
		cli.Fatal(logger, "Invalid overdue schedule", err)
	}
	c.Start()
	logger.Info("Overdue reminders scheduled", "cron", cfg.OverdueCron, "reminder_days", cfg.ReminderDays)

	<-ctx.Done()

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached, abandoning running job")
	}
	logger.Info("Notifier shutdown complete", applog.FieldOperation, applog.OpShutdown)
}
