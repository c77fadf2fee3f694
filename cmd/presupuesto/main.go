package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/amortization"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/cache"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/cli"
	apphttp "github.com/hrcamilo11/Presupuesto-sub001/internal/http"
	applog "github.com/hrcamilo11/Presupuesto-sub001/internal/log"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentApp)

	logger.Info("Starting presupuesto API", applog.FieldOperation, applog.OpStartup)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	res := cli.InitBackend(ctx, logger, cfg, nil)
	defer cli.CloseBackend(logger, res)
	b := res.Backend

	// A nil *amqp.Client must not become a non-nil Publisher.
	var publisher services.Publisher
	if b.AMQP != nil {
		publisher = b.AMQP
	}

	schedules := cache.NewLRUCache[[]amortization.Row](cfg.ScheduleCacheSize, cfg.ScheduleCacheTTL)
	caches := cache.NewManager()
	caches.Register(schedules)
	caches.StartCleanup(ctx, 10*time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Loans:             services.NewLoanService(b.Storage, schedules),
		Wallets:           services.NewWalletService(b.Storage),
		Ledger:            services.NewLedgerService(b.Storage, publisher),
		Ready:             b.Storage,
		Logger:            logger,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := cli.ShutdownContext(30 * time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	}()

	logger.Info("Listening",
		"port", cfg.Port,
		"driver", cfg.DBDriver,
		"amqp_enabled", b.AMQP != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		cancel()
		return
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
