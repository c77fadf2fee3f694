// Package cli provides common CLI initialization utilities shared by
// cmd/presupuesto, cmd/presupuesto-worker and cmd/overdue-notifier.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/backend"
	"github.com/hrcamilo11/Presupuesto-sub001/internal/config"
	applog "github.com/hrcamilo11/Presupuesto-sub001/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger initializes structured logging for the given component from
// the loaded config and installs it as the default logger.
func SetupLogger(component string, cfg *config.Config) *applog.Logger {
	return applog.Setup(component, cfg.LogLevel, cfg.LogFormat)
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(component string) (*config.Config, *applog.Logger) {
	cfg := config.Load()
	logger := SetupLogger(component, cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg, logger
}

// InitBackend builds the backend for a binary. Exits the process on failure.
func InitBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config, adjust func(*backend.Config)) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	if adjust != nil {
		adjust(&bcfg)
	}

	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "driver", bcfg.DBDriver)
		os.Exit(1)
	}
	return res
}

// CloseBackend runs the backend cleanup and logs any failure.
func CloseBackend(logger *applog.Logger, res *backend.BackendResult) {
	if res == nil || res.Cleanup == nil {
		return
	}
	if err := res.Cleanup(); err != nil {
		logger.Error("Failed to close backend", applog.FieldError, err)
		return
	}
	logger.Info("Backend closed", applog.FieldOperation, applog.OpShutdown)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// ShutdownContext returns a fresh context bounded by timeout, used for
// cleanup once the signal context is already done.
func ShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// Fatal logs err and exits with status 1.
func Fatal(logger *applog.Logger, msg string, err error) {
	logger.Error(msg, applog.FieldError, err)
	os.Exit(1)
}
