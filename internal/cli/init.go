// Package cli provides process setup for the ledger commands and the
// interactive menu shell.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ledger/internal/backend"
	"ledger/internal/config"
	"ledger/internal/ledger"
	applog "ledger/internal/log"
)

// Overrides carries command-line values that take precedence over the
// environment. Empty fields keep the configured value.
type Overrides struct {
	Backend      string
	DataFile     string
	SQLiteDBPath string
	LogLevel     string
}

func (o Overrides) apply(cfg *config.Config) {
	if o.Backend != "" {
		cfg.Backend = o.Backend
	}
	if o.DataFile != "" {
		cfg.DataFile = o.DataFile
	}
	if o.SQLiteDBPath != "" {
		cfg.SQLiteDBPath = o.SQLiteDBPath
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
}

// App is a loaded ledger ready for commands. Logger carries no component;
// callers derive one with WithComponent.
type App struct {
	Config *config.Config
	Logger *applog.Logger
	Store  *ledger.Store
}

// LoadEnvFile loads the .env file for local use.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, applies overrides and validates it.
func LoadAndValidateConfig(o Overrides) (*config.Config, error) {
	cfg := config.Load()
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from configuration, writing to w,
// and installs it as the slog default.
func SetupLogger(cfg *config.Config, w io.Writer) *applog.Logger {
	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	logger := applog.New(applog.Config{Level: level, Format: cfg.LogFormat, Output: w})
	applog.SetDefault(logger)
	return logger
}

// Bootstrap loads configuration, opens the configured backend and loads the
// collection into a Store.
func Bootstrap(ctx context.Context, o Overrides, logOutput io.Writer) (*App, error) {
	LoadEnvFile()

	cfg, err := LoadAndValidateConfig(o)
	if err != nil {
		return nil, err
	}
	logger := SetupLogger(cfg, logOutput)
	appLogger := logger.WithComponent(applog.ComponentApp)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		appLogger.ErrorContext(ctx, "Failed to initialize backend",
			applog.FieldOperation, applog.OpStartup,
			applog.FieldBackend, cfg.Backend,
			applog.FieldError, err)
		return nil, err
	}

	store := ledger.NewStore(res.Collection, ledger.WithLogger(logger.Logger))
	if err := store.Load(ctx); err != nil {
		if res.Cleanup != nil {
			_ = res.Cleanup()
		}
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	appLogger.DebugContext(ctx, "Ledger ready",
		applog.FieldBackend, cfg.Backend,
		applog.FieldCount, store.Len())

	return &App{
		Config: cfg,
		Logger: logger,
		Store:  store,
	}, nil
}

// Close releases the backend.
func (a *App) Close() error {
	return a.Store.Close()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
