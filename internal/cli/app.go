package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/eshaffer321/closeready/internal/adapters/clients"
	"github.com/eshaffer321/closeready/internal/application/service"
	"github.com/eshaffer321/closeready/internal/infrastructure/config"
	"github.com/eshaffer321/closeready/internal/infrastructure/logging"
	"github.com/eshaffer321/closeready/internal/infrastructure/storage"
)

// App bundles the wired dependencies a command needs.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   storage.Repository
	Service *service.Service
}

// NewApp loads configuration, applies flag overrides and wires storage,
// sources and the reconciliation service.
func NewApp(flags GlobalFlags) (*App, error) {
	cfg, err := loadConfig(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	flags.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewLoggerWithSystem(cfg.Observability.Logging, "closeready")

	// Sources are optional: serve and exceptions can run without them.
	srcs, err := clients.NewClients(cfg)
	if err != nil && !errors.Is(err, clients.ErrNoSources) {
		return nil, err
	}

	app := &App{Config: cfg, Logger: logger}
	if !flags.NoStore {
		store, err := storage.NewStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		app.Store = store
	}

	app.Service = service.NewService(cfg, srcs, app.Store, logger)

	return app, nil
}

// Close releases the database.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadOrEnv(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}
