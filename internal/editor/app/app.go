package app

import (
	"fmt"
	"log/slog"

	"github.com/webshoptools/shopedit/internal/editor/service"
	"github.com/webshoptools/shopedit/internal/editor/store"
	"github.com/webshoptools/shopedit/internal/editor/store/drivers/sqlite"
	"github.com/webshoptools/shopedit/pkg/cryptox"
	"github.com/webshoptools/shopedit/pkg/relay"
	"github.com/webshoptools/shopedit/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires the editing stack: store, relay, token broker, facade
// and category cache. The CLI commands run against these.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	Relay      relay.Relay
	Broker     *service.TokenBroker
	Facade     *service.Facade
	Categories *service.CategoryService
}

// New creates the application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "shopedit",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Tenant secrets are encrypted at rest with a key from this file.
	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.Relay = relay.NewHTTPRelay(relay.HTTPConfig{
		RequestsPerWindow: cfg.RelayRequests,
		Window:            cfg.RelayWindow,
		Burst:             cfg.RelayBurst,
		Timeout:           cfg.RelayTimeout,
	})

	app.Broker = service.NewTokenBroker(app.db, app.Relay)
	app.Facade = service.NewFacade(app.Broker, app.Relay)
	app.Categories = service.NewCategoryService(app.db, app.Facade)

	return app, nil
}

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	app.db = db
	app.logger.Debug("database ready", "file", app.cfg.DatabaseFile)
	return nil
}

// Store exposes the persistence layer to commands that manage tenants and
// settings directly.
func (app *Application) Store() store.Store { return app.db }

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger { return app.logger }

// Close releases held resources.
func (app *Application) Close() error {
	if app.db != nil {
		return app.db.Close()
	}
	return nil
}
