// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, messaging) that domain systems require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/caesar/internal/config"
	"github.com/JaimeStill/caesar/internal/migrations"
	"github.com/JaimeStill/caesar/pkg/database"
	"github.com/JaimeStill/caesar/pkg/lifecycle"
	"github.com/JaimeStill/caesar/pkg/messaging"
)

// Infrastructure holds the core systems required by all domain modules.
// Messaging is nil when the broker is disabled.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Messaging messaging.System

	migrateURL string
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
	}

	if cfg.AutoMigrate {
		infra.migrateURL = cfg.Database.URL()
	}

	if cfg.Messaging.Enabled {
		msg, err := messaging.New(&cfg.Messaging, logger)
		if err != nil {
			return nil, fmt.Errorf("messaging init failed: %w", err)
		}
		infra.Messaging = msg
	}

	return infra, nil
}

// Start applies pending migrations when enabled, then registers all
// infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.migrateURL != "" {
		i.Logger.Info("applying migrations")
		if err := migrations.Up(i.migrateURL); err != nil {
			return fmt.Errorf("auto migrate failed: %w", err)
		}
	}

	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	i.Lifecycle.Track(i.Database)

	if i.Messaging != nil {
		if err := i.Messaging.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("messaging start failed: %w", err)
		}
		i.Lifecycle.Track(i.Messaging)
	}
	return nil
}
