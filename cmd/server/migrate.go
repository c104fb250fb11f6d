package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskmanager-api/internal/config"
	"github.com/phrazzld/taskmanager-api/internal/platform/postgres"
	"github.com/phrazzld/taskmanager-api/internal/platform/sqlite"
	"github.com/phrazzld/taskmanager-api/internal/redact"
)

const migrateUp = postgres.MigrateUp

// migrationCommands are the arguments accepted by the migrate command.
var migrationCommands = []string{
	postgres.MigrateUp,
	postgres.MigrateDown,
	postgres.MigrateReset,
	postgres.MigrateStatus,
	postgres.MigrateVersion,
}

// runMigrations applies command to the configured database. SQLite schemas
// are managed by GORM AutoMigrate, which only supports "up".
func runMigrations(ctx context.Context, cfg *config.Config, command string, log *slog.Logger) error {
	log = log.With(slog.String("command", command), slog.String("driver", cfg.Database.Driver))

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := openPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("error closing database connection", redact.Attr(err))
			}
		}()
		return postgres.Migrate(ctx, db, command, log)

	case config.DriverSQLite:
		if command != migrateUp {
			return fmt.Errorf("migration command %q is not supported for sqlite", command)
		}
		// Open migrates the schema.
		db, err := sqlite.Open(cfg.Database.URL, log)
		if err != nil {
			return err
		}
		log.Info("migration finished")
		return sqlite.Close(db)

	default:
		return fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
	}
}
