package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations exposes the embedded schema for tools and tests.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrate applies every pending migration and returns how many ran.
func Migrate(ctx context.Context, sqlDB *sql.DB, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, Migrations())
	if err != nil {
		return 0, fmt.Errorf("create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}
	for _, result := range results {
		logger.Info("migration applied",
			"event", "db_migration_applied",
			"module", "platform/db",
			"layer", "platform",
			"version", result.Source.Version,
			"duration_ms", result.Duration.Milliseconds(),
		)
	}
	return len(results), nil
}

func (p *Postgres) Migrate(ctx context.Context, logger *slog.Logger) (int, error) {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return 0, err
	}
	return Migrate(ctx, sqlDB, logger)
}
