package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"self-screening-bot/internal/config"
	"self-screening-bot/internal/platform/log"
	"self-screening-bot/internal/user"
)

const dbConnectAttempts = 10

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	logger := log.FromCtx(ctx)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The database container may still be starting.
	for i := 1; i <= dbConnectAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Info().Msg("connected to database")
			return db, nil
		}
		logger.Warn().Err(err).Msgf("waiting for database (%d/%d)", i, dbConnectAttempts)

		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	db.Close()
	return nil, fmt.Errorf("failed to connect to database: %w", err)
}

// openUsers returns the user repository for the configured backend and a close func.
func openUsers(ctx context.Context, cfg *config.Config) (user.Repository, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		log.FromCtx(ctx).Warn().Msg("using in-memory user storage, records are lost on restart")
		return user.NewMemoryRepository(), func() {}, nil
	default:
		db, err := openDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return user.NewPostgresRepository(db), func() { db.Close() }, nil
	}
}

func newMigrate(ctx context.Context, cfg *config.Config) (*migrate.Migrate, error) {
	m, err := migrate.New(cfg.MigrationsPath, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("migration init failed: %w", err)
	}
	m.Log = log.NewMigrateLoggerFromCtx(ctx, cfg.Debug)
	return m, nil
}

func migrateUp(ctx context.Context, cfg *config.Config) error {
	m, err := newMigrate(ctx, cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	log.FromCtx(ctx).Info().Msg("migrations applied")
	return nil
}

func migrateDown(ctx context.Context, cfg *config.Config, steps int) error {
	m, err := newMigrate(ctx, cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	log.FromCtx(ctx).Info().Int("steps", steps).Msg("migrations rolled back")
	return nil
}
