package database

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"studytracker-backend/internal/config"
	"studytracker-backend/internal/logger"
	"studytracker-backend/internal/repository"
	"studytracker-backend/migrations"
)

// OpenSessionStore builds the SessionStore selected by STORE_DRIVER. The returned close
// function releases the underlying connections.
func OpenSessionStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.SessionStore, func(), error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case "postgres", "postgresql", "supabase":
		pool, err := NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := RunMigrations(ctx, pool, MigrationSource(cfg.MigrationsDir), log); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("database migration failed: %w", err)
		}
		return repository.NewStudySessionRepo(pool), pool.Close, nil

	case "sqlite", "":
		db, err := NewSQLiteDB(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		repo, err := repository.NewSQLiteSessionRepo(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return repo, func() { db.Close() }, nil

	case "memory":
		return repository.NewMemorySessionRepo(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// MigrationSource is the embedded schema unless MIGRATIONS_DIR points at a directory.
func MigrationSource(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}
