package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// Migrator applies SQL migrations from a directory against the pool
// this package manages. It owns a database/sql handle opened on top of
// the pgx pool and must be closed when done.
type Migrator struct {
	migrate *migrate.Migrate
	sqlDB   *sql.DB
	logger  zerolog.Logger
}

// NewMigrator builds a migrator reading migration files from dir.
func NewMigrator(db *DB, dir string, logger zerolog.Logger) (*Migrator, error) {
	if db == nil || db.pool == nil {
		return nil, errors.New("database pool is required")
	}
	if dir == "" {
		return nil, errors.New("migrations directory is required")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migrations directory: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(db.pool)
	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: "schema_migrations"})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open migration source: %w", err)
	}

	return &Migrator{migrate: m, sqlDB: sqlDB, logger: logger}, nil
}

// Up applies every pending migration. Already being at the latest
// version is not an error.
func (m *Migrator) Up() error {
	err := m.migrate.Up()
	switch {
	case err == nil:
		m.logger.Info().Msg("migrations applied")
	case errors.Is(err, migrate.ErrNoChange):
		m.logger.Info().Msg("schema already up to date")
	default:
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Down rolls back every applied migration.
func (m *Migrator) Down() error {
	err := m.migrate.Down()
	switch {
	case err == nil:
		m.logger.Info().Msg("migrations rolled back")
	case errors.Is(err, migrate.ErrNoChange):
		m.logger.Info().Msg("nothing to roll back")
	default:
		return fmt.Errorf("roll back migrations: %w", err)
	}
	return nil
}

// Steps moves the schema n versions forward, or backward when n is
// negative.
func (m *Migrator) Steps(n int) error {
	err := m.migrate.Steps(n)
	switch {
	case err == nil:
		m.logger.Info().Int("steps", n).Msg("migration steps applied")
	case errors.Is(err, migrate.ErrNoChange):
		m.logger.Info().Msg("schema already up to date")
	case errors.Is(err, os.ErrNotExist):
		// Stepping past the last available migration file.
		m.logger.Info().Msg("no further migrations available")
	default:
		return fmt.Errorf("apply migration steps: %w", err)
	}
	return nil
}

// Version reports the current schema version and whether the last run
// left it dirty.
func (m *Migrator) Version() (uint, bool, error) {
	return m.migrate.Version()
}

// Force overwrites the recorded version without running anything. Used
// to recover after a migration failed halfway.
func (m *Migrator) Force(version int) error {
	m.logger.Warn().Int("version", version).Msg("overwriting migration version")
	return m.migrate.Force(version)
}

// Close releases the migration source and the sql.DB handle. The
// underlying pgx pool stays open.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if m.sqlDB != nil {
		if err := m.sqlDB.Close(); err != nil && dbErr == nil {
			dbErr = err
		}
	}
	if sourceErr != nil {
		return fmt.Errorf("close migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration database handle: %w", dbErr)
	}
	return nil
}
