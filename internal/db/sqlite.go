package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const sqlitePragmas = `
	PRAGMA journal_mode = WAL;
	PRAGMA synchronous = NORMAL;
	PRAGMA busy_timeout = 5000;
	PRAGMA foreign_keys = ON;
`

// OpenSqlite opens (creating if needed) the sales database and applies all
// pending migrations.
func OpenSqlite(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for SQLite: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	if err := prepareSqlite(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			zap.L().Error("Failed to close SQLite", zap.Error(closeErr))
		}
		return nil, err
	}

	zap.L().Info("Successfully opened SQLite database", zap.String("path", path))
	return db, nil
}

func prepareSqlite(db *sql.DB) error {
	if _, err := db.Exec(sqlitePragmas); err != nil {
		return fmt.Errorf("failed to set SQLite pragmas: %w", err)
	}
	if err := migrateDatabase(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping SQLite: %w", err)
	}
	return nil
}

func migrateDatabase(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{
		NoTxWrap: true, // Prevent the driver from managing transactions
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	// m.Close() would close our db connection
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	zap.L().Debug("Migrations applied")
	return nil
}
