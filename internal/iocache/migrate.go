package iocache

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/will-wright-eng/social-signals/schema"
)

//go:embed migrations
var migrationsFS embed.FS

// MigrationSet names which store's schema a migration applies to.
type MigrationSet string

// Migration sets, one per store.
const (
	MetricsMigrations MigrationSet = "metrics"
	RunsMigrations    MigrationSet = "runs"
)

// MigrationResult reports the schema version before and after a migration.
type MigrationResult struct {
	From    uint
	To      uint
	Changed bool
}

// Migrate runs database migrations for one store.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations.
// - If targetVersion > 0, it migrates to the specified version.
func Migrate(ctx context.Context, set MigrationSet, backend schema.DatabaseBackend, connStr string, targetVersion int) (MigrationResult, error) {
	var result MigrationResult
	if backend == schema.NoneBackend || backend == "" {
		return result, fmt.Errorf("migrations are not supported for the none backend")
	}
	if set != MetricsMigrations && set != RunsMigrations {
		return result, fmt.Errorf("unknown migration set: %s", set)
	}

	if backend == schema.MySQLBackend {
		dsn, err := mysqlMultiStatementDSN(connStr)
		if err != nil {
			return result, err
		}
		connStr = dsn
	}
	db, _, err := openDB(ctx, backend, connStr)
	if err != nil {
		return result, err
	}
	defer func() { _ = db.Close() }()

	// Each set keeps its own version table so both stores can share one database.
	versionTable := fmt.Sprintf("sosig_%s_schema_migrations", set)
	var driver database.Driver
	switch backend {
	case schema.SQLiteBackend:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: versionTable})
	case schema.MySQLBackend:
		driver, err = mysql.WithInstance(db, &mysql.Config{MigrationsTable: versionTable})
	case schema.PostgreSQLBackend:
		driver, err = postgres.WithInstance(db, &postgres.Config{MigrationsTable: versionTable})
	default:
		return result, fmt.Errorf("unsupported backend: %s", backend)
	}
	if err != nil {
		return result, fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	migrationFS, err := fs.Sub(migrationsFS, path.Join("migrations", string(set), string(backend)))
	if err != nil {
		return result, fmt.Errorf("failed to access migrations directory: %w", err)
	}
	sourceDriver, err := iofs.New(migrationFS, ".")
	if err != nil {
		return result, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, string(backend), driver)
	if err != nil {
		return result, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	currentVersion, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return result, fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return result, fmt.Errorf("database is in a dirty state at version %d. Please fix manually or force version", currentVersion)
	}
	result.From = currentVersion

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		result.To = currentVersion
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("failed to migrate %s store to version %d: %w", set, targetVersion, err)
	}

	newVersion, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return result, fmt.Errorf("failed to read migrated version: %w", err)
	}
	result.To = newVersion
	result.Changed = true
	return result, nil
}
