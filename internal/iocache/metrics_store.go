package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

// metricsTableName is the table holding one row per analyzed repository.
const metricsTableName = "sosig_repositories"

// metricsColumns is the column order used by every insert and select.
var metricsColumns = []string{
	"path", "name", "username", "age_days", "update_frequency_days",
	"contributor_count", "stars", "commit_count", "lines_of_code", "open_issues",
	"social_signal", "group_name", "last_analyzed", "date_created",
}

// MetricsStoreImpl implements contract.MetricsStore on top of database/sql.
// Timestamps are stored as Unix nanoseconds so every backend orders them the same way.
type MetricsStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string
	now       func() time.Time
}

var _ contract.MetricsStore = &MetricsStoreImpl{} // Compile-time check

// MetricsStoreOption customizes a metrics store.
type MetricsStoreOption func(*MetricsStoreImpl)

// WithClock replaces the clock used to stamp last_analyzed and date_created.
func WithClock(now func() time.Time) MetricsStoreOption {
	return func(s *MetricsStoreImpl) {
		s.now = now
	}
}

// WithTableName overrides the default table name.
func WithTableName(name string) MetricsStoreOption {
	return func(s *MetricsStoreImpl) {
		s.tableName = name
	}
}

// NewMetricsStore opens the metrics database and ensures its table exists.
func NewMetricsStore(ctx context.Context, backend schema.DatabaseBackend, connStr string, opts ...MetricsStoreOption) (*MetricsStoreImpl, error) {
	if backend == schema.NoneBackend || backend == "" {
		return nil, fmt.Errorf("metrics store requires a database backend")
	}

	store := &MetricsStoreImpl{
		tableName: metricsTableName,
		backend:   backend,
		connStr:   connStr,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	if err := validateTableName(store.tableName); err != nil {
		return nil, err
	}

	db, _, err := openDB(ctx, backend, connStr)
	if err != nil {
		return nil, err
	}
	store.db = db

	if _, err := db.ExecContext(ctx, store.createTableQuery()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create metrics table: %w", err)
	}
	return store, nil
}

func (s *MetricsStoreImpl) quotedTable() string {
	return quoteTableName(s.tableName, s.backend)
}

func (s *MetricsStoreImpl) createTableQuery() string {
	table := s.quotedTable()
	switch s.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			path VARCHAR(512) NOT NULL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			username VARCHAR(255) NOT NULL DEFAULT '',
			age_days DOUBLE NOT NULL,
			update_frequency_days DOUBLE NOT NULL,
			contributor_count INT NOT NULL,
			stars INT NOT NULL,
			commit_count INT NOT NULL,
			lines_of_code BIGINT NOT NULL,
			open_issues INT NOT NULL,
			social_signal DOUBLE NOT NULL,
			group_name VARCHAR(255) NOT NULL DEFAULT '',
			last_analyzed BIGINT NOT NULL,
			date_created BIGINT NOT NULL
		);`, table)
	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			path TEXT NOT NULL PRIMARY KEY,
			name TEXT NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			age_days DOUBLE PRECISION NOT NULL,
			update_frequency_days DOUBLE PRECISION NOT NULL,
			contributor_count INTEGER NOT NULL,
			stars INTEGER NOT NULL,
			commit_count INTEGER NOT NULL,
			lines_of_code BIGINT NOT NULL,
			open_issues INTEGER NOT NULL,
			social_signal DOUBLE PRECISION NOT NULL,
			group_name TEXT NOT NULL DEFAULT '',
			last_analyzed BIGINT NOT NULL,
			date_created BIGINT NOT NULL
		);`, table)
	default: // SQLite
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			path TEXT NOT NULL PRIMARY KEY,
			name TEXT NOT NULL,
			username TEXT NOT NULL DEFAULT '',
			age_days REAL NOT NULL,
			update_frequency_days REAL NOT NULL,
			contributor_count INTEGER NOT NULL,
			stars INTEGER NOT NULL,
			commit_count INTEGER NOT NULL,
			lines_of_code INTEGER NOT NULL,
			open_issues INTEGER NOT NULL,
			social_signal REAL NOT NULL,
			group_name TEXT NOT NULL DEFAULT '',
			last_analyzed INTEGER NOT NULL,
			date_created INTEGER NOT NULL
		);`, table)
	}
}

// upsertQuery inserts a row or updates every column except path and date_created.
func (s *MetricsStoreImpl) upsertQuery() string {
	cols := strings.Join(metricsColumns, ", ")
	values := placeholders(s.backend, len(metricsColumns))
	var sets []string

	switch s.backend {
	case schema.MySQLBackend:
		for _, col := range metricsColumns {
			if col == "path" || col == "date_created" {
				continue
			}
			sets = append(sets, fmt.Sprintf("%s = new.%s", col, col))
		}
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) AS new ON DUPLICATE KEY UPDATE %s",
			s.quotedTable(), cols, values, strings.Join(sets, ", "))
	default: // SQLite and PostgreSQL
		for _, col := range metricsColumns {
			if col == "path" || col == "date_created" {
				continue
			}
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", col, col))
		}
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (path) DO UPDATE SET %s",
			s.quotedTable(), cols, values, strings.Join(sets, ", "))
	}
}

func (s *MetricsStoreImpl) selectByPathQuery(forUpdate bool) string {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE path = %s",
		strings.Join(metricsColumns, ", "), s.quotedTable(), placeholder(s.backend, 1))
	if forUpdate && s.backend != schema.SQLiteBackend {
		query += " FOR UPDATE"
	}
	return query
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetricsRecord(row rowScanner) (schema.MetricsRecord, error) {
	var rec schema.MetricsRecord
	var lastAnalyzed, dateCreated int64
	err := row.Scan(
		&rec.Path, &rec.Name, &rec.Username, &rec.AgeDays, &rec.UpdateFrequencyDays,
		&rec.ContributorCount, &rec.Stars, &rec.CommitCount, &rec.LinesOfCode, &rec.OpenIssues,
		&rec.SocialSignal, &rec.Group, &lastAnalyzed, &dateCreated,
	)
	if err != nil {
		return schema.MetricsRecord{}, err
	}
	rec.LastAnalyzed = time.Unix(0, lastAnalyzed).UTC()
	rec.DateCreated = time.Unix(0, dateCreated).UTC()
	return rec, nil
}

// GetByPath returns the record for path and whether it exists.
func (s *MetricsStoreImpl) GetByPath(ctx context.Context, path string) (schema.MetricsRecord, bool, error) {
	rec, err := scanMetricsRecord(s.db.QueryRowContext(ctx, s.selectByPathQuery(false), path))
	if errors.Is(err, sql.ErrNoRows) {
		return schema.MetricsRecord{}, false, nil
	}
	if err != nil {
		return schema.MetricsRecord{}, false, fmt.Errorf("failed to read record for %s: %w", path, err)
	}
	return rec, true, nil
}

// Upsert writes record under path in a single transaction. The first insert
// fixes date_created; later writes keep it and move last_analyzed forward.
func (s *MetricsStoreImpl) Upsert(ctx context.Context, path string, record schema.MetricsRecord) (schema.MetricsRecord, error) {
	if path == "" {
		return schema.MetricsRecord{}, &contract.ValidationError{Field: "path", Value: path, Message: "path cannot be empty"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return schema.MetricsRecord{}, fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().UTC()
	created := now
	existing, err := scanMetricsRecord(tx.QueryRowContext(ctx, s.selectByPathQuery(true), path))
	switch {
	case err == nil:
		created = existing.DateCreated
	case errors.Is(err, sql.ErrNoRows):
	default:
		return schema.MetricsRecord{}, fmt.Errorf("failed to read existing record for %s: %w", path, err)
	}
	lastAnalyzed := now
	if lastAnalyzed.Before(created) {
		lastAnalyzed = created
	}

	_, err = tx.ExecContext(ctx, s.upsertQuery(),
		path, record.Name, record.Username, record.AgeDays, record.UpdateFrequencyDays,
		record.ContributorCount, record.Stars, record.CommitCount, record.LinesOfCode, record.OpenIssues,
		record.SocialSignal, record.Group, lastAnalyzed.UnixNano(), created.UnixNano(),
	)
	if err != nil {
		return schema.MetricsRecord{}, fmt.Errorf("failed to upsert record for %s: %w", path, err)
	}

	stored, err := scanMetricsRecord(tx.QueryRowContext(ctx, s.selectByPathQuery(false), path))
	if err != nil {
		return schema.MetricsRecord{}, fmt.Errorf("failed to read back record for %s: %w", path, err)
	}
	if err := tx.Commit(); err != nil {
		return schema.MetricsRecord{}, fmt.Errorf("failed to commit upsert for %s: %w", path, err)
	}
	return stored, nil
}

// ListAll returns records ordered descending by field, ties broken by path.
func (s *MetricsStoreImpl) ListAll(ctx context.Context, field schema.SortField, limit int) ([]schema.MetricsRecord, error) {
	if !field.Valid() {
		return nil, &contract.ValidationError{
			Field:   "sort",
			Value:   string(field),
			Message: "must be one of " + strings.Join(schema.SortFieldNames(), ", "),
		}
	}
	if limit < 0 {
		return nil, &contract.ValidationError{Field: "limit", Value: fmt.Sprint(limit), Message: "must not be negative"}
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s DESC, path ASC",
		strings.Join(metricsColumns, ", "), s.quotedTable(), field.Column())
	var args []any
	if limit > 0 {
		query += " LIMIT " + placeholder(s.backend, 1)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.MetricsRecord
	for rows.Next() {
		rec, err := scanMetricsRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Remove deletes the record for path and reports whether one existed.
func (s *MetricsStoreImpl) Remove(ctx context.Context, path string) (bool, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE path = %s", s.quotedTable(), placeholder(s.backend, 1))
	res, err := s.db.ExecContext(ctx, query, path)
	if err != nil {
		return false, fmt.Errorf("failed to remove %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClearAll deletes every record and returns how many were removed.
func (s *MetricsStoreImpl) ClearAll(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin clear transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.quotedTable())).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.quotedTable())); err != nil {
		return 0, fmt.Errorf("failed to clear records: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit clear: %w", err)
	}
	return count, nil
}

// GetStatus returns aggregate information about the metrics store.
func (s *MetricsStoreImpl) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(s.backend),
		Connected: true,
	}

	var avgSignal, avgStars sql.NullFloat64
	var newest, oldest sql.NullInt64
	query := fmt.Sprintf(
		"SELECT COUNT(*), AVG(social_signal), AVG(stars), MAX(last_analyzed), MIN(last_analyzed) FROM %s",
		s.quotedTable())
	err := s.db.QueryRowContext(ctx, query).Scan(&status.TotalRecords, &avgSignal, &avgStars, &newest, &oldest)
	if err != nil {
		return status, fmt.Errorf("failed to query metrics status: %w", err)
	}
	status.AverageSignal = avgSignal.Float64
	status.AverageStars = avgStars.Float64
	if newest.Valid {
		status.LastAnalyzedTime = time.Unix(0, newest.Int64).UTC()
	}
	if oldest.Valid {
		status.OldestAnalyzedTime = time.Unix(0, oldest.Int64).UTC()
	}
	status.TableSizeBytes = estimateTableSize(ctx, s.db, s.backend, s.connStr, s.tableName, status.TotalRecords)
	return status, nil
}

// Vacuum reclaims unused storage.
func (s *MetricsStoreImpl) Vacuum(ctx context.Context) error {
	var query string
	switch s.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf("OPTIMIZE TABLE %s", s.quotedTable())
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf("VACUUM %s", s.quotedTable())
	default:
		query = "VACUUM"
	}
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to vacuum %s store: %w", s.backend, err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *MetricsStoreImpl) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
