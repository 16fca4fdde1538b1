package iocache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
)

// Table names for run tracking.
const (
	runsTable     = "sosig_runs"
	runPathsTable = "sosig_run_paths"
)

// RunStoreImpl implements the RunStore interface.
// With the none backend every write is a no-op.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(ctx context.Context, backend schema.DatabaseBackend, connStr string) (*RunStoreImpl, error) {
	if backend == schema.NoneBackend || backend == "" {
		return &RunStoreImpl{backend: schema.NoneBackend}, nil
	}

	db, _, err := openDB(ctx, backend, connStr)
	if err != nil {
		return nil, err
	}

	if err := createRunTables(ctx, db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &RunStoreImpl{db: db, backend: backend, connStr: connStr}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(ctx context.Context, db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{runPathsTable, getCreateRunPathsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id CHAR(36) NOT NULL PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms BIGINT,
				total_paths INT NOT NULL DEFAULT 0,
				succeeded INT NOT NULL DEFAULT 0,
				failed INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT NOT NULL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms BIGINT,
				total_paths INT NOT NULL DEFAULT 0,
				succeeded INT NOT NULL DEFAULT 0,
				failed INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT NOT NULL PRIMARY KEY,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_paths INTEGER NOT NULL DEFAULT 0,
				succeeded INTEGER NOT NULL DEFAULT 0,
				failed INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

func getCreateRunPathsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runPathsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id CHAR(36) NOT NULL,
				path VARCHAR(512) NOT NULL,
				analyzed_at DATETIME(6) NOT NULL,
				outcome VARCHAR(16) NOT NULL,
				social_signal DOUBLE,
				error_message TEXT,
				PRIMARY KEY (run_id, path)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT NOT NULL,
				path TEXT NOT NULL,
				analyzed_at TIMESTAMPTZ NOT NULL,
				outcome TEXT NOT NULL,
				social_signal DOUBLE PRECISION,
				error_message TEXT,
				PRIMARY KEY (run_id, path)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id TEXT NOT NULL,
				path TEXT NOT NULL,
				analyzed_at TEXT NOT NULL,
				outcome TEXT NOT NULL,
				social_signal REAL,
				error_message TEXT,
				PRIMARY KEY (run_id, path)
			);
		`, quotedTableName)
	}
}

func (rs *RunStoreImpl) disabled() bool {
	return rs.backend == schema.NoneBackend || rs.db == nil
}

// BeginRun creates a new run and returns its unique ID.
// The none backend returns an empty ID.
func (rs *RunStoreImpl) BeginRun(ctx context.Context, startTime time.Time, configParams map[string]any) (string, error) {
	if rs.disabled() {
		return "", nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config params: %w", err)
	}

	runID := uuid.NewString()
	query := fmt.Sprintf(`INSERT INTO %s (run_id, start_time, config_params) VALUES (%s)`,
		quoteTableName(runsTable, rs.backend), placeholders(rs.backend, 3))
	if _, err := rs.db.ExecContext(ctx, query, runID, formatTime(startTime, rs.backend), string(configJSON)); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// RecordPath stores the outcome of one path within a run.
func (rs *RunStoreImpl) RecordPath(ctx context.Context, record schema.RunPathRecord) error {
	if rs.disabled() || record.RunID == "" {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (run_id, path, analyzed_at, outcome, social_signal, error_message) VALUES (%s)`,
		quoteTableName(runPathsTable, rs.backend), placeholders(rs.backend, 6))
	_, err := rs.db.ExecContext(ctx, query,
		record.RunID, record.Path, formatTime(record.AnalyzedAt, rs.backend),
		string(record.Outcome), record.SocialSignal, record.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to record path %s: %w", record.Path, err)
	}
	return nil
}

// EndRun updates the run with completion data.
func (rs *RunStoreImpl) EndRun(ctx context.Context, runID string, endTime time.Time, succeeded, failed int) error {
	if rs.disabled() || runID == "" {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, rs.backend)
	ts := timeScanner{backend: rs.backend}
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, placeholder(rs.backend, 1))
	if err := rs.db.QueryRowContext(ctx, query, runID).Scan(ts.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for run %s: %w", runID, err)
	}
	startTime, _, err := ts.value()
	if err != nil {
		return err
	}

	durationMs := endTime.Sub(startTime).Milliseconds()
	updateQuery := fmt.Sprintf(
		`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_paths = %s, succeeded = %s, failed = %s WHERE run_id = %s`,
		quotedTableName,
		placeholder(rs.backend, 1), placeholder(rs.backend, 2), placeholder(rs.backend, 3),
		placeholder(rs.backend, 4), placeholder(rs.backend, 5), placeholder(rs.backend, 6),
	)
	_, err = rs.db.ExecContext(ctx, updateQuery,
		formatTime(endTime, rs.backend), durationMs, succeeded+failed, succeeded, failed, runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus(ctx context.Context) (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		TableSizes: map[string]int64{},
	}
	if rs.disabled() {
		return status, nil
	}
	status.Connected = true

	runs := quoteTableName(runsTable, rs.backend)
	var totalPaths sql.NullInt64
	query := fmt.Sprintf(`SELECT COUNT(*), SUM(total_paths) FROM %s`, runs)
	if err := rs.db.QueryRowContext(ctx, query).Scan(&status.TotalRuns, &totalPaths); err != nil {
		return status, fmt.Errorf("failed to count runs: %w", err)
	}
	status.TotalPaths = int(totalPaths.Int64)

	if status.TotalRuns > 0 {
		last := timeScanner{backend: rs.backend}
		query = fmt.Sprintf(`SELECT run_id, start_time FROM %s ORDER BY start_time DESC LIMIT 1`, runs)
		if err := rs.db.QueryRowContext(ctx, query).Scan(&status.LastRunID, last.dest()); err != nil {
			return status, fmt.Errorf("failed to query latest run: %w", err)
		}
		if t, ok, err := last.value(); err == nil && ok {
			status.LastRunTime = t
		}

		oldest := timeScanner{backend: rs.backend}
		query = fmt.Sprintf(`SELECT start_time FROM %s ORDER BY start_time ASC LIMIT 1`, runs)
		if err := rs.db.QueryRowContext(ctx, query).Scan(oldest.dest()); err != nil {
			return status, fmt.Errorf("failed to query oldest run: %w", err)
		}
		if t, ok, err := oldest.value(); err == nil && ok {
			status.OldestRunTime = t
		}
	}

	for _, table := range []string{runsTable, runPathsTable} {
		var rows int
		countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteTableName(table, rs.backend))
		if err := rs.db.QueryRowContext(ctx, countQuery).Scan(&rows); err != nil {
			return status, fmt.Errorf("failed to count %s: %w", table, err)
		}
		status.TableSizes[table] = estimateTableSize(ctx, rs.db, rs.backend, rs.connStr, table, rows)
	}
	return status, nil
}

// GetAllRuns returns every run ordered by start time.
func (rs *RunStoreImpl) GetAllRuns(ctx context.Context) ([]schema.RunRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, start_time, end_time, run_duration_ms, total_paths, succeeded, failed, config_params
		FROM %s ORDER BY start_time ASC`, quoteTableName(runsTable, rs.backend))
	rows, err := rs.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.RunRecord
	for rows.Next() {
		var rec schema.RunRecord
		start := timeScanner{backend: rs.backend}
		end := timeScanner{backend: rs.backend}
		var duration sql.NullInt64
		var params sql.NullString
		if err := rows.Scan(&rec.RunID, start.dest(), end.dest(), &duration, &rec.TotalPaths,
			&rec.Succeeded, &rec.Failed, &params); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if rec.StartTime, _, err = start.value(); err != nil {
			return nil, err
		}
		endTime, ok, err := end.value()
		if err != nil {
			return nil, err
		}
		if ok {
			rec.EndTime = &endTime
		}
		if duration.Valid {
			rec.DurationMs = &duration.Int64
		}
		if params.Valid {
			rec.ConfigParams = &params.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetAllRunPaths returns every per-path outcome ordered by run and path.
func (rs *RunStoreImpl) GetAllRunPaths(ctx context.Context) ([]schema.RunPathRecord, error) {
	if rs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, path, analyzed_at, outcome, social_signal, error_message
		FROM %s ORDER BY run_id, path`, quoteTableName(runPathsTable, rs.backend))
	rows, err := rs.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query run paths: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.RunPathRecord
	for rows.Next() {
		var rec schema.RunPathRecord
		analyzed := timeScanner{backend: rs.backend}
		var outcome string
		var signal sql.NullFloat64
		var message sql.NullString
		if err := rows.Scan(&rec.RunID, &rec.Path, analyzed.dest(), &outcome, &signal, &message); err != nil {
			return nil, fmt.Errorf("failed to scan run path: %w", err)
		}
		if rec.AnalyzedAt, _, err = analyzed.value(); err != nil {
			return nil, err
		}
		rec.Outcome = schema.RunOutcome(outcome)
		if signal.Valid {
			rec.SocialSignal = &signal.Float64
		}
		if message.Valid {
			rec.ErrorMessage = &message.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

