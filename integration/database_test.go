//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestSosigWithMySQL tests the sosig CLI with a MySQL backend.
func TestSosigWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "sosig",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/sosig", host, port.Port())
	exerciseBackend(t, "mysql", connStr)
}

// TestSosigWithPostgres tests the sosig CLI with a PostgreSQL backend.
func TestSosigWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	exerciseBackend(t, "postgresql", connStr)
}

// exerciseBackend runs the store lifecycle with both stores on one server database.
func exerciseBackend(t *testing.T, backend, connStr string) {
	t.Setenv("SOSIG_DB_BACKEND", backend)
	t.Setenv("SOSIG_DB_CONNECT", connStr)
	t.Setenv("SOSIG_RUNS_BACKEND", backend)
	t.Setenv("SOSIG_RUNS_CONNECT", connStr)
	t.Setenv("SOSIG_ALLOW_MISSING_REMOTE", "true")

	repo := initRepo(t, 3)
	dir := t.TempDir()

	_, err := runSosig(t, dir, "db", "migrate")
	require.NoError(t, err)

	_, err = runSosig(t, dir, "analyze", repo)
	require.NoError(t, err)

	// Second run is served from the store.
	out, err := runSosig(t, dir, "analyze", repo, "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"cached": 1`)

	out, err = runSosig(t, dir, "db", "list", "--output", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, repo)

	_, err = runSosig(t, dir, "db", "stats")
	require.NoError(t, err)

	out, err = runSosig(t, dir, "runs", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs:")

	_, err = runSosig(t, dir, "runs", "clear")
	require.NoError(t, err)

	out, err = runSosig(t, dir, "db", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 records.")
}
