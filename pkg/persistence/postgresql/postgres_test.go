package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/persistence"
	"github.com/tirs/Automotive-database-demo/pkg/persistence/postgresql"
	"github.com/tirs/Automotive-database-demo/pkg/testutil"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"workflow_instances", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("automotive_test"),
			postgres.WithUsername("automotive"),
			postgres.WithPassword("automotive"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	var exists bool

	err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = 'workflow_instances')`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "workflow_instances table should exist")

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	err := p.HealthCheck(ctx)
	assert.NoError(t, err)
}

func TestPersistence_InstanceStore(t *testing.T) {
	testutil.RunInstanceStoreSuite(t, func(t *testing.T) persistence.InstanceStore {
		t.Helper()

		p, _, _ := setupTestDB(t)

		return p
	})
}

func TestPersistence_NextScheduledForColumn(t *testing.T) {
	p, ctx, databaseURL := setupTestDB(t)

	resumeAt := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
	instance := testutil.CreateTestInstance(testutil.WithSuspendedWait(1, resumeAt))
	require.NoError(t, p.SaveInstance(ctx, instance))

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	var scheduledFor time.Time

	err = db.QueryRowContext(ctx, "SELECT next_scheduled_for FROM workflow_instances WHERE id = $1", instance.ID).Scan(&scheduledFor)
	require.NoError(t, err)
	assert.True(t, resumeAt.Equal(scheduledFor))

	instance.Status = models.InstanceStatusCompleted
	instance.NextScheduledStep = nil
	require.NoError(t, p.SaveInstance(ctx, instance))

	var cleared sql.NullTime

	err = db.QueryRowContext(ctx, "SELECT next_scheduled_for FROM workflow_instances WHERE id = $1", instance.ID).Scan(&cleared)
	require.NoError(t, err)
	assert.False(t, cleared.Valid)
}
