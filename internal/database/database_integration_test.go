package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"price-pipeline/internal/database/versions"
	"price-pipeline/internal/database/versions/migration_1"
	"price-pipeline/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	dbName     = "ledger"
	dbUser     = "pipeline"
	dbPassword = "password"
)

func setupPostgres(t *testing.T) string {
	ctx := context.Background()

	postgresContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername(dbUser),
		tcpostgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(postgresContainer); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get PostgreSQL connection string")
	return connStr
}

func TestLedgerPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}

	db, err := NewDatabase(setupPostgres(t))
	require.NoError(t, err)
	assert.Equal(t, "postgres", db.Dialector.Name())
	assert.True(t, db.Migrator().HasColumn(&RunRecord{}, "rows_dropped"))

	ledger := NewLedger(db)
	ctx := context.Background()

	id, err := ledger.Start(ctx, testRun, models.ObjectRef{})
	require.NoError(t, err)

	source := models.ObjectRef{Bucket: "raw-data-coffee", Key: "prices.csv"}
	require.NoError(t, ledger.Running(ctx, id, source))
	require.NoError(t, ledger.Complete(ctx, id, source, RunSummary{
		Dest:        models.ObjectRef{Bucket: "processed-data-coffee", Key: "coffee_data.parquet"},
		RowsIn:      4,
		RowsDropped: 1,
		RowsOut:     3,
		Anomaly:     true,
	}))

	record, err := ledger.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, RunCompleted, record.Status)
	assert.Equal(t, "prices.csv", record.SourceKey)
	assert.Equal(t, "coffee_data.parquet", record.DestKey.String)
	assert.Equal(t, 1, record.RowsDropped)
	assert.True(t, record.Anomaly)

	failedId, err := ledger.Start(ctx, testRun, source)
	require.NoError(t, err)
	require.NoError(t, ledger.Fail(ctx, failedId, errors.New("object not found")))

	latest, err := ledger.LatestCompleted(ctx, testRun)
	require.NoError(t, err)
	assert.Equal(t, id, latest.Id)
}

func TestMigrationFromVersion0Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}

	db, err := gorm.Open(postgres.Open(setupPostgres(t)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, versions.Migration0(db))

	completed := versions.RunRecord{
		Id:             uuid.New(),
		WorkflowName:   "glue_workflow",
		RunId:          "wr_1",
		SourceBucket:   "raw-data-coffee",
		SourceKey:      "prices.csv",
		DestBucket:     sql.NullString{String: "processed-data-coffee", Valid: true},
		DestKey:        sql.NullString{String: "coffee_data.parquet", Valid: true},
		Status:         RunCompleted,
		RowsIn:         10,
		RowsOut:        7,
		CreationTime:   time.Now().UTC(),
		CompletionTime: sql.NullTime{Time: time.Now().UTC(), Valid: true},
	}
	failed := versions.RunRecord{
		Id:           uuid.New(),
		WorkflowName: "glue_workflow",
		RunId:        "wr_2",
		Status:       RunFailed,
		RowsIn:       4,
		CreationTime: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&completed).Error)
	require.NoError(t, db.Create(&failed).Error)

	require.NoError(t, migration_1.Migration(db))

	var dropped []struct {
		RunId       string
		RowsDropped int
	}
	require.NoError(t, db.Raw("SELECT run_id, rows_dropped FROM run_records ORDER BY run_id").Scan(&dropped).Error)
	require.Len(t, dropped, 2)
	assert.Equal(t, 3, dropped[0].RowsDropped)
	assert.Equal(t, 0, dropped[1].RowsDropped)

	require.NoError(t, migration_1.Rollback(db))
	assert.False(t, db.Migrator().HasColumn(&RunRecord{}, "rows_dropped"))
}
