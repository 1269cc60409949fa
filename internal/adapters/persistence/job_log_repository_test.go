package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/floodfill-go/internal/adapters/persistence"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
	"github.com/andrescamacho/floodfill-go/test/helpers"
)

func TestJobLogRepository_DeduplicatesWithinWindow(t *testing.T) {
	// Arrange
	clock := shared.NewMockClock(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
	repo := persistence.NewGormJobLogRepository(helpers.NewTestDB(t), clock)
	ctx := context.Background()

	// Act
	require.NoError(t, repo.Log(ctx, "run-1", "job-1", "retrying read", "WARNING", nil))
	clock.Advance(10 * time.Second)
	require.NoError(t, repo.Log(ctx, "run-1", "job-1", "retrying read", "WARNING", nil))
	require.NoError(t, repo.Log(ctx, "run-1", "job-2", "retrying read", "WARNING", nil))
	clock.Advance(2 * time.Minute)
	require.NoError(t, repo.Log(ctx, "run-1", "job-1", "retrying read", "WARNING", nil))

	// Assert
	logs, err := repo.GetLogs(ctx, "run-1", "job-1", 0, 0, nil, nil)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	all, err := repo.GetLogs(ctx, "run-1", "", 0, 0, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestJobLogRepository_FiltersAndMetadata(t *testing.T) {
	clock := shared.NewMockClock(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
	repo := persistence.NewGormJobLogRepository(helpers.NewTestDB(t), clock)
	ctx := context.Background()

	require.NoError(t, repo.Log(ctx, "run-1", "", "batch started", "INFO", map[string]interface{}{"jobs": 2}))
	clock.Advance(time.Second)
	since := clock.Now()
	clock.Advance(time.Second)
	require.NoError(t, repo.Log(ctx, "run-1", "job-1", "read failed", "ERROR", map[string]interface{}{"error_kind": "ReadError"}))
	require.NoError(t, repo.Log(ctx, "run-2", "job-9", "other run", "ERROR", nil))

	level := "ERROR"
	logs, err := repo.GetLogs(ctx, "run-1", "", 10, 0, &level, nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "read failed", logs[0].Message)
	assert.Equal(t, "ReadError", logs[0].Metadata["error_kind"])

	recent, err := repo.GetLogs(ctx, "run-1", "", 10, 0, nil, &since)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "job-1", recent[0].JobID)

	all, err := repo.GetLogs(ctx, "run-1", "", 10, 0, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "read failed", all[0].Message, "newest first")
	assert.EqualValues(t, 2, all[1].Metadata["jobs"])
}

func TestRunLogger_PersistsJobIDFromMetadata(t *testing.T) {
	repo := persistence.NewGormJobLogRepository(helpers.NewTestDB(t), nil)
	logger := persistence.NewRunLogger(repo, "run-7")

	logger.Log("INFO", "labeled grid", map[string]interface{}{"job_id": "job-3", "events": 4})
	logger.Log("INFO", "batch finished", nil)

	logs, err := repo.GetLogs(context.Background(), "run-7", "job-3", 0, 0, nil, nil)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "labeled grid", logs[0].Message)

	all, err := repo.GetLogs(context.Background(), "run-7", "", 0, 0, nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
