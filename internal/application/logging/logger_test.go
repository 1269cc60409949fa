package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/floodfill-go/internal/application/logging"
	"github.com/andrescamacho/floodfill-go/test/helpers"
)

func TestLoggerFromContext_FallsBackToNoOp(t *testing.T) {
	logger := logging.LoggerFromContext(context.Background())

	require.NotNil(t, logger)
	assert.NotPanics(t, func() { logger.Log(logging.LevelInfo, "ignored", nil) })
}

func TestWithFields_MergesMetadata(t *testing.T) {
	rec := helpers.NewRecordingLogger()
	logger := logging.WithFields(rec, map[string]interface{}{"run_id": "run-1", "job_index": 0})

	logger.Log(logging.LevelError, "read failed", map[string]interface{}{"job_index": 2})

	entries := rec.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "run-1", entries[0].Metadata["run_id"])
	assert.Equal(t, 2, entries[0].Metadata["job_index"])
}

func TestMulti_FansOut(t *testing.T) {
	a, b := helpers.NewRecordingLogger(), helpers.NewRecordingLogger()
	ctx := logging.WithLogger(context.Background(), logging.Multi(a, nil, b))

	logging.LoggerFromContext(ctx).Log(logging.LevelInfo, "batch started", nil)

	assert.Len(t, a.Entries(), 1)
	assert.Len(t, b.Entries(), 1)
}
