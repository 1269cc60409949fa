package logging

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/floodfill-go/internal/infrastructure/config"
)

func TestSlogLogger_JSONWithSortedMetadata(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(newLogger("info", "json", &buf))

	logger.Log("INFO", "job finished", map[string]interface{}{"run_id": "run-1", "events": 3})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "job finished", record["msg"])
	assert.Equal(t, "run-1", record["run_id"])
	assert.EqualValues(t, 3, record["events"])
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("events")), bytes.Index(buf.Bytes(), []byte("run_id")))
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(newLogger("warn", "text", &buf))

	logger.Log("DEBUG", "hidden", nil)
	logger.Log("INFO", "hidden too", nil)
	logger.Log("WARNING", "shown", nil)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel("WARNING").String())
	assert.Equal(t, "ERROR", parseLevel("ERROR").String())
	assert.Equal(t, "INFO", parseLevel("bogus").String())
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "floodfill.log")
	logger, closer, err := New(config.LoggingConfig{Level: "info", Format: "text", Output: "file", FilePath: path})
	require.NoError(t, err)

	logger.Log("ERROR", "write failed", map[string]interface{}{"error_kind": "WriteError"})
	require.NoError(t, closer.Close())

	assert.FileExists(t, path)
}

func TestNew_UnwritableFile(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Level: "info", Format: "text", Output: "file", FilePath: filepath.Join(t.TempDir(), "missing", "x.log")})

	assert.ErrorContains(t, err, "failed to open log file")
}
