package cli_test

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/andrescamacho/floodfill-go/internal/adapters/cli"
	daemongrpc "github.com/andrescamacho/floodfill-go/internal/adapters/grpc"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
	"github.com/andrescamacho/floodfill-go/test/helpers"
)

func writeRaster(t *testing.T, path string, rows, cols int, values []uint16) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewGray16(image.Rect(0, 0, cols, rows))
	for i, v := range values {
		img.Pix[2*i] = uint8(v >> 8)
		img.Pix[2*i+1] = uint8(v)
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, tiff.Encode(f, img, nil))
}

// seedInputs writes a.tif (two events), b.tif (one event) and a corrupt broken.tif
func seedInputs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	writeRaster(t, filepath.Join(in, "a.tif"), 2, 4, []uint16{
		200, 201, 0, 0,
		0, 0, 0, 240,
	})
	writeRaster(t, filepath.Join(in, "b.tif"), 2, 2, []uint16{
		10, 11,
		12, 13,
	})
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.tif"), []byte("not a tiff"), 0o644))
	return in, filepath.Join(dir, "out")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cli.NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunCommand_LabelsFolderAndReportsEveryJob(t *testing.T) {
	// Arrange
	in, out := seedInputs(t)

	// Act
	output, err := execute(t, "run", "--input", in, "--output-folder", out, "--workers", "2", "-b")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, output, "a.tif: 2 events")
	assert.Contains(t, output, "b.tif: 1 events")
	assert.Contains(t, output, "broken.tif: ReadError")
	assert.Contains(t, output, "2 succeeded, 1 failed, 0 canceled, 3 events")

	assert.FileExists(t, filepath.Join(out, "a-floodfill_ids.tif"))
	assert.FileExists(t, filepath.Join(out, "a-floodfill_burndates.tif"))
	assert.FileExists(t, filepath.Join(out, "b-floodfill_ids.tif"))
	assert.NoFileExists(t, filepath.Join(out, "broken-floodfill_ids.tif"))
}

func TestRunCommand_ExitsZeroWhenEveryJobFails(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.tif")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o644))

	output, err := execute(t, "run", "--input", bad, "--output-folder", filepath.Join(dir, "out"))

	require.NoError(t, err)
	assert.Equal(t, cli.ExitOK, cli.ExitCode(err))
	assert.Contains(t, output, "0 succeeded, 1 failed")
}

func TestRunCommand_ConfigErrorsExitWithCodeTwo(t *testing.T) {
	in, out := seedInputs(t)

	tests := []struct {
		name string
		args []string
	}{
		{"invalid adjacency", []string{"run", "--input", in, "--output-folder", out, "--adjacency", "5"}},
		{"negative cut-off", []string{"run", "--input", in, "--output-folder", out, "--cut-off=-1"}},
		{"unknown strategy", []string{"run", "--input", in, "--output-folder", out, "--strategy", "bfs"}},
		{"missing input", []string{"run", "--output-folder", out}},
		{"missing output folder", []string{"run", "--input", in}},
		{"zero workers", []string{"run", "--input", in, "--output-folder", out, "--workers", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)

			require.Error(t, err)
			assert.Equal(t, cli.ExitConfigError, cli.ExitCode(err), "error: %v", err)
			assert.NoDirExists(t, out)
		})
	}
}

func TestRunCommand_CutOffAndSpatialOnlyAreExclusive(t *testing.T) {
	in, out := seedInputs(t)

	_, err := execute(t, "run", "--input", in, "--output-folder", out, "--cut-off", "3", "--spatial-only")

	require.Error(t, err)
	assert.NoDirExists(t, out)
}

func TestRunsCommands_ReadRecordedHistory(t *testing.T) {
	// Arrange
	in, out := seedInputs(t)
	t.Setenv("FF_DATABASE_TYPE", "sqlite")
	t.Setenv("FF_DATABASE_PATH", filepath.Join(t.TempDir(), "history.db"))
	t.Setenv("FF_BATCH_RECORD_RUNS", "true")
	t.Setenv("FF_LOGGING_PERSIST", "true")

	output, err := execute(t, "run", "--input", in, "--output-folder", out)
	require.NoError(t, err)
	match := regexp.MustCompile(`Run (run-\S+) SUCCEEDED`).FindStringSubmatch(output)
	require.Len(t, match, 2, output)
	runID := match[1]

	// Act
	listed, err := execute(t, "runs", "list")
	require.NoError(t, err)
	shown, err := execute(t, "runs", "show", runID, "--events")
	require.NoError(t, err)
	logs, err := execute(t, "runs", "logs", runID)
	require.NoError(t, err)

	// Assert
	assert.Contains(t, listed, runID)
	assert.Contains(t, shown, "a.tif: 2 events")
	assert.Contains(t, shown, "broken.tif: ReadError")
	assert.Contains(t, shown, "days 200-201")
	assert.Contains(t, logs, "Batch started")
	assert.Contains(t, logs, "Job failed")
}

func TestSubmitCommand_ForwardsOnlyChangedFlags(t *testing.T) {
	// Arrange
	in, out := seedInputs(t)
	client := helpers.NewMockDaemonClient()
	defer cli.SetDaemonDialer(func(string) (cli.LabelClient, error) { return client, nil })()

	// Act
	output, err := execute(t, "submit", "--input", in, "--output-folder", out, "--adjacency", "4", "--wait")

	// Assert
	require.NoError(t, err)
	requests := client.Requests()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, 4, req.Adjacency)
	assert.Nil(t, req.CutOff)
	assert.Empty(t, req.Strategy)
	assert.Zero(t, req.Workers)
	assert.True(t, req.Wait)
	require.Len(t, req.Jobs, 3)
	assert.True(t, filepath.IsAbs(req.Jobs[0].Input))
	assert.Equal(t, filepath.Join(out, "a-floodfill_ids.tif"), req.Jobs[0].Output)
	assert.True(t, client.Closed())
	assert.Contains(t, output, "Run run-mock0001 SUCCEEDED: 3 succeeded")
}

func TestSubmitCommand_DaemonConfigErrorExitsWithCodeTwo(t *testing.T) {
	in, out := seedInputs(t)
	client := helpers.NewMockDaemonClient()
	client.FailSubmissions(shared.NewConfigError("adjacency", "must be 4 or 8"))
	defer cli.SetDaemonDialer(func(string) (cli.LabelClient, error) { return client, nil })()

	_, err := execute(t, "submit", "--input", in, "--output-folder", out)

	assert.Equal(t, cli.ExitConfigError, cli.ExitCode(err))
}

func TestRunsCancel_UsesDaemon(t *testing.T) {
	client := helpers.NewMockDaemonClient()
	client.AddRun(daemongrpc.RunMessage{RunID: "run-abc", Status: "RUNNING"})
	defer cli.SetDaemonDialer(func(string) (cli.LabelClient, error) { return client, nil })()

	output, err := execute(t, "runs", "cancel", "run-abc")

	require.NoError(t, err)
	assert.Equal(t, []string{"run-abc"}, client.Canceled())
	assert.Contains(t, output, "Cancel requested for run run-abc")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, cli.ExitOK, cli.ExitCode(nil))
	assert.Equal(t, cli.ExitConfigError, cli.ExitCode(shared.NewConfigError("workers", "must be at least 1")))
	assert.Equal(t, cli.ExitFailure, cli.ExitCode(shared.NewReadError("a.tif", os.ErrNotExist)))
}
