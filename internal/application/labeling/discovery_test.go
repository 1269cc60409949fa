package labeling_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/floodfill-go/internal/application/labeling"
	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestDiscoverJobs_SingleFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "MCD64A1.A2019.tif")
	touch(t, input)

	specs, err := labeling.DiscoverJobs(input, "/out", ".tif", true)

	require.NoError(t, err)
	assert.Equal(t, []batch.JobSpec{{
		Input:       input,
		Output:      "/out/MCD64A1.A2019-floodfill_ids.tif",
		DatesOutput: "/out/MCD64A1.A2019-floodfill_burndates.tif",
	}}, specs)
}

func TestDiscoverJobs_RecursiveFolderInLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b", "h20v10.tif"))
	touch(t, filepath.Join(dir, "a", "h19v10.tif"))
	touch(t, filepath.Join(dir, "a", "notes.txt"))
	touch(t, filepath.Join(dir, "a", "h19v10-floodfill_ids.tif"))
	touch(t, filepath.Join(dir, "c.tif"))

	specs, err := labeling.DiscoverJobs(dir, "out", ".tif", false)

	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.Equal(t, filepath.Join(dir, "a", "h19v10.tif"), specs[0].Input)
	assert.Equal(t, filepath.Join(dir, "b", "h20v10.tif"), specs[1].Input)
	assert.Equal(t, filepath.Join(dir, "c.tif"), specs[2].Input)
	assert.Equal(t, filepath.Join("out", "h19v10-floodfill_ids.tif"), specs[0].Output)
	assert.Empty(t, specs[0].DatesOutput)
}

func TestDiscoverJobs_ConfigErrors(t *testing.T) {
	dir := t.TempDir()

	for name, call := range map[string]func() error{
		"missing input": func() error {
			_, err := labeling.DiscoverJobs(filepath.Join(dir, "nope"), "out", ".tif", false)
			return err
		},
		"no output folder": func() error {
			_, err := labeling.DiscoverJobs(dir, "", ".tif", false)
			return err
		},
		"extension without dot": func() error {
			_, err := labeling.DiscoverJobs(dir, "out", "tif", false)
			return err
		},
	} {
		t.Run(name, func(t *testing.T) {
			assert.True(t, shared.IsConfigError(call()))
		})
	}
}
