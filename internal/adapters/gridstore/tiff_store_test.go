package gridstore_test

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/andrescamacho/floodfill-go/internal/adapters/gridstore"
	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

func writeGray16(t *testing.T, path string, rows, cols int, values []uint16) {
	t.Helper()
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

func TestTIFFStore_ReadAppliesBurnWindow(t *testing.T) {
	// Arrange - 0 unburned, 65535 is int16 -1 nodata
	path := filepath.Join(t.TempDir(), "MCD64A1.tif")
	writeGray16(t, path, 2, 3, []uint16{0, 200, 201, 65535, 366, 367})
	store := gridstore.NewTIFFStore(raster.DefaultBurnWindow())

	// Act
	grid, err := store.Read(context.Background(), path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, grid.Rows())
	assert.Equal(t, 3, grid.Cols())
	assert.Equal(t, raster.Unburned(), grid.At(0, 0))
	assert.Equal(t, raster.BurnedOn(200), grid.At(0, 1))
	assert.Equal(t, raster.Unburned(), grid.At(1, 0))
	assert.Equal(t, raster.BurnedOn(366), grid.At(1, 1))
	assert.Equal(t, raster.Unburned(), grid.At(1, 2))
}

func TestTIFFStore_ReadErrors(t *testing.T) {
	dir := t.TempDir()
	store := gridstore.NewTIFFStore(raster.DefaultBurnWindow())

	corrupt := filepath.Join(dir, "corrupt.tif")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a tiff"), 0o644))

	rgba := filepath.Join(dir, "rgba.tif")
	f, err := os.Create(rgba)
	require.NoError(t, err)
	require.NoError(t, tiff.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2)), nil))
	require.NoError(t, f.Close())

	for name, path := range map[string]string{
		"missing":     filepath.Join(dir, "missing.tif"),
		"corrupt":     corrupt,
		"unsupported": rgba,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := store.Read(context.Background(), path)

			var readErr *shared.ReadError
			require.ErrorAs(t, err, &readErr)
			assert.Equal(t, path, readErr.Identifier)
		})
	}
}

func TestTIFFStore_LabelRoundTrip(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	input := filepath.Join(dir, "in.tif")
	writeGray16(t, input, 3, 3, []uint16{
		10, 11, 0,
		0, 0, 0,
		0, 90, 90,
	})
	store := gridstore.NewTIFFStore(raster.DefaultBurnWindow())
	grid, err := store.Read(context.Background(), input)
	require.NoError(t, err)
	labels := raster.Label(grid, raster.DefaultParams())

	// Act
	output := filepath.Join(dir, "nested", "out", "in-floodfill_ids.tif")
	require.NoError(t, store.WriteLabels(context.Background(), output, labels))

	// Assert - labels read back as raw values through a window that admits them
	back, err := gridstore.NewTIFFStore(raster.BurnWindow{Lower: 1, Upper: 65535}).Read(context.Background(), output)
	require.NoError(t, err)
	assert.Equal(t, raster.BurnedOn(1), back.At(0, 0))
	assert.Equal(t, raster.BurnedOn(1), back.At(0, 1))
	assert.Equal(t, raster.Unburned(), back.At(1, 1))
	assert.Equal(t, raster.BurnedOn(2), back.At(2, 2))

	entries, err := os.ReadDir(filepath.Dir(output))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestTIFFStore_WriteDates(t *testing.T) {
	dir := t.TempDir()
	grid, err := raster.GridFromRows([][]raster.Pixel{{raster.BurnedOn(150), raster.Unburned()}})
	require.NoError(t, err)
	dates := raster.BurnDates(grid, raster.Label(grid, raster.DefaultParams()))
	store := gridstore.NewTIFFStore(raster.DefaultBurnWindow())

	path := filepath.Join(dir, "in-floodfill_burndates.tif")
	require.NoError(t, store.WriteDates(context.Background(), path, dates))

	back, err := store.Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, raster.BurnedOn(150), back.At(0, 0))
	assert.Equal(t, raster.Unburned(), back.At(0, 1))
}

func TestTIFFStore_WriteLabelsOverflow(t *testing.T) {
	// a checkerboard under 4-connectivity gives one event per burned pixel
	const rows, cols = 2, 65537
	mask := make([][]bool, rows)
	for r := range mask {
		mask[r] = make([]bool, cols)
		for c := range mask[r] {
			mask[r][c] = (r+c)%2 == 0
		}
	}
	grid, err := raster.GridFromBurned(mask)
	require.NoError(t, err)
	labels := raster.Label(grid, raster.SpatialParams(raster.Adjacency4))
	require.Greater(t, labels.Events(), 65535)

	path := filepath.Join(t.TempDir(), "overflow.tif")
	err = gridstore.NewTIFFStore(raster.DefaultBurnWindow()).WriteLabels(context.Background(), path, labels)

	var writeErr *shared.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.ErrorIs(t, err, gridstore.ErrTooManyEvents)
	assert.NoFileExists(t, path)
}

func TestTIFFStore_WriteToUnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	grid, err := raster.GridFromBurned([][]bool{{true}})
	require.NoError(t, err)

	err = gridstore.NewTIFFStore(raster.DefaultBurnWindow()).
		WriteLabels(context.Background(), filepath.Join(blocker, "out.tif"), raster.Label(grid, raster.DefaultParams()))

	var writeErr *shared.WriteError
	assert.ErrorAs(t, err, &writeErr)
}

func TestTIFFStore_Remove(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "tile-floodfill_ids.tif")
	store := gridstore.NewTIFFStore(raster.DefaultBurnWindow())
	labels, err := raster.NewLabelGrid(1, 2, []uint32{1, 0})
	require.NoError(t, err)
	require.NoError(t, store.WriteLabels(context.Background(), output, labels))

	require.NoError(t, store.Remove(context.Background(), output))
	_, err = os.Stat(output)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Remove(context.Background(), output), "removing a missing output is not an error")
}
