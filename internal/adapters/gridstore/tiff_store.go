package gridstore

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"

	"github.com/andrescamacho/floodfill-go/internal/domain/batch"
	"github.com/andrescamacho/floodfill-go/internal/domain/raster"
	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// ErrUnsupportedFormat is returned for TIFF images that are not single-band grayscale
var ErrUnsupportedFormat = errors.New("unsupported pixel format (expected 8 or 16 bit grayscale)")

// ErrTooManyEvents is returned when labels do not fit the 16 bit output
var ErrTooManyEvents = errors.New("label exceeds 16 bit output range")

// TIFFStore reads burn-date rasters from and writes label rasters to
// single-band TIFF files. Identifiers are file paths.
type TIFFStore struct {
	window raster.BurnWindow
}

// NewTIFFStore creates a store that marks values inside window as burned
func NewTIFFStore(window raster.BurnWindow) *TIFFStore {
	return &TIFFStore{window: window}
}

// Read decodes an 8 or 16 bit grayscale TIFF. Signed 16 bit nodata values
// decode as large unsigned values and fall outside the burn window.
func (s *TIFFStore) Read(ctx context.Context, identifier string) (*raster.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, shared.NewReadError(identifier, err)
	}

	f, err := os.Open(identifier)
	if err != nil {
		return nil, shared.NewReadError(identifier, err)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		return nil, shared.NewReadError(identifier, err)
	}

	values, rows, cols, err := grayValues(img)
	if err != nil {
		return nil, shared.NewReadError(identifier, err)
	}

	grid, err := raster.GridFromValues(rows, cols, values, s.window)
	if err != nil {
		return nil, shared.NewReadError(identifier, err)
	}
	return grid, nil
}

func grayValues(img image.Image) ([]int, int, int, error) {
	b := img.Bounds()
	rows, cols := b.Dy(), b.Dx()
	values := make([]int, 0, rows*cols)

	switch m := img.(type) {
	case *image.Gray:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				values = append(values, int(m.GrayAt(x, y).Y))
			}
		}
	case *image.Gray16:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				values = append(values, int(m.Gray16At(x, y).Y))
			}
		}
	default:
		return nil, 0, 0, fmt.Errorf("%w: got %T", ErrUnsupportedFormat, img)
	}

	return values, rows, cols, nil
}

// WriteLabels encodes labels as a 16 bit grayscale TIFF
func (s *TIFFStore) WriteLabels(ctx context.Context, identifier string, labels *raster.LabelGrid) error {
	if labels.Events() > math.MaxUint16 {
		return shared.NewWriteError(identifier, fmt.Errorf("%w: %d events", ErrTooManyEvents, labels.Events()))
	}

	img := image.NewGray16(image.Rect(0, 0, labels.Cols(), labels.Rows()))
	for i, v := range labels.Labels() {
		setGray16(img, i, uint16(v))
	}
	return s.write(identifier, img)
}

// WriteDates encodes the burn-date raster as a 16 bit grayscale TIFF
func (s *TIFFStore) WriteDates(ctx context.Context, identifier string, dates *raster.DateGrid) error {
	img := image.NewGray16(image.Rect(0, 0, dates.Cols(), dates.Rows()))
	for i, v := range dates.Values() {
		if v < 0 || v > math.MaxUint16 {
			return shared.NewWriteError(identifier, fmt.Errorf("date %d outside 16 bit output range", v))
		}
		setGray16(img, i, uint16(v))
	}
	return s.write(identifier, img)
}

func setGray16(img *image.Gray16, idx int, v uint16) {
	img.Pix[2*idx] = uint8(v >> 8)
	img.Pix[2*idx+1] = uint8(v)
}

// Remove deletes the raster at identifier; a missing file is not an error
func (s *TIFFStore) Remove(ctx context.Context, identifier string) error {
	if err := os.Remove(identifier); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return shared.NewWriteError(identifier, err)
	}
	return nil
}

// write encodes into a temporary file next to identifier and renames it into
// place, so a failed write leaves no partial output
func (s *TIFFStore) write(identifier string, img image.Image) error {
	dir := filepath.Dir(identifier)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return shared.NewWriteError(identifier, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(identifier)+".*.tmp")
	if err != nil {
		return shared.NewWriteError(identifier, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tiff.Encode(tmp, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		tmp.Close()
		return shared.NewWriteError(identifier, err)
	}
	if err := tmp.Close(); err != nil {
		return shared.NewWriteError(identifier, err)
	}
	if err := os.Rename(tmpName, identifier); err != nil {
		return shared.NewWriteError(identifier, err)
	}
	return nil
}

var (
	_ batch.GridSource    = (*TIFFStore)(nil)
	_ batch.GridSink      = (*TIFFStore)(nil)
	_ batch.OutputRemover = (*TIFFStore)(nil)
)
