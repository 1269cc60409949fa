package raster

import (
	"fmt"

	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

const (
	// DefaultLowerBurnValue is the first valid day-of-year value
	DefaultLowerBurnValue = 1
	// DefaultUpperBurnValue is the last valid day-of-year value (leap year)
	DefaultUpperBurnValue = 366
)

// BurnWindow is the inclusive range of raw raster values that count as burned.
// Values outside it (nodata, unburned flags, water masks) are unburned.
type BurnWindow struct {
	Lower int
	Upper int
}

// DefaultBurnWindow accepts day-of-year values 1..366
func DefaultBurnWindow() BurnWindow {
	return BurnWindow{Lower: DefaultLowerBurnValue, Upper: DefaultUpperBurnValue}
}

// Contains reports whether v is a burn date
func (w BurnWindow) Contains(v int) bool {
	return v >= w.Lower && v <= w.Upper
}

func (w BurnWindow) Validate() error {
	if w.Lower > w.Upper {
		return shared.NewConfigError("burn window", fmt.Sprintf("lower value %d exceeds upper value %d", w.Lower, w.Upper))
	}
	return nil
}

func (w BurnWindow) String() string {
	return fmt.Sprintf("[%d, %d]", w.Lower, w.Upper)
}
