package tropomi

import (
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"

	"github.com/rkm/collocate/internal/scanline"
)

// Resolver refines a TROPOMI acquisition time to the scanlines covered by an
// overlap polygon.
type Resolver struct {
	open Opener
}

// NewResolver creates a resolver that opens datasets with open.
func NewResolver(open Opener) *Resolver {
	return &Resolver{open: open}
}

// PreciseTime opens path, maps every overlap vertex to its nearest scanline
// and returns the time at the centre of the [min, max] scanline envelope.
// The dataset is closed before returning on every path.
func (r *Resolver) PreciseTime(path string, overlap orb.Ring) (time.Time, error) {
	if len(overlap) == 0 {
		return time.Time{}, fmt.Errorf("%w: empty overlap", scanline.ErrOutOfRange)
	}

	ds, err := r.open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer ds.Close()

	lat, err := ds.Latitude()
	if err != nil {
		return time.Time{}, err
	}
	lon, err := ds.Longitude()
	if err != nil {
		return time.Time{}, err
	}
	ix, err := scanline.NewIndex(lat, lon)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", ErrDataset, path, err)
	}

	lo, hi := math.MaxInt, math.MinInt
	for _, p := range overlap {
		line, err := ix.Scanline(p.Lon(), p.Lat())
		if err != nil {
			return time.Time{}, err
		}
		lo = min(lo, line)
		hi = max(hi, line)
	}

	deltaTime, err := ds.DeltaTime()
	if err != nil {
		return time.Time{}, err
	}
	if hi >= len(deltaTime) {
		return time.Time{}, fmt.Errorf("%w: scanline %d beyond delta_time length %d", scanline.ErrOutOfRange, hi, len(deltaTime))
	}

	offset, err := ds.TimeOffset()
	if err != nil {
		return time.Time{}, err
	}

	return Epoch.Add(offset).Add(CenterTime(deltaTime[lo], deltaTime[hi])), nil
}

// CenterTime returns the midpoint of two delta times (milliseconds), rounded
// half-to-even to a whole millisecond.
func CenterTime(loMillis, hiMillis float64) time.Duration {
	center := math.RoundToEven((loMillis + hiMillis) / 2)
	return time.Duration(center) * time.Millisecond
}
