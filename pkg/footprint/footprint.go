// Package footprint provides the ground footprint model shared by both
// instruments together with its KML and GML coordinate-string parsers.
//
// Polygons are always held as orb.Ring values in (longitude, latitude)
// order. Every parser in this package normalizes to that order.
package footprint

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// ErrInvalidRing is returned when a ring has fewer than 3 distinct vertices
// or contains non-finite coordinates.
var ErrInvalidRing = errors.New("invalid footprint ring")

// Footprint is the ground-projected polygon and timestamp of one acquisition.
type Footprint struct {
	// ID identifies the acquisition (EnMAP datatake+tile name or TROPOMI
	// file basename without extension).
	ID string

	// Path is the file the footprint was extracted from.
	Path string

	// Polygon is the footprint ring in (lon, lat) order.
	Polygon orb.Ring

	// Time is the acquisition time in UTC. For TROPOMI candidates this is the
	// coarse filename date until it is refined by the precise-time resolver.
	Time time.Time

	// Quality is an optional per-acquisition quality attribute (EnMAP cloud
	// fraction).
	Quality *float64

	// QualityText is the quality value exactly as written in the source
	// metadata. Reports echo it verbatim when set.
	QualityText string
}

// WithTime returns a copy of f with Time replaced.
func (f Footprint) WithTime(t time.Time) Footprint {
	f.Time = t
	return f
}

// SameDate reports whether a and b fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Validate checks that ring has at least 3 distinct finite vertices.
func Validate(ring orb.Ring) error {
	distinct := make(map[orb.Point]struct{}, len(ring))
	for _, p := range ring {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return fmt.Errorf("%w: non-finite coordinate %v", ErrInvalidRing, p)
		}
		distinct[p] = struct{}{}
	}
	if len(distinct) < 3 {
		return fmt.Errorf("%w: expected at least 3 distinct vertices, got %d", ErrInvalidRing, len(distinct))
	}
	return nil
}

// Closed returns ring with its first vertex repeated at the end if needed.
// The input is never modified.
func Closed(ring orb.Ring) orb.Ring {
	if len(ring) == 0 || ring.Closed() {
		return ring
	}
	out := make(orb.Ring, len(ring), len(ring)+1)
	copy(out, ring)
	return append(out, ring[0])
}

// ComputeBBox computes the bounding box of a ring.
// Returns [west, south, east, north].
func ComputeBBox(ring orb.Ring) ([]float64, error) {
	if len(ring) == 0 {
		return nil, fmt.Errorf("failed to compute bounding box: empty ring")
	}

	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	for _, p := range ring {
		minLon = math.Min(minLon, p.Lon())
		maxLon = math.Max(maxLon, p.Lon())
		minLat = math.Min(minLat, p.Lat())
		maxLat = math.Max(maxLat, p.Lat())
	}

	if math.IsInf(minLon, 0) || math.IsInf(minLat, 0) || math.IsNaN(minLon) || math.IsNaN(minLat) {
		return nil, fmt.Errorf("failed to compute bounding box: no valid coordinates found")
	}

	return []float64{minLon, minLat, maxLon, maxLat}, nil
}

// ParseKMLCoordinates parses a packed KML coordinate string of the form
// "lon,lat,alt lon,lat,alt ..." into a ring. Altitude is optional and
// discarded.
func ParseKMLCoordinates(s string) (orb.Ring, error) {
	tuples := strings.Fields(s)
	if len(tuples) == 0 {
		return nil, fmt.Errorf("empty KML coordinates")
	}

	ring := make(orb.Ring, 0, len(tuples))
	for _, tuple := range tuples {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("invalid KML coordinate tuple %q", tuple)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", tuple, err)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", tuple, err)
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	return ring, nil
}

// ParsePosList parses a GML posList ("lat lon lat lon ...") into a ring in
// (lon, lat) order.
func ParsePosList(s string) (orb.Ring, error) {
	values := strings.Fields(s)
	if len(values) == 0 {
		return nil, fmt.Errorf("empty posList")
	}
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("posList has odd number of values (%d)", len(values))
	}

	ring := make(orb.Ring, 0, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		lat, err := strconv.ParseFloat(values[i], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude %q: %w", values[i], err)
		}
		lon, err := strconv.ParseFloat(values[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude %q: %w", values[i+1], err)
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	return ring, nil
}
