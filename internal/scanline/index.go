// Package scanline resolves geographic coordinates to the nearest sample of a
// swath's latitude/longitude grid.
//
// Distances are planar Euclidean in (lat, lon) degrees, not great-circle. The
// swath grid is dense enough for the difference to be immaterial when picking
// a scanline.
package scanline

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// fillThreshold marks NetCDF fill values (9.96921e+36) in geolocation grids.
const fillThreshold = 1e30

var (
	// ErrOutOfRange is returned when a query coordinate is not finite or lies
	// outside the envelope of the indexed grid.
	ErrOutOfRange = errors.New("coordinate outside grid range")

	// ErrShape is returned when latitude and longitude grids differ in shape
	// or contain no usable samples.
	ErrShape = errors.New("invalid grid shape")
)

// Sample is one grid cell of the swath.
type Sample struct {
	Row      int // scanline
	Col      int // ground pixel within the scanline
	Lat, Lon float64
}

// Match is the result of a nearest-neighbour query.
type Match struct {
	Sample
	// Distance is the Euclidean distance in degrees.
	Distance float64
}

// Index is a KD-tree over the samples of one grid. It is built and queried by
// a single goroutine.
type Index struct {
	tree                   *kdtree.Tree
	minLat, maxLat         float64
	minLon, maxLon         float64
	rows, cols, indexedLen int
}

// NewIndex builds an index from row-major latitude and longitude grids of
// identical shape. Non-finite and fill-value samples are not indexed.
func NewIndex(lat, lon [][]float64) (*Index, error) {
	if len(lat) == 0 || len(lat) != len(lon) {
		return nil, fmt.Errorf("%w: latitude has %d rows, longitude has %d", ErrShape, len(lat), len(lon))
	}

	ix := &Index{
		minLat: math.Inf(1), maxLat: math.Inf(-1),
		minLon: math.Inf(1), maxLon: math.Inf(-1),
		rows: len(lat), cols: len(lat[0]),
	}

	pts := make(samples, 0, len(lat)*len(lat[0]))
	for r := range lat {
		if len(lat[r]) != len(lon[r]) || len(lat[r]) != ix.cols {
			return nil, fmt.Errorf("%w: row %d has %d latitudes and %d longitudes", ErrShape, r, len(lat[r]), len(lon[r]))
		}
		for c := range lat[r] {
			la, lo := lat[r][c], lon[r][c]
			if !usable(la) || !usable(lo) {
				continue
			}
			pts = append(pts, Sample{Row: r, Col: c, Lat: la, Lon: lo})
			ix.minLat = math.Min(ix.minLat, la)
			ix.maxLat = math.Max(ix.maxLat, la)
			ix.minLon = math.Min(ix.minLon, lo)
			ix.maxLon = math.Max(ix.maxLon, lo)
		}
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("%w: no valid samples", ErrShape)
	}

	ix.indexedLen = len(pts)
	ix.tree = kdtree.New(pts, false)
	return ix, nil
}

// Len returns the number of indexed samples.
func (ix *Index) Len() int { return ix.indexedLen }

// Shape returns the grid dimensions (scanlines, ground pixels).
func (ix *Index) Shape() (rows, cols int) { return ix.rows, ix.cols }

// Nearest returns the sample closest to (lon, lat).
func (ix *Index) Nearest(lon, lat float64) (Match, error) {
	if !finite(lat) || !finite(lon) ||
		lat < ix.minLat || lat > ix.maxLat || lon < ix.minLon || lon > ix.maxLon {
		return Match{}, fmt.Errorf("%w: (lon %g, lat %g) not within lat [%g, %g] lon [%g, %g]",
			ErrOutOfRange, lon, lat, ix.minLat, ix.maxLat, ix.minLon, ix.maxLon)
	}

	got, d2 := ix.tree.Nearest(Sample{Row: -1, Col: -1, Lat: lat, Lon: lon})
	return Match{Sample: got.(Sample), Distance: math.Sqrt(d2)}, nil
}

// Scanline is a convenience wrapper returning only the scanline of the
// nearest sample.
func (ix *Index) Scanline(lon, lat float64) (int, error) {
	m, err := ix.Nearest(lon, lat)
	if err != nil {
		return 0, err
	}
	return m.Row, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func usable(v float64) bool {
	return finite(v) && math.Abs(v) < fillThreshold
}

// Compare implements kdtree.Comparable. Dimension 0 is latitude, 1 longitude.
func (s Sample) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Sample)
	switch d {
	case 0:
		return s.Lat - q.Lat
	case 1:
		return s.Lon - q.Lon
	default:
		panic("illegal dimension")
	}
}

// Dims implements kdtree.Comparable.
func (s Sample) Dims() int { return 2 }

// Distance implements kdtree.Comparable and returns the squared Euclidean
// distance.
func (s Sample) Distance(c kdtree.Comparable) float64 {
	q := c.(Sample)
	dLat := s.Lat - q.Lat
	dLon := s.Lon - q.Lon
	return dLat*dLat + dLon*dLon
}

type samples []Sample

func (s samples) Index(i int) kdtree.Comparable         { return s[i] }
func (s samples) Len() int                              { return len(s) }
func (s samples) Pivot(d kdtree.Dim) int                { return plane{samples: s, Dim: d}.Pivot() }
func (s samples) Slice(start, end int) kdtree.Interface { return s[start:end] }

// plane is a sortable view of samples along one dimension.
type plane struct {
	kdtree.Dim
	samples
}

func (p plane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.samples[i].Lat < p.samples[j].Lat
	case 1:
		return p.samples[i].Lon < p.samples[j].Lon
	default:
		panic("illegal dimension")
	}
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.samples = p.samples[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.samples[i], p.samples[j] = p.samples[j], p.samples[i]
}
