// Package spatial wraps the GEOS geometry engine for footprint intersection
// tests and exact overlap computation, and provides the region-of-interest
// filter and a bounding-box candidate index.
package spatial

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-geos"

	"github.com/rkm/collocate/pkg/footprint"
)

// ErrGeometry is returned when the geometry engine fails or an intersection
// is degenerate (not a single non-empty polygon).
var ErrGeometry = errors.New("geometry error")

// Engine owns a GEOS context. An Engine must not be shared between
// goroutines; each matching task creates its own.
type Engine struct {
	ctx *geos.Context
}

// NewEngine creates an Engine with a fresh GEOS context.
func NewEngine() *Engine {
	return &Engine{ctx: geos.NewContext()}
}

// Intersects reports whether the two rings share any area or boundary point.
func (e *Engine) Intersects(a, b orb.Ring) (ok bool, err error) {
	defer recoverGEOS(&err)

	ga := e.polygon(a)
	gb := e.polygon(b)
	return ga.Intersects(gb), nil
}

// Intersection computes the exact overlap polygon of a and b.
func (e *Engine) Intersection(a, b orb.Ring) (ring orb.Ring, err error) {
	defer recoverGEOS(&err)

	overlap := e.polygon(b).Intersection(e.polygon(a))
	if overlap == nil {
		return nil, fmt.Errorf("%w: intersection failed", ErrGeometry)
	}
	if overlap.IsEmpty() {
		return nil, fmt.Errorf("%w: empty intersection", ErrGeometry)
	}
	if overlap.TypeID() != geos.TypeIDPolygon {
		return nil, fmt.Errorf("%w: intersection is %s, not a polygon", ErrGeometry, overlap.Type())
	}

	coords := overlap.ExteriorRing().CoordSeq().ToCoords()
	ring = make(orb.Ring, len(coords))
	for i, c := range coords {
		ring[i] = orb.Point{c[0], c[1]}
	}
	return ring, nil
}

func (e *Engine) polygon(ring orb.Ring) *geos.Geom {
	closed := footprint.Closed(ring)
	coords := make([][]float64, len(closed))
	for i, p := range closed {
		coords[i] = []float64{p.Lon(), p.Lat()}
	}
	return e.ctx.NewPolygon([][][]float64{coords})
}

// recoverGEOS converts a panic raised by go-geos into an ErrGeometry error.
func recoverGEOS(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrGeometry, r)
	}
}
