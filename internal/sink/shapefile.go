package sink

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"

	"github.com/rkm/collocate/pkg/footprint"
)

// DBF column names of the shapefile layer. The encoder derives them from the
// shapeRecord field names, so the two must change together.
const (
	ColumnID       = "ID"
	ColumnTimeDiff = "TimeDiff"
)

// shapeRecord is the shapefile row archetype. DBF caps column names at ten
// characters.
type shapeRecord struct {
	geom.Polygon
	ID       string
	TimeDiff float64
}

// ShapefileWriter writes an ESRI shapefile (.shp, .shx, .dbf).
type ShapefileWriter struct{}

func (ShapefileWriter) Extension() string { return ".shp" }

func (ShapefileWriter) Write(path string, features []Feature) error {
	enc, err := shp.NewEncoder(path, shapeRecord{})
	if err != nil {
		return fmt.Errorf("failed to create shapefile %s: %w", path, err)
	}

	for _, f := range features {
		ring := footprint.Closed(f.Polygon)
		pts := make(geom.Path, len(ring))
		for i, p := range ring {
			pts[i] = geom.Point{X: p.Lon(), Y: p.Lat()}
		}
		rec := shapeRecord{
			Polygon:  geom.Polygon{pts},
			ID:       f.ID,
			TimeDiff: f.TimeDiffMinutes,
		}
		if err := enc.Encode(rec); err != nil {
			enc.Close()
			return fmt.Errorf("failed to encode %s: %w", f.ID, err)
		}
	}
	enc.Close()
	return nil
}
