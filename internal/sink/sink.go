// Package sink writes the collocation attribute table: one polygon feature per
// matched EnMAP tile carrying its id and time offset in minutes.
package sink

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"github.com/rkm/collocate/internal/enmap"
	"github.com/rkm/collocate/internal/report"
)

// Feature is one row of the attribute table.
type Feature struct {
	ID              string
	TimeDiffMinutes float64
	Acquired        time.Time
	Polygon         orb.Ring
}

// Writer writes a single-layer geospatial file.
type Writer interface {
	Write(path string, features []Feature) error
	// Extension is the conventional file extension, including the dot.
	Extension() string
}

// Supported formats.
const (
	FormatGeoJSON   = "geojson"
	FormatShapefile = "shp"
	FormatSTAC      = "stac"
)

// New returns the writer for format.
func New(format string) (Writer, error) {
	switch format {
	case FormatGeoJSON:
		return GeoJSONWriter{}, nil
	case FormatShapefile:
		return ShapefileWriter{}, nil
	case FormatSTAC:
		return STACWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q, must be one of: %s, %s, %s",
			format, FormatGeoJSON, FormatShapefile, FormatSTAC)
	}
}

// Join pairs report entries with the EnMAP outlines of the same name. The
// result follows outline order; for a name present in several entries the
// first entry wins. Entries without an outline are dropped.
func Join(entries []report.Entry, outlines []enmap.Outline) []Feature {
	byID := make(map[string]report.Entry, len(entries))
	for _, e := range entries {
		if _, seen := byID[e.ID]; !seen {
			byID[e.ID] = e
		}
	}

	features := make([]Feature, 0, len(entries))
	for _, o := range outlines {
		e, ok := byID[o.Name]
		if !ok {
			continue
		}
		features = append(features, Feature{
			ID:              o.Name,
			TimeDiffMinutes: e.Minutes(),
			Acquired:        e.Acquired,
			Polygon:         o.Polygon,
		})
	}
	return features
}
