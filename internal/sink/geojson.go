package sink

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/rkm/collocate/pkg/footprint"
)

// Property names of the GeoJSON layer.
const (
	AttrID       = "id"
	AttrTimeDiff = "time_diff"
)

// GeoJSONWriter writes a FeatureCollection with one Polygon per feature.
type GeoJSONWriter struct{}

func (GeoJSONWriter) Extension() string { return ".geojson" }

func (GeoJSONWriter) Write(path string, features []Feature) error {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		gf := geojson.NewFeature(orb.Polygon{footprint.Closed(f.Polygon)})
		gf.ID = f.ID
		gf.Properties[AttrID] = f.ID
		gf.Properties[AttrTimeDiff] = f.TimeDiffMinutes
		fc.Append(gf)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode feature collection: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
