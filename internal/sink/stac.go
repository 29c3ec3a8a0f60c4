package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/rkm/collocate/internal/stac"
	"github.com/rkm/collocate/pkg/footprint"
)

// STACWriter writes a STAC ItemCollection, one item per tile.
type STACWriter struct{}

func (STACWriter) Extension() string { return ".json" }

func (STACWriter) Write(path string, features []Feature) error {
	items := make([]*stac.Item, 0, len(features))
	for _, f := range features {
		bbox, err := footprint.ComputeBBox(f.Polygon)
		if err != nil {
			return fmt.Errorf("item %s: %w", f.ID, err)
		}
		geometry := geojson.NewGeometry(orb.Polygon{footprint.Closed(f.Polygon)})
		item := stac.NewItem(f.ID, geometry, bbox, f.Acquired, f.TimeDiffMinutes)
		if err := stac.ValidateItem(item); err != nil {
			return err
		}
		items = append(items, item)
	}

	ic := stac.NewItemCollection(items)
	ic.AddLink("self", filepath.Base(path), "application/geo+json")

	data, err := json.MarshalIndent(ic, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode item collection: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
