package spatial

import (
	"log/slog"

	"github.com/paulmach/orb"

	"github.com/rkm/collocate/pkg/footprint"
)

// RegionFilter keeps the footprints whose polygon intersects a fixed region
// of interest.
type RegionFilter struct {
	engine *Engine
	region orb.Ring
	logger *slog.Logger
}

// NewRegionFilter creates a filter for the given region ring.
func NewRegionFilter(region orb.Ring) *RegionFilter {
	return &RegionFilter{
		engine: NewEngine(),
		region: region,
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the filter
func (f *RegionFilter) WithLogger(logger *slog.Logger) *RegionFilter {
	f.logger = logger
	return f
}

// Contains reports whether ring intersects the region.
func (f *RegionFilter) Contains(ring orb.Ring) (bool, error) {
	return f.engine.Intersects(ring, f.region)
}

// Filter returns the footprints intersecting the region, preserving order.
// Footprints the geometry engine cannot evaluate are logged and dropped.
func (f *RegionFilter) Filter(fps []footprint.Footprint) []footprint.Footprint {
	candidates := make([]footprint.Footprint, 0, len(fps))
	for _, fp := range fps {
		ok, err := f.Contains(fp.Polygon)
		if err != nil {
			f.logger.Warn("skipping footprint in region filter",
				slog.String("id", fp.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if ok {
			candidates = append(candidates, fp)
		}
	}
	return candidates
}
