// Package match pairs each EnMAP footprint with the temporally closest
// same-day TROPOMI footprint whose swath overlaps it.
package match

import (
	"log/slog"
	"time"

	"github.com/paulmach/orb"

	"github.com/rkm/collocate/internal/spatial"
	"github.com/rkm/collocate/pkg/footprint"
)

// Pair is a collocated EnMAP/TROPOMI acquisition pair.
type Pair struct {
	// Overlap is the exact intersection of A's and B's footprints.
	Overlap orb.Ring

	// A is the EnMAP footprint.
	A footprint.Footprint

	// B is the TROPOMI footprint with its time refined to the overlap.
	B footprint.Footprint

	// TimeDifference is |A.Time - B.Time|.
	TimeDifference time.Duration
}

// TimeResolver refines a B acquisition time over an overlap polygon.
type TimeResolver interface {
	PreciseTime(path string, overlap orb.Ring) (time.Time, error)
}

// Matcher finds the best B candidate for one A footprint. A Matcher holds no
// mutable state and may be shared by concurrent tasks.
type Matcher struct {
	resolver TimeResolver
	logger   *slog.Logger
}

// NewMatcher creates a matcher refining B times with resolver.
func NewMatcher(resolver TimeResolver) *Matcher {
	return &Matcher{
		resolver: resolver,
		logger:   slog.Default(),
	}
}

// WithLogger sets a custom logger for the matcher
func (m *Matcher) WithLogger(logger *slog.Logger) *Matcher {
	m.logger = logger
	return m
}

// Match scans candidates in order and returns the same-day intersecting
// candidate closest in time to a. Ties keep the earliest candidate. Geometry
// and resolution failures skip only the offending candidate.
func (m *Matcher) Match(a footprint.Footprint, candidates []footprint.Footprint) (Pair, bool) {
	engine := spatial.NewEngine()

	var (
		best  Pair
		found bool
	)
	for _, b := range candidates {
		if !footprint.SameDate(a.Time, b.Time) {
			continue
		}

		ok, err := engine.Intersects(a.Polygon, b.Polygon)
		if err != nil {
			m.logger.Warn("intersection test failed",
				slog.String("enmap", a.ID),
				slog.String("tropomi", b.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !ok {
			continue
		}

		overlap, err := engine.Intersection(a.Polygon, b.Polygon)
		if err != nil {
			m.logger.Warn("intersection error",
				slog.String("enmap", a.ID),
				slog.String("tropomi", b.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		precise, err := m.resolver.PreciseTime(b.Path, overlap)
		if err != nil {
			m.logger.Warn("precise time error",
				slog.String("enmap", a.ID),
				slog.String("tropomi", b.ID),
				slog.String("error", err.Error()),
			)
			continue
		}

		diff := a.Time.Sub(precise).Abs()
		if !found || diff < best.TimeDifference {
			best = Pair{
				Overlap:        overlap,
				A:              a,
				B:              b.WithTime(precise),
				TimeDifference: diff,
			}
			found = true
			m.logger.Info("closer TROPOMI acquisition",
				slog.String("enmap", a.ID),
				slog.String("tropomi", b.ID),
				slog.String("offset", diff.String()),
			)
		}
	}
	return best, found
}
