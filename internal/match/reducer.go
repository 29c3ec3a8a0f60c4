package match

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rkm/collocate/internal/spatial"
	"github.com/rkm/collocate/pkg/footprint"
)

// Reducer fans the matcher out over every A footprint on a fixed worker pool.
type Reducer struct {
	matcher *Matcher
	workers int
	logger  *slog.Logger
}

// NewReducer creates a reducer running at most workers matches at once.
// workers <= 0 uses runtime.NumCPU().
func NewReducer(matcher *Matcher, workers int) *Reducer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Reducer{
		matcher: matcher,
		workers: workers,
		logger:  slog.Default(),
	}
}

// WithLogger sets a custom logger for the reducer
func (r *Reducer) WithLogger(logger *slog.Logger) *Reducer {
	r.logger = logger
	return r
}

// Workers returns the pool size.
func (r *Reducer) Workers() int { return r.workers }

// MatchAll matches every footprint in as against bs and returns the found
// pairs in the order of as. bs is shared read-only between tasks.
//
// Every task runs to completion; ctx only stops tasks that have not started
// yet, in which case ctx.Err() is returned together with the pairs found so
// far.
func (r *Reducer) MatchAll(ctx context.Context, as, bs []footprint.Footprint) ([]Pair, error) {
	index := spatial.NewIndex(bs)
	results := make([]*Pair, len(as))

	g := new(errgroup.Group)
	g.SetLimit(r.workers)

	var stopped error
	for i := range as {
		if err := ctx.Err(); err != nil {
			stopped = err
			break
		}
		g.Go(func() error {
			a := as[i]
			if pair, ok := r.matcher.Match(a, index.Overlapping(a.Polygon)); ok {
				results[i] = &pair
			}
			return nil
		})
	}
	_ = g.Wait()

	pairs := make([]Pair, 0, len(as))
	for _, p := range results {
		if p != nil {
			pairs = append(pairs, *p)
		}
	}

	r.logger.InfoContext(ctx, "matching finished",
		slog.Int("enmap_candidates", len(as)),
		slog.Int("tropomi_candidates", len(bs)),
		slog.Int("pairs", len(pairs)),
		slog.Int("workers", r.workers),
	)
	return pairs, stopped
}
