package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkm/collocate/internal/scanline"
	"github.com/rkm/collocate/pkg/footprint"
)

// fakeResolver returns a fixed precise time per path.
type fakeResolver struct {
	mu    sync.Mutex
	times map[string]time.Time
	errs  map[string]error
	calls map[string]int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		times: map[string]time.Time{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeResolver) PreciseTime(path string, overlap orb.Ring) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[path]++
	if err, ok := f.errs[path]; ok {
		return time.Time{}, err
	}
	t, ok := f.times[path]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown path %s", path)
	}
	return t, nil
}

var (
	feb1      = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	aPolygon  = orb.Ring{{0, 0}, {0, 10}, {10, 10}, {10, 0}}
	b1Polygon = orb.Ring{{5, 5}, {5, 15}, {15, 15}, {15, 5}}
	b2Polygon = orb.Ring{{1, 1}, {1, 2}, {2, 2}, {2, 1}}
)

func at(h, m int) time.Time {
	return time.Date(2024, 2, 1, h, m, 0, 0, time.UTC)
}

func candidate(id string, ring orb.Ring, date time.Time) footprint.Footprint {
	return footprint.Footprint{ID: id, Path: "/tropomi/" + id + ".nc", Polygon: ring, Time: date}
}

func scenario() (footprint.Footprint, []footprint.Footprint, *fakeResolver) {
	a := footprint.Footprint{ID: "A", Polygon: aPolygon, Time: at(12, 0)}
	bs := []footprint.Footprint{
		candidate("B1", b1Polygon, feb1),
		candidate("B2", b2Polygon, feb1),
	}
	res := newFakeResolver()
	res.times["/tropomi/B1.nc"] = at(12, 5)
	res.times["/tropomi/B2.nc"] = at(12, 1)
	return a, bs, res
}

func TestMatch_SelectsClosestInTime(t *testing.T) {
	a, bs, res := scenario()

	pair, ok := NewMatcher(res).Match(a, bs)
	require.True(t, ok)

	assert.Equal(t, "B2", pair.B.ID)
	assert.Equal(t, time.Minute, pair.TimeDifference)
	assert.Equal(t, at(12, 1), pair.B.Time)
	assert.Equal(t, "A", pair.A.ID)

	bbox, err := footprint.ComputeBBox(pair.Overlap)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 2, 2}, bbox, "overlap belongs to the selected candidate")

	// candidates are never mutated
	assert.Equal(t, feb1, bs[1].Time)
}

func TestMatch_Idempotent(t *testing.T) {
	a, bs, res := scenario()
	m := NewMatcher(res)

	first, ok1 := m.Match(a, bs)
	second, ok2 := m.Match(a, bs)

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, first, second)
}

func TestMatch_TieKeepsFirstCandidate(t *testing.T) {
	a := footprint.Footprint{ID: "A", Polygon: aPolygon, Time: at(12, 0)}
	bs := []footprint.Footprint{
		candidate("early", b1Polygon, feb1),
		candidate("late", b2Polygon, feb1),
	}
	res := newFakeResolver()
	res.times["/tropomi/early.nc"] = at(12, 3)
	res.times["/tropomi/late.nc"] = at(11, 57)

	pair, ok := NewMatcher(res).Match(a, bs)
	require.True(t, ok)
	assert.Equal(t, "early", pair.B.ID)

	pair, ok = NewMatcher(res).Match(a, []footprint.Footprint{bs[1], bs[0]})
	require.True(t, ok)
	assert.Equal(t, "late", pair.B.ID)
}

func TestMatch_DateGating(t *testing.T) {
	a := footprint.Footprint{ID: "A", Polygon: aPolygon, Time: at(0, 10)}
	bs := []footprint.Footprint{
		candidate("yesterday", aPolygon, feb1.AddDate(0, 0, -1)),
		candidate("tomorrow", b2Polygon, feb1.AddDate(0, 0, 1)),
	}
	res := newFakeResolver()
	res.times["/tropomi/yesterday.nc"] = at(0, 9)
	res.times["/tropomi/tomorrow.nc"] = at(0, 10)

	_, ok := NewMatcher(res).Match(a, bs)
	assert.False(t, ok)
	assert.Empty(t, res.calls, "no resolution attempted for other days")
}

func TestMatch_NoIntersection(t *testing.T) {
	a := footprint.Footprint{ID: "A", Polygon: aPolygon, Time: at(12, 0)}
	far := candidate("far", orb.Ring{{50, 50}, {51, 50}, {51, 51}}, feb1)
	res := newFakeResolver()
	res.times[far.Path] = at(12, 0)

	_, ok := NewMatcher(res).Match(a, []footprint.Footprint{far})
	assert.False(t, ok)
}

func TestMatch_SkipsFailingCandidates(t *testing.T) {
	a := footprint.Footprint{ID: "A", Polygon: aPolygon, Time: at(12, 0)}
	bs := []footprint.Footprint{
		candidate("unresolvable", b2Polygon, feb1),
		// shares only an edge with A: intersects, but the overlap is a line
		candidate("edge", orb.Ring{{10, 0}, {10, 10}, {20, 10}, {20, 0}}, feb1),
		candidate("ok", b1Polygon, feb1),
	}
	res := newFakeResolver()
	res.errs["/tropomi/unresolvable.nc"] = fmt.Errorf("%w: vertex off grid", scanline.ErrOutOfRange)
	res.times["/tropomi/edge.nc"] = at(12, 0)
	res.times["/tropomi/ok.nc"] = at(12, 30)

	pair, ok := NewMatcher(res).Match(a, bs)
	require.True(t, ok)
	assert.Equal(t, "ok", pair.B.ID)
	assert.Equal(t, 30*time.Minute, pair.TimeDifference)
	assert.Equal(t, 0, res.calls["/tropomi/edge.nc"])
}

func TestMatch_AtMostOneWithMinimalDiff(t *testing.T) {
	a := footprint.Footprint{ID: "A", Polygon: aPolygon, Time: at(12, 0)}
	res := newFakeResolver()

	var bs []footprint.Footprint
	offsets := []int{-40, 17, -3, 55, 9, 4}
	for i, off := range offsets {
		b := candidate(fmt.Sprintf("b%d", i), b1Polygon, feb1)
		res.times[b.Path] = at(12, 0).Add(time.Duration(off) * time.Minute)
		bs = append(bs, b)
	}

	pair, ok := NewMatcher(res).Match(a, bs)
	require.True(t, ok)
	assert.Equal(t, "b2", pair.B.ID)
	for _, b := range bs {
		assert.LessOrEqual(t, pair.TimeDifference, a.Time.Sub(res.times[b.Path]).Abs())
	}
}

func TestMatchAll(t *testing.T) {
	res := newFakeResolver()
	bs := []footprint.Footprint{
		candidate("B1", b1Polygon, feb1),
		candidate("B2", b2Polygon, feb1),
	}
	res.times["/tropomi/B1.nc"] = at(12, 5)
	res.times["/tropomi/B2.nc"] = at(12, 1)

	var as []footprint.Footprint
	for i := 0; i < 25; i++ {
		as = append(as, footprint.Footprint{
			ID:      fmt.Sprintf("A%02d", i),
			Polygon: aPolygon,
			Time:    at(12, 0),
		})
	}
	// no same-day candidate
	as = append(as, footprint.Footprint{ID: "lonely", Polygon: aPolygon, Time: at(12, 0).AddDate(0, 0, 3)})
	// no spatial candidate
	as = append(as, footprint.Footprint{ID: "remote", Polygon: orb.Ring{{90, 0}, {91, 0}, {91, 1}}, Time: at(12, 0)})

	r := NewReducer(NewMatcher(res), 4)
	assert.Equal(t, 4, r.Workers())

	pairs, err := r.MatchAll(context.Background(), as, bs)
	require.NoError(t, err)
	require.Len(t, pairs, 25)
	for i, p := range pairs {
		assert.Equal(t, fmt.Sprintf("A%02d", i), p.A.ID)
		assert.Equal(t, "B2", p.B.ID)
		assert.Equal(t, time.Minute, p.TimeDifference)
	}
}

func TestMatchAll_Empty(t *testing.T) {
	r := NewReducer(NewMatcher(newFakeResolver()), 0)
	assert.Positive(t, r.Workers())

	pairs, err := r.MatchAll(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestMatchAll_CancelledBeforeStart(t *testing.T) {
	a, bs, res := scenario()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pairs, err := NewReducer(NewMatcher(res), 2).MatchAll(ctx, []footprint.Footprint{a}, bs)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, pairs)
}
