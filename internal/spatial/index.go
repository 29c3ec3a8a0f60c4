package spatial

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/rkm/collocate/pkg/footprint"
)

// bboxPad widens every rectangle so that footprints touching only along a
// bbox edge are still returned.
const bboxPad = 1e-9

// Index is a read-only R-tree over the bounding boxes of a candidate set.
// It is safe for concurrent queries once built.
type Index struct {
	tree       *rtreego.Rtree
	candidates []footprint.Footprint
}

type indexEntry struct {
	pos  int
	rect rtreego.Rect
}

func (e indexEntry) Bounds() rtreego.Rect { return e.rect }

// NewIndex builds an index over candidates. Candidates whose bounding box
// cannot be computed are kept out of the tree and therefore never returned.
func NewIndex(candidates []footprint.Footprint) *Index {
	ix := &Index{
		tree:       rtreego.NewTree(2, 25, 50),
		candidates: candidates,
	}
	for i, c := range candidates {
		rect, ok := ringRect(c.Polygon)
		if !ok {
			continue
		}
		ix.tree.Insert(indexEntry{pos: i, rect: rect})
	}
	return ix
}

// Len returns the number of candidates the index was built from.
func (ix *Index) Len() int { return len(ix.candidates) }

// Overlapping returns the candidates whose bounding box overlaps the bounding
// box of ring, in their original candidate-set order.
func (ix *Index) Overlapping(ring orb.Ring) []footprint.Footprint {
	rect, ok := ringRect(ring)
	if !ok {
		return nil
	}

	hits := ix.tree.SearchIntersect(rect)
	positions := make([]int, len(hits))
	for i, h := range hits {
		positions[i] = h.(indexEntry).pos
	}
	sort.Ints(positions)

	out := make([]footprint.Footprint, len(positions))
	for i, p := range positions {
		out[i] = ix.candidates[p]
	}
	return out
}

func ringRect(ring orb.Ring) (rtreego.Rect, bool) {
	bbox, err := footprint.ComputeBBox(ring)
	if err != nil {
		return rtreego.Rect{}, false
	}
	origin := rtreego.Point{bbox[0] - bboxPad, bbox[1] - bboxPad}
	lengths := []float64{bbox[2] - bbox[0] + 2*bboxPad, bbox[3] - bbox[1] + 2*bboxPad}
	rect, err := rtreego.NewRect(origin, lengths)
	if err != nil {
		return rtreego.Rect{}, false
	}
	return rect, true
}
