package document

import "github.com/inamate/figcore/internal/geom"

// DefaultMaxDirtyRects is the number of pending repaint rectangles after
// which a document falls back to repainting the whole page.
const DefaultMaxDirtyRects = 64

// dirtyRegion accumulates repaint rectangles in root coordinates between two
// paints.
type dirtyRegion struct {
	rects []geom.Rect
	all   bool
	max   int
}

func (r *dirtyRegion) Add(rects ...geom.Rect) {
	if r.all {
		return
	}
	for _, rc := range rects {
		if rc.IsEmpty() {
			continue
		}
		r.rects = append(r.rects, rc)
	}
	if len(r.rects) > r.max {
		r.MarkAll()
	}
}

// MarkAll requests a full repaint.
func (r *dirtyRegion) MarkAll() {
	r.all = true
	r.rects = nil
}

// GetAndClear returns the pending rectangles and whether the whole page must
// be repainted, and resets the region.
func (r *dirtyRegion) GetAndClear() ([]geom.Rect, bool) {
	rects, all := r.rects, r.all
	r.rects, r.all = nil, false
	return rects, all
}

func (r *dirtyRegion) Empty() bool {
	return !r.all && len(r.rects) == 0
}
