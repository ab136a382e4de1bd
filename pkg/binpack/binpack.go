// Package binpack implements 2D rectangle bin packing strategies.
//
// A Bin accepts one placement request at a time and answers with the
// position chosen for it, mutating its internal free-space bookkeeping
// on success. The search strategy is pluggable: MaxRects maintains a
// list of maximal free rectangles and scores candidate positions with a
// per-call Heuristic, while Skyline tracks only the top contour of the
// packed region and always places at the lowest available level.
//
// # Usage
//
//	bin := binpack.NewMaxRects(1024, 1024)
//	rect := bin.Insert(64, 48, true, binpack.BestShortSideFit)
//	if rect.Empty() {
//	    // no free space remains for this size
//	}
package binpack

// Heuristic selects the scoring rule used to pick among candidate
// positions for a rectangle.
type Heuristic int

const (
	// BestShortSideFit places the rectangle into the free area where the
	// shorter leftover side is minimized. Good general-purpose default.
	BestShortSideFit Heuristic = iota

	// BestLongSideFit minimizes the longer leftover side instead.
	BestLongSideFit

	// BestAreaFit picks the smallest free area that still fits.
	BestAreaFit

	// BottomLeft picks the position with the lowest top edge, favoring
	// tight rows from the bottom up.
	BottomLeft

	// ContactPoint maximizes the perimeter touching already-placed
	// rectangles or the bin border.
	ContactPoint
)

// String returns the heuristic name as used in flags and manifests.
func (h Heuristic) String() string {
	switch h {
	case BestShortSideFit:
		return "best-short-side"
	case BestLongSideFit:
		return "best-long-side"
	case BestAreaFit:
		return "best-area"
	case BottomLeft:
		return "bottom-left"
	case ContactPoint:
		return "contact-point"
	}
	return "unknown"
}

// ParseHeuristic maps a name accepted by String back to its Heuristic.
func ParseHeuristic(name string) (Heuristic, bool) {
	for h := BestShortSideFit; h <= ContactPoint; h++ {
		if h.String() == name {
			return h, true
		}
	}
	return 0, false
}

// Bin is a rectangle container that hands out positions for sizes until
// its free space is exhausted.
//
// Insert returns the placement chosen for a width×height rectangle, or
// an empty Rect when no free region can hold it. When allowFlip is set
// the bin may rotate the rectangle 90°; a flipped placement is
// observable through the returned rectangle's swapped dimensions.
// A failed insert does not modify the bin.
type Bin interface {
	Insert(width, height int, allowFlip bool, h Heuristic) Rect
	Reset(width, height int)
}
