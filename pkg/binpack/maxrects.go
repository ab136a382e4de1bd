package binpack

import "math"

// MaxRects packs rectangles by maintaining the set of maximal free
// rectangles remaining in the bin. Every successful insert splits the
// free rectangles it overlaps and prunes entries contained in others.
type MaxRects struct {
	width, height int
	usedArea      int
	freeRects     []Rect
	usedRects     []Rect

	// scratch list for free rectangles produced while splitting; kept on
	// the struct to avoid reallocating per insert.
	newFreeRects []Rect
	newLastSize  int
}

// NewMaxRects creates a MaxRects bin with the given extent.
func NewMaxRects(width, height int) *MaxRects {
	b := &MaxRects{}
	b.Reset(width, height)
	return b
}

// Reset clears all placements and restores the full width×height extent
// as a single free rectangle.
func (b *MaxRects) Reset(width, height int) {
	b.width = width
	b.height = height
	b.usedArea = 0
	b.freeRects = b.freeRects[:0]
	b.usedRects = b.usedRects[:0]
	b.newFreeRects = b.newFreeRects[:0]
	b.freeRects = append(b.freeRects, NewRect(0, 0, width, height))
}

// UsedArea returns the total area consumed by placed rectangles.
func (b *MaxRects) UsedArea() int { return b.usedArea }

// Insert finds a position for a width×height rectangle using the given
// heuristic. The returned rectangle has swapped dimensions when the
// size was placed flipped. An empty rectangle means no free region can
// hold the size; the bin is left unchanged in that case.
func (b *MaxRects) Insert(width, height int, allowFlip bool, h Heuristic) Rect {
	var node Rect
	switch h {
	case BestLongSideFit:
		node, _, _ = b.findBestLongSideFit(width, height, allowFlip)
	case BestAreaFit:
		node, _, _ = b.findBestAreaFit(width, height, allowFlip)
	case BottomLeft:
		node, _, _ = b.findBottomLeft(width, height, allowFlip)
	case ContactPoint:
		node, _ = b.findContactPoint(width, height, allowFlip)
	default:
		node, _, _ = b.findBestShortSideFit(width, height, allowFlip)
	}

	if node.Empty() {
		return Rect{}
	}
	b.place(node)
	return node
}

// place removes node from the free-space partition.
func (b *MaxRects) place(node Rect) {
	for i := 0; i < len(b.freeRects); {
		if b.splitFreeRect(b.freeRects[i], node) {
			last := len(b.freeRects) - 1
			b.freeRects[i] = b.freeRects[last]
			b.freeRects = b.freeRects[:last]
		} else {
			i++
		}
	}
	b.pruneFreeList()
	b.usedRects = append(b.usedRects, node)
	b.usedArea += node.Area()
}

func (b *MaxRects) findBestShortSideFit(width, height int, allowFlip bool) (Rect, int, int) {
	var best Rect
	bestShort := math.MaxInt
	bestLong := math.MaxInt

	consider := func(free Rect, w, h int) {
		if free.Width < w || free.Height < h {
			return
		}
		leftoverH := abs(free.Width - w)
		leftoverV := abs(free.Height - h)
		short := min(leftoverH, leftoverV)
		long := max(leftoverH, leftoverV)

		if short < bestShort || (short == bestShort && long < bestLong) {
			best = NewRect(free.X, free.Y, w, h)
			bestShort = short
			bestLong = long
		}
	}

	for _, free := range b.freeRects {
		consider(free, width, height)
		if allowFlip {
			consider(free, height, width)
		}
	}
	return best, bestShort, bestLong
}

func (b *MaxRects) findBestLongSideFit(width, height int, allowFlip bool) (Rect, int, int) {
	var best Rect
	bestShort := math.MaxInt
	bestLong := math.MaxInt

	consider := func(free Rect, w, h int) {
		if free.Width < w || free.Height < h {
			return
		}
		leftoverH := abs(free.Width - w)
		leftoverV := abs(free.Height - h)
		short := min(leftoverH, leftoverV)
		long := max(leftoverH, leftoverV)

		if long < bestLong || (long == bestLong && short < bestShort) {
			best = NewRect(free.X, free.Y, w, h)
			bestShort = short
			bestLong = long
		}
	}

	for _, free := range b.freeRects {
		consider(free, width, height)
		if allowFlip {
			consider(free, height, width)
		}
	}
	return best, bestLong, bestShort
}

func (b *MaxRects) findBestAreaFit(width, height int, allowFlip bool) (Rect, int, int) {
	var best Rect
	bestArea := math.MaxInt
	bestShort := math.MaxInt

	consider := func(free Rect, w, h int) {
		if free.Width < w || free.Height < h {
			return
		}
		areaFit := free.Area() - w*h
		short := min(abs(free.Width-w), abs(free.Height-h))

		if areaFit < bestArea || (areaFit == bestArea && short < bestShort) {
			best = NewRect(free.X, free.Y, w, h)
			bestArea = areaFit
			bestShort = short
		}
	}

	for _, free := range b.freeRects {
		consider(free, width, height)
		if allowFlip {
			consider(free, height, width)
		}
	}
	return best, bestArea, bestShort
}

func (b *MaxRects) findBottomLeft(width, height int, allowFlip bool) (Rect, int, int) {
	var best Rect
	bestY := math.MaxInt
	bestX := math.MaxInt

	consider := func(free Rect, w, h int) {
		if free.Width < w || free.Height < h {
			return
		}
		topSideY := free.Y + h
		if topSideY < bestY || (topSideY == bestY && free.X < bestX) {
			best = NewRect(free.X, free.Y, w, h)
			bestY = topSideY
			bestX = free.X
		}
	}

	for _, free := range b.freeRects {
		consider(free, width, height)
		if allowFlip {
			consider(free, height, width)
		}
	}
	return best, bestY, bestX
}

func (b *MaxRects) findContactPoint(width, height int, allowFlip bool) (Rect, int) {
	var best Rect
	bestScore := -1

	consider := func(free Rect, w, h int) {
		if free.Width < w || free.Height < h {
			return
		}
		score := b.contactPointScore(free.X, free.Y, w, h)
		if score > bestScore {
			best = NewRect(free.X, free.Y, w, h)
			bestScore = score
		}
	}

	for _, free := range b.freeRects {
		consider(free, width, height)
		if allowFlip {
			consider(free, height, width)
		}
	}
	return best, bestScore
}

// contactPointScore totals the edge length the candidate shares with
// the bin border and with already-placed rectangles adjacent to it.
func (b *MaxRects) contactPointScore(x, y, width, height int) int {
	score := 0

	if x == 0 || x+width == b.width {
		score += height
	}
	if y == 0 || y+height == b.height {
		score += width
	}

	for _, used := range b.usedRects {
		if used.X == x+width || used.Right() == x {
			score += overlapLength(used.Y, used.Bottom(), y, y+height)
		}
		if used.Y == y+height || used.Bottom() == y {
			score += overlapLength(used.X, used.Right(), x, x+width)
		}
	}
	return score
}

// overlapLength returns the length of the overlap of [aStart,aEnd) and
// [bStart,bEnd), or 0 when they are disjoint.
func overlapLength(aStart, aEnd, bStart, bEnd int) int {
	if aEnd < bStart || bEnd < aStart {
		return 0
	}
	return min(aEnd, bEnd) - max(aStart, bStart)
}

// insertNewFreeRect adds a candidate free rectangle produced by a
// split, discarding it if an existing candidate already covers it and
// evicting candidates it covers.
func (b *MaxRects) insertNewFreeRect(rect Rect) {
	for i := 0; i < b.newLastSize; {
		if b.newFreeRects[i].ContainsRect(rect) {
			return
		}
		if rect.ContainsRect(b.newFreeRects[i]) {
			// Keep the older/newer partition ordering intact while the
			// caller is still appending candidates.
			b.newLastSize--
			b.newFreeRects[i] = b.newFreeRects[b.newLastSize]

			last := len(b.newFreeRects) - 1
			b.newFreeRects[b.newLastSize] = b.newFreeRects[last]
			b.newFreeRects = b.newFreeRects[:last]
			continue
		}
		i++
	}
	b.newFreeRects = append(b.newFreeRects, rect)
}

// splitFreeRect reports whether used overlaps free, appending the up to
// four maximal remainders of free to the scratch list when it does.
func (b *MaxRects) splitFreeRect(free, used Rect) bool {
	if !used.Intersects(free) {
		return false
	}

	b.newLastSize = len(b.newFreeRects)

	if used.X < free.Right() && used.Right() > free.X {
		// Remainder above the used rectangle.
		if used.Y > free.Y && used.Y < free.Bottom() {
			next := free
			next.Height = used.Y - free.Y
			b.insertNewFreeRect(next)
		}
		// Remainder below.
		if used.Bottom() < free.Bottom() {
			next := free
			next.Y = used.Bottom()
			next.Height = free.Bottom() - used.Bottom()
			b.insertNewFreeRect(next)
		}
	}

	if used.Y < free.Bottom() && used.Bottom() > free.Y {
		// Remainder to the left.
		if used.X > free.X && used.X < free.Right() {
			next := free
			next.Width = used.X - free.X
			b.insertNewFreeRect(next)
		}
		// Remainder to the right.
		if used.Right() < free.Right() {
			next := free
			next.X = used.Right()
			next.Width = free.Right() - used.Right()
			b.insertNewFreeRect(next)
		}
	}

	return true
}

// pruneFreeList folds the scratch candidates into the free list,
// dropping any candidate contained in a surviving free rectangle.
func (b *MaxRects) pruneFreeList() {
	for i := 0; i < len(b.freeRects); i++ {
		for j := 0; j < len(b.newFreeRects); {
			if b.freeRects[i].ContainsRect(b.newFreeRects[j]) {
				last := len(b.newFreeRects) - 1
				b.newFreeRects[j] = b.newFreeRects[last]
				b.newFreeRects = b.newFreeRects[:last]
				continue
			}
			j++
		}
	}

	b.freeRects = append(b.freeRects, b.newFreeRects...)
	b.newFreeRects = b.newFreeRects[:0]
}

var _ Bin = (*MaxRects)(nil)
