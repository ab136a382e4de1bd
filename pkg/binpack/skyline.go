package binpack

import (
	"math"
	"slices"
)

// skylineNode is one horizontal segment of the packed region's top
// contour.
type skylineNode struct {
	x, y, width int
}

// Skyline packs rectangles bottom-left along the top contour of the
// already-packed region. It keeps far less state than MaxRects and is
// faster per insert, at the cost of never reusing wasted space beneath
// the contour.
//
// Skyline ignores the Heuristic argument to Insert; it always places at
// the lowest level, breaking ties toward the left edge.
type Skyline struct {
	width, height int
	usedArea      int
	nodes         []skylineNode
}

// NewSkyline creates a Skyline bin with the given extent.
func NewSkyline(width, height int) *Skyline {
	b := &Skyline{}
	b.Reset(width, height)
	return b
}

// Reset clears all placements and restores the flat base contour.
func (b *Skyline) Reset(width, height int) {
	b.width = width
	b.height = height
	b.usedArea = 0
	b.nodes = b.nodes[:0]
	b.nodes = append(b.nodes, skylineNode{x: 0, y: 0, width: width})
}

// UsedArea returns the total area consumed by placed rectangles.
func (b *Skyline) UsedArea() int { return b.usedArea }

// Insert places a width×height rectangle at the lowest position on the
// contour. An empty rectangle means the size does not fit anywhere.
func (b *Skyline) Insert(width, height int, allowFlip bool, _ Heuristic) Rect {
	node, index := b.findBottomLeft(width, height)
	if allowFlip && width != height {
		flipped, flippedIndex := b.findBottomLeft(height, width)
		if !flipped.Empty() && (node.Empty() || flipped.Y+flipped.Height < node.Y+node.Height ||
			(flipped.Y+flipped.Height == node.Y+node.Height && flipped.X < node.X)) {
			node, index = flipped, flippedIndex
		}
	}
	if node.Empty() {
		return Rect{}
	}

	b.addLevel(index, node)
	b.usedArea += node.Area()
	return node
}

// findBottomLeft scans the contour for the position with the lowest
// resulting top edge that can hold a width×height rectangle.
func (b *Skyline) findBottomLeft(width, height int) (Rect, int) {
	var best Rect
	bestIndex := -1
	bestY := math.MaxInt
	bestX := math.MaxInt

	for i := range b.nodes {
		y, ok := b.fitAt(i, width, height)
		if !ok {
			continue
		}
		if y+height < bestY || (y+height == bestY && b.nodes[i].x < bestX) {
			best = NewRect(b.nodes[i].x, y, width, height)
			bestIndex = i
			bestY = y + height
			bestX = b.nodes[i].x
		}
	}
	if bestIndex == -1 {
		return Rect{}, -1
	}
	return best, bestIndex
}

// fitAt computes the resting y for a rectangle whose left edge starts
// at node index, spanning as many contour segments as its width needs.
func (b *Skyline) fitAt(index, width, height int) (int, bool) {
	x := b.nodes[index].x
	if x+width > b.width {
		return 0, false
	}

	y := b.nodes[index].y
	remaining := width
	for i := index; remaining > 0; i++ {
		if i == len(b.nodes) {
			return 0, false
		}
		y = max(y, b.nodes[i].y)
		if y+height > b.height {
			return 0, false
		}
		remaining -= b.nodes[i].width
	}
	return y, true
}

// addLevel raises the contour over the footprint of a placed rectangle.
func (b *Skyline) addLevel(index int, placed Rect) {
	node := skylineNode{x: placed.X, y: placed.Y + placed.Height, width: placed.Width}
	b.nodes = slices.Insert(b.nodes, index, node)

	for i := index + 1; i < len(b.nodes); i++ {
		if b.nodes[i].x >= node.x+node.width {
			break
		}
		shrink := node.x + node.width - b.nodes[i].x
		if shrink < b.nodes[i].width {
			b.nodes[i].x += shrink
			b.nodes[i].width -= shrink
			break
		}
		b.nodes = slices.Delete(b.nodes, i, i+1)
		i--
	}

	b.merge()
}

// merge joins adjacent contour segments that share a level.
func (b *Skyline) merge() {
	for i := 0; i < len(b.nodes)-1; i++ {
		if b.nodes[i].y == b.nodes[i+1].y {
			b.nodes[i].width += b.nodes[i+1].width
			b.nodes = slices.Delete(b.nodes, i+1, i+2)
			i--
		}
	}
}

var _ Bin = (*Skyline)(nil)
