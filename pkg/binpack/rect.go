package binpack

// Rect is an axis-aligned rectangle at an absolute bin position.
type Rect struct {
	X, Y          int
	Width, Height int
}

// NewRect creates a rectangle with the given position and size.
func NewRect(x, y, width, height int) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Right returns the x-coordinate one past the right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the y-coordinate one past the bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Area returns the surface area of the rectangle.
func (r Rect) Area() int { return r.Width * r.Height }

// Empty reports whether the rectangle has no extent. Bins return an
// empty rectangle to signal that a size cannot be placed.
func (r Rect) Empty() bool { return r.Width == 0 || r.Height == 0 }

// ContainsRect reports whether other lies entirely within r.
func (r Rect) ContainsRect(other Rect) bool {
	return other.X >= r.X && other.Y >= r.Y &&
		other.Right() <= r.Right() && other.Bottom() <= r.Bottom()
}

// Intersects reports whether r and other share any area.
func (r Rect) Intersects(other Rect) bool {
	return other.X < r.Right() && r.X < other.Right() &&
		other.Y < r.Bottom() && r.Y < other.Bottom()
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
