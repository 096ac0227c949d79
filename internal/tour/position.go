package tour

// Point is a terminal cell coordinate. Values may be negative or exceed the
// screen; the panel is free to move off-screen.
type Point struct {
	X int
	Y int
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Rect is the rendered bounds of the tour panel.
type Rect struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// TopLeft returns the rect origin.
func (r Rect) TopLeft() Point {
	return Point{X: r.Left, Y: r.Top}
}

// Contains reports whether p falls inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Left+r.Width && p.Y >= r.Top && p.Y < r.Top+r.Height
}

// Placement is where the panel sits: either unset, meaning the default layout
// position, or a free-form top-left point. Once set it never returns to unset
// for the lifetime of a tour session.
type Placement struct {
	at  Point
	set bool
}

// Point returns the free-form position and whether one has been set.
func (p Placement) Point() (Point, bool) {
	return p.at, p.set
}

// IsSet reports whether the panel has left its default placement.
func (p Placement) IsSet() bool {
	return p.set
}

// pin switches to free-form placement at the panel's rendered origin the first
// time it is called and returns the current position.
func (p *Placement) pin(rendered Rect) Point {
	if !p.set {
		p.at = rendered.TopLeft()
		p.set = true
	}
	return p.at
}

// moveTo only applies to a pinned placement.
func (p *Placement) moveTo(pt Point) bool {
	if !p.set {
		return false
	}
	p.at = pt
	return true
}
