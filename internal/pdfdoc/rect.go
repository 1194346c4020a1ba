package pdfdoc

import "fmt"

// Rect is an axis-aligned rectangle in PDF page space: origin at the
// bottom-left corner of the media box, y growing upward.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// FromTop builds a Rect from a top edge measured downward from the page top.
func FromTop(x, top, width, height, pageHeight float64) Rect {
	return Rect{X: x, Y: pageHeight - top - height, Width: width, Height: height}
}

// Top returns the distance from the page top to the rectangle's upper edge.
func (r Rect) Top(pageHeight float64) float64 {
	return pageHeight - r.Y - r.Height
}

// Contains reports whether the point lies inside r. The bottom edge is
// outside, so rectangles stacked down the page never share a baseline.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y > r.Y && y <= r.Y+r.Height
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("[x=%.2f y=%.2f w=%.2f h=%.2f]", r.X, r.Y, r.Width, r.Height)
}

// Size is a page's media-box dimensions in points.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Letter is used when a page's media box cannot be read.
var Letter = Size{Width: 612, Height: 792}
