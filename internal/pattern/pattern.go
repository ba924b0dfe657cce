// Package pattern rasterizes contour sets into fixed-size centered binary
// images for holistic matching.
package pattern

import (
	"fmt"

	"drone-locator/internal/contour"
	"drone-locator/pkg/geometry"
)

// DefaultSize is the default pattern side length in pixels.
const DefaultSize = 512

// Margin is the fraction of the canvas the pattern occupies on its longer
// axis, leaving a quiet border for the translation search.
const Margin = 0.9

// Pattern is a square single-channel binary image encoding a contour set.
// Drawn pixels hold 1, all others 0.
type Pattern struct {
	Size int
	Bits []uint8

	drawn int
}

// New returns an all-zero pattern of the given side length.
func New(size int) *Pattern {
	return &Pattern{
		Size: size,
		Bits: make([]uint8, size*size),
	}
}

// At reports whether the pixel at (x, y) is drawn. Out-of-bounds
// coordinates read as 0.
func (p *Pattern) At(x, y int) bool {
	if x < 0 || y < 0 || x >= p.Size || y >= p.Size {
		return false
	}
	return p.Bits[y*p.Size+x] != 0
}

// Set marks the pixel at (x, y) as drawn. Out-of-bounds coordinates are
// ignored.
func (p *Pattern) Set(x, y int) {
	if x < 0 || y < 0 || x >= p.Size || y >= p.Size {
		return
	}
	idx := y*p.Size + x
	if p.Bits[idx] == 0 {
		p.Bits[idx] = 1
		p.drawn++
	}
}

// Count returns the number of drawn pixels.
func (p *Pattern) Count() int {
	return p.drawn
}

// Recount rebuilds the drawn-pixel count from the bitmap. Needed after
// writing Bits directly.
func (p *Pattern) Recount() {
	n := 0
	for _, b := range p.Bits {
		if b != 0 {
			n++
		}
	}
	p.drawn = n
}

// DrawnCentroid returns the centroid of drawn pixels. The second return
// value is false when the pattern is empty.
func (p *Pattern) DrawnCentroid() (geometry.Point2D, bool) {
	if p.drawn == 0 {
		return geometry.Point2D{}, false
	}
	var sumX, sumY float64
	for y := 0; y < p.Size; y++ {
		row := p.Bits[y*p.Size : (y+1)*p.Size]
		for x, b := range row {
			if b != 0 {
				sumX += float64(x)
				sumY += float64(y)
			}
		}
	}
	n := float64(p.drawn)
	return geometry.Point2D{X: sumX / n, Y: sumY / n}, true
}

// Reset clears every pixel, keeping the allocation for reuse as a
// per-worker scratch bitmap.
func (p *Pattern) Reset() {
	for i := range p.Bits {
		p.Bits[i] = 0
	}
	p.drawn = 0
}

// CopyFrom overwrites this pattern with the contents of src. Both
// patterns must have the same size.
func (p *Pattern) CopyFrom(src *Pattern) {
	copy(p.Bits, src.Bits)
	p.drawn = src.drawn
}

// Clone returns an independent copy of the pattern.
func (p *Pattern) Clone() *Pattern {
	out := &Pattern{
		Size:  p.Size,
		Bits:  make([]uint8, len(p.Bits)),
		drawn: p.drawn,
	}
	copy(out.Bits, p.Bits)
	return out
}

// Rasterize draws a contour set onto a centered size x size binary canvas.
// The set's bounding box is uniformly scaled so its longer axis spans
// Margin of the canvas, and its center maps to the canvas center. An empty
// set yields an all-zero pattern.
func Rasterize(set *contour.Set, size int) (*Pattern, error) {
	if size < 32 {
		return nil, fmt.Errorf("pattern size %d below minimum 32", size)
	}

	p := New(size)
	if set.Empty() {
		return p, nil
	}

	bounds := set.Bounds().ToFloat()
	longest := bounds.Width
	if bounds.Height > longest {
		longest = bounds.Height
	}

	scale := 1.0
	if longest > 0 {
		scale = float64(size) * Margin / longest
	}

	// Map the bounding box center onto the canvas center, scaling uniformly.
	center := bounds.Center()
	half := float64(size) / 2
	transform := geometry.Translation(half, half).
		Compose(geometry.Scale(scale, scale)).
		Compose(geometry.Translation(-center.X, -center.Y))

	for _, c := range set.Contours {
		drawContour(p, c, transform)
	}
	return p, nil
}

// drawContour draws one contour as a connected polyline of 1px segments.
func drawContour(p *Pattern, c contour.Contour, transform geometry.AffineTransform) {
	n := len(c.Points)
	if n == 0 {
		return
	}
	if n == 1 {
		pt := transform.Apply(c.Points[0].ToFloat())
		p.Set(roundToInt(pt.X), roundToInt(pt.Y))
		return
	}

	segments := n - 1
	if c.Closed {
		segments = n
	}
	for i := 0; i < segments; i++ {
		a := transform.Apply(c.Points[i].ToFloat())
		b := transform.Apply(c.Points[(i+1)%n].ToFloat())
		drawLine(p, roundToInt(a.X), roundToInt(a.Y), roundToInt(b.X), roundToInt(b.Y))
	}
}

// drawLine rasterizes a segment with Bresenham's algorithm.
func drawLine(p *Pattern, x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		p.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func roundToInt(v float64) int {
	if v >= 0 {
		return int(v + 0.5)
	}
	return int(v - 0.5)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
