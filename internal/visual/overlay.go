// Package visual renders match results and contour previews for the CLI
// and HTTP front-ends.
package visual

import (
	"image"
	"image/color"
	"image/draw"

	"drone-locator/internal/contour"
	"drone-locator/internal/holistic"
	"drone-locator/internal/pattern"

	xdraw "golang.org/x/image/draw"
)

var (
	referenceColor    = color.RGBA{R: 0, G: 90, B: 255, A: 255}
	queryColor        = color.RGBA{R: 0, G: 220, B: 60, A: 255}
	intersectionColor = color.RGBA{R: 255, G: 230, B: 0, A: 255}
	contourColor      = color.RGBA{R: 0, G: 255, B: 0, A: 255}
)

// RenderAlignment composites the reference pattern and the transformed
// query pattern on a dark canvas: reference pixels blue, query pixels
// green, their intersection yellow.
func RenderAlignment(query, ref *pattern.Pattern, t holistic.Transform) *image.RGBA {
	size := ref.Size
	out := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	transformed := pattern.New(size)
	holistic.Apply(transformed, query, t)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r := ref.At(x, y)
			q := transformed.At(x, y)
			switch {
			case r && q:
				out.SetRGBA(x, y, intersectionColor)
			case r:
				out.SetRGBA(x, y, referenceColor)
			case q:
				out.SetRGBA(x, y, queryColor)
			}
		}
	}
	return out
}

// RenderContours draws the extracted contours over a copy of the source
// image.
func RenderContours(src image.Image, set *contour.Set) *image.RGBA {
	bounds := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), src, bounds.Min, draw.Src)

	for _, c := range set.Contours {
		n := len(c.Points)
		if n == 0 {
			continue
		}
		segments := n - 1
		if c.Closed {
			segments = n
		}
		for i := 0; i < segments; i++ {
			a := c.Points[i]
			b := c.Points[(i+1)%n]
			drawLine(out, a.X, a.Y, b.X, b.Y, contourColor)
		}
	}
	return out
}

// Resize scales an image to the given dimensions.
func Resize(src image.Image, width, height int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return out
}

// drawLine rasterizes a segment with Bresenham's algorithm, clipping to
// the image bounds.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	bounds := img.Bounds()
	for {
		if image.Pt(x0, y0).In(bounds) {
			img.SetRGBA(x0, y0, col)
		}
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

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
