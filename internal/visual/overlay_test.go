package visual

import (
	"image"
	"testing"

	"drone-locator/internal/contour"
	"drone-locator/internal/holistic"
	"drone-locator/internal/pattern"
	"drone-locator/pkg/geometry"
)

func TestRenderAlignmentColors(t *testing.T) {
	query := pattern.New(64)
	ref := pattern.New(64)

	query.Set(10, 10) // query only -> green
	ref.Set(20, 20)   // reference only -> blue
	query.Set(30, 30) // both -> yellow
	ref.Set(30, 30)

	out := RenderAlignment(query, ref, holistic.Transform{Scale: 1})

	if got := out.RGBAAt(10, 10); got != queryColor {
		t.Errorf("query pixel: got %+v, want %+v", got, queryColor)
	}
	if got := out.RGBAAt(20, 20); got != referenceColor {
		t.Errorf("reference pixel: got %+v, want %+v", got, referenceColor)
	}
	if got := out.RGBAAt(30, 30); got != intersectionColor {
		t.Errorf("intersection pixel: got %+v, want %+v", got, intersectionColor)
	}
	// Background stays black
	if got := out.RGBAAt(5, 5); got.R != 0 || got.G != 0 || got.B != 0 {
		t.Errorf("background pixel: got %+v, want black", got)
	}
}

func TestRenderAlignmentAppliesTransform(t *testing.T) {
	query := pattern.New(64)
	ref := pattern.New(64)
	query.Set(10, 10)
	ref.Set(14, 12)

	out := RenderAlignment(query, ref, holistic.Transform{Scale: 1, TX: 4, TY: 2})

	if got := out.RGBAAt(14, 12); got != intersectionColor {
		t.Errorf("translated query should intersect reference: got %+v", got)
	}
}

func TestRenderContours(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	set := &contour.Set{
		Contours: []contour.Contour{{
			Points: []geometry.PointInt{{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 50, Y: 50}, {X: 10, Y: 50}},
			Closed: true,
		}},
	}

	out := RenderContours(src, set)

	for _, p := range []image.Point{{10, 10}, {30, 10}, {50, 30}, {10, 50}} {
		if got := out.RGBAAt(p.X, p.Y); got != contourColor {
			t.Errorf("contour pixel (%d, %d): got %+v, want %+v", p.X, p.Y, got, contourColor)
		}
	}
	if got := out.RGBAAt(30, 30); got == contourColor {
		t.Error("interior pixel should not be drawn")
	}
}

func TestRenderContoursClipsOutOfBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 20, 20))
	set := &contour.Set{
		Contours: []contour.Contour{{
			Points: []geometry.PointInt{{X: -10, Y: 5}, {X: 40, Y: 5}},
			Closed: false,
		}},
	}

	// Must not panic; in-bounds portion drawn.
	out := RenderContours(src, set)
	if got := out.RGBAAt(10, 5); got != contourColor {
		t.Errorf("in-bounds segment pixel: got %+v", got)
	}
}

func TestResize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 50))
	out := Resize(src, 40, 20)
	if out.Bounds().Dx() != 40 || out.Bounds().Dy() != 20 {
		t.Errorf("resized dimensions: got %dx%d, want 40x20", out.Bounds().Dx(), out.Bounds().Dy())
	}
}
