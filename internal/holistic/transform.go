package holistic

import (
	"math"

	"drone-locator/internal/pattern"
	"drone-locator/pkg/geometry"
)

// Transform is a 2D similarity applied to a query pattern: uniform scale
// and rotation about the pattern center, followed by an integer
// translation. AngleDeg is counter-clockwise in pattern coordinates and
// normalized to [0, 360).
type Transform struct {
	Scale    float64 `json:"scale"`
	AngleDeg float64 `json:"angle_deg"`
	TX       int     `json:"tx"`
	TY       int     `json:"ty"`
}

// Affine expands the similarity into a full affine matrix for a pattern
// of the given side length.
func (t Transform) Affine(size int) geometry.AffineTransform {
	half := float64(size) / 2
	rad := t.AngleDeg * math.Pi / 180
	return geometry.Translation(half+float64(t.TX), half+float64(t.TY)).
		Compose(geometry.Rotation(rad)).
		Compose(geometry.Scale(t.Scale, t.Scale)).
		Compose(geometry.Translation(-half, -half))
}

// Apply renders src under the transform into dst, which must have the
// same size. Pixels whose pre-image falls outside src read as 0.
func Apply(dst, src *pattern.Pattern, t Transform) {
	resample(dst, src, t.Scale, t.AngleDeg)
	if t.TX == 0 && t.TY == 0 {
		return
	}
	shifted := pattern.New(dst.Size)
	for y := 0; y < dst.Size; y++ {
		for x := 0; x < dst.Size; x++ {
			if dst.At(x, y) {
				shifted.Set(x+t.TX, y+t.TY)
			}
		}
	}
	dst.CopyFrom(shifted)
}

// resample renders src scaled and rotated about its center into dst.
// Sampling walks destination pixels and inverse-maps to the source with
// nearest-neighbor lookup, which keeps the operation deterministic.
func resample(dst, src *pattern.Pattern, scale, angleDeg float64) {
	dst.Reset()
	if scale == 1 && angleDeg == 0 {
		dst.CopyFrom(src)
		return
	}

	half := float64(src.Size) / 2
	rad := angleDeg * math.Pi / 180
	inverse := geometry.Translation(half, half).
		Compose(geometry.Scale(1/scale, 1/scale)).
		Compose(geometry.Rotation(-rad)).
		Compose(geometry.Translation(-half, -half))

	for y := 0; y < dst.Size; y++ {
		fy := float64(y)
		for x := 0; x < dst.Size; x++ {
			p := inverse.Apply(geometry.Point2D{X: float64(x), Y: fy})
			sx := int(math.Round(p.X))
			sy := int(math.Round(p.Y))
			if src.At(sx, sy) {
				dst.Set(x, y)
			}
		}
	}
}
