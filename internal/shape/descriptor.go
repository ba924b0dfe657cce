// Package shape scores contour similarity from classical shape
// descriptors: polygon moment invariants plus size and circularity
// ratios. It is the cheap alternative to holistic pattern matching,
// robust to positional offsets but weak under rotation and scale.
package shape

import (
	"math"

	"drone-locator/internal/contour"
	"drone-locator/pkg/geometry"
)

// Descriptor captures the shape of a single contour.
type Descriptor struct {
	Area        float64
	Perimeter   float64
	Circularity float64

	// Hu holds the seven moment invariants after the signed log
	// transform -sign(h) * log10(|h|).
	Hu [7]float64
}

// Describe computes the descriptor for one contour.
func Describe(c contour.Contour) Descriptor {
	d := Descriptor{
		Area:        c.Area(),
		Perimeter:   c.Perimeter(),
		Circularity: geometry.Circularity(c.Points),
	}

	moments := geometry.PolygonMoments(c.Points)
	if moments.M00 != 0 {
		d.Hu = logTransform(huInvariants(moments.Central()))
	}
	return d
}

// huInvariants computes the seven Hu moment invariants from central
// moments, using scale-normalized moments nu_pq = mu_pq / mu00^(1+(p+q)/2).
func huInvariants(cm geometry.CentralMoments) [7]float64 {
	if cm.Mu00 == 0 {
		return [7]float64{}
	}

	mu00 := math.Abs(cm.Mu00)
	n2 := mu00 * mu00
	n3 := n2 * math.Sqrt(mu00)

	n20 := cm.Mu20 / n2
	n11 := cm.Mu11 / n2
	n02 := cm.Mu02 / n2
	n30 := cm.Mu30 / n3
	n21 := cm.Mu21 / n3
	n12 := cm.Mu12 / n3
	n03 := cm.Mu03 / n3

	var h [7]float64
	h[0] = n20 + n02
	h[1] = (n20-n02)*(n20-n02) + 4*n11*n11
	h[2] = (n30-3*n12)*(n30-3*n12) + (3*n21-n03)*(3*n21-n03)
	h[3] = (n30+n12)*(n30+n12) + (n21+n03)*(n21+n03)
	h[4] = (n30-3*n12)*(n30+n12)*((n30+n12)*(n30+n12)-3*(n21+n03)*(n21+n03)) +
		(3*n21-n03)*(n21+n03)*(3*(n30+n12)*(n30+n12)-(n21+n03)*(n21+n03))
	h[5] = (n20-n02)*((n30+n12)*(n30+n12)-(n21+n03)*(n21+n03)) +
		4*n11*(n30+n12)*(n21+n03)
	h[6] = (3*n21-n03)*(n30+n12)*((n30+n12)*(n30+n12)-3*(n21+n03)*(n21+n03)) -
		(n30-3*n12)*(n21+n03)*(3*(n30+n12)*(n30+n12)-(n21+n03)*(n21+n03))
	return h
}

// logTransform maps each invariant to -sign(h) * log10(|h|), the usual
// compression that makes invariants of very different magnitudes
// comparable. Zero stays zero.
func logTransform(h [7]float64) [7]float64 {
	var out [7]float64
	for i, v := range h {
		if v == 0 {
			continue
		}
		sign := 1.0
		if v < 0 {
			sign = -1.0
		}
		out[i] = -sign * math.Log10(math.Abs(v))
	}
	return out
}
