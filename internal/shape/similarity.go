package shape

import (
	"math"

	"drone-locator/internal/contour"

	"gonum.org/v1/gonum/stat"
)

const ratioEpsilon = 1e-9

// Weighting between the moment-invariant comparison and the size/shape
// ratio bag.
const (
	momentWeight = 0.6
	ratioWeight  = 0.4
)

// DescriptorSimilarity compares two shape descriptors and returns a
// similarity in [0, 1].
func DescriptorSimilarity(a, b Descriptor) float64 {
	// L1 distance between log moment invariants through a decreasing
	// kernel.
	var huDistance float64
	for i := range a.Hu {
		huDistance += math.Abs(a.Hu[i] - b.Hu[i])
	}
	momentSim := 1 / (1 + huDistance)

	ratios := []float64{
		relativeDifference(a.Perimeter, b.Perimeter),
		relativeDifference(a.Area, b.Area),
		relativeDifference(a.Circularity, b.Circularity),
	}
	ratioSim := 1 - stat.Mean(ratios, nil)
	if ratioSim < 0 {
		ratioSim = 0
	}

	return momentWeight*momentSim + ratioWeight*ratioSim
}

// relativeDifference returns |a-b| / max(a, b, epsilon), a value in [0, 1]
// for non-negative inputs.
func relativeDifference(a, b float64) float64 {
	denom := math.Max(math.Max(a, b), ratioEpsilon)
	return math.Abs(a-b) / denom
}

// SetSimilarity scores two contour sets in [0, 100]. Every query contour
// is matched against its most similar reference contour; the mean of
// those best-match similarities is the set score. Either set being empty
// yields 0.
func SetSimilarity(query, ref *contour.Set) float64 {
	if query.Empty() || ref.Empty() {
		return 0
	}

	refDescriptors := make([]Descriptor, len(ref.Contours))
	for i, c := range ref.Contours {
		refDescriptors[i] = Describe(c)
	}

	best := make([]float64, len(query.Contours))
	for i, qc := range query.Contours {
		qd := Describe(qc)
		for _, rd := range refDescriptors {
			if sim := DescriptorSimilarity(qd, rd); sim > best[i] {
				best[i] = sim
			}
		}
	}

	return 100 * stat.Mean(best, nil)
}
