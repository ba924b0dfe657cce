package geometry

import "math"

// SignedArea computes the signed area of a closed polygon using the
// shoelace formula. Counter-clockwise polygons have positive area.
func SignedArea(points []PointInt) float64 {
	if len(points) < 3 {
		return 0
	}

	var sum float64
	n := len(points)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += float64(points[i].X)*float64(points[j].Y) - float64(points[j].X)*float64(points[i].Y)
	}
	return sum / 2
}

// Area computes the absolute polygon area.
func Area(points []PointInt) float64 {
	return math.Abs(SignedArea(points))
}

// Perimeter computes the length of the polyline. When closed is true the
// segment from the last point back to the first is included.
func Perimeter(points []PointInt, closed bool) float64 {
	if len(points) < 2 {
		return 0
	}

	var length float64
	for i := 1; i < len(points); i++ {
		length += points[i-1].ToFloat().Distance(points[i].ToFloat())
	}
	if closed {
		length += points[len(points)-1].ToFloat().Distance(points[0].ToFloat())
	}
	return length
}

// Circularity measures how circular a closed polygon is: 4*pi*area/perimeter^2.
// A perfect circle yields 1.0, elongated shapes approach 0.
func Circularity(points []PointInt) float64 {
	perimeter := Perimeter(points, true)
	if perimeter <= 0 {
		return 0
	}
	return (4 * math.Pi * Area(points)) / (perimeter * perimeter)
}

// Moments holds raw polygon moments up to third order, computed over the
// region enclosed by the polygon boundary.
type Moments struct {
	M00, M10, M01      float64
	M20, M11, M02      float64
	M30, M21, M12, M03 float64
}

// PolygonMoments computes raw geometric moments of a closed polygon via
// Green's theorem. The sign follows the polygon orientation; callers that
// need orientation-independent values should normalize by the sign of M00.
func PolygonMoments(points []PointInt) Moments {
	var m Moments
	n := len(points)
	if n < 3 {
		return m
	}

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		xi, yi := float64(points[i].X), float64(points[i].Y)
		xj, yj := float64(points[j].X), float64(points[j].Y)
		cross := xi*yj - xj*yi

		m.M00 += cross
		m.M10 += cross * (xi + xj)
		m.M01 += cross * (yi + yj)
		m.M20 += cross * (xi*xi + xi*xj + xj*xj)
		m.M11 += cross * (2*xi*yi + xi*yj + xj*yi + 2*xj*yj)
		m.M02 += cross * (yi*yi + yi*yj + yj*yj)
		m.M30 += cross * (xi*xi*xi + xi*xi*xj + xi*xj*xj + xj*xj*xj)
		m.M21 += cross * (xi*xi*(3*yi+yj) + 2*xi*xj*(yi+yj) + xj*xj*(yi+3*yj))
		m.M12 += cross * (yi*yi*(3*xi+xj) + 2*yi*yj*(xi+xj) + yj*yj*(xi+3*xj))
		m.M03 += cross * (yi*yi*yi + yi*yi*yj + yi*yj*yj + yj*yj*yj)
	}

	m.M00 /= 2
	m.M10 /= 6
	m.M01 /= 6
	m.M20 /= 12
	m.M11 /= 24
	m.M02 /= 12
	m.M30 /= 20
	m.M21 /= 60
	m.M12 /= 60
	m.M03 /= 20

	return m
}

// CentralMoments holds translation-invariant central moments.
type CentralMoments struct {
	Mu00                   float64
	Mu20, Mu11, Mu02       float64
	Mu30, Mu21, Mu12, Mu03 float64
}

// Central converts raw moments to central moments about the centroid.
func (m Moments) Central() CentralMoments {
	if m.M00 == 0 {
		return CentralMoments{}
	}

	cx := m.M10 / m.M00
	cy := m.M01 / m.M00

	return CentralMoments{
		Mu00: m.M00,
		Mu20: m.M20 - cx*m.M10,
		Mu11: m.M11 - cx*m.M01,
		Mu02: m.M02 - cy*m.M01,
		Mu30: m.M30 - 3*cx*m.M20 + 2*cx*cx*m.M10,
		Mu21: m.M21 - 2*cx*m.M11 - cy*m.M20 + 2*cx*cx*m.M01,
		Mu12: m.M12 - 2*cy*m.M11 - cx*m.M02 + 2*cy*cy*m.M10,
		Mu03: m.M03 - 3*cy*m.M02 + 2*cy*cy*m.M01,
	}
}
