// Package contour extracts edge contours from rasters for pattern matching.
package contour

import (
	"drone-locator/pkg/geometry"
)

// Contour represents a polyline traced along the boundary of a connected
// edge component.
type Contour struct {
	ID     string              `json:"id,omitempty"`
	Points []geometry.PointInt `json:"points"`
	Closed bool                `json:"closed"`
}

// Area returns the absolute polygon area enclosed by the contour.
func (c Contour) Area() float64 {
	return geometry.Area(c.Points)
}

// SignedArea returns the signed shoelace area of the contour.
func (c Contour) SignedArea() float64 {
	return geometry.SignedArea(c.Points)
}

// Perimeter returns the boundary length of the contour.
func (c Contour) Perimeter() float64 {
	return geometry.Perimeter(c.Points, c.Closed)
}

// Bounds returns the tight bounding box of the contour points.
func (c Contour) Bounds() geometry.RectInt {
	return geometry.BoundingBoxInt(c.Points)
}

// Centroid returns the average position of the contour points.
func (c Contour) Centroid() geometry.Point2D {
	pts := make([]geometry.Point2D, len(c.Points))
	for i, p := range c.Points {
		pts[i] = p.ToFloat()
	}
	return geometry.Centroid(pts)
}

// Set holds all contours extracted from one raster.
type Set struct {
	Contours []Contour `json:"contours"`

	// Source image dimensions, used for area-relative filtering and
	// visualization.
	ImageWidth  int `json:"image_width"`
	ImageHeight int `json:"image_height"`
}

// Count returns the number of contours in the set.
func (s *Set) Count() int {
	if s == nil {
		return 0
	}
	return len(s.Contours)
}

// Empty reports whether the set contains no contours. An empty set is a
// legitimate outcome for featureless imagery.
func (s *Set) Empty() bool {
	return s.Count() == 0
}

// Bounds returns the bounding box covering every contour point in the set.
func (s *Set) Bounds() geometry.RectInt {
	var all []geometry.PointInt
	for _, c := range s.Contours {
		all = append(all, c.Points...)
	}
	return geometry.BoundingBoxInt(all)
}
