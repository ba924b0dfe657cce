package contour

import (
	"fmt"
	"image"

	"drone-locator/pkg/geometry"

	"gocv.io/x/gocv"
)

// Options configures contour extraction.
type Options struct {
	// Threshold is the edge strength knob, 0-100. Higher values produce
	// fewer, stronger contours.
	Threshold int

	// MinAreaFraction is the minimum polygon area of a kept contour,
	// expressed as a fraction of the total image area.
	MinAreaFraction float64

	// MinPerimeter is the minimum boundary length in pixels of a kept
	// contour.
	MinPerimeter float64

	// BlurKernel is the Gaussian smoothing kernel side length. Must be odd.
	BlurKernel int
}

// DefaultOptions returns default extraction options.
func DefaultOptions() Options {
	return Options{
		Threshold:       50,
		MinAreaFraction: 0.0005,
		MinPerimeter:    150,
		BlurKernel:      5,
	}
}

// CannyThresholds maps the 0-100 strength knob to a (low, high) Canny
// hysteresis threshold pair. The mapping is monotone: a higher knob value
// yields higher thresholds, so the traced contour count never increases
// as the knob is raised. Exposed so the mapping can be re-tuned without
// touching the pipeline.
func CannyThresholds(threshold int) (low, high float32) {
	l := 30 + (float64(threshold)-50)*1.4
	if l < 10 {
		l = 10
	}
	if l > 255 {
		l = 255
	}
	h := 2 * l
	if h < 20 {
		h = 20
	}
	if h > 255 {
		h = 255
	}
	return float32(l), float32(h)
}

// Extract runs the edge and contour extraction pipeline on an image:
// grayscale conversion, Gaussian smoothing, Canny hysteresis edge
// detection, external contour tracing, then area and perimeter filtering.
// An empty result set is a legitimate outcome for featureless imagery.
func Extract(img image.Image, opts Options) (*Set, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("zero-sized image %dx%d", width, height)
	}
	if opts.BlurKernel < 3 || opts.BlurKernel%2 == 0 {
		opts.BlurKernel = DefaultOptions().BlurKernel
	}

	mat, err := imageToMat(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	// Grayscale conversion (Rec. 601 luminance)
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	// Smooth to suppress sensor noise
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{opts.BlurKernel, opts.BlurKernel}, 0, 0, gocv.BorderDefault)

	low, high := CannyThresholds(opts.Threshold)
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, low, high)

	// Trace external contours of connected edge components
	traced := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer traced.Close()

	contours := make([]Contour, 0, traced.Size())
	for i := 0; i < traced.Size(); i++ {
		pv := traced.At(i)
		points := make([]geometry.PointInt, pv.Size())
		for j := 0; j < pv.Size(); j++ {
			pt := pv.At(j)
			points[j] = geometry.PointInt{X: pt.X, Y: pt.Y}
		}
		contours = append(contours, Contour{
			ID:     fmt.Sprintf("c%04d", i),
			Points: points,
			Closed: true,
		})
	}

	set := &Set{
		Contours:    filterContours(contours, float64(width)*float64(height), opts),
		ImageWidth:  width,
		ImageHeight: height,
	}
	return set, nil
}

// filterContours drops contours whose area or perimeter is below its floor.
// Both filters apply; failing either one discards the contour.
func filterContours(contours []Contour, imageArea float64, opts Options) []Contour {
	minArea := opts.MinAreaFraction * imageArea

	kept := make([]Contour, 0, len(contours))
	for _, c := range contours {
		if c.Area() < minArea {
			continue
		}
		if c.Perimeter() < opts.MinPerimeter {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// imageToMat converts a Go image.Image to a gocv.Mat in BGR format.
func imageToMat(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(b>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}

	return mat, nil
}
