package matcher

import "errors"

var (
	// ErrInvalidRaster marks a zero-sized or missing input image. Fatal
	// for the whole call.
	ErrInvalidRaster = errors.New("invalid raster")

	// ErrConfigOutOfRange marks configuration values outside their legal
	// range. Raised before any work starts.
	ErrConfigOutOfRange = errors.New("configuration out of range")
)
