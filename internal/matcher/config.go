package matcher

import (
	"fmt"

	"drone-locator/internal/contour"
	"drone-locator/internal/holistic"
	"drone-locator/internal/pattern"
)

// Mode selects the matching strategy.
type Mode string

const (
	// ModeIndividual scores reference images by per-contour shape
	// similarity. Fast, tolerant of large offsets, weak under rotation
	// and scale.
	ModeIndividual Mode = "individual"

	// ModeHolisticFull searches the full scale x rotation x translation
	// grid.
	ModeHolisticFull Mode = "holistic_full"

	// ModeHolisticSimple searches translations only. The default: an
	// order of magnitude faster, accurate when query and reference share
	// orientation and scale.
	ModeHolisticSimple Mode = "holistic_simple"
)

// Config is the immutable configuration for one match call. Nothing in
// the engine reads process-global state.
type Config struct {
	Mode Mode

	// Threshold is the extractor edge-strength knob, 0-100.
	Threshold int

	// PatternSize is the side length of the rasterized contour patterns.
	PatternSize int

	// MinScore is the IoU below which a result is flagged as having no
	// confident match. The result is still reported.
	MinScore float64

	// Extractor carries area/perimeter filter floors and the smoothing
	// kernel. Threshold above overrides its Threshold field.
	Extractor contour.Options

	// Holistic carries the transform search grid. The Simplify field is
	// derived from Mode.
	Holistic holistic.Params
}

// DefaultConfig returns the default match configuration.
func DefaultConfig() Config {
	return Config{
		Mode:        ModeHolisticSimple,
		Threshold:   50,
		PatternSize: pattern.DefaultSize,
		MinScore:    0.15,
		Extractor:   contour.DefaultOptions(),
		Holistic:    holistic.DefaultParams(),
	}
}

// Validate checks every knob before any work starts.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeIndividual, ModeHolisticFull, ModeHolisticSimple:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrConfigOutOfRange, c.Mode)
	}
	if c.Threshold < 0 || c.Threshold > 100 {
		return fmt.Errorf("%w: threshold %d outside [0, 100]", ErrConfigOutOfRange, c.Threshold)
	}
	if c.PatternSize < 32 {
		return fmt.Errorf("%w: pattern size %d below minimum 32", ErrConfigOutOfRange, c.PatternSize)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("%w: min score %g outside [0, 1]", ErrConfigOutOfRange, c.MinScore)
	}
	if err := c.searchParams().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigOutOfRange, err)
	}
	return nil
}

// extractorOptions folds the top-level threshold into the extractor
// options.
func (c Config) extractorOptions() contour.Options {
	opts := c.Extractor
	opts.Threshold = c.Threshold
	return opts
}

// searchParams folds the mode into the holistic search parameters.
func (c Config) searchParams() holistic.Params {
	params := c.Holistic
	params.Simplify = c.Mode != ModeHolisticFull
	return params
}
