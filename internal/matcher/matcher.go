// Package matcher ranks reference rasters by how well their contour
// patterns align with a query raster's pattern.
package matcher

import (
	"fmt"
	"image"
	"sort"

	"drone-locator/internal/contour"
	"drone-locator/internal/holistic"
	"drone-locator/internal/pattern"
	"drone-locator/internal/shape"
)

// ExtractFunc extracts a contour set from an image. It exists so tests
// and preview callers can substitute the gocv pipeline.
type ExtractFunc func(img image.Image, opts contour.Options) (*contour.Set, error)

// Matcher matches one query raster against reference rasters.
type Matcher struct {
	extract ExtractFunc
}

// New returns a Matcher backed by the standard extraction pipeline.
func New() *Matcher {
	return &Matcher{extract: contour.Extract}
}

// NewWithExtractor returns a Matcher using a custom extraction function.
func NewWithExtractor(extract ExtractFunc) *Matcher {
	return &Matcher{extract: extract}
}

// MatchResult is the outcome of matching the query against one reference.
type MatchResult struct {
	// Index is the reference's position in the caller's slice.
	Index int `json:"index"`

	// IoU is the best alignment score in [0, 1]. In individual mode it
	// holds the shape similarity mapped onto the same range.
	IoU float64 `json:"iou"`

	// Transform is the best transform found. Identity when the score is
	// zero or the mode does not search transforms.
	Transform holistic.Transform `json:"transform"`

	// ContourCount is the number of contours extracted from the reference.
	ContourCount int `json:"contour_count"`

	// ReferenceFeatureless is set when the reference yielded no contours.
	ReferenceFeatureless bool `json:"reference_featureless,omitempty"`

	// LowConfidence is set when IoU fell below Config.MinScore.
	LowConfidence bool `json:"low_confidence,omitempty"`
}

// Score returns the result's score on the caller-facing 0-100 scale.
func (r MatchResult) Score() float64 {
	return 100 * r.IoU
}

// RankedMatches is the outcome of matching one query against N references.
type RankedMatches struct {
	// PerReference holds one result per reference, sorted by score
	// descending; ties break on the lower index.
	PerReference []MatchResult `json:"per_reference"`

	// BestIndex is the reference index of the top-ranked result, 0 when
	// there are no references or the query was featureless.
	BestIndex int `json:"best_index"`

	// BestScore is the top-ranked score on the 0-100 scale.
	BestScore float64 `json:"best_score"`

	// QueryFeatureless is set when the query yielded no contours; every
	// reference then scores 0.
	QueryFeatureless bool `json:"query_featureless,omitempty"`

	// QueryContourCount is the number of contours extracted from the query.
	QueryContourCount int `json:"query_contour_count"`
}

// Match extracts contours from the query once, then scores every
// reference against it and returns the ranked results. Same inputs and
// configuration always produce the same output.
func (m *Matcher) Match(query image.Image, references []image.Image, cfg Config) (*RankedMatches, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateRaster(query); err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	for i, ref := range references {
		if err := validateRaster(ref); err != nil {
			return nil, fmt.Errorf("reference %d: %w", i, err)
		}
	}

	querySet, err := m.extract(query, cfg.extractorOptions())
	if err != nil {
		return nil, fmt.Errorf("query: %w: %v", ErrInvalidRaster, err)
	}

	ranked := &RankedMatches{
		QueryContourCount: querySet.Count(),
	}

	if querySet.Empty() {
		// Degenerate but not an error: every reference scores zero.
		ranked.QueryFeatureless = true
		for i := range references {
			ranked.PerReference = append(ranked.PerReference, MatchResult{
				Index:         i,
				Transform:     holistic.Transform{Scale: 1},
				LowConfidence: true,
			})
		}
		return ranked, nil
	}

	var queryPattern *pattern.Pattern
	if cfg.Mode != ModeIndividual {
		queryPattern, err = pattern.Rasterize(querySet, cfg.PatternSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigOutOfRange, err)
		}
	}

	results := make([]MatchResult, 0, len(references))
	for i, ref := range references {
		result, err := m.matchOne(querySet, queryPattern, ref, i, cfg)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].IoU != results[j].IoU {
			return results[i].IoU > results[j].IoU
		}
		return results[i].Index < results[j].Index
	})

	ranked.PerReference = results
	if len(results) > 0 {
		ranked.BestIndex = results[0].Index
		ranked.BestScore = results[0].Score()
	}
	return ranked, nil
}

// matchOne scores a single reference raster.
func (m *Matcher) matchOne(querySet *contour.Set, queryPattern *pattern.Pattern, ref image.Image, index int, cfg Config) (MatchResult, error) {
	result := MatchResult{
		Index:     index,
		Transform: holistic.Transform{Scale: 1},
	}

	refSet, err := m.extract(ref, cfg.extractorOptions())
	if err != nil {
		return result, fmt.Errorf("reference %d: %w: %v", index, ErrInvalidRaster, err)
	}
	result.ContourCount = refSet.Count()

	if refSet.Empty() {
		result.ReferenceFeatureless = true
		result.LowConfidence = true
		return result, nil
	}

	switch cfg.Mode {
	case ModeIndividual:
		result.IoU = shape.SetSimilarity(querySet, refSet) / 100

	default:
		refPattern, err := pattern.Rasterize(refSet, cfg.PatternSize)
		if err != nil {
			return result, fmt.Errorf("%w: %v", ErrConfigOutOfRange, err)
		}
		search, err := holistic.Search(queryPattern, refPattern, cfg.searchParams())
		if err != nil {
			return result, fmt.Errorf("reference %d: %w", index, err)
		}
		result.IoU = search.IoU
		result.Transform = search.Transform
	}

	result.LowConfidence = result.IoU < cfg.MinScore
	return result, nil
}

// ExtractContours exposes the extraction stage on its own for preview and
// visualization callers.
func (m *Matcher) ExtractContours(img image.Image, cfg Config) (*contour.Set, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateRaster(img); err != nil {
		return nil, err
	}
	set, err := m.extract(img, cfg.extractorOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRaster, err)
	}
	return set, nil
}

// validateRaster rejects missing or zero-sized input images.
func validateRaster(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidRaster)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return fmt.Errorf("%w: zero-sized image", ErrInvalidRaster)
	}
	return nil
}
