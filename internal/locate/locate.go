// Package locate predicts which candidate coordinate an aerial photograph
// was taken at, by matching the photo against satellite tiles fetched for
// each candidate.
package locate

import (
	"context"
	"fmt"
	"image"
	"sort"

	"drone-locator/internal/holistic"
	"drone-locator/internal/logger"
	"drone-locator/internal/matcher"
	"drone-locator/internal/tiles"
)

// Coordinate is one candidate location supplied by a front-end.
type Coordinate struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Description string  `json:"description,omitempty"`
}

// Validate checks the coordinate against WGS84 bounds. No reprojection
// happens anywhere; coordinates pass through to the tile provider.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f outside [-90, 90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %f outside [-180, 180]", c.Lon)
	}
	return nil
}

// Candidate is the scored outcome for one coordinate.
type Candidate struct {
	Coordinate Coordinate         `json:"coordinates"`
	Score      float64            `json:"score"`
	Transform  holistic.Transform `json:"transform"`

	ContourCount         int    `json:"contour_count"`
	ReferenceFeatureless bool   `json:"reference_featureless,omitempty"`
	LowConfidence        bool   `json:"low_confidence,omitempty"`
	FetchError           string `json:"fetch_error,omitempty"`
}

// Result ranks every candidate coordinate for one query image.
type Result struct {
	// Candidates are sorted by score descending; candidates whose tile
	// fetch failed sort last and carry FetchError.
	Candidates []Candidate `json:"candidates"`

	// Best points at the top-ranked candidate, nil when every tile fetch
	// failed.
	Best *Candidate `json:"best,omitempty"`

	QueryFeatureless  bool `json:"query_featureless,omitempty"`
	QueryContourCount int  `json:"query_contour_count"`
}

// Locator wires the tile collaborator and the matching engine together.
type Locator struct {
	Tiles   tiles.Fetcher
	Matcher *matcher.Matcher
	Log     logger.ILogger

	// Tile sizing; zero values take the package defaults.
	WidthMeters float64
	Pixels      int
}

// New returns a Locator with default tile sizing.
func New(fetcher tiles.Fetcher, m *matcher.Matcher, log logger.ILogger) *Locator {
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Locator{
		Tiles:       fetcher,
		Matcher:     m,
		Log:         log,
		WidthMeters: tiles.DefaultWidthMeters,
		Pixels:      tiles.DefaultPixels,
	}
}

// Locate fetches one reference tile per candidate, matches the query
// against the fetched set, and returns ranked candidates. Individual tile
// fetch failures degrade to flagged entries; the run continues across the
// remaining candidates.
func (l *Locator) Locate(ctx context.Context, query image.Image, coords []Coordinate, cfg matcher.Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(coords) == 0 {
		return nil, fmt.Errorf("no candidate coordinates")
	}
	for i, c := range coords {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("coordinate %d: %w", i, err)
		}
	}

	// Fetch tiles; remember which candidate each fetched raster belongs to.
	var rasters []image.Image
	var rasterCoord []int
	failed := make(map[int]string)

	for i, c := range coords {
		tile, err := l.Tiles.FetchTile(ctx, c.Lat, c.Lon, l.WidthMeters, l.Pixels)
		if err != nil {
			l.Log.Errorf("Tile fetch failed for candidate %d (%f, %f): %v", i, c.Lat, c.Lon, err)
			failed[i] = err.Error()
			continue
		}
		l.Log.Infof("Fetched tile %d/%d", i+1, len(coords))
		rasters = append(rasters, tile)
		rasterCoord = append(rasterCoord, i)
	}

	result := &Result{}

	if len(rasters) > 0 {
		ranked, err := l.Matcher.Match(query, rasters, cfg)
		if err != nil {
			return nil, err
		}
		result.QueryFeatureless = ranked.QueryFeatureless
		result.QueryContourCount = ranked.QueryContourCount

		for _, r := range ranked.PerReference {
			idx := rasterCoord[r.Index]
			result.Candidates = append(result.Candidates, Candidate{
				Coordinate:           coords[idx],
				Score:                r.Score(),
				Transform:            r.Transform,
				ContourCount:         r.ContourCount,
				ReferenceFeatureless: r.ReferenceFeatureless,
				LowConfidence:        r.LowConfidence,
			})
		}
	}

	// Failed fetches are reported, flagged, and excluded from ranking.
	for i, c := range coords {
		if msg, ok := failed[i]; ok {
			result.Candidates = append(result.Candidates, Candidate{
				Coordinate: c,
				Transform:  holistic.Transform{Scale: 1},
				FetchError: msg,
			})
		}
	}

	sort.SliceStable(result.Candidates, func(i, j int) bool {
		a, b := result.Candidates[i], result.Candidates[j]
		if (a.FetchError == "") != (b.FetchError == "") {
			return a.FetchError == ""
		}
		return a.Score > b.Score
	})

	for i := range result.Candidates {
		if result.Candidates[i].FetchError == "" {
			result.Best = &result.Candidates[i]
			break
		}
	}

	if result.Best != nil {
		l.Log.Infof("Best match: (%f, %f) score %.2f",
			result.Best.Coordinate.Lat, result.Best.Coordinate.Lon, result.Best.Score)
	}
	return result, nil
}
