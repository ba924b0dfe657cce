package locate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"testing"

	"drone-locator/internal/contour"
	"drone-locator/internal/logger"
	"drone-locator/internal/matcher"
	"drone-locator/pkg/geometry"
)

// fakeFetcher serves tiles from a map keyed by latitude; missing keys
// simulate provider failures.
type fakeFetcher struct {
	tiles map[float64]image.Image
	calls int
}

func (f *fakeFetcher) FetchTile(ctx context.Context, lat, lon float64, widthMeters float64, pixels int) (image.Image, error) {
	f.calls++
	tile, ok := f.tiles[lat]
	if !ok {
		return nil, fmt.Errorf("provider status 500")
	}
	return tile, nil
}

// dimensionExtractor keys contour sets by image width, letting tests
// steer extraction through decoded images.
func dimensionExtractor(sets map[int]*contour.Set) matcher.ExtractFunc {
	return func(img image.Image, opts contour.Options) (*contour.Set, error) {
		if set, ok := sets[img.Bounds().Dx()]; ok {
			return set, nil
		}
		return &contour.Set{}, nil
	}
}

func squareSet(x, y, side int) *contour.Set {
	return &contour.Set{
		Contours: []contour.Contour{{
			Points: []geometry.PointInt{
				{X: x, Y: y}, {X: x + side, Y: y},
				{X: x + side, Y: y + side}, {X: x, Y: y + side},
			},
			Closed: true,
		}},
	}
}

func lSet() *contour.Set {
	return &contour.Set{
		Contours: []contour.Contour{{
			Points: []geometry.PointInt{
				{X: 0, Y: 0}, {X: 20, Y: 0}, {X: 20, Y: 100},
				{X: 100, Y: 100}, {X: 100, Y: 120}, {X: 0, Y: 120},
			},
			Closed: true,
		}},
	}
}

func testConfig() matcher.Config {
	cfg := matcher.DefaultConfig()
	cfg.PatternSize = 64
	cfg.Holistic.TranslationRange = 8
	cfg.Holistic.TranslationStep = 4
	cfg.Holistic.Workers = 1
	return cfg
}

func TestLocateRanksCandidates(t *testing.T) {
	// Query (width 100) matches the tile of width 200 exactly; the tile
	// of width 300 holds a different shape.
	extract := dimensionExtractor(map[int]*contour.Set{
		100: squareSet(10, 10, 80),
		200: squareSet(10, 10, 80),
		300: lSet(),
	})

	fetcher := &fakeFetcher{tiles: map[float64]image.Image{
		10: image.NewRGBA(image.Rect(0, 0, 300, 300)),
		20: image.NewRGBA(image.Rect(0, 0, 200, 200)),
	}}

	loc := New(fetcher, matcher.NewWithExtractor(extract), &logger.NullLogger{})
	query := image.NewRGBA(image.Rect(0, 0, 100, 100))
	coords := []Coordinate{
		{Lat: 10, Lon: 10, Description: "wrong area"},
		{Lat: 20, Lon: 20, Description: "true location"},
	}

	result, err := loc.Locate(context.Background(), query, coords, testConfig())
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}

	if result.Best == nil {
		t.Fatal("no best candidate")
	}
	if result.Best.Coordinate.Lat != 20 {
		t.Errorf("best candidate lat: got %v, want 20", result.Best.Coordinate.Lat)
	}
	if result.Best.Score != 100 {
		t.Errorf("best score: got %v, want 100", result.Best.Score)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(result.Candidates))
	}
	if fetcher.calls != 2 {
		t.Errorf("fetcher called %d times, want 2", fetcher.calls)
	}
}

func TestLocateFetchFailureDegrades(t *testing.T) {
	extract := dimensionExtractor(map[int]*contour.Set{
		100: squareSet(10, 10, 80),
		200: squareSet(10, 10, 80),
	})

	// Only lat 20 resolves; lat 55 fails.
	fetcher := &fakeFetcher{tiles: map[float64]image.Image{
		20: image.NewRGBA(image.Rect(0, 0, 200, 200)),
	}}

	loc := New(fetcher, matcher.NewWithExtractor(extract), nil)
	query := image.NewRGBA(image.Rect(0, 0, 100, 100))
	coords := []Coordinate{
		{Lat: 55, Lon: 1},
		{Lat: 20, Lon: 2},
	}

	result, err := loc.Locate(context.Background(), query, coords, testConfig())
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}

	if len(result.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(result.Candidates))
	}

	// The failed candidate sorts last and carries the fetch error.
	failed := result.Candidates[len(result.Candidates)-1]
	if failed.Coordinate.Lat != 55 {
		t.Errorf("failed candidate lat: got %v, want 55", failed.Coordinate.Lat)
	}
	if failed.FetchError == "" {
		t.Error("FetchError not set on failed candidate")
	}

	// The surviving candidate's rank is unaffected.
	if result.Best == nil || result.Best.Coordinate.Lat != 20 {
		t.Errorf("best candidate: got %+v, want lat 20", result.Best)
	}
	if result.Best.FetchError != "" {
		t.Error("best candidate unexpectedly carries a fetch error")
	}
}

func TestLocateAllFetchesFail(t *testing.T) {
	fetcher := &fakeFetcher{}
	loc := New(fetcher, matcher.NewWithExtractor(dimensionExtractor(nil)), nil)
	query := image.NewRGBA(image.Rect(0, 0, 100, 100))

	result, err := loc.Locate(context.Background(), query, []Coordinate{{Lat: 1, Lon: 1}}, testConfig())
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}

	if result.Best != nil {
		t.Errorf("Best should be nil when every fetch fails, got %+v", result.Best)
	}
	if len(result.Candidates) != 1 || result.Candidates[0].FetchError == "" {
		t.Errorf("expected one flagged candidate, got %+v", result.Candidates)
	}
}

func TestLocateValidatesCoordinates(t *testing.T) {
	loc := New(&fakeFetcher{}, matcher.NewWithExtractor(dimensionExtractor(nil)), nil)
	query := image.NewRGBA(image.Rect(0, 0, 100, 100))

	tests := []Coordinate{
		{Lat: 91, Lon: 0},
		{Lat: -91, Lon: 0},
		{Lat: 0, Lon: 181},
		{Lat: 0, Lon: -181},
	}
	for _, c := range tests {
		if _, err := loc.Locate(context.Background(), query, []Coordinate{c}, testConfig()); err == nil {
			t.Errorf("coordinate %+v accepted, want error", c)
		}
	}

	if _, err := loc.Locate(context.Background(), query, nil, testConfig()); err == nil {
		t.Error("empty coordinate list accepted, want error")
	}
}

func TestLocatePropagatesConfigErrors(t *testing.T) {
	fetcher := &fakeFetcher{tiles: map[float64]image.Image{
		1: image.NewRGBA(image.Rect(0, 0, 200, 200)),
	}}
	loc := New(fetcher, matcher.NewWithExtractor(dimensionExtractor(nil)), nil)
	query := image.NewRGBA(image.Rect(0, 0, 100, 100))

	cfg := testConfig()
	cfg.PatternSize = 8

	_, err := loc.Locate(context.Background(), query, []Coordinate{{Lat: 1, Lon: 1}}, cfg)
	if !errors.Is(err, matcher.ErrConfigOutOfRange) {
		t.Errorf("got %v, want ErrConfigOutOfRange", err)
	}
}
