package tiles

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"drone-locator/internal/logger"
)

func TestZoomForWidth(t *testing.T) {
	tests := []struct {
		name        string
		lat         float64
		widthMeters float64
		pixels      int
		want        int
	}{
		{"equator default tile", 0, 250, 640, 20},
		{"high latitude", 60, 250, 640, 19},
		{"wide area", 0, 4000, 640, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ZoomForWidth(tt.lat, tt.widthMeters, tt.pixels); got != tt.want {
				t.Errorf("ZoomForWidth(%v, %v, %d): got %d, want %d",
					tt.lat, tt.widthMeters, tt.pixels, got, tt.want)
			}
		})
	}
}

func TestZoomForWidthClamped(t *testing.T) {
	if got := ZoomForWidth(0, 1e10, 640); got != 0 {
		t.Errorf("huge width: got zoom %d, want 0", got)
	}
	if got := ZoomForWidth(0, 0.001, 640); got != 21 {
		t.Errorf("tiny width: got zoom %d, want 21", got)
	}
}

func TestTileURL(t *testing.T) {
	client := NewStaticMapClient("test-key", nil)
	raw := client.TileURL(48.8584, 2.2945, 250, 640)

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("TileURL produced invalid URL: %v", err)
	}

	q := parsed.Query()
	if got := q.Get("maptype"); got != "satellite" {
		t.Errorf("maptype: got %s, want satellite", got)
	}
	if got := q.Get("size"); got != "640x640" {
		t.Errorf("size: got %s, want 640x640", got)
	}
	if got := q.Get("key"); got != "test-key" {
		t.Errorf("key: got %s, want test-key", got)
	}
	if !strings.HasPrefix(q.Get("center"), "48.8584") {
		t.Errorf("center: got %s", q.Get("center"))
	}
}

func TestFetchTileRejectsBadCoordinates(t *testing.T) {
	client := NewStaticMapClient("k", nil)
	if _, err := client.FetchTile(context.Background(), 95, 0, 250, 640); err == nil {
		t.Error("latitude 95 accepted")
	}
	if _, err := client.FetchTile(context.Background(), 0, -200, 250, 640); err == nil {
		t.Error("longitude -200 accepted")
	}
}

func TestFetchTileErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewStaticMapClient("k", nil)
	client.BaseURL = srv.URL

	if _, err := client.FetchTile(context.Background(), 10, 10, 250, 640); err == nil {
		t.Error("expected error for HTTP 403")
	}
}

// countingFetcher counts calls and serves a fixed gray tile.
type countingFetcher struct {
	calls int
}

func (f *countingFetcher) FetchTile(ctx context.Context, lat, lon float64, widthMeters float64, pixels int) (image.Image, error) {
	f.calls++
	return image.NewRGBA(image.Rect(0, 0, pixels, pixels)), nil
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	inner := &countingFetcher{}
	cache, err := NewDiskCache(dir, inner, &logger.NullLogger{})
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}

	ctx := context.Background()
	first, err := cache.FetchTile(ctx, 12.5, -3.25, 250, 64)
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner fetcher called %d times, want 1", inner.calls)
	}

	second, err := cache.FetchTile(ctx, 12.5, -3.25, 250, 64)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("cache miss on repeat fetch: inner called %d times", inner.calls)
	}

	if first.Bounds() != second.Bounds() {
		t.Errorf("cached tile dimensions differ: %v vs %v", first.Bounds(), second.Bounds())
	}

	// A different key fetches again.
	if _, err := cache.FetchTile(ctx, 12.5, -3.25, 500, 64); err != nil {
		t.Fatalf("third fetch failed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner fetcher called %d times, want 2", inner.calls)
	}
}

// failingFetcher always errors.
type failingFetcher struct{}

func (f failingFetcher) FetchTile(ctx context.Context, lat, lon float64, widthMeters float64, pixels int) (image.Image, error) {
	return nil, fmt.Errorf("no network")
}

func TestDiskCachePropagatesErrors(t *testing.T) {
	cache, err := NewDiskCache(t.TempDir(), failingFetcher{}, nil)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	if _, err := cache.FetchTile(context.Background(), 1, 1, 250, 64); err == nil {
		t.Error("expected fetch error to propagate")
	}
}
