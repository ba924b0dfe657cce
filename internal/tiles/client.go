// Package tiles fetches satellite reference tiles for candidate
// coordinates, sized so their ground coverage matches a nadir drone shot.
package tiles

import (
	"context"
	"fmt"
	"image"
	"math"
	"net/http"
	"net/url"

	"drone-locator/internal/logger"

	"github.com/disintegration/imaging"
)

// Fetcher obtains one satellite tile centered on a coordinate. widthMeters
// sets the ground width the tile covers; pixels the output side length.
type Fetcher interface {
	FetchTile(ctx context.Context, lat, lon float64, widthMeters float64, pixels int) (image.Image, error)
}

// Defaults chosen so a tile covers roughly the footprint of a drone image
// captured at ~120 m altitude.
const (
	DefaultWidthMeters = 250.0
	DefaultPixels      = 640
	mapScale           = 2
)

// equatorial web-mercator ground resolution at zoom 0, meters per pixel
const baseResolution = 156543.03392

// StaticMapClient fetches tiles from a static-map HTTP endpoint.
type StaticMapClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Log     logger.ILogger
}

// NewStaticMapClient returns a client for the Google static maps endpoint.
func NewStaticMapClient(apiKey string, log logger.ILogger) *StaticMapClient {
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &StaticMapClient{
		BaseURL: "https://maps.googleapis.com/maps/api/staticmap",
		APIKey:  apiKey,
		HTTP:    http.DefaultClient,
		Log:     log,
	}
}

// ZoomForWidth computes the zoom level at which a tile of the given pixel
// width covers approximately widthMeters of ground at the given latitude,
// clamped to the provider's [0, 21] range.
func ZoomForWidth(lat, widthMeters float64, pixels int) int {
	metersPerPixel := widthMeters / float64(pixels*mapScale)
	zoom := int(math.Round(math.Log2(math.Cos(lat*math.Pi/180) * baseResolution / metersPerPixel)))
	if zoom < 0 {
		zoom = 0
	}
	if zoom > 21 {
		zoom = 21
	}
	return zoom
}

// TileURL builds the static-map request URL for one tile.
func (c *StaticMapClient) TileURL(lat, lon, widthMeters float64, pixels int) string {
	params := url.Values{}
	params.Set("center", fmt.Sprintf("%f,%f", lat, lon))
	params.Set("zoom", fmt.Sprintf("%d", ZoomForWidth(lat, widthMeters, pixels)))
	params.Set("size", fmt.Sprintf("%dx%d", pixels, pixels))
	params.Set("scale", fmt.Sprintf("%d", mapScale))
	params.Set("maptype", "satellite")
	params.Set("key", c.APIKey)
	return c.BaseURL + "?" + params.Encode()
}

// FetchTile downloads one satellite tile and resizes it to pixels x pixels.
func (c *StaticMapClient) FetchTile(ctx context.Context, lat, lon float64, widthMeters float64, pixels int) (image.Image, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("coordinate (%f, %f) out of range", lat, lon)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.TileURL(lat, lon, widthMeters, pixels), nil)
	if err != nil {
		return nil, fmt.Errorf("build tile request: %w", err)
	}

	c.Log.Debugf("Fetching tile for (%f, %f), width %.0fm", lat, lon, widthMeters)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch tile: status %s", resp.Status)
	}

	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode tile: %w", err)
	}

	// The provider returns scale-multiplied rasters; normalize so every
	// tile has the requested side length.
	if img.Bounds().Dx() != pixels {
		img = imaging.Resize(img, pixels, pixels, imaging.Lanczos)
	}
	return img, nil
}
