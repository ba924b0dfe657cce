package tiles

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"drone-locator/internal/logger"

	"github.com/disintegration/imaging"
)

// DiskCache wraps a Fetcher with an on-disk PNG cache keyed by
// (lat, lon, width, pixels).
type DiskCache struct {
	Dir     string
	Fetcher Fetcher
	Log     logger.ILogger
}

// NewDiskCache returns a caching fetcher storing tiles under dir, which
// is created if missing.
func NewDiskCache(dir string, fetcher Fetcher, log logger.ILogger) (*DiskCache, error) {
	if log == nil {
		log = &logger.NullLogger{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create tile cache dir: %w", err)
	}
	return &DiskCache{Dir: dir, Fetcher: fetcher, Log: log}, nil
}

// cachePath builds the file name for one tile key.
func (c *DiskCache) cachePath(lat, lon, widthMeters float64, pixels int) string {
	name := fmt.Sprintf("tile_%.6f_%.6f_%.0fm_%dpx.png", lat, lon, widthMeters, pixels)
	return filepath.Join(c.Dir, name)
}

// FetchTile returns the cached tile when present, otherwise fetches and
// stores it. A failed cache write is logged, not fatal.
func (c *DiskCache) FetchTile(ctx context.Context, lat, lon float64, widthMeters float64, pixels int) (image.Image, error) {
	path := c.cachePath(lat, lon, widthMeters, pixels)

	if img, err := imaging.Open(path); err == nil {
		c.Log.Debugf("Tile cache hit: %s", path)
		return img, nil
	}

	img, err := c.Fetcher.FetchTile(ctx, lat, lon, widthMeters, pixels)
	if err != nil {
		return nil, err
	}

	if err := imaging.Save(img, path); err != nil {
		c.Log.Errorf("Failed to cache tile %s: %v", path, err)
	}
	return img, nil
}
