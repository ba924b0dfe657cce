// Command tiletest fetches one satellite tile and reports its zoom,
// dimensions and cache path. Useful for verifying API access and tile
// sizing before a full match run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"drone-locator/internal/logger"
	"drone-locator/internal/tiles"
)

func main() {
	lat := flag.Float64("lat", 0, "Latitude")
	lon := flag.Float64("lon", 0, "Longitude")
	widthM := flag.Float64("width", tiles.DefaultWidthMeters, "Tile ground width in meters")
	pixels := flag.Int("pixels", tiles.DefaultPixels, "Tile side length in pixels")
	cacheDir := flag.String("cache", "satellite_tiles", "Tile cache directory")
	apiKey := flag.String("k", os.Getenv("MAPS_API_KEY"), "Static maps API key (defaults to MAPS_API_KEY)")
	flag.Parse()

	// Diagnostics go to stderr so stdout stays parseable.
	log := &logger.StdErrLogger{}
	client := tiles.NewStaticMapClient(*apiKey, log)

	fmt.Printf("Zoom for (%.4f, %.4f) at %.0fm/%dpx: %d\n",
		*lat, *lon, *widthM, *pixels, tiles.ZoomForWidth(*lat, *widthM, *pixels))
	fmt.Printf("URL: %s\n", client.TileURL(*lat, *lon, *widthM, *pixels))

	fetcher, err := tiles.NewDiskCache(*cacheDir, client, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up cache: %v\n", err)
		os.Exit(1)
	}

	img, err := fetcher.FetchTile(context.Background(), *lat, *lon, *widthM, *pixels)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fetch failed: %v\n", err)
		os.Exit(1)
	}

	bounds := img.Bounds()
	fmt.Printf("Fetched tile: %dx%d\n", bounds.Dx(), bounds.Dy())
}
