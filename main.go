// Command drone-locator matches an aerial photograph against satellite
// tiles fetched for a list of candidate coordinates and prints the ranked
// results.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"drone-locator/internal/locate"
	"drone-locator/internal/logger"
	"drone-locator/internal/matcher"
	"drone-locator/internal/tiles"

	_ "golang.org/x/image/tiff"
)

func main() {
	droneImage := flag.String("d", "", "Path to the drone image")
	coordFile := flag.String("c", "", "Path to JSON file with candidate coordinates")
	cacheDir := flag.String("o", "satellite_tiles", "Directory for cached satellite tiles")
	apiKey := flag.String("k", os.Getenv("MAPS_API_KEY"), "Static maps API key (defaults to MAPS_API_KEY)")
	mode := flag.String("mode", string(matcher.ModeHolisticSimple), "Matching mode: individual, holistic_full or holistic_simple")
	threshold := flag.Int("threshold", 50, "Contour extraction threshold (0-100)")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	if *droneImage == "" || *coordFile == "" {
		fmt.Println("Usage: drone-locator -d <drone image> -c <coordinates.json> [-k <api key>] [-mode <mode>]")
		os.Exit(1)
	}

	level := logger.LogInfo
	if *verbose {
		level = logger.LogDebug
	}
	log := logger.NewStdOutLogger(level)

	coords, err := loadCoordinates(*coordFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load coordinates: %v\n", err)
		os.Exit(1)
	}

	img, err := loadImage(*droneImage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load drone image: %v\n", err)
		os.Exit(1)
	}

	fetcher, err := tiles.NewDiskCache(*cacheDir, tiles.NewStaticMapClient(*apiKey, log), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up tile cache: %v\n", err)
		os.Exit(1)
	}

	cfg := matcher.DefaultConfig()
	cfg.Mode = matcher.Mode(*mode)
	cfg.Threshold = *threshold

	loc := locate.New(fetcher, matcher.New(), log)
	result, err := loc.Locate(context.Background(), img, coords, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Matching failed: %v\n", err)
		os.Exit(1)
	}

	printResult(result)
}

// loadCoordinates reads a JSON array of {lat, lon, description} records.
func loadCoordinates(path string) ([]locate.Coordinate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var coords []locate.Coordinate
	if err := json.Unmarshal(data, &coords); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return coords, nil
}

// loadImage decodes an image file.
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// printResult writes the ranked candidate table.
func printResult(result *locate.Result) {
	if result.QueryFeatureless {
		fmt.Println("Warning: no contours found in the drone image; all scores are zero.")
	}

	if result.Best != nil {
		fmt.Printf("\nBest match: (%.6f, %.6f)", result.Best.Coordinate.Lat, result.Best.Coordinate.Lon)
		if result.Best.Coordinate.Description != "" {
			fmt.Printf(" %s", result.Best.Coordinate.Description)
		}
		fmt.Printf("\nScore: %.2f\n", result.Best.Score)
	}

	fmt.Println("\nAll candidates (sorted by score):")
	for i, c := range result.Candidates {
		if c.FetchError != "" {
			fmt.Printf("%2d. (%.6f, %.6f)  tile fetch failed: %s\n", i+1, c.Coordinate.Lat, c.Coordinate.Lon, c.FetchError)
			continue
		}
		flags := ""
		if c.ReferenceFeatureless {
			flags = "  [featureless]"
		} else if c.LowConfidence {
			flags = "  [low confidence]"
		}
		fmt.Printf("%2d. (%.6f, %.6f)  score %.2f  scale=%.2f angle=%.1f tx=%d ty=%d%s\n",
			i+1, c.Coordinate.Lat, c.Coordinate.Lon, c.Score,
			c.Transform.Scale, c.Transform.AngleDeg, c.Transform.TX, c.Transform.TY, flags)
	}
}
