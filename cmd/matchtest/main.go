// Command matchtest matches a query image against reference images given
// on the command line and prints scores, transforms and timing. Useful
// for tuning thresholds and search parameters on known image pairs.
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"time"

	"drone-locator/internal/matcher"
	"drone-locator/internal/pattern"
	"drone-locator/internal/visual"

	_ "golang.org/x/image/tiff"
)

func main() {
	query := flag.String("q", "", "Path to query image")
	mode := flag.String("mode", string(matcher.ModeHolisticSimple), "Matching mode")
	threshold := flag.Int("threshold", 50, "Contour extraction threshold (0-100)")
	size := flag.Int("size", pattern.DefaultSize, "Pattern side length")
	vizPath := flag.String("viz", "", "Write alignment visualization for the best match to this PNG")
	flag.Parse()

	refs := flag.Args()
	if *query == "" || len(refs) == 0 {
		fmt.Println("Usage: matchtest -q <query image> [-mode <mode>] <reference images...>")
		os.Exit(1)
	}

	queryImg, err := loadImage(*query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load query: %v\n", err)
		os.Exit(1)
	}

	refImgs := make([]image.Image, len(refs))
	for i, path := range refs {
		refImgs[i], err = loadImage(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load reference %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	cfg := matcher.DefaultConfig()
	cfg.Mode = matcher.Mode(*mode)
	cfg.Threshold = *threshold
	cfg.PatternSize = *size

	m := matcher.New()

	start := time.Now()
	ranked, err := m.Match(queryImg, refImgs, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Match failed: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	fmt.Printf("Query contours: %d\n", ranked.QueryContourCount)
	if ranked.QueryFeatureless {
		fmt.Println("Query is featureless; all scores are zero.")
	}
	fmt.Printf("Matched %d references in %s\n\n", len(refs), elapsed)

	for rank, r := range ranked.PerReference {
		fmt.Printf("%2d. %-40s score %6.2f  contours %4d  scale=%.2f angle=%.1f tx=%d ty=%d\n",
			rank+1, refs[r.Index], r.Score(), r.ContourCount,
			r.Transform.Scale, r.Transform.AngleDeg, r.Transform.TX, r.Transform.TY)
	}

	if *vizPath != "" && len(ranked.PerReference) > 0 {
		if err := writeVisualization(m, queryImg, refImgs[ranked.BestIndex], ranked, cfg, *vizPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write visualization: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote alignment visualization to %s\n", *vizPath)
	}
}

// writeVisualization re-renders the patterns for the best match and saves
// the alignment overlay.
func writeVisualization(m *matcher.Matcher, queryImg, bestRef image.Image, ranked *matcher.RankedMatches, cfg matcher.Config, path string) error {
	querySet, err := m.ExtractContours(queryImg, cfg)
	if err != nil {
		return err
	}
	refSet, err := m.ExtractContours(bestRef, cfg)
	if err != nil {
		return err
	}

	queryPattern, err := pattern.Rasterize(querySet, cfg.PatternSize)
	if err != nil {
		return err
	}
	refPattern, err := pattern.Rasterize(refSet, cfg.PatternSize)
	if err != nil {
		return err
	}

	overlay := visual.RenderAlignment(queryPattern, refPattern, ranked.PerReference[0].Transform)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, overlay)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}
