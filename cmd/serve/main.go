// Command serve runs the HTTP API front-end for the drone locator.
package main

import (
	"flag"
	"fmt"
	"os"

	"drone-locator/internal/locate"
	"drone-locator/internal/logger"
	"drone-locator/internal/matcher"
	"drone-locator/internal/server"
	"drone-locator/internal/tiles"
)

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	cacheDir := flag.String("cache", "satellite_tiles", "Directory for cached satellite tiles")
	apiKey := flag.String("k", os.Getenv("MAPS_API_KEY"), "Static maps API key (defaults to MAPS_API_KEY)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := logger.LogInfo
	if *debug {
		level = logger.LogDebug
	}
	log := logger.NewStdOutLogger(level)

	fetcher, err := tiles.NewDiskCache(*cacheDir, tiles.NewStaticMapClient(*apiKey, log), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up tile cache: %v\n", err)
		os.Exit(1)
	}

	m := matcher.New()
	srv := server.New(locate.New(fetcher, m, log), m, log)

	if err := srv.ListenAndServe(*addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		os.Exit(1)
	}
}
