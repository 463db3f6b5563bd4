// Package main implements the xposure CLI: it checks a directory of GPX files
// against published disease-exposure sites.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/xposure-dev/xposure/pkg/xposure"
)

var (
	gpxDir      = flag.String("gpx-dir", "", "Directory containing .gpx files (or pass as the positional argument)")
	minDistance = flag.Float64("min-distance", xposure.DefaultMinimumDistance, "Distance threshold in meters for a track point to match a site")
	feedURL     = flag.String("feed-url", "", "Exposure-sites feature service URL (or set XPOSURE_FEED_URL)")
	timezone    = flag.String("timezone", xposure.DefaultTimezone, "IANA timezone the feed's times are published in")
	cacheDir    = flag.String("cache-dir", "", "Cache directory (or set CACHE_DIR)")
	noCache     = flag.Bool("no-cache", false, "Disable feed caching")
	maxAge      = flag.Float64("max-age", 6, "Maximum age in hours of a cached exposure feed")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("xposure v1.0.0")
		return
	}

	dir := *gpxDir
	if args := flag.Args(); dir == "" && len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <gpx-dir>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	if *feedURL == "" {
		*feedURL = os.Getenv("XPOSURE_FEED_URL")
	}
	if *cacheDir == "" {
		*cacheDir = os.Getenv("CACHE_DIR")
	}

	opts := []xposure.Option{
		xposure.WithMinimumDistance(*minDistance),
		xposure.WithTimezone(*timezone),
		xposure.WithMaxFeedAge(time.Duration(*maxAge * float64(time.Hour))),
	}
	if *feedURL != "" {
		opts = append(opts, xposure.WithFeedURL(*feedURL))
	}
	if *noCache {
		opts = append(opts, xposure.WithCacheDisabled())
	} else if *cacheDir != "" {
		opts = append(opts, xposure.WithCacheDir(*cacheDir))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	checker, err := xposure.NewWithLogger(logger, opts...)
	if err != nil {
		logger.Error("setup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := checker.Close(); err != nil {
			logger.Error("failed to close checker", "error", err)
		}
	}()

	result, err := checker.Check(ctx, dir)
	if err != nil {
		logger.Error("exposure check failed", "error", err)
		cancel()
		os.Exit(1)
	}

	printBanner(result, dir)
	fmt.Print(xposure.RenderReport(result.Matches, checker.MinimumDistance()))
}

func printBanner(result *xposure.Result, dir string) {
	fmt.Printf("\n🦠 Exposure check: %s\n", dir)
	fmt.Println(strings.Repeat("─", 50))
	fmt.Printf(" - %d gpx file(s) found, %d point(s)\n", result.GPXFiles, result.TrackPoints)
	fmt.Printf(" - %d exposure site(s) loaded\n", result.Sites)
	if result.UTMZone > 0 {
		fmt.Printf(" - matching in UTM zone %d\n", result.UTMZone)
	}
	fmt.Println()
}
