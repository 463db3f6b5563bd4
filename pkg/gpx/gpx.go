// Package gpx loads a directory of GPX files into a flat, ordered point
// sequence for the matching engine.
package gpx

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tkrajina/gpxgo/gpx"
)

// Point is one GPS fix from a track file.
type Point struct {
	Latitude  float64
	Longitude float64
	Time      time.Time
}

// LoadDir parses every .gpx file in dir and returns the concatenated point
// sequence plus the number of files read. Files are visited in lexical order
// so repeated runs see the same point ordering.
func LoadDir(dir string) ([]Point, int, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("gpx directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, 0, fmt.Errorf("gpx directory %s: not a directory", dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.gpx"))
	if err != nil {
		return nil, 0, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, 0, fmt.Errorf("no gpx files found in %s", dir)
	}
	sort.Strings(paths)

	var points []Point
	for _, path := range paths {
		filePoints, err := ParseFile(path)
		if err != nil {
			return nil, 0, err
		}
		points = append(points, filePoints...)
	}
	return points, len(paths), nil
}

// ParseFile extracts every point from a single GPX file: track segments first,
// then waypoints, then route points, preserving document order within each.
func ParseFile(path string) ([]Point, error) {
	doc, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var raw []gpx.GPXPoint
	for _, track := range doc.Tracks {
		for _, segment := range track.Segments {
			raw = append(raw, segment.Points...)
		}
	}
	raw = append(raw, doc.Waypoints...)
	for _, route := range doc.Routes {
		raw = append(raw, route.Points...)
	}

	points := make([]Point, 0, len(raw))
	for i, p := range raw {
		if p.Timestamp.IsZero() {
			// The matcher needs a timestamp on every fix; a bare position
			// cannot be placed inside an exposure window.
			return nil, fmt.Errorf("%s: point %d has no timestamp", path, i)
		}
		points = append(points, Point{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Time:      p.Timestamp,
		})
	}
	return points, nil
}
