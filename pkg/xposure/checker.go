// Package xposure cross-references a GPX location history against published
// disease-exposure sites and reports where the two overlap in space and time.
package xposure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/xposure-dev/xposure/pkg/feedcache"
	"github.com/xposure-dev/xposure/pkg/gpx"
	"github.com/xposure-dev/xposure/pkg/proj"
	"github.com/xposure-dev/xposure/pkg/sites"
)

const (
	// DefaultMinimumDistance is the spatial threshold in meters: a track
	// point matches a site only when strictly closer than this.
	DefaultMinimumDistance = 100.0

	// DefaultFeedURL is the ACT Health exposure-sites feature service.
	DefaultFeedURL = "https://services1.arcgis.com/E5n4f1VY84i0xSjy/arcgis/rest/services/Exposure_Sites_for_WEB/FeatureServer"

	// DefaultTimezone is the timezone the feed's wall-clock times are
	// published in.
	DefaultTimezone = "Australia/Canberra"

	// DefaultMaxFeedAge is how long a cached feed response stays fresh.
	DefaultMaxFeedAge = 6 * time.Hour
)

// SiteSource produces the exposure-site dataset.
type SiteSource interface {
	Sites(ctx context.Context) ([]sites.Site, error)
}

// TrackSource produces the track-point dataset from a GPX directory, plus the
// number of files read.
type TrackSource interface {
	Load(dir string) ([]gpx.Point, int, error)
}

type dirTracks struct{}

func (dirTracks) Load(dir string) ([]gpx.Point, int, error) {
	return gpx.LoadDir(dir)
}

// Checker wires the feed client, track loader and projection around the
// matching engine for one or more runs.
type Checker struct {
	logger          *slog.Logger
	loc             *time.Location
	cache           *feedcache.Cache
	siteSource      SiteSource
	trackSource     TrackSource
	minimumDistance float64
}

// New creates a Checker with the default logger.
func New(opts ...Option) (*Checker, error) {
	return NewWithLogger(slog.Default(), opts...)
}

// NewWithLogger creates a Checker.
func NewWithLogger(logger *slog.Logger, opts ...Option) (*Checker, error) {
	o := &OptionHolder{
		minimumDistance: DefaultMinimumDistance,
		feedURL:         DefaultFeedURL,
		maxFeedAge:      DefaultMaxFeedAge,
		timezone:        DefaultTimezone,
	}
	for _, opt := range opts {
		opt(o)
	}

	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", o.timezone, err)
	}

	c := &Checker{
		logger:          logger,
		loc:             loc,
		minimumDistance: o.minimumDistance,
	}

	if !o.cacheDisabled {
		dir := o.cacheDir
		if dir == "" {
			if userCacheDir, err := os.UserCacheDir(); err == nil {
				dir = filepath.Join(userCacheDir, "xposure")
			}
		}
		if dir != "" {
			cache, err := feedcache.New(dir, o.maxFeedAge, logger)
			if err != nil {
				// Cache is an optimization, not a requirement.
				logger.Debug("feed cache initialization failed", "error", err)
			} else {
				c.cache = cache
			}
		}
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	c.siteSource = o.siteSource
	if c.siteSource == nil {
		c.siteSource = sites.NewClient(o.feedURL, loc, httpClient, c.cache, logger)
	}
	c.trackSource = o.trackSource
	if c.trackSource == nil {
		c.trackSource = dirTracks{}
	}
	return c, nil
}

// MinimumDistance returns the configured spatial threshold in meters.
func (c *Checker) MinimumDistance() float64 {
	return c.minimumDistance
}

// Close flushes the feed cache to disk.
func (c *Checker) Close() error {
	if c.cache != nil {
		return c.cache.Close()
	}
	return nil
}

// Check runs the whole pipeline: fetch sites, load tracks, project both into
// one planar frame, validate, and match. An empty dataset on either side is a
// valid run with an empty match list.
func (c *Checker) Check(ctx context.Context, gpxDir string) (*Result, error) {
	siteRecords, err := c.siteSource.Sites(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching exposure sites: %w", err)
	}
	c.logger.Debug("exposure sites loaded", "count", len(siteRecords))

	points, files, err := c.trackSource.Load(gpxDir)
	if err != nil {
		return nil, fmt.Errorf("loading gpx tracks: %w", err)
	}
	c.logger.Debug("gpx points loaded", "count", len(points), "files", files)

	res := &Result{
		TrackPoints: len(points),
		Sites:       len(siteRecords),
		GPXFiles:    files,
	}
	if len(points) == 0 || len(siteRecords) == 0 {
		return res, nil
	}

	// One UTM zone for the whole run, anchored on the first exposure site,
	// keeps every distance in a single planar frame.
	transform := proj.NewTransform(siteRecords[0].Latitude, siteRecords[0].Longitude)
	res.UTMZone = transform.Zone

	tracks := make([]TrackPoint, 0, len(points))
	for _, p := range points {
		x, y := transform.Project(p.Latitude, p.Longitude)
		tracks = append(tracks, TrackPoint{
			X:         x,
			Y:         y,
			Epoch:     epochSeconds(p.Time),
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Time:      p.Time.In(c.loc),
		})
	}

	dataset := make([]ExposureSite, 0, len(siteRecords))
	for _, s := range siteRecords {
		x, y := transform.Project(s.Latitude, s.Longitude)
		dataset = append(dataset, ExposureSite{
			X:              x,
			Y:              y,
			ArrivalEpoch:   epochSeconds(s.Arrival),
			DepartureEpoch: epochSeconds(s.Departure),
			Latitude:       s.Latitude,
			Longitude:      s.Longitude,
			Name:           s.Name,
			ContactTier:    s.ContactTier,
			Date:           s.Date,
			Arrival:        s.Arrival,
			Departure:      s.Departure,
		})
	}

	if err := ValidateDatasets(tracks, dataset); err != nil {
		return nil, err
	}

	res.Matches = MatchDatasets(tracks, dataset, c.minimumDistance, c.logger)
	return res, nil
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}
