package xposure

import (
	"net/http"
	"time"
)

// Option configures a Checker.
type Option func(*OptionHolder)

// Options for Checker.
func WithMinimumDistance(meters float64) Option {
	return func(o *OptionHolder) {
		o.minimumDistance = meters
	}
}

func WithFeedURL(url string) Option {
	return func(o *OptionHolder) {
		o.feedURL = url
	}
}

func WithCacheDir(dir string) Option {
	return func(o *OptionHolder) {
		o.cacheDir = dir
	}
}

func WithMaxFeedAge(age time.Duration) Option {
	return func(o *OptionHolder) {
		o.maxFeedAge = age
	}
}

func WithTimezone(name string) Option {
	return func(o *OptionHolder) {
		o.timezone = name
	}
}

// WithCacheDisabled skips the feed cache entirely; every run hits the feed.
func WithCacheDisabled() Option {
	return func(o *OptionHolder) {
		o.cacheDisabled = true
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *OptionHolder) {
		o.httpClient = client
	}
}

// WithSiteSource replaces the exposure-site feed with a canned source.
func WithSiteSource(src SiteSource) Option {
	return func(o *OptionHolder) {
		o.siteSource = src
	}
}

// WithTrackSource replaces the GPX directory loader with a canned source.
func WithTrackSource(src TrackSource) Option {
	return func(o *OptionHolder) {
		o.trackSource = src
	}
}

// OptionHolder holds configuration options.
type OptionHolder struct {
	minimumDistance float64
	feedURL         string
	cacheDir        string
	maxFeedAge      time.Duration
	cacheDisabled   bool
	timezone        string
	httpClient      *http.Client
	siteSource      SiteSource
	trackSource     TrackSource
}

// TrackPoint is a single GPS fix, already projected into the run's planar
// frame. X and Y are easting/northing in meters, Epoch is seconds since the
// Unix epoch. Latitude, Longitude and Time carry the original values for
// display.
type TrackPoint struct {
	X         float64 `validate:"finite"`
	Y         float64 `validate:"finite"`
	Epoch     float64 `validate:"finite"`
	Latitude  float64 `validate:"finite"`
	Longitude float64 `validate:"finite"`
	Time      time.Time
}

// ExposureSite is one published site-visit entry. The same venue can appear
// multiple times with different windows; each entry is matched independently.
type ExposureSite struct {
	X              float64 `validate:"finite"`
	Y              float64 `validate:"finite"`
	ArrivalEpoch   float64 `validate:"finite"`
	DepartureEpoch float64 `validate:"finite"`
	Latitude       float64 `validate:"finite"`
	Longitude      float64 `validate:"finite"`
	Name           string
	ContactTier    string
	Date           time.Time
	Arrival        time.Time
	Departure      time.Time
}

// Candidate is an index pair satisfying the joint predicate. Candidates are
// recomputed on every run and never persisted.
type Candidate struct {
	Track int
	Site  int
}

// Match pairs a matched exposure site with the representative track point
// selected by the reduction step.
type Match struct {
	Point TrackPoint
	Site  ExposureSite
}

// Result is what a full check run hands back to the CLI.
type Result struct {
	Matches     []Match
	TrackPoints int
	Sites       int
	GPXFiles    int
	UTMZone     int
}
