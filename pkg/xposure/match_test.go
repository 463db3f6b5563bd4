package xposure

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMatchInsideWindowAndRange(t *testing.T) {
	tracks := []TrackPoint{trackAt(0, 0, 1000)}
	sites := []ExposureSite{siteAt(50, 0, 900, 1100)}

	matches := MatchDatasets(tracks, sites, 100, discardLogger())
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1 (distance 50 < 100, 900 < 1000 < 1100)", len(matches))
	}
	if matches[0].Site.X != 50 {
		t.Errorf("matched wrong site: %+v", matches[0].Site)
	}
}

func TestMatchOutsideDistanceThreshold(t *testing.T) {
	tracks := []TrackPoint{trackAt(0, 0, 1000)}
	sites := []ExposureSite{siteAt(50, 0, 900, 1100)}

	if matches := MatchDatasets(tracks, sites, 40, discardLogger()); len(matches) != 0 {
		t.Errorf("got %d matches, want 0 (distance 50 is not < 40)", len(matches))
	}
}

func TestMatchBeforeArrival(t *testing.T) {
	tracks := []TrackPoint{trackAt(0, 0, 800)}
	sites := []ExposureSite{siteAt(50, 0, 900, 1100)}

	if matches := MatchDatasets(tracks, sites, 100, discardLogger()); len(matches) != 0 {
		t.Errorf("got %d matches, want 0 (point precedes arrival)", len(matches))
	}
}

func TestMatchStrictBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		epoch float64
		dist  float64
		want  int
	}{
		{"exactly at arrival", 900, 100, 0},
		{"exactly at departure", 1100, 100, 0},
		{"one second after arrival", 901, 100, 1},
		{"one second before departure", 1099, 100, 1},
		{"exactly at distance threshold", 1000, 50, 0},
		{"just inside distance threshold", 1000, 50.01, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracks := []TrackPoint{trackAt(0, 0, tt.epoch)}
			sites := []ExposureSite{siteAt(50, 0, 900, 1100)}
			matches := MatchDatasets(tracks, sites, tt.dist, discardLogger())
			if len(matches) != tt.want {
				t.Errorf("got %d matches, want %d", len(matches), tt.want)
			}
		})
	}
}

func TestMatchReductionPicksLowestTrackIndex(t *testing.T) {
	// Both points are in range and inside the window; the representative must
	// be the first-encountered one in row-major scan order.
	tracks := []TrackPoint{
		trackAt(60, 0, 1050),
		trackAt(10, 0, 1010),
	}
	sites := []ExposureSite{siteAt(50, 0, 900, 1100)}

	matches := MatchDatasets(tracks, sites, 100, discardLogger())
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Point.X != 60 {
		t.Errorf("representative point X = %v, want 60 (lower track index, not closer point)", matches[0].Point.X)
	}
}

func TestMatchEmptyTrackSet(t *testing.T) {
	sites := []ExposureSite{siteAt(50, 0, 900, 1100)}
	if matches := MatchDatasets(nil, sites, 100, discardLogger()); len(matches) != 0 {
		t.Errorf("got %d matches from an empty track set, want 0", len(matches))
	}
}

func TestMatchEmptySiteSet(t *testing.T) {
	tracks := []TrackPoint{trackAt(0, 0, 1000)}
	if matches := MatchDatasets(tracks, nil, 100, discardLogger()); len(matches) != 0 {
		t.Errorf("got %d matches from an empty site set, want 0", len(matches))
	}
}

func TestMatchInvertedWindowNeverMatches(t *testing.T) {
	tracks := []TrackPoint{trackAt(0, 0, 1000)}
	sites := []ExposureSite{siteAt(50, 0, 1100, 900)}

	if matches := MatchDatasets(tracks, sites, 100, discardLogger()); len(matches) != 0 {
		t.Errorf("got %d matches against an inverted window, want 0", len(matches))
	}
}

func TestMatchIdempotent(t *testing.T) {
	tracks := []TrackPoint{
		trackAt(0, 0, 1000),
		trackAt(30, 0, 1010),
		trackAt(500, 500, 1020),
	}
	sites := []ExposureSite{
		siteAt(50, 0, 900, 1100),
		siteAt(10, 10, 950, 1050),
		siteAt(9000, 9000, 0, 2000),
	}

	first := MatchDatasets(tracks, sites, 100, discardLogger())
	second := MatchDatasets(tracks, sites, 100, discardLogger())
	if !reflect.DeepEqual(first, second) {
		t.Errorf("two runs over identical inputs disagree:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestReduceOneEntryPerSite(t *testing.T) {
	pairs := []Candidate{
		{Track: 0, Site: 1},
		{Track: 0, Site: 2},
		{Track: 1, Site: 1},
		{Track: 2, Site: 2},
		{Track: 3, Site: 1},
	}

	reduced := Reduce(pairs)
	want := []Candidate{{Track: 0, Site: 1}, {Track: 0, Site: 2}}
	if !reflect.DeepEqual(reduced, want) {
		t.Errorf("Reduce = %+v, want %+v", reduced, want)
	}

	distinct := map[int]bool{}
	for _, p := range pairs {
		distinct[p.Site] = true
	}
	if len(reduced) > len(distinct) {
		t.Errorf("%d reduced entries exceed %d distinct sites", len(reduced), len(distinct))
	}
}

func TestCandidatesRowMajorOrder(t *testing.T) {
	tracks := []TrackPoint{
		trackAt(0, 0, 1000),
		trackAt(1, 0, 1000),
	}
	sites := []ExposureSite{
		siteAt(0, 0, 900, 1100),
		siteAt(1, 0, 900, 1100),
	}

	d := DistanceMatrix(tracks, sites)
	pre, post := TemporalMatrices(tracks, sites)
	got := Candidates(d, pre, post, 100)
	want := []Candidate{
		{Track: 0, Site: 0}, {Track: 0, Site: 1},
		{Track: 1, Site: 0}, {Track: 1, Site: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("scan order = %+v, want row-major %+v", got, want)
	}
}
