package xposure

import (
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
)

func TestRenderReportNoMatches(t *testing.T) {
	color.NoColor = true
	out := RenderReport(nil, 100)
	if !strings.Contains(out, "All good - no potential exposures found") {
		t.Errorf("empty report = %q, want the all-clear line", out)
	}
}

func TestRenderReportMatch(t *testing.T) {
	color.NoColor = true

	loc := time.FixedZone("AEST", 10*3600)
	match := Match{
		Point: TrackPoint{
			Latitude:  -35.281234,
			Longitude: 149.131234,
			Time:      time.Date(2021, 8, 14, 14, 30, 0, 0, loc),
		},
		Site: ExposureSite{
			Name:        "Coffee Guru",
			ContactTier: "Casual",
			Latitude:    -35.2819,
			Longitude:   149.1307,
			Date:        time.Date(2021, 8, 14, 0, 0, 0, 0, loc),
			Arrival:     time.Date(2021, 8, 14, 14, 0, 0, 0, loc),
			Departure:   time.Date(2021, 8, 14, 15, 0, 0, 0, loc),
		},
	}

	out := RenderReport([]Match{match}, 100)
	for _, want := range []string{
		"EXPOSURE(S) FOUND!",
		"You were within 100m of Coffee Guru at the time it was a 'Casual' exposure site on 14/08/2021",
		"First of your matching point(s): -35.2812,149.1312 at 14:30 PM",
		"Exposure point: -35.2819,149.1307 from 14:00 PM to 15:00 PM",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\nfull report:\n%s", want, out)
		}
	}
}

func TestRenderReportOnePerSite(t *testing.T) {
	color.NoColor = true

	matches := []Match{
		{Site: ExposureSite{Name: "Site A"}},
		{Site: ExposureSite{Name: "Site B"}},
	}
	out := RenderReport(matches, 100)
	if got := strings.Count(out, "You were within"); got != 2 {
		t.Errorf("got %d report blocks, want 2", got)
	}
}
