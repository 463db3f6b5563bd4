package xposure

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Clock layout matching the health authority's published style (24-hour with
// an am/pm marker).
const clockLayout = "15:04 PM"

// RenderReport formats the reduced match set for the terminal. Zero matches
// renders the all-clear line; otherwise one block per matched site, in the
// order the reduction produced them.
func RenderReport(matches []Match, minimumDistance float64) string {
	var b strings.Builder

	if len(matches) == 0 {
		allGood := color.New(color.FgGreen)
		b.WriteString(allGood.Sprint("All good - no potential exposures found"))
		b.WriteString("\n")
		return b.String()
	}

	header := color.New(color.FgRed, color.Bold)
	b.WriteString("\n")
	b.WriteString(header.Sprint("EXPOSURE(S) FOUND! ------"))
	b.WriteString("\n\n")

	tier := color.New(color.FgYellow)
	for _, m := range matches {
		b.WriteString(fmt.Sprintf("You were within %.0fm of %s at the time it was a %s exposure site on %s\n",
			minimumDistance,
			m.Site.Name,
			tier.Sprintf("'%s'", m.Site.ContactTier),
			m.Site.Date.Format("02/01/2006")))
		b.WriteString(fmt.Sprintf("First of your matching point(s): %.4f,%.4f at %s\n",
			m.Point.Latitude,
			m.Point.Longitude,
			m.Point.Time.Format(clockLayout)))
		b.WriteString(fmt.Sprintf("Exposure point: %.4f,%.4f from %s to %s\n\n",
			m.Site.Latitude,
			m.Site.Longitude,
			m.Site.Arrival.Format(clockLayout),
			m.Site.Departure.Format(clockLayout)))
	}
	return b.String()
}
