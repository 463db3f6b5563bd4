package sites

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// featureSet mirrors the feature-service query response.
type featureSet struct {
	Features []feature  `json:"features"`
	Error    *feedError `json:"error"`
}

type feedError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type feature struct {
	Attributes attributes `json:"attributes"`
	Geometry   *geometry  `json:"geometry"`
}

type geometry struct {
	X float64 `json:"x"` // longitude with outSR=4326
	Y float64 `json:"y"` // latitude
}

// attributes carries the authority's published fields. Dates arrive as epoch
// milliseconds, clock times as free-form strings.
type attributes struct {
	SiteName      string  `json:"USER_SiteName"`
	Contact       string  `json:"USER_Contact"`
	Date          *int64  `json:"USER_Date"`
	ArrivalTime   string  `json:"USER_ArrivalTime"`
	DepartureTime string  `json:"USER_DepartureTime"`
	X             float64 `json:"X"`
	Y             float64 `json:"Y"`
}

// The clock layouts observed in the authority's data over time, tried in
// order. The last one is the odd 24-hour-with-am/pm style some batches use.
var clockLayouts = []string{"3:04 PM", "3:04:05 PM", "15:04:05", "15:04 PM"}

func parseClock(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized clock time %q", s)
}

func (c *Client) parseFeatures(features []feature) ([]Site, error) {
	validate := validator.New()

	out := make([]Site, 0, len(features))
	for i, f := range features {
		site, err := c.parseFeature(f)
		if err != nil {
			return nil, fmt.Errorf("exposure site %d (%q): %w", i, f.Attributes.SiteName, err)
		}
		if err := validate.Struct(site); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return nil, fmt.Errorf("exposure site %d (%q): missing field %s", i, f.Attributes.SiteName, verrs[0].Field())
			}
			return nil, fmt.Errorf("exposure site %d (%q): %w", i, f.Attributes.SiteName, err)
		}
		out = append(out, site)
	}
	return out, nil
}

func (c *Client) parseFeature(f feature) (Site, error) {
	site := Site{
		Name:        f.Attributes.SiteName,
		ContactTier: f.Attributes.Contact,
	}

	// Some records are published without geometry; their lon/lat still appear
	// as plain attribute columns.
	if f.Geometry != nil {
		site.Longitude = f.Geometry.X
		site.Latitude = f.Geometry.Y
	} else {
		site.Longitude = f.Attributes.X
		site.Latitude = f.Attributes.Y
	}

	if f.Attributes.Date == nil {
		return Site{}, fmt.Errorf("missing field Date")
	}
	day := time.UnixMilli(*f.Attributes.Date).UTC()
	site.Date = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, c.loc)

	arrival, err := parseClock(f.Attributes.ArrivalTime)
	if err != nil {
		return Site{}, fmt.Errorf("field ArrivalTime: %w", err)
	}
	departure, err := parseClock(f.Attributes.DepartureTime)
	if err != nil {
		return Site{}, fmt.Errorf("field DepartureTime: %w", err)
	}

	site.Arrival = onDay(site.Date, arrival, c.loc)
	site.Departure = onDay(site.Date, departure, c.loc)
	return site, nil
}

// onDay pins a bare clock reading to the record's date in the feed timezone.
func onDay(day, clock time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), clock.Second(), 0, loc)
}
