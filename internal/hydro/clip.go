package hydro

import (
	"time"

	"github.com/lox/streamplot/internal/models"
	"github.com/lox/streamplot/internal/timeseries"
)

// ClipToRange returns the records dated within [start, end] and the number of
// null discharges in that window. Bounds outside the record silently yield the
// overlap, which may be empty.
func ClipToRange(d *models.DailyDischarge, start, end time.Time) (*models.DailyDischarge, int) {
	out := &models.DailyDischarge{SiteID: d.SiteID}
	if end.Before(start) {
		return out, 0
	}
	for _, r := range d.Records {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		out.Records = append(out.Records, r)
	}
	return out, out.MissingCount()
}

// Series converts the daily discharge into a date-indexed series.
func Series(d *models.DailyDischarge) timeseries.Series {
	points := make([]timeseries.Point, len(d.Records))
	for i, r := range d.Records {
		points[i] = timeseries.Point{Date: r.Date, Value: r.Discharge}
	}
	return timeseries.New(points)
}

// Window is the discharge series restricted to [start, end], for plotting a
// sub-period of an already clipped record.
func Window(d *models.DailyDischarge, start, end time.Time) timeseries.Series {
	return Series(d).Slice(start, end)
}
