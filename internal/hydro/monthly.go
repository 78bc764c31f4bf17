package hydro

import (
	"time"

	"github.com/lox/streamplot/internal/models"
)

// ComputeMonthlyAverages resamples the daily discharge to month-start means and
// averages those means by calendar month across all years. The result always
// has twelve rows; a month with no contributing data is null.
func ComputeMonthlyAverages(d *models.DailyDischarge) models.MonthlyAverageTable {
	monthly := Series(d).ResampleMonthStart()
	byMonth := monthly.MeanByKey(func(t time.Time) int { return int(t.Month()) })

	var table models.MonthlyAverageTable
	for m := time.January; m <= time.December; m++ {
		table[m-1] = models.MonthlyAverage{Month: m, Discharge: byMonth[int(m)]}
	}
	return table
}
