package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lox/streamplot/internal/config"
	"github.com/lox/streamplot/internal/hydro"
	"github.com/lox/streamplot/internal/models"
	"github.com/lox/streamplot/internal/plot"
)

const (
	DailyStreamflowFile = "Daily-streamflow.png"
	AnnualCVFile        = "annual-CV.png"
	TqmeanFile          = "Tqmean.png"
	RBIndexFile         = "RBindex.png"
	MonthlyAveragesFile = "monthly-averages.png"
)

// Column names in the annual metrics file.
const (
	MetricCoeffVar = "Coeff Var"
	MetricTqmean   = "Tqmean"
	MetricRBIndex  = "R-B Index"
)

const (
	savefigDPI = 96
	defaultDPI = 100
)

var monthTicks = []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

// BuildFigures lays out the five comparison figures in the order they are written.
// It fails if the annual metrics lack a required column or have no rows
// labelled with a configured gauge's site.
func BuildFigures(cfg config.Config, gauges []GaugeData, annual *models.MetricsTable) ([]plot.Figure, error) {
	if len(annual.Sites()) == 0 {
		return nil, errors.New("annual metrics: no site_no labels to split rows by gauge")
	}

	caption := captionFor(cfg, gauges)

	daily := plot.Figure{
		Filename: DailyStreamflowFile,
		Title:    "Daily streamflow",
		XLabel:   "Date",
		YLabel:   "Discharge (cfs)",
		Legend:   plot.LegendUpperLeft,
		WidthIn:  9,
		HeightIn: 6,
		DPI:      savefigDPI,
		XKind:    plot.XTime,
		XFormat:  "2006-01",
		Caption:  caption,
	}
	for _, g := range gauges {
		window := hydro.Window(g.Daily, cfg.DailyWindow.Start.Time, cfg.DailyWindow.End.Time)
		line := plot.Line{Label: g.Gauge.Name}
		for _, p := range window {
			line.Times = append(line.Times, p.Date)
			line.Y = append(line.Y, p.Value)
		}
		daily.Lines = append(daily.Lines, line)
	}

	annualFigures := []struct {
		file, title, ylabel, metric string
		legend                      plot.LegendPosition
		dpi                         float64
	}{
		{AnnualCVFile, "Annual Coefficient of Variation", "Coefficient of variation", MetricCoeffVar, plot.LegendUpperLeft, savefigDPI},
		{TqmeanFile, "Tqmean", "Tqmean (fraction of year)", MetricTqmean, plot.LegendUpperRight, savefigDPI},
		{RBIndexFile, "Richards-Baker Flashiness Index (R-B Index)", "R-B Index", MetricRBIndex, plot.LegendUpperLeft, defaultDPI},
	}

	figures := []plot.Figure{daily}
	for _, af := range annualFigures {
		f := plot.Figure{
			Filename: af.file,
			Title:    af.title,
			XLabel:   "Date",
			YLabel:   af.ylabel,
			Legend:   af.legend,
			WidthIn:  10,
			HeightIn: 6.5,
			DPI:      af.dpi,
			XKind:    plot.XTime,
			XFormat:  "2006",
			Caption:  caption,
		}
		for _, g := range gauges {
			line, err := annualLine(annual, g.Gauge, af.metric, cfg.Period)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", af.file, err)
			}
			f.Lines = append(f.Lines, line)
		}
		figures = append(figures, f)
	}

	monthly := plot.Figure{
		Filename: MonthlyAveragesFile,
		Title:    "Annual average monthly streamflow",
		XLabel:   "Month",
		YLabel:   "Discharge (cfs)",
		Legend:   plot.LegendUpperLeft,
		WidthIn:  10,
		HeightIn: 6.5,
		DPI:      defaultDPI,
		XKind:    plot.XNumeric,
		XTicks:   monthTicks,
		Caption:  caption,
	}
	for _, g := range gauges {
		line := plot.Line{Label: g.Gauge.Name}
		for _, row := range g.Monthly {
			line.X = append(line.X, float64(row.Month))
			line.Y = append(line.Y, row.Discharge)
		}
		monthly.Lines = append(monthly.Lines, line)
	}

	return append(figures, monthly), nil
}

// annualLine selects a gauge's rows by site label and keeps those dated inside
// the analysis period. A gauge with no labelled rows at all is an error.
func annualLine(annual *models.MetricsTable, g models.Gauge, metric string, period config.Range) (plot.Line, error) {
	site := annual.ForSite(g.SiteID)
	dates, values, err := site.Column(metric)
	if err != nil {
		return plot.Line{}, err
	}
	if len(site.Rows) == 0 {
		return plot.Line{}, fmt.Errorf("gauge %s: no annual metrics rows labelled with site %s (file has %s)",
			g.ID, g.SiteID, strings.Join(annual.Sites(), ", "))
	}

	line := plot.Line{Label: g.Name}
	for i, d := range dates {
		if d.Before(period.Start.Time) || d.After(period.End.Time) {
			continue
		}
		line.Times = append(line.Times, d)
		line.Y = append(line.Y, values[i])
	}
	return line, nil
}

func captionFor(cfg config.Config, gauges []GaugeData) string {
	sites := make([]string, len(gauges))
	for i, g := range gauges {
		sites[i] = g.Gauge.SiteID
	}
	return fmt.Sprintf("USGS %s | %s", strings.Join(sites, ", "), cfg.Period)
}
