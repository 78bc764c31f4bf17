// Package report runs the discharge comparison: load each gauge, clip it to the
// analysis period, average it by month, load the precomputed metrics and write
// the figures in a fixed order.
package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lox/streamplot/internal/config"
	"github.com/lox/streamplot/internal/hydro"
	"github.com/lox/streamplot/internal/ingest"
	"github.com/lox/streamplot/internal/metrics"
	"github.com/lox/streamplot/internal/models"
	"github.com/lox/streamplot/internal/plot"
	"github.com/lox/streamplot/internal/store"
)

// GaugeData is one gauge after clipping and aggregation.
type GaugeData struct {
	Gauge   models.Gauge
	Daily   *models.DailyDischarge // clipped to the analysis period
	Missing int                    // null discharges within the period
	Monthly models.MonthlyAverageTable
}

type Result struct {
	Gauges  []GaugeData
	Annual  *models.MetricsTable
	Monthly *models.MetricsTable
	Written []string // paths, in write order
	Skipped []string // figure filenames with nothing to draw
}

type Report struct {
	cfg    config.Config
	out    *plot.Output
	viewer plot.Viewer
	store  *store.Store
}

type Option func(*Report)

// WithViewer shows every figure right after it is written.
func WithViewer(v plot.Viewer) Option {
	return func(r *Report) { r.viewer = v }
}

// WithStore archives the loaded and derived tables and audits the run.
func WithStore(s *store.Store) Option {
	return func(r *Report) { r.store = s }
}

func New(cfg config.Config, opts ...Option) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	out, err := plot.NewOutput(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	r := &Report{cfg: cfg, out: out}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes the pipeline once. Any load or lookup failure aborts the run;
// a figure with nothing to draw is skipped with a warning.
func (r *Report) Run(ctx context.Context) (*Result, error) {
	var run *store.ReportRun
	if r.store != nil {
		var err error
		run, err = r.store.StartReportRun(r.cfg.Period.Start.Time, r.cfg.Period.End.Time)
		if err != nil {
			return nil, fmt.Errorf("start report run: %w", err)
		}
	}

	res, err := r.run(ctx)

	if run != nil {
		run.Success = err == nil
		if err != nil {
			run.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		}
		if res != nil {
			var loaded, missing int
			for _, g := range res.Gauges {
				loaded += len(g.Daily.Records)
				missing += g.Missing
			}
			run.RecordsLoaded = sql.NullInt64{Int64: int64(loaded), Valid: true}
			run.MissingValues = sql.NullInt64{Int64: int64(missing), Valid: true}
			run.FiguresWritten = sql.NullInt64{Int64: int64(len(res.Written)), Valid: true}
			run.FiguresSkipped = sql.NullInt64{Int64: int64(len(res.Skipped)), Valid: true}
		}
		if cerr := r.store.CompleteReportRun(run); cerr != nil {
			log.Printf("report: complete run record: %v", cerr)
		}
	}

	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Report) run(ctx context.Context) (*Result, error) {
	res := &Result{}

	for _, g := range r.cfg.Gauges {
		data, err := r.loadGauge(g.Model())
		if err != nil {
			return res, err
		}
		res.Gauges = append(res.Gauges, data)
	}

	var err error
	if res.Annual, err = ingest.ReadMetricsTable(r.cfg.AnnualMetrics); err != nil {
		return res, fmt.Errorf("annual metrics: %w", err)
	}
	if res.Monthly, err = ingest.ReadMetricsTable(r.cfg.MonthlyMetrics); err != nil {
		return res, fmt.Errorf("monthly metrics: %w", err)
	}

	figures, err := BuildFigures(r.cfg, res.Gauges, res.Annual)
	if err != nil {
		return res, err
	}

	for _, f := range figures {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path, err := r.writeFigure(f)
		if errors.Is(err, plot.ErrNoData) {
			log.Printf("report: warning: %s skipped, nothing to plot in the configured dates", f.Filename)
			metrics.FiguresRendered.WithLabelValues("skipped").Inc()
			res.Skipped = append(res.Skipped, f.Filename)
			continue
		}
		if err != nil {
			metrics.FiguresRendered.WithLabelValues("failed").Inc()
			return res, err
		}
		metrics.FiguresRendered.WithLabelValues("written").Inc()
		res.Written = append(res.Written, path)
		log.Printf("report: wrote %s", path)

		if r.viewer != nil {
			if err := r.viewer.Show(ctx, path); err != nil {
				log.Printf("report: show %s: %v", path, err)
			}
		}
	}

	if r.store != nil {
		if err := r.archive(res); err != nil {
			return res, fmt.Errorf("archive: %w", err)
		}
	}

	return res, nil
}

func (r *Report) loadGauge(g models.Gauge) (GaugeData, error) {
	opts := ingest.DischargeOptions{MissingTokens: r.cfg.MissingTokens}
	raw, rawMissing, err := ingest.ReadDailyDischarge(g.InputPath, opts)
	if err != nil {
		return GaugeData{}, fmt.Errorf("gauge %s: %w", g.ID, err)
	}
	if raw.SiteID != "" && g.SiteID != "" && raw.SiteID != g.SiteID {
		log.Printf("report: warning: gauge %s configured as site %s but %s holds site %s", g.ID, g.SiteID, g.InputPath, raw.SiteID)
	}

	daily, missing := hydro.ClipToRange(raw, r.cfg.Period.Start.Time, r.cfg.Period.End.Time)
	if daily.SiteID == "" {
		daily.SiteID = g.SiteID
	}
	metrics.MissingDischarge.WithLabelValues(daily.SiteID).Set(float64(missing))

	if len(daily.Records) == 0 {
		log.Printf("report: warning: gauge %s has no records in %s", g.ID, r.cfg.Period)
	}
	log.Printf("report: %s: %d of %d records in %s, %d missing (was %d before clipping)",
		g.ID, len(daily.Records), len(raw.Records), r.cfg.Period, missing, rawMissing)

	return GaugeData{
		Gauge:   g,
		Daily:   daily,
		Missing: missing,
		Monthly: hydro.ComputeMonthlyAverages(daily),
	}, nil
}

func (r *Report) writeFigure(f plot.Figure) (string, error) {
	timer := prometheus.NewTimer(metrics.FigureRenderSeconds.WithLabelValues(f.Filename))
	defer timer.ObserveDuration()
	return r.out.Save(f)
}

func (r *Report) archive(res *Result) error {
	for _, g := range res.Gauges {
		if err := r.store.UpsertGauge(g.Gauge); err != nil {
			return fmt.Errorf("gauge %s: %w", g.Gauge.ID, err)
		}
		if err := r.store.ReplaceDailyDischarge(g.Daily); err != nil {
			return fmt.Errorf("daily discharge %s: %w", g.Gauge.ID, err)
		}
		if err := r.store.ReplaceMonthlyAverages(g.Daily.SiteID, g.Monthly); err != nil {
			return fmt.Errorf("monthly averages %s: %w", g.Gauge.ID, err)
		}
	}
	if err := r.store.ReplaceMetrics("annual", res.Annual); err != nil {
		return err
	}
	if err := r.store.ReplaceMetrics("monthly", res.Monthly); err != nil {
		return err
	}
	log.Printf("report: archived %d gauges", len(res.Gauges))
	return nil
}
