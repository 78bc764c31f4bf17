package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DischargeRecordsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamplot_discharge_records_read_total",
			Help: "Daily discharge records parsed from input files",
		},
		[]string{"site"},
	)

	DischargeQualityFlags = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamplot_discharge_quality_flags_total",
			Help: "Discharge readings stored as null, by reason",
		},
		[]string{"site", "flag"},
	)

	MissingDischarge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streamplot_missing_discharge_values",
			Help: "Null discharge values within the analysis period",
		},
		[]string{"site"},
	)

	MetricsRowsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamplot_metrics_rows_read_total",
			Help: "Rows read from precomputed metrics files",
		},
		[]string{"file"},
	)

	FiguresRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamplot_figures_total",
			Help: "Figures processed, by outcome",
		},
		[]string{"outcome"},
	)

	FigureRenderSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamplot_figure_render_seconds",
			Help:    "Time spent rendering and writing one figure",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"figure"},
	)
)

// WriteTextfile dumps the default registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
