package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/lox/streamplot/internal/config"
	"github.com/lox/streamplot/internal/metrics"
	"github.com/lox/streamplot/internal/plot"
	"github.com/lox/streamplot/internal/report"
	"github.com/lox/streamplot/internal/store"
)

type CLI struct {
	Config     string `help:"YAML config overlaid on the built-in Wildcat Creek / Tippecanoe River setup." type:"existingfile" short:"c"`
	OutputDir  string `help:"Directory the figures are written to." type:"path" short:"o"`
	Archive    string `help:"SQLite database to archive loaded and derived tables into." type:"path"`
	MetricsOut string `help:"Write run metrics in Prometheus text format to this file." type:"path"`
	Show       bool   `help:"Open each figure in the system image viewer after writing it."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("streamplot"),
		kong.Description("Compare daily discharge and flow metrics of two USGS gauges."),
		kong.UsageOnError(),
	)

	cfg := config.Default()
	if cli.Config != "" {
		var err error
		if cfg, err = config.Load(cli.Config); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if cli.OutputDir != "" {
		cfg.OutputDir = cli.OutputDir
	}
	if cli.Archive != "" {
		cfg.ArchivePath = cli.Archive
	}
	if cli.MetricsOut != "" {
		cfg.MetricsPath = cli.MetricsOut
	}
	if cli.Show {
		cfg.Show = true
	}

	var opts []report.Option
	if cfg.Show {
		opts = append(opts, report.WithViewer(plot.SystemViewer{}))
	}

	if cfg.ArchivePath != "" {
		db, err := store.Open(cfg.ArchivePath)
		if err != nil {
			log.Fatalf("open archive: %v", err)
		}
		defer db.Close()

		st := store.New(db)
		if err := st.Migrate(); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Printf("archive %s migrated", cfg.ArchivePath)
		opts = append(opts, report.WithStore(st))
	}

	r, err := report.New(cfg, opts...)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, runErr := r.Run(ctx)

	if cfg.MetricsPath != "" {
		if err := metrics.WriteTextfile(cfg.MetricsPath); err != nil {
			log.Printf("write metrics: %v", err)
		}
	}

	if runErr != nil {
		log.Fatalf("report: %v", runErr)
	}
	for _, g := range res.Gauges {
		log.Printf("%s: %d missing discharge values in %s", g.Gauge.Name, g.Missing, cfg.Period)
	}
	log.Printf("done: %d figures written, %d skipped", len(res.Written), len(res.Skipped))
}
