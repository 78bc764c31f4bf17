// Package config describes one streamplot run: which gauges to compare, where
// their files live, the analysis period and where figures go.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lox/streamplot/internal/models"
)

const dateLayout = "2006-01-02"

// Date is a calendar date written as YYYY-MM-DD in YAML.
type Date struct {
	time.Time
}

func MustDate(s string) Date {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return Date{t}
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("line %d: date %q: want YYYY-MM-DD", value.Line, s)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalYAML() (interface{}, error) {
	return d.Format(dateLayout), nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

type Range struct {
	Start Date `yaml:"start"`
	End   Date `yaml:"end"`
}

func (r Range) String() string {
	return r.Start.String() + " to " + r.End.String()
}

type Gauge struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	SiteID    string `yaml:"site_id"`
	InputPath string `yaml:"input"`
}

func (g Gauge) Model() models.Gauge {
	return models.Gauge{ID: g.ID, Name: g.Name, SiteID: g.SiteID, InputPath: g.InputPath}
}

type Config struct {
	// Gauges are plotted in this order; the first is drawn first in every figure.
	Gauges         []Gauge  `yaml:"gauges"`
	AnnualMetrics  string   `yaml:"annual_metrics"`
	MonthlyMetrics string   `yaml:"monthly_metrics"`
	Period         Range    `yaml:"period"`
	DailyWindow    Range    `yaml:"daily_window"`
	MissingTokens  []string `yaml:"missing_tokens"`
	OutputDir      string   `yaml:"output_dir"`
	ArchivePath    string   `yaml:"archive"`
	MetricsPath    string   `yaml:"metrics_out"`
	Show           bool     `yaml:"show"`
}

// Default reproduces the Wildcat Creek / Tippecanoe River comparison.
func Default() Config {
	return Config{
		Gauges: []Gauge{
			{
				ID:        "Wildcat",
				Name:      "Wildcat Creek",
				SiteID:    "03335000",
				InputPath: "WildcatCreek_Discharge_03335000_19540601-20200315.txt",
			},
			{
				ID:        "Tippe",
				Name:      "Tippecanoe River",
				SiteID:    "03331500",
				InputPath: "TippecanoeRiver_Discharge_03331500_19431001-20200315.txt",
			},
		},
		AnnualMetrics:  "Annual_Metrics-Copy.csv",
		MonthlyMetrics: "Monthly_Metrics-Copy.csv",
		Period:         Range{Start: MustDate("1969-10-01"), End: MustDate("2019-09-30")},
		DailyWindow:    Range{Start: MustDate("2015-01-01"), End: MustDate("2019-12-30")},
		MissingTokens:  []string{"Eqp", "Ice", "Ssn", "Dis", "Bkw", "Mnt", "***"},
		OutputDir:      ".",
	}
}

// Load reads a YAML file over Default. Keys absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if len(c.Gauges) == 0 {
		errs = append(errs, errors.New("no gauges configured"))
	}
	seen := make(map[string]bool)
	for i, g := range c.Gauges {
		if g.ID == "" {
			errs = append(errs, fmt.Errorf("gauge %d: id required", i))
		} else if seen[g.ID] {
			errs = append(errs, fmt.Errorf("gauge %s: duplicate id", g.ID))
		}
		seen[g.ID] = true
		if g.InputPath == "" {
			errs = append(errs, fmt.Errorf("gauge %s: input path required", g.ID))
		}
	}
	if c.AnnualMetrics == "" || c.MonthlyMetrics == "" {
		errs = append(errs, errors.New("annual and monthly metrics files required"))
	}
	if c.Period.End.Before(c.Period.Start.Time) {
		errs = append(errs, fmt.Errorf("period %s ends before it starts", c.Period))
	}
	if c.DailyWindow.End.Before(c.DailyWindow.Start.Time) {
		errs = append(errs, fmt.Errorf("daily window %s ends before it starts", c.DailyWindow))
	}
	return errors.Join(errs...)
}
