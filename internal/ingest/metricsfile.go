package ingest

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/lox/streamplot/internal/metrics"
	"github.com/lox/streamplot/internal/models"
)

const (
	dateColumn = "Date"
	siteColumn = "site_no"
)

var metricsDateLayouts = []string{
	dateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
}

type metricsDate struct {
	time.Time
}

func (d *metricsDate) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	for _, layout := range metricsDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return nil
		}
	}
	return fmt.Errorf("unrecognised date %q", s)
}

// metricsKey holds the index columns of a metrics row. The remaining columns
// are metrics and are read from the raw record.
type metricsKey struct {
	Date   metricsDate `csv:"Date"`
	SiteID string      `csv:"site_no,omitempty"`
}

// ReadMetricsTable loads an annual or monthly metrics CSV.
func ReadMetricsTable(path string) (*models.MetricsTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metrics file: %w", err)
	}
	defer f.Close()

	table, err := ParseMetricsTable(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	metrics.MetricsRowsRead.WithLabelValues(path).Add(float64(len(table.Rows)))
	log.Printf("ingest: %s: %d rows, %d metrics, sites %v", path, len(table.Rows), len(table.Columns), table.Sites())
	return table, nil
}

// ParseMetricsTable reads a CSV whose first column is the date index. A
// site_no column, if present, labels each row with its gauge. Every other
// column is numeric; blank cells are null.
func ParseMetricsTable(r io.Reader) (*models.MetricsTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 {
		return nil, errors.New("empty header")
	}

	names := make([]string, len(header))
	copy(names, header)
	names[0] = dateColumn

	table := &models.MetricsTable{}
	var metricIdx []int
	for i, name := range names {
		if i == 0 || name == siteColumn {
			continue
		}
		table.Columns = append(table.Columns, name)
		metricIdx = append(metricIdx, i)
	}

	dec, err := csvutil.NewDecoder(cr, names...)
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}

	for row := 2; ; row++ {
		var key metricsKey
		if err := dec.Decode(&key); err == io.EOF {
			break
		} else if err != nil {
			return nil, &ParseError{Line: row, Err: err}
		}

		record := dec.Record()
		values := make([]sql.NullFloat64, len(metricIdx))
		for j, idx := range metricIdx {
			v, err := parseMetricValue(record[idx])
			if err != nil {
				return nil, &ParseError{Line: row, Err: fmt.Errorf("column %q: %w", names[idx], err)}
			}
			values[j] = v
		}

		table.Rows = append(table.Rows, models.MetricsRow{
			Date:   key.Date.Time,
			SiteID: key.SiteID,
			Values: values,
		})
	}

	return table, nil
}

func parseMetricValue(s string) (sql.NullFloat64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullFloat64{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}, err
	}
	if math.IsNaN(v) {
		return sql.NullFloat64{}, nil
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}

// WriteMetricsTable writes table in the layout ParseMetricsTable reads.
func WriteMetricsTable(w io.Writer, table *models.MetricsTable) error {
	withSite := len(table.Sites()) > 0

	header := []string{dateColumn}
	if withSite {
		header = append(header, siteColumn)
	}
	header = append(header, table.Columns...)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range table.Rows {
		record := []string{row.Date.Format(dateLayout)}
		if withSite {
			record = append(record, row.SiteID)
		}
		for _, v := range row.Values {
			if !v.Valid {
				record = append(record, "")
				continue
			}
			record = append(record, strconv.FormatFloat(v.Float64, 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %s: %w", row.Date.Format(dateLayout), err)
		}
	}

	cw.Flush()
	return cw.Error()
}
