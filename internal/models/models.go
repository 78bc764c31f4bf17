package models

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrColumnNotFound is returned when a metrics table has no column with the requested name.
var ErrColumnNotFound = errors.New("metric column not found")

type Gauge struct {
	ID        string // short key used in logs, e.g. "Wildcat"
	Name      string // display name used in figure legends
	SiteID    string // USGS site number
	InputPath string
}

type DischargeRecord struct {
	AgencyCode string
	SiteID     string
	Date       time.Time
	Discharge  sql.NullFloat64 // cubic feet per second; null or >= 0
	Quality    string
}

// DailyDischarge is one gauge's daily record, ordered by date with one record per day.
type DailyDischarge struct {
	SiteID  string
	Records []DischargeRecord
}

// MissingCount returns the number of records with a null discharge.
func (d *DailyDischarge) MissingCount() int {
	n := 0
	for _, r := range d.Records {
		if !r.Discharge.Valid {
			n++
		}
	}
	return n
}

// Span returns the first and last record dates. ok is false for an empty series.
func (d *DailyDischarge) Span() (first, last time.Time, ok bool) {
	if len(d.Records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return d.Records[0].Date, d.Records[len(d.Records)-1].Date, true
}

type MetricsRow struct {
	Date   time.Time
	SiteID string
	Values []sql.NullFloat64 // aligned with MetricsTable.Columns
}

// MetricsTable holds annual or monthly metrics computed upstream, indexed by date.
// SiteID is populated when the source file carries a site_no column.
type MetricsTable struct {
	Columns []string
	Rows    []MetricsRow
}

func (t *MetricsTable) columnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// Column returns the dates and values of one named metric.
func (t *MetricsTable) Column(name string) ([]time.Time, []sql.NullFloat64, error) {
	idx, err := t.columnIndex(name)
	if err != nil {
		return nil, nil, err
	}
	dates := make([]time.Time, len(t.Rows))
	values := make([]sql.NullFloat64, len(t.Rows))
	for i, row := range t.Rows {
		dates[i] = row.Date
		values[i] = row.Values[idx]
	}
	return dates, values, nil
}

// ForSite returns a table holding only the rows labelled with siteID.
// Labels are compared with SameSite.
func (t *MetricsTable) ForSite(siteID string) *MetricsTable {
	out := &MetricsTable{Columns: t.Columns}
	for _, row := range t.Rows {
		if SameSite(row.SiteID, siteID) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Sites lists the distinct site labels in row order.
func (t *MetricsTable) Sites() []string {
	seen := make(map[string]bool)
	var sites []string
	for _, row := range t.Rows {
		if row.SiteID == "" || seen[row.SiteID] {
			continue
		}
		seen[row.SiteID] = true
		sites = append(sites, row.SiteID)
	}
	return sites
}

type MonthlyAverage struct {
	Month     time.Month
	Discharge sql.NullFloat64
}

// MonthlyAverageTable always has twelve rows, January first.
type MonthlyAverageTable [12]MonthlyAverage

// Get returns the row for month m.
func (t *MonthlyAverageTable) Get(m time.Month) MonthlyAverage {
	return t[m-1]
}

// SameSite reports whether two USGS site labels name the same gauge. Files
// written by numeric tools drop the leading zeros of "03335000" and may add a
// ".0", so "3335000.0" matches "03335000".
func SameSite(a, b string) bool {
	a, b = normalizeSiteID(a), normalizeSiteID(b)
	return a != "" && a == b
}

func normalizeSiteID(s string) string {
	s = strings.TrimSpace(s)
	if whole, frac, ok := strings.Cut(s, "."); ok && strings.Trim(frac, "0") == "" {
		s = whole
	}
	if trimmed := strings.TrimLeft(s, "0"); trimmed != "" {
		return trimmed
	} else if s != "" {
		return "0"
	}
	return ""
}
