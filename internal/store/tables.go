package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lox/streamplot/internal/models"
)

// ReplaceMetrics stores a metrics table in long form under kind ("annual" or
// "monthly"), replacing whatever was archived for that kind.
func (s *Store) ReplaceMetrics(kind string, table *models.MetricsTable) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM metric_values WHERE kind = ?`, kind); err != nil {
		return fmt.Errorf("clear %s metrics: %w", kind, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO metric_values (kind, site_id, date, metric, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(kind, site_id, date, metric) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range table.Rows {
		date := row.Date.Format(dateLayout)
		for i, name := range table.Columns {
			if _, err := stmt.Exec(kind, row.SiteID, date, name, row.Values[i]); err != nil {
				return fmt.Errorf("insert %s %s %s: %w", kind, date, name, err)
			}
		}
	}

	return tx.Commit()
}

// GetMetricValues returns one metric for one site ordered by date.
func (s *Store) GetMetricValues(kind, siteID, metric string) ([]time.Time, []sql.NullFloat64, error) {
	rows, err := s.db.Query(`
		SELECT date, value
		FROM metric_values
		WHERE kind = ? AND site_id = ? AND metric = ?
		ORDER BY date ASC
	`, kind, siteID, metric)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var dates []time.Time
	var values []sql.NullFloat64
	for rows.Next() {
		var date string
		var v sql.NullFloat64
		if err := rows.Scan(&date, &v); err != nil {
			return nil, nil, err
		}
		t, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, nil, fmt.Errorf("parse archived date %q: %w", date, err)
		}
		dates = append(dates, t)
		values = append(values, v)
	}
	return dates, values, rows.Err()
}

func (s *Store) ReplaceMonthlyAverages(siteID string, table models.MonthlyAverageTable) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, row := range table {
		if _, err := tx.Exec(`
			INSERT INTO monthly_averages (site_id, month, discharge)
			VALUES (?, ?, ?)
			ON CONFLICT(site_id, month) DO UPDATE SET discharge = excluded.discharge
		`, siteID, int(row.Month), row.Discharge); err != nil {
			return fmt.Errorf("upsert %s month %d: %w", siteID, row.Month, err)
		}
	}

	return tx.Commit()
}

// GetMonthlyAverages returns the archived table; months never stored are null.
func (s *Store) GetMonthlyAverages(siteID string) (models.MonthlyAverageTable, error) {
	var table models.MonthlyAverageTable
	for m := time.January; m <= time.December; m++ {
		table[m-1].Month = m
	}

	rows, err := s.db.Query(`SELECT month, discharge FROM monthly_averages WHERE site_id = ?`, siteID)
	if err != nil {
		return table, err
	}
	defer rows.Close()

	for rows.Next() {
		var month int
		var v sql.NullFloat64
		if err := rows.Scan(&month, &v); err != nil {
			return table, err
		}
		if month < 1 || month > 12 {
			return table, fmt.Errorf("archived month %d out of range", month)
		}
		table[month-1].Discharge = v
	}
	return table, rows.Err()
}
