package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lox/streamplot/internal/models"
)

const dateLayout = "2006-01-02"

// Store archives the inputs and derived tables of a report run in SQLite.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
}

// Open opens the SQLite archive at path and applies the connection pragmas.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// busy_timeout is per connection.
	db.SetMaxOpenConns(1)
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return db, nil
}

func (s *Store) UpsertGauge(g models.Gauge) error {
	_, err := s.db.Exec(`
		INSERT INTO gauges (site_id, gauge_id, name, input_path)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(site_id) DO UPDATE SET
			gauge_id = excluded.gauge_id,
			name = excluded.name,
			input_path = excluded.input_path
	`, g.SiteID, g.ID, g.Name, g.InputPath)
	return err
}

func (s *Store) GetGauges() ([]models.Gauge, error) {
	rows, err := s.db.Query(`SELECT site_id, gauge_id, name, input_path FROM gauges ORDER BY site_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gauges []models.Gauge
	for rows.Next() {
		var g models.Gauge
		if err := rows.Scan(&g.SiteID, &g.ID, &g.Name, &g.InputPath); err != nil {
			return nil, err
		}
		gauges = append(gauges, g)
	}
	return gauges, rows.Err()
}

// ReplaceDailyDischarge swaps the archived record of d's site for d.
func (s *Store) ReplaceDailyDischarge(d *models.DailyDischarge) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM daily_discharge WHERE site_id = ?`, d.SiteID); err != nil {
		return fmt.Errorf("clear site %s: %w", d.SiteID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO daily_discharge (site_id, date, agency_cd, discharge, quality)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range d.Records {
		if _, err := stmt.Exec(d.SiteID, r.Date.Format(dateLayout), r.AgencyCode, r.Discharge, r.Quality); err != nil {
			return fmt.Errorf("insert %s %s: %w", d.SiteID, r.Date.Format(dateLayout), err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetDailyDischarge(siteID string, start, end time.Time) (*models.DailyDischarge, error) {
	rows, err := s.db.Query(`
		SELECT date, agency_cd, discharge, quality
		FROM daily_discharge
		WHERE site_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, siteID, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	d := &models.DailyDischarge{SiteID: siteID}
	for rows.Next() {
		var date string
		r := models.DischargeRecord{SiteID: siteID}
		if err := rows.Scan(&date, &r.AgencyCode, &r.Discharge, &r.Quality); err != nil {
			return nil, err
		}
		if r.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("parse archived date %q: %w", date, err)
		}
		d.Records = append(d.Records, r)
	}
	return d, rows.Err()
}
