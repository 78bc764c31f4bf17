package store

import (
	"database/sql"
	"time"
)

// ReportRun audits one execution of the report pipeline.
type ReportRun struct {
	ID             int64
	StartedAt      time.Time
	FinishedAt     sql.NullTime
	PeriodStart    time.Time
	PeriodEnd      time.Time
	RecordsLoaded  sql.NullInt64
	MissingValues  sql.NullInt64
	FiguresWritten sql.NullInt64
	FiguresSkipped sql.NullInt64
	Success        bool
	ErrorMessage   sql.NullString
}

// StartReportRun creates a run record and returns it.
func (s *Store) StartReportRun(periodStart, periodEnd time.Time) (*ReportRun, error) {
	run := &ReportRun{
		StartedAt:   time.Now().UTC(),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}

	result, err := s.db.Exec(`
		INSERT INTO report_runs (started_at, period_start, period_end, success)
		VALUES (?, ?, ?, FALSE)
	`, run.StartedAt, periodStart.Format(dateLayout), periodEnd.Format(dateLayout))
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return run, nil
}

// CompleteReportRun records the outcome of run.
func (s *Store) CompleteReportRun(run *ReportRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE report_runs SET
			finished_at = ?,
			records_loaded = ?,
			missing_values = ?,
			figures_written = ?,
			figures_skipped = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.RecordsLoaded, run.MissingValues, run.FiguresWritten,
		run.FiguresSkipped, run.Success, run.ErrorMessage, run.ID)
	return err
}

// GetRecentReportRuns returns the latest runs, newest first.
func (s *Store) GetRecentReportRuns(limit int) ([]ReportRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, period_start, period_end,
		       records_loaded, missing_values, figures_written, figures_skipped,
		       success, error_message
		FROM report_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ReportRun
	for rows.Next() {
		var r ReportRun
		var periodStart, periodEnd string
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &periodStart, &periodEnd,
			&r.RecordsLoaded, &r.MissingValues, &r.FiguresWritten, &r.FiguresSkipped,
			&r.Success, &r.ErrorMessage); err != nil {
			return nil, err
		}
		r.PeriodStart, _ = time.Parse(dateLayout, periodStart)
		r.PeriodEnd, _ = time.Parse(dateLayout, periodEnd)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
