package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/lox/streamplot/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	store := New(db)
	require.NoError(t, store.Migrate())
	return store
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMigrate_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Migrate())

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)
}

func TestUpsertGauge(t *testing.T) {
	store := setupTestStore(t)

	g := models.Gauge{ID: "Wildcat", Name: "Wildcat Creek", SiteID: "03335000", InputPath: "wildcat.txt"}
	require.NoError(t, store.UpsertGauge(g))

	g.Name = "Wildcat Creek near Lafayette"
	require.NoError(t, store.UpsertGauge(g))

	gauges, err := store.GetGauges()
	require.NoError(t, err)
	require.Len(t, gauges, 1)
	assert.Equal(t, g, gauges[0])
}

func TestDailyDischargeRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	d := &models.DailyDischarge{
		SiteID: "03335000",
		Records: []models.DischargeRecord{
			{AgencyCode: "USGS", SiteID: "03335000", Date: day("2019-01-01"), Discharge: sql.NullFloat64{Float64: 412, Valid: true}, Quality: "A"},
			{AgencyCode: "USGS", SiteID: "03335000", Date: day("2019-01-02"), Quality: "A"},
			{AgencyCode: "USGS", SiteID: "03335000", Date: day("2019-01-03"), Discharge: sql.NullFloat64{Float64: 0, Valid: true}, Quality: "P"},
		},
	}
	require.NoError(t, store.ReplaceDailyDischarge(d))

	got, err := store.GetDailyDischarge("03335000", day("2019-01-01"), day("2019-01-03"))
	require.NoError(t, err)
	assert.Equal(t, d, got)

	window, err := store.GetDailyDischarge("03335000", day("2019-01-02"), day("2019-01-02"))
	require.NoError(t, err)
	require.Len(t, window.Records, 1)
	assert.False(t, window.Records[0].Discharge.Valid)

	// Replacing drops the old rows.
	d.Records = d.Records[:1]
	require.NoError(t, store.ReplaceDailyDischarge(d))
	got, err = store.GetDailyDischarge("03335000", day("2000-01-01"), day("2030-01-01"))
	require.NoError(t, err)
	assert.Len(t, got.Records, 1)
}

func TestMetricsRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	table := &models.MetricsTable{
		Columns: []string{"Coeff Var", "Tqmean"},
		Rows: []models.MetricsRow{
			{Date: day("1970-09-30"), SiteID: "03335000", Values: []sql.NullFloat64{{Float64: 155.2, Valid: true}, {Float64: 0.25, Valid: true}}},
			{Date: day("1971-09-30"), SiteID: "03335000", Values: []sql.NullFloat64{{}, {Float64: 0.22, Valid: true}}},
			{Date: day("1970-09-30"), SiteID: "03331500", Values: []sql.NullFloat64{{Float64: 98.4, Valid: true}, {}}},
		},
	}
	require.NoError(t, store.ReplaceMetrics("annual", table))

	dates, values, err := store.GetMetricValues("annual", "03335000", "Coeff Var")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day("1970-09-30"), day("1971-09-30")}, dates)
	assert.Equal(t, []sql.NullFloat64{{Float64: 155.2, Valid: true}, {}}, values)

	dates, _, err = store.GetMetricValues("monthly", "03335000", "Coeff Var")
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestMonthlyAveragesRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	var table models.MonthlyAverageTable
	for m := time.January; m <= time.December; m++ {
		table[m-1] = models.MonthlyAverage{Month: m, Discharge: sql.NullFloat64{Float64: float64(m) * 10, Valid: m != time.June}}
	}
	require.NoError(t, store.ReplaceMonthlyAverages("03331500", table))

	got, err := store.GetMonthlyAverages("03331500")
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Get(time.January).Discharge.Float64)
	assert.False(t, got.Get(time.June).Discharge.Valid)

	empty, err := store.GetMonthlyAverages("unknown")
	require.NoError(t, err)
	assert.Equal(t, time.December, empty.Get(time.December).Month)
	assert.False(t, empty.Get(time.December).Discharge.Valid)
}

func TestReportRuns(t *testing.T) {
	store := setupTestStore(t)

	run, err := store.StartReportRun(day("1969-10-01"), day("2019-09-30"))
	require.NoError(t, err)
	assert.NotZero(t, run.ID)

	run.Success = true
	run.FiguresWritten = sql.NullInt64{Int64: 5, Valid: true}
	run.MissingValues = sql.NullInt64{Int64: 2, Valid: true}
	require.NoError(t, store.CompleteReportRun(run))
	require.NoError(t, store.CompleteReportRun(nil))

	runs, err := store.GetRecentReportRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Success)
	assert.Equal(t, int64(5), runs[0].FiguresWritten.Int64)
	assert.Equal(t, day("1969-10-01"), runs[0].PeriodStart)
	assert.True(t, runs[0].FinishedAt.Valid)
}

func TestOpen_AppliesPragmas(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var mode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)

	require.NoError(t, New(db).Migrate())
}

func TestOpen_Unwritable(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "archive.db"))
	assert.Error(t, err)
}
