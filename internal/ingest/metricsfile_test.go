package ingest

import (
	"bytes"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/streamplot/internal/models"
)

const annualSample = `Date,site_no,Mean Flow,Peak Flow,Coeff Var,Tqmean,R-B Index
1970-09-30,03335000,240.5,4120,155.2,0.25,0.31
1971-09-30,03335000,198.1,,170.9,0.22,0.29
1970-09-30,03331500,800.2,9500,98.4,0.31,0.08
`

func TestParseMetricsTable(t *testing.T) {
	table, err := ParseMetricsTable(strings.NewReader(annualSample))
	require.NoError(t, err)

	assert.Equal(t, []string{"Mean Flow", "Peak Flow", "Coeff Var", "Tqmean", "R-B Index"}, table.Columns)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, time.Date(1970, 9, 30, 0, 0, 0, 0, time.UTC), table.Rows[0].Date)
	assert.Equal(t, "03335000", table.Rows[0].SiteID)
	assert.False(t, table.Rows[1].Values[1].Valid, "blank peak flow is null")
	assert.Equal(t, []string{"03335000", "03331500"}, table.Sites())

	dates, cv, err := table.ForSite("03335000").Column("Coeff Var")
	require.NoError(t, err)
	assert.Len(t, dates, 2)
	assert.Equal(t, 170.9, cv[1].Float64)

	_, _, err = table.Column("7Q")
	assert.True(t, errors.Is(err, models.ErrColumnNotFound))
}

func TestParseMetricsTable_FirstColumnIsIndex(t *testing.T) {
	input := "datetime,Tqmean\n2000-01-31 00:00:00,0.4\n2000-02-29,\n"
	table, err := ParseMetricsTable(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Tqmean"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, time.Date(2000, 1, 31, 0, 0, 0, 0, time.UTC), table.Rows[0].Date)
	assert.Empty(t, table.Rows[0].SiteID)
	assert.False(t, table.Rows[1].Values[0].Valid)
}

func TestParseMetricsTable_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bad date", "Date,Tqmean\nnot-a-date,0.1\n"},
		{"bad value", "Date,Tqmean\n2000-01-01,high\n"},
		{"ragged row", "Date,Tqmean\n2000-01-01,0.1,0.2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMetricsTable(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestMetricsTableRoundTrip(t *testing.T) {
	orig := &models.MetricsTable{
		Columns: []string{"Coeff Var", "Tqmean", "R-B Index"},
		Rows: []models.MetricsRow{
			{
				Date:   time.Date(1970, 9, 30, 0, 0, 0, 0, time.UTC),
				SiteID: "03335000",
				Values: []sql.NullFloat64{{Float64: 155.25, Valid: true}, {Float64: 0.1 + 0.2, Valid: true}, {}},
			},
			{
				Date:   time.Date(1971, 9, 30, 0, 0, 0, 0, time.UTC),
				SiteID: "03331500",
				Values: []sql.NullFloat64{{Float64: 1e-7, Valid: true}, {}, {Float64: 0.08, Valid: true}},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMetricsTable(&buf, orig))

	got, err := ParseMetricsTable(&buf)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestReadMetricsTable_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Annual_Metrics.csv")
	require.NoError(t, os.WriteFile(path, []byte(annualSample), 0644))

	table, err := ReadMetricsTable(path)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 3)
}
