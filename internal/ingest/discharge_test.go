package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rdbSample = "# U.S. Geological Survey\n" +
	"# Data for site 03335000\n" +
	"agency_cd\tsite_no\tdatetime\t69928_00060_00003\t69928_00060_00003_cd\n" +
	"5s\t15s\t20d\t14n\t10s\n" +
	"USGS\t03335000\t2019-01-01\t412\tA\n" +
	"USGS\t03335000\t2019-01-02\tEqp\tA\n" +
	"USGS\t03335000\t2019-01-03\t-5\tA\n" +
	"USGS\t03335000\t2019-01-04\t\tA\n" +
	"USGS\t03335000\t2019-01-05\t398\tA:e\n"

func TestParseDailyDischarge_RDB(t *testing.T) {
	d, missing, err := ParseDailyDischarge(strings.NewReader(rdbSample), DischargeOptions{})
	require.NoError(t, err)

	require.Len(t, d.Records, 5)
	assert.Equal(t, "03335000", d.SiteID)
	assert.Equal(t, 3, missing)

	first := d.Records[0]
	assert.Equal(t, "USGS", first.AgencyCode)
	assert.Equal(t, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), first.Date)
	assert.True(t, first.Discharge.Valid)
	assert.Equal(t, 412.0, first.Discharge.Float64)
	assert.Equal(t, "A", first.Quality)

	assert.False(t, d.Records[1].Discharge.Valid, "sentinel token is null")
	assert.False(t, d.Records[2].Discharge.Valid, "negative reading is null")
	assert.False(t, d.Records[3].Discharge.Valid, "blank field is null")
	assert.Equal(t, "A:e", d.Records[4].Quality)
}

func TestParseDailyDischarge_SentinelAndNegative(t *testing.T) {
	input := "agency_cd site_no datetime discharge quality\n" +
		"USGS 03331500 2000-01-01 10 A\n" +
		"USGS 03331500 2000-01-02 Eqp A\n" +
		"USGS 03331500 2000-01-03 -5 A\n" +
		"USGS 03331500 2000-01-04 12 A\n"

	d, missing, err := ParseDailyDischarge(strings.NewReader(input), DischargeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, missing)
	assert.False(t, d.Records[1].Discharge.Valid)
	assert.False(t, d.Records[2].Discharge.Valid)
	for _, r := range d.Records {
		if r.Discharge.Valid {
			assert.GreaterOrEqual(t, r.Discharge.Float64, 0.0)
		}
	}
	assert.Equal(t, d.MissingCount(), missing)
}

func TestParseDailyDischarge_CustomTokens(t *testing.T) {
	input := "agency_cd site_no datetime discharge quality\n" +
		"USGS 1 2000-01-01 Ice A\n" +
		"USGS 1 2000-01-02 eqp A\n"

	_, _, err := ParseDailyDischarge(strings.NewReader(input), DischargeOptions{})
	require.Error(t, err, "Ice is not a default token")

	d, missing, err := ParseDailyDischarge(strings.NewReader(input), DischargeOptions{MissingTokens: []string{"Ice"}})
	require.NoError(t, err)
	assert.Len(t, d.Records, 2)
	assert.Equal(t, 2, missing, "Eqp is recognised without being listed")
}

func TestParseDailyDischarge_EmptyTokenListKeepsDefaults(t *testing.T) {
	input := "agency_cd site_no datetime discharge quality\n" +
		"USGS 1 2000-01-01 Eqp A\n" +
		"USGS 1 2000-01-02 12 A\n"

	d, missing, err := ParseDailyDischarge(strings.NewReader(input), DischargeOptions{MissingTokens: []string{}})
	require.NoError(t, err)
	require.Len(t, d.Records, 2)
	assert.Equal(t, 1, missing)
	assert.False(t, d.Records[0].Discharge.Valid)
}

func TestParseDailyDischarge_SortsAndDeduplicates(t *testing.T) {
	input := "agency_cd site_no datetime discharge quality\n" +
		"USGS 1 2000-01-03 3 A\n" +
		"USGS 1 2000-01-01 1 A\n" +
		"USGS 1 2000-01-03 30 P\n"

	d, _, err := ParseDailyDischarge(strings.NewReader(input), DischargeOptions{})
	require.NoError(t, err)
	require.Len(t, d.Records, 2)
	assert.Equal(t, 1, d.Records[0].Date.Day())
	assert.Equal(t, 30.0, d.Records[1].Discharge.Float64)
	assert.Equal(t, "P", d.Records[1].Quality)
}

func TestParseDailyDischarge_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"bad date", "agency_cd site_no datetime discharge quality\nUSGS 1 01/02/2000 5 A\n", 2},
		{"bad number", "agency_cd site_no datetime discharge quality\nUSGS 1 2000-01-01 abc A\n", 2},
		{"too few fields", "# comment\nUSGS 1 2000-01-01\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseDailyDischarge(strings.NewReader(tt.input), DischargeOptions{})
			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.line, pe.Line)
		})
	}
}

func TestReadDailyDischarge_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discharge.txt")
	require.NoError(t, os.WriteFile(path, []byte(rdbSample), 0644))

	d, missing, err := ReadDailyDischarge(path, DischargeOptions{})
	require.NoError(t, err)
	assert.Len(t, d.Records, 5)
	assert.Equal(t, 3, missing)

	_, _, err = ReadDailyDischarge(filepath.Join(t.TempDir(), "missing.txt"), DischargeOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateRecord(t *testing.T) {
	input := "agency_cd site_no datetime discharge quality\nUSGS 1 2000-01-01 NaN A\n"
	d, missing, err := ParseDailyDischarge(strings.NewReader(input), DischargeOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, missing)
	assert.False(t, d.Records[0].Discharge.Valid)
}
