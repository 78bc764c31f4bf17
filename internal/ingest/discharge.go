package ingest

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lox/streamplot/internal/metrics"
	"github.com/lox/streamplot/internal/models"
)

const dateLayout = "2006-01-02"

// DefaultMissingTokens are the USGS value codes that mean no discharge was recorded.
var DefaultMissingTokens = []string{"Eqp"}

// rdbWidthField matches the column width/type row of a USGS RDB file, e.g. "14n".
var rdbWidthField = regexp.MustCompile(`^\d+[sdn]$`)

type DischargeOptions struct {
	// MissingTokens are treated like a blank discharge field, in addition
	// to DefaultMissingTokens.
	MissingTokens []string
}

func (o DischargeOptions) isMissingToken(s string) bool {
	for _, tokens := range [][]string{DefaultMissingTokens, o.MissingTokens} {
		for _, t := range tokens {
			if strings.EqualFold(s, t) {
				return true
			}
		}
	}
	return false
}

// ParseError reports a malformed line in an input file.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReadDailyDischarge loads a USGS daily discharge file and returns the series
// with the count of null discharges. Negative readings are stored as null and
// counted as missing.
func ReadDailyDischarge(path string, opts DischargeOptions) (*models.DailyDischarge, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open discharge file: %w", err)
	}
	defer f.Close()

	d, missing, err := ParseDailyDischarge(f, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, missing, nil
}

// ParseDailyDischarge reads agency, site, date, discharge and quality columns.
// Tab-separated lines keep empty fields positional; other lines split on runs
// of whitespace. Comment lines, the column header and the RDB width row are skipped.
func ParseDailyDischarge(r io.Reader, opts DischargeOptions) (*models.DailyDischarge, int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	byDate := make(map[time.Time]models.DischargeRecord)
	flagCounts := make(map[string]int)
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		fields := splitFields(line)
		if isHeaderRow(fields) {
			continue
		}
		if len(fields) < 4 {
			return nil, 0, &ParseError{Line: lineNo, Err: fmt.Errorf("expected at least 4 fields, got %d", len(fields))}
		}

		date, err := time.Parse(dateLayout, fields[2])
		if err != nil {
			return nil, 0, &ParseError{Line: lineNo, Err: fmt.Errorf("date %q: %w", fields[2], err)}
		}

		rec := models.DischargeRecord{
			AgencyCode: fields[0],
			SiteID:     fields[1],
			Date:       date,
		}
		if len(fields) > 4 {
			rec.Quality = fields[4]
		}

		var flags []string
		rec.Discharge, flags, err = parseDischarge(fields[3], opts)
		if err != nil {
			return nil, 0, &ParseError{Line: lineNo, Err: err}
		}
		flags = append(flags, ValidateRecord(&rec)...)
		for _, f := range flags {
			flagCounts[f]++
		}

		byDate[date] = rec
	}
	if err := sc.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan: %w", err)
	}

	d := &models.DailyDischarge{Records: make([]models.DischargeRecord, 0, len(byDate))}
	for _, rec := range byDate {
		d.Records = append(d.Records, rec)
	}
	sort.Slice(d.Records, func(i, j int) bool { return d.Records[i].Date.Before(d.Records[j].Date) })
	if len(d.Records) > 0 {
		d.SiteID = d.Records[0].SiteID
	}

	missing := d.MissingCount()
	metrics.DischargeRecordsRead.WithLabelValues(d.SiteID).Add(float64(len(d.Records)))
	for flag, n := range flagCounts {
		metrics.DischargeQualityFlags.WithLabelValues(d.SiteID, flag).Add(float64(n))
	}

	log.Printf("ingest: site %s: %d records, %d missing %s", d.SiteID, len(d.Records), missing, formatFlagCounts(flagCounts))
	return d, missing, nil
}

func splitFields(line string) []string {
	if !strings.Contains(line, "\t") {
		return strings.Fields(line)
	}
	fields := strings.Split(line, "\t")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

func isHeaderRow(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	if fields[0] == "agency_cd" {
		return true
	}
	for _, f := range fields {
		if !rdbWidthField.MatchString(f) {
			return false
		}
	}
	return true
}

func parseDischarge(s string, opts DischargeOptions) (sql.NullFloat64, []string, error) {
	if s == "" {
		return sql.NullFloat64{}, []string{FlagBlankDischarge}, nil
	}
	if opts.isMissingToken(s) {
		return sql.NullFloat64{}, []string{FlagMissingToken}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}, nil, fmt.Errorf("discharge %q: %w", s, err)
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil, nil
}

func formatFlagCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "(no flags)"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return "(" + strings.Join(parts, " ") + ")"
}
