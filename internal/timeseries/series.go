// Package timeseries provides an ordered, date-indexed series of nullable values
// with range slicing, month-start resampling and null-aware grouped means.
package timeseries

import (
	"database/sql"
	"sort"
	"time"
)

type Point struct {
	Date  time.Time
	Value sql.NullFloat64
}

// Series is ordered by Date ascending. Build one with New unless the input is
// already sorted.
type Series []Point

// New returns a sorted copy of points.
func New(points []Point) Series {
	s := make(Series, len(points))
	copy(s, points)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
	return s
}

// Slice returns the points with start <= Date <= end. Bounds outside the data
// yield whatever overlap exists, possibly nothing.
func (s Series) Slice(start, end time.Time) Series {
	if end.Before(start) {
		return Series{}
	}
	lo := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(start) })
	hi := sort.Search(len(s), func(i int) bool { return s[i].Date.After(end) })
	if lo >= hi {
		return Series{}
	}
	out := make(Series, hi-lo)
	copy(out, s[lo:hi])
	return out
}

func (s Series) NullCount() int {
	n := 0
	for _, p := range s {
		if !p.Value.Valid {
			n++
		}
	}
	return n
}

// Valid returns only the points carrying a value.
func (s Series) Valid() Series {
	out := make(Series, 0, len(s))
	for _, p := range s {
		if p.Value.Valid {
			out = append(out, p)
		}
	}
	return out
}

// MonthStart truncates t to midnight UTC on the first of its month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ResampleMonthStart buckets the series by calendar month and returns one point
// per month from the first to the last month present, keyed by the month start.
// A bucket with no valid values is null.
func (s Series) ResampleMonthStart() Series {
	if len(s) == 0 {
		return Series{}
	}

	type acc struct {
		sum   float64
		count int
	}
	buckets := make(map[time.Time]*acc)
	for _, p := range s {
		if !p.Value.Valid {
			continue
		}
		key := MonthStart(p.Date)
		a, ok := buckets[key]
		if !ok {
			a = &acc{}
			buckets[key] = a
		}
		a.sum += p.Value.Float64
		a.count++
	}

	first := MonthStart(s[0].Date)
	last := MonthStart(s[len(s)-1].Date)
	var out Series
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		p := Point{Date: m}
		if a, ok := buckets[m]; ok && a.count > 0 {
			p.Value = sql.NullFloat64{Float64: a.sum / float64(a.count), Valid: true}
		}
		out = append(out, p)
	}
	return out
}

// MeanByKey groups points by key(Date) and returns the mean of the valid values
// in each group. Groups whose points are all null map to a null mean.
func (s Series) MeanByKey(key func(time.Time) int) map[int]sql.NullFloat64 {
	groups := make(map[int][]sql.NullFloat64)
	for _, p := range s {
		k := key(p.Date)
		groups[k] = append(groups[k], p.Value)
	}
	out := make(map[int]sql.NullFloat64, len(groups))
	for k, values := range groups {
		out[k] = Mean(values)
	}
	return out
}

// Mean averages the valid values, returning null when there are none.
func Mean(values []sql.NullFloat64) sql.NullFloat64 {
	var sum float64
	var count int
	for _, v := range values {
		if !v.Valid {
			continue
		}
		sum += v.Float64
		count++
	}
	if count == 0 {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: sum / float64(count), Valid: true}
}
