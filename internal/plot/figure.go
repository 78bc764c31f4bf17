// Package plot renders comparison line charts to PNG.
package plot

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNoData is returned when none of a figure's lines has a single valid point.
var ErrNoData = errors.New("no plottable data")

type LegendPosition int

const (
	// LegendUpperLeft stands in for matplotlib's "best". Corner placement is
	// fixed and does not avoid the plotted lines.
	LegendUpperLeft LegendPosition = iota
	LegendUpperRight
)

type XKind int

const (
	XTime XKind = iota
	XNumeric
)

// Line is one labelled series. Times is used when the figure's XKind is XTime,
// X otherwise. Null Y values are left out of the drawn line.
type Line struct {
	Label string
	Times []time.Time
	X     []float64
	Y     []sql.NullFloat64
}

type Figure struct {
	Filename string
	Title    string
	XLabel   string
	YLabel   string
	Legend   LegendPosition

	WidthIn  float64
	HeightIn float64
	DPI      float64

	XKind   XKind
	XFormat string    // time layout for XTime tick labels
	XTicks  []float64 // explicit tick positions for XNumeric

	Lines   []Line
	Caption string
}

// PixelSize converts the figure size in inches to pixels at the figure's DPI.
func (f Figure) PixelSize() (int, int) {
	return int(math.Round(f.WidthIn * f.DPI)), int(math.Round(f.HeightIn * f.DPI))
}

func (f Figure) validate() error {
	if f.Filename == "" {
		return errors.New("figure filename required")
	}
	if f.WidthIn <= 0 || f.HeightIn <= 0 || f.DPI <= 0 {
		return fmt.Errorf("%s: invalid size %.1fx%.1f in at %.0f dpi", f.Filename, f.WidthIn, f.HeightIn, f.DPI)
	}
	for _, l := range f.Lines {
		n := len(l.X)
		if f.XKind == XTime {
			n = len(l.Times)
		}
		if n != len(l.Y) {
			return fmt.Errorf("%s: line %q has %d x values and %d y values", f.Filename, l.Label, n, len(l.Y))
		}
	}
	return nil
}

// xy returns the line's valid points as float coordinates. Time values are
// expressed the way go-chart plots them, as Unix nanoseconds.
func (l Line) xy(kind XKind) (xs []float64, times []time.Time, ys []float64) {
	for i, y := range l.Y {
		if !y.Valid || math.IsNaN(y.Float64) {
			continue
		}
		if kind == XTime {
			times = append(times, l.Times[i])
			xs = append(xs, timeToFloat(l.Times[i]))
		} else {
			xs = append(xs, l.X[i])
		}
		ys = append(ys, y.Float64)
	}
	return xs, times, ys
}

func timeToFloat(t time.Time) float64 {
	return float64(t.UnixNano())
}
