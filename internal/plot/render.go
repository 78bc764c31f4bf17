package plot

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	titleFontSize  = 20.0
	axisFontSize   = 15.0
	legendFontSize = 13.0
	lineWidth      = 1.5
)

// palette is the default matplotlib colour cycle.
var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
}

// Render draws the figure as a PNG to w.
func Render(f Figure, w io.Writer) error {
	if err := f.validate(); err != nil {
		return err
	}

	c, err := buildChart(f)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return fmt.Errorf("render %s: %w", f.Filename, err)
	}

	if f.Caption == "" {
		_, err := w.Write(buf.Bytes())
		return err
	}
	return drawCaption(&buf, w, f.Caption, f.DPI)
}

func buildChart(f Figure) (*chart.Chart, error) {
	var series []chart.Series
	xr := newBounds()
	yr := newBounds()

	for i, line := range f.Lines {
		xs, times, ys := line.xy(f.XKind)
		if len(ys) == 0 {
			continue
		}
		for j := range xs {
			xr.add(xs[j])
			yr.add(ys[j])
		}

		style := chart.Style{
			StrokeColor: palette[i%len(palette)],
			StrokeWidth: lineWidth,
		}
		if f.XKind == XTime {
			series = append(series, chart.TimeSeries{Name: line.Label, XValues: times, YValues: ys, Style: style})
		} else {
			series = append(series, chart.ContinuousSeries{Name: line.Label, XValues: xs, YValues: ys, Style: style})
		}
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%s: %w", f.Filename, ErrNoData)
	}

	width, height := f.PixelSize()
	padBottom := 20
	if f.Caption != "" {
		padBottom = 40
	}

	c := &chart.Chart{
		Title:      f.Title,
		TitleStyle: chart.Style{FontSize: titleFontSize},
		Width:      width,
		Height:     height,
		DPI:        f.DPI,
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: padBottom}},
		XAxis: chart.XAxis{
			Name:      f.XLabel,
			NameStyle: chart.Style{FontSize: axisFontSize},
			Range:     xr.padded(f.XKind),
		},
		YAxis: chart.YAxis{
			Name:      f.YLabel,
			NameStyle: chart.Style{FontSize: axisFontSize},
			Range:     yr.padded(XNumeric),
		},
		Series: series,
	}

	switch f.XKind {
	case XTime:
		layout := f.XFormat
		if layout == "" {
			layout = "2006"
		}
		c.XAxis.ValueFormatter = chart.TimeValueFormatterWithFormat(layout)
	case XNumeric:
		c.XAxis.ValueFormatter = integerFormatter
		for _, v := range f.XTicks {
			c.XAxis.Ticks = append(c.XAxis.Ticks, chart.Tick{Value: v, Label: integerFormatter(v)})
		}
	}

	c.Elements = []chart.Renderable{legend(c, f.Legend)}
	return c, nil
}

func integerFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// bounds tracks the data extent so the axes can be given an explicit range.
// go-chart refuses to draw a series whose range has zero width.
type bounds struct {
	min, max float64
}

func newBounds() *bounds {
	return &bounds{min: math.Inf(1), max: math.Inf(-1)}
}

func (b *bounds) add(v float64) {
	b.min = math.Min(b.min, v)
	b.max = math.Max(b.max, v)
}

func (b *bounds) padded(kind XKind) *chart.ContinuousRange {
	lo, hi := b.min, b.max
	if hi > lo {
		return &chart.ContinuousRange{Min: lo, Max: hi}
	}
	pad := 1.0
	switch {
	case kind == XTime:
		pad = float64(24 * 60 * 60 * 1e9)
	case lo != 0:
		pad = math.Abs(lo) * 0.1
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}
