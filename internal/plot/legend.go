package plot

import (
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// legend draws a boxed key for every named series in a corner of the plot area.
// go-chart's own legends only anchor top-left or outside the canvas.
func legend(c *chart.Chart, pos LegendPosition) chart.Renderable {
	return func(r chart.Renderer, canvas chart.Box, defaults chart.Style) {
		var labels []string
		var styles []chart.Style
		for _, s := range c.Series {
			if s.GetName() == "" || s.GetStyle().Hidden {
				continue
			}
			labels = append(labels, s.GetName())
			styles = append(styles, s.GetStyle())
		}
		if len(labels) == 0 {
			return
		}

		r.SetFont(defaults.GetFont())
		r.SetFontSize(legendFontSize)
		r.SetFontColor(chart.DefaultTextColor)

		var lineHeight, textWidth int
		for _, l := range labels {
			tb := r.MeasureText(l)
			lineHeight = max(lineHeight, tb.Height())
			textWidth = max(textWidth, tb.Width())
		}

		const (
			margin = 10
			pad    = 8
			gap    = 6
			swatch = 24
		)
		boxWidth := pad + swatch + gap + textWidth + pad
		boxHeight := pad + len(labels)*lineHeight + (len(labels)-1)*gap + pad

		left := canvas.Left + margin
		if pos == LegendUpperRight {
			left = canvas.Right - margin - boxWidth
		}
		top := canvas.Top + margin
		right, bottom := left+boxWidth, top+boxHeight

		r.SetFillColor(drawing.ColorWhite.WithAlpha(220))
		r.SetStrokeColor(chart.DefaultAxisColor)
		r.SetStrokeWidth(1)
		r.MoveTo(left, top)
		r.LineTo(right, top)
		r.LineTo(right, bottom)
		r.LineTo(left, bottom)
		r.LineTo(left, top)
		r.Close()
		r.FillStroke()

		y := top + pad
		for i, label := range labels {
			mid := y + lineHeight/2
			r.SetStrokeColor(styles[i].StrokeColor)
			r.SetStrokeWidth(styles[i].StrokeWidth)
			r.MoveTo(left+pad, mid)
			r.LineTo(left+pad+swatch, mid)
			r.Stroke()

			r.SetFontColor(chart.DefaultTextColor)
			r.Text(label, left+pad+swatch+gap, y+lineHeight)
			y += lineHeight + gap
		}
	}
}
