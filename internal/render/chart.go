package render

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"strategyWorkbench/domain"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

var ErrUnsupportedFormat = errors.New("unsupported chart format")

var (
	barColor      = drawing.ColorFromHex("667eea")
	overflowColor = drawing.ColorFromHex("ef4444")
	gridColor     = drawing.ColorFromHex("e5e7eb")
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// ChartRenderer paints bar frames into an SVG or PNG image. Each DrawBars call
// replaces the previous image.
type ChartRenderer struct {
	format Format
	image  []byte
}

func NewChartRenderer(format Format) *ChartRenderer {
	return &ChartRenderer{format: format}
}

func (r *ChartRenderer) Format() Format {
	return r.format
}

// Bytes returns the last rendered image.
func (r *ChartRenderer) Bytes() []byte {
	return r.image
}

func (r *ChartRenderer) DrawBars(frame domain.BarSet) error {
	provider := chart.SVG
	if r.format == FormatPNG {
		provider = chart.PNG
	}

	var buf bytes.Buffer
	if err := barChart(frame).Render(provider, &buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	r.image = buf.Bytes()

	return nil
}

func (r *ChartRenderer) PlaceHandles([]domain.Handle) error { return nil }

func (r *ChartRenderer) UpdateStats(domain.BinSummary) error { return nil }

func (r *ChartRenderer) UpdateTable([]domain.BinTableRow) error { return nil }

func barChart(frame domain.BarSet) chart.BarChart {
	bars := make([]chart.Value, 0, len(frame.Bars))
	for _, b := range frame.Bars {
		fill := barColor
		if b.Overflow {
			fill = overflowColor
		}
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s (%s)", b.Label, b.Percent),
			Value: math.Min(b.BadRate, frame.AxisMax),
			Style: chart.Style{
				FillColor:   fill,
				StrokeColor: fill,
				StrokeWidth: 1,
			},
		})
	}

	ticks := make([]chart.Tick, 0, len(frame.Grid))
	for _, g := range frame.Grid {
		ticks = append(ticks, chart.Tick{Value: g.Value, Label: g.Label})
	}

	width, height := int(frame.Geometry.Width), int(frame.Geometry.Height)
	barWidth, barSpacing := 0, 0
	if n := len(frame.Bars); n > 0 {
		slot := frame.Geometry.PlotWidth() / float64(n)
		barWidth = int(slot * 0.7)
		barSpacing = int(slot * 0.3)
	}

	return chart.BarChart{
		Title:  frame.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    int(frame.Geometry.TopPadding),
				Left:   int(frame.Geometry.LeftPadding),
				Right:  int(frame.Geometry.RightPad),
				Bottom: int(frame.Geometry.BottomPad),
			},
		},
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: frame.AxisMax},
			Ticks: ticks,
			GridMajorStyle: chart.Style{
				StrokeColor: gridColor,
				StrokeWidth: 1,
			},
		},
		Bars: bars,
	}
}
