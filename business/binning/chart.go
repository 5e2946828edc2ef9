package binning

import (
	"fmt"
	"math"

	"strategyWorkbench/domain"
)

const (
	// AxisMaxBadRate is the top of the bad-rate axis. Taller bars are clipped
	// to it and flagged as overflowing.
	AxisMaxBadRate = 0.20
	axisStep       = 0.05
	barFill        = 0.7
)

func DefaultGeometry() domain.ChartGeometry {
	return domain.ChartGeometry{
		Width:       800,
		Height:      400,
		LeftPadding: 60,
		RightPad:    20,
		TopPadding:  30,
		BottomPad:   50,
	}
}

// BuildBarSet lays out one full chart frame for the given bins.
func BuildBarSet(set domain.BinSet, g domain.ChartGeometry, title string) domain.BarSet {
	plotW, plotH := g.PlotWidth(), g.PlotHeight()
	n := len(set.Bins)

	frame := domain.BarSet{
		Feature:  set.Feature,
		Title:    title,
		Geometry: g,
		AxisMax:  AxisMaxBadRate,
		Bars:     make([]domain.Bar, 0, n),
		Grid:     make([]domain.GridLine, 0, 5),
	}

	steps := int(math.Round(AxisMaxBadRate / axisStep))
	for i := 0; i <= steps; i++ {
		v := float64(i) * axisStep
		frame.Grid = append(frame.Grid, domain.GridLine{
			Value: v,
			Label: fmt.Sprintf("%.0f%%", v*100),
			Y:     g.TopPadding + plotH - v/AxisMaxBadRate*plotH,
		})
	}

	if n == 0 || plotW <= 0 || plotH <= 0 {
		return frame
	}

	slot := plotW / float64(n)
	width := slot * barFill
	for i, b := range set.Bins {
		ratio := b.BadRate / AxisMaxBadRate
		overflow := ratio > 1
		h := math.Max(0, math.Min(ratio, 1)) * plotH

		frame.Bars = append(frame.Bars, domain.Bar{
			Label:    formatRange(b.LowerBound, b.UpperBound),
			Percent:  formatPercent(b.BadRate),
			BadRate:  b.BadRate,
			X:        g.LeftPadding + float64(i)*slot + (slot-width)/2,
			Y:        g.TopPadding + plotH - h,
			Width:    width,
			Height:   h,
			Overflow: overflow,
		})
	}

	return frame
}
