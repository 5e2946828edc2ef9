package binning

import (
	"fmt"
	"strconv"

	"strategyWorkbench/domain"
)

// IVStrength buckets a total information value.
func IVStrength(iv float64) string {
	switch {
	case iv < 0.02:
		return domain.StrengthNone
	case iv < 0.1:
		return domain.StrengthWeak
	case iv < 0.3:
		return domain.StrengthMedium
	default:
		return domain.StrengthStrong
	}
}

// IsMonotonic reports whether the bad rate never rises from one bin to the next.
func IsMonotonic(bins []domain.Bin) bool {
	for i := 1; i < len(bins); i++ {
		if bins[i].BadRate > bins[i-1].BadRate {
			return false
		}
	}
	return true
}

func Summarize(set domain.BinSet) domain.BinSummary {
	var totalIV, weighted, weights float64
	for _, b := range set.Bins {
		totalIV += b.IVContribution
		weighted += b.BadRate * b.SampleRate
		weights += b.SampleRate
	}

	avg := 0.0
	if weights > 0 {
		avg = weighted / weights
	}

	return domain.BinSummary{
		TotalIV:         totalIV,
		Strength:        IVStrength(totalIV),
		WeightedBadRate: avg,
		BinCount:        len(set.Bins),
		Monotonic:       IsMonotonic(set.Bins),
	}
}

// TableRows renders one row per bin. SampleShare is normalised so the column sums to 1.
func TableRows(set domain.BinSet) []domain.BinTableRow {
	total := 0.0
	for _, b := range set.Bins {
		total += b.SampleRate
	}

	rows := make([]domain.BinTableRow, 0, len(set.Bins))
	for _, b := range set.Bins {
		share := 0.0
		if total > 0 {
			share = b.SampleRate / total
		}
		rows = append(rows, domain.BinTableRow{
			Range:          formatRange(b.LowerBound, b.UpperBound),
			SampleShare:    share,
			BadRate:        b.BadRate,
			WOE:            b.WOE,
			WOESign:        woeSign(b.WOE),
			IVContribution: b.IVContribution,
		})
	}
	return rows
}

func woeSign(woe float64) string {
	switch {
	case woe > 0:
		return "+"
	case woe < 0:
		return "-"
	default:
		return "0"
	}
}

func formatRange(low, high float64) string {
	return strconv.FormatFloat(low, 'f', -1, 64) + "-" + strconv.FormatFloat(high, 'f', -1, 64)
}

func formatPercent(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate*100)
}
