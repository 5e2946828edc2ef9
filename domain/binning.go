package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCutPoints = errors.New("cut points must be strictly increasing with at least two values")
	ErrUnknownFeature   = errors.New("unknown feature")
	ErrUnknownHandle    = errors.New("unknown handle")
	ErrNotDragging      = errors.New("no drag in progress")
	ErrAlreadyDragging  = errors.New("drag already in progress")
)

// CutPointSet holds the ordered bin boundaries of a feature. N+1 values describe N bins.
type CutPointSet []float64

func (c CutPointSet) Validate() error {
	if len(c) < 2 {
		return fmt.Errorf("%w: got %d values", ErrInvalidCutPoints, len(c))
	}
	for i := 1; i < len(c); i++ {
		if c[i] <= c[i-1] {
			return fmt.Errorf("%w: index %d (%v) <= index %d (%v)", ErrInvalidCutPoints, i, c[i], i-1, c[i-1])
		}
	}
	return nil
}

func (c CutPointSet) Clone() CutPointSet {
	if c == nil {
		return nil
	}
	out := make(CutPointSet, len(c))
	copy(out, c)
	return out
}

func (c CutPointSet) BinCount() int {
	if len(c) < 2 {
		return 0
	}
	return len(c) - 1
}

func (c CutPointSet) Min() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[0]
}

func (c CutPointSet) Max() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1]
}

type Bin struct {
	LowerBound     float64 `json:"lower_bound"`
	UpperBound     float64 `json:"upper_bound"`
	BadRate        float64 `json:"bad_rate"`
	SampleRate     float64 `json:"sample_rate"`
	GoodCount      int     `json:"good_count"`
	BadCount       int     `json:"bad_count"`
	WOE            float64 `json:"woe"`
	IVContribution float64 `json:"iv_contribution"`
}

// BinSet is the output of one recompute pass.
type BinSet struct {
	Feature string  `json:"feature"`
	Bins    []Bin   `json:"bins"`
	TotalIV float64 `json:"total_iv"`
}

// BadRateFormula is the linear base bad rate of a feature: intercept + slope*midpoint.
type BadRateFormula struct {
	Intercept float64 `yaml:"intercept" json:"intercept"`
	Slope     float64 `yaml:"slope" json:"slope"`
}

type FeatureProfile struct {
	Name             string         `yaml:"name" json:"name"`
	Label            string         `yaml:"label" json:"label"`
	DefaultCutPoints CutPointSet    `yaml:"default_cut_points" json:"default_cut_points"`
	BadRate          BadRateFormula `yaml:"bad_rate" json:"bad_rate"`
}

const (
	StrengthNone   = "no predictive power"
	StrengthWeak   = "weak"
	StrengthMedium = "medium"
	StrengthStrong = "strong"
)

type BinSummary struct {
	TotalIV         float64 `json:"total_iv"`
	Strength        string  `json:"strength"`
	WeightedBadRate float64 `json:"weighted_bad_rate"`
	BinCount        int     `json:"bin_count"`
	Monotonic       bool    `json:"monotonic"`
}

type BinTableRow struct {
	Range          string  `json:"range"`
	SampleShare    float64 `json:"sample_share"`
	BadRate        float64 `json:"bad_rate"`
	WOE            float64 `json:"woe"`
	WOESign        string  `json:"woe_sign"`
	IVContribution float64 `json:"iv_contribution"`
}
