package binning

import (
	"math"
	"sync"
	"testing"

	"strategyWorkbench/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalogue(t *testing.T) *Catalogue {
	t.Helper()
	c, err := DefaultCatalogue()
	require.NoError(t, err)
	return c
}

func TestCompute_BinCountAndBounds(t *testing.T) {
	calc := NewCalculator(newTestCatalogue(t), NewRandomSource(7), DefaultCalculatorConfig())

	tests := []struct {
		name    string
		feature string
		cuts    domain.CutPointSet
	}{
		{name: "age preset", feature: "age", cuts: domain.CutPointSet{18, 25, 30, 35, 40, 50, 70}},
		{name: "income preset", feature: "income", cuts: domain.CutPointSet{0, 3000, 5000, 8000, 12000, 20000, 50000}},
		{name: "single bin", feature: "tenure", cuts: domain.CutPointSet{0, 120}},
		{name: "unknown feature", feature: "zodiac", cuts: domain.CutPointSet{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := calc.Compute(tt.feature, tt.cuts)
			require.NoError(t, err)
			require.Len(t, set.Bins, len(tt.cuts)-1)

			for i, b := range set.Bins {
				assert.Equal(t, tt.cuts[i], b.LowerBound)
				assert.Equal(t, tt.cuts[i+1], b.UpperBound)
				assert.Less(t, b.LowerBound, b.UpperBound)
			}
		})
	}
}

func TestCompute_AgePresetYieldsSixBins(t *testing.T) {
	calc := NewCalculator(newTestCatalogue(t), FixedSource(0.5), DefaultCalculatorConfig())

	set, err := calc.Compute("age", domain.CutPointSet{18, 25, 30, 35, 40, 50, 70})
	require.NoError(t, err)
	assert.Len(t, set.Bins, 6)
	assert.Equal(t, "age", set.Feature)
}

func TestCompute_ClampInvariants(t *testing.T) {
	calc := NewCalculator(newTestCatalogue(t), NewRandomSource(99), CalculatorConfig{
		Population:      DefaultPopulation,
		JitterAmplitude: 0.5,
	})

	cuts := domain.CutPointSet{0, 5000, 10000, 20000, 50000, 100000, 200000, 1000000}
	for round := 0; round < 50; round++ {
		for _, feature := range []string{"age", "income", "tenure", "loan_amount", "unknown"} {
			set, err := calc.Compute(feature, cuts)
			require.NoError(t, err)
			for _, b := range set.Bins {
				assert.GreaterOrEqual(t, b.BadRate, 0.02)
				assert.LessOrEqual(t, b.BadRate, 0.20)
				assert.GreaterOrEqual(t, b.SampleRate, 0.05)
			}
		}
	}
}

func TestCompute_TotalIVIsSumOfContributions(t *testing.T) {
	calc := NewCalculator(newTestCatalogue(t), NewRandomSource(3), DefaultCalculatorConfig())

	set, err := calc.Compute("age", domain.CutPointSet{18, 25, 30, 35, 40, 50, 70})
	require.NoError(t, err)

	sum := 0.0
	for _, b := range set.Bins {
		sum += b.IVContribution
	}
	assert.InDelta(t, set.TotalIV, sum, 1e-12)
	assert.Greater(t, set.TotalIV, 0.0)
}

func TestCompute_WOEFormula(t *testing.T) {
	calc := NewCalculator(newTestCatalogue(t), FixedSource(0.5), DefaultCalculatorConfig())

	set, err := calc.Compute("age", domain.CutPointSet{18, 25, 30, 35, 40, 50, 70})
	require.NoError(t, err)

	var totalGood, totalBad float64
	for _, b := range set.Bins {
		totalGood += float64(b.GoodCount)
		totalBad += float64(b.BadCount)
	}

	for _, b := range set.Bins {
		good, bad := float64(b.GoodCount), float64(b.BadCount)
		wantWOE := math.Log((good / bad) / (totalGood / totalBad))
		wantIV := (good/totalGood - bad/totalBad) * wantWOE
		assert.InDelta(t, wantWOE, b.WOE, 1e-12)
		assert.InDelta(t, wantIV, b.IVContribution, 1e-12)
		assert.Equal(t, int(math.Round(b.SampleRate*DefaultPopulation)), b.GoodCount+b.BadCount)
	}
}

func TestCompute_FrozenSourceIsDeterministic(t *testing.T) {
	calc := NewCalculator(newTestCatalogue(t), FixedSource(0.5), DefaultCalculatorConfig())
	cuts := domain.CutPointSet{18, 25, 30, 35, 40, 50, 70}

	a, err := calc.Compute("age", cuts)
	require.NoError(t, err)
	b, err := calc.Compute("age", cuts)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	// zero jitter: first bin sits on the formula, 0.18 - 0.002*21.5
	assert.InDelta(t, 0.137, a.Bins[0].BadRate, 1e-12)
}

func TestCompute_JitterMakesRecomputeNonIdempotent(t *testing.T) {
	src := &sequenceSource{Values: []float64{0.0, 1.0}}
	calc := NewCalculator(newTestCatalogue(t), src, DefaultCalculatorConfig())
	cuts := domain.CutPointSet{18, 25}

	a, err := calc.Compute("age", cuts)
	require.NoError(t, err)
	b, err := calc.Compute("age", cuts)
	require.NoError(t, err)

	assert.InDelta(t, 0.127, a.Bins[0].BadRate, 1e-12)
	assert.InDelta(t, 0.147, b.Bins[0].BadRate, 1e-12)
}

func TestCompute_UnknownFeatureFallsBackToTenPercent(t *testing.T) {
	calc := NewCalculator(newTestCatalogue(t), FixedSource(0.5), DefaultCalculatorConfig())

	set, err := calc.Compute("shoe_size", domain.CutPointSet{30, 40, 50})
	require.NoError(t, err)
	for _, b := range set.Bins {
		assert.InDelta(t, 0.10, b.BadRate, 1e-12)
	}
}

func TestCompute_SampleRateShape(t *testing.T) {
	calc := NewCalculator(newTestCatalogue(t), FixedSource(0.5), DefaultCalculatorConfig())

	set, err := calc.Compute("tenure", domain.CutPointSet{0, 10, 45, 55, 90, 100})
	require.NoError(t, err)

	// the middle bin is centred on the range midpoint
	assert.InDelta(t, 0.30, set.Bins[2].SampleRate, 1e-12)
	assert.Less(t, set.Bins[0].SampleRate, set.Bins[1].SampleRate)
	assert.Less(t, set.Bins[4].SampleRate, set.Bins[3].SampleRate)
	assert.InDelta(t, set.Bins[0].SampleRate, set.Bins[4].SampleRate, 1e-12)
}

func TestCompute_InvalidCutPoints(t *testing.T) {
	calc := NewCalculator(newTestCatalogue(t), FixedSource(0.5), DefaultCalculatorConfig())

	tests := []struct {
		name string
		cuts domain.CutPointSet
	}{
		{name: "empty", cuts: nil},
		{name: "single", cuts: domain.CutPointSet{1}},
		{name: "equal neighbours", cuts: domain.CutPointSet{1, 2, 2, 3}},
		{name: "descending", cuts: domain.CutPointSet{5, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Compute("age", tt.cuts)
			assert.ErrorIs(t, err, domain.ErrInvalidCutPoints)
		})
	}
}

func TestApplyWOE_ZeroCountsUseEpsilon(t *testing.T) {
	bins := []domain.Bin{
		{GoodCount: 100, BadCount: 0},
		{GoodCount: 0, BadCount: 50},
		{GoodCount: 200, BadCount: 20},
	}

	total := applyWOE(bins)

	for _, b := range bins {
		assert.False(t, math.IsNaN(b.WOE))
		assert.False(t, math.IsInf(b.WOE, 0))
	}
	assert.Greater(t, bins[0].WOE, 0.0)
	assert.Less(t, bins[1].WOE, 0.0)
	assert.False(t, math.IsNaN(total))
}

func TestParseCatalogue(t *testing.T) {
	c := newTestCatalogue(t)

	names := make([]string, 0)
	for _, p := range c.List() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"age", "income", "tenure", "loan_amount"}, names)

	age, ok := c.Lookup("age")
	require.True(t, ok)
	assert.Equal(t, domain.CutPointSet{18, 25, 30, 35, 40, 50, 70}, age.DefaultCutPoints)

	// Lookup hands out copies
	age.DefaultCutPoints[0] = -1
	again, _ := c.Lookup("age")
	assert.Equal(t, 18.0, again.DefaultCutPoints[0])

	_, err := ParseCatalogue([]byte("features:\n  - name: bad\n    default_cut_points: [3, 1]\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidCutPoints)

	_, err = ParseCatalogue([]byte("features:\n  - name: a\n    default_cut_points: [1, 2]\n  - name: a\n    default_cut_points: [1, 2]\n"))
	assert.Error(t, err)
}

// sequenceSource replays values in order and wraps around.
type sequenceSource struct {
	mu     sync.Mutex
	Values []float64
	next   int
}

func (s *sequenceSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Values) == 0 {
		return 0.5
	}
	v := s.Values[s.next%len(s.Values)]
	s.next++
	return v
}
