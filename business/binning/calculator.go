package binning

import (
	"math"

	"strategyWorkbench/domain"
)

const (
	minBadRate        = 0.02
	maxBadRate        = 0.20
	minSampleRate     = 0.05
	peakSampleRate    = 0.30
	sampleRateFalloff = 0.25
	woeEpsilon        = 0.0001

	DefaultPopulation      = 10000
	DefaultJitterAmplitude = 0.01
)

type CalculatorConfig struct {
	Population      int
	JitterAmplitude float64
}

func DefaultCalculatorConfig() CalculatorConfig {
	return CalculatorConfig{
		Population:      DefaultPopulation,
		JitterAmplitude: DefaultJitterAmplitude,
	}
}

// Calculator derives bin statistics from cut points. The figures are
// synthetic: bad rates come from a per-feature linear formula plus jitter,
// sample rates from a tent around the middle of the range.
type Calculator struct {
	catalogue *Catalogue
	rng       RandomSource
	cfg       CalculatorConfig
}

func NewCalculator(catalogue *Catalogue, rng RandomSource, cfg CalculatorConfig) *Calculator {
	if rng == nil {
		rng = FixedSource(0.5)
	}
	if cfg.Population <= 0 {
		cfg.Population = DefaultPopulation
	}
	if cfg.JitterAmplitude < 0 {
		cfg.JitterAmplitude = 0
	}
	return &Calculator{
		catalogue: catalogue,
		rng:       rng,
		cfg:       cfg,
	}
}

// Compute builds exactly len(cuts)-1 bins. Repeated calls with the same cut
// points differ unless the random source is frozen.
func (c *Calculator) Compute(feature string, cuts domain.CutPointSet) (domain.BinSet, error) {
	if err := cuts.Validate(); err != nil {
		return domain.BinSet{}, err
	}
	return c.compute(feature, cuts), nil
}

// compute tolerates degenerate (zero-width or inverted) bins, which the
// permissive drag mode can produce.
func (c *Calculator) compute(feature string, cuts domain.CutPointSet) domain.BinSet {
	n := cuts.BinCount()
	bins := make([]domain.Bin, 0, n)

	rangeMin, rangeMax := cuts.Min(), cuts.Max()
	rangeMid := (rangeMin + rangeMax) / 2
	halfWidth := (rangeMax - rangeMin) / 2

	for i := 0; i < n; i++ {
		low, high := cuts[i], cuts[i+1]
		mid := (low + high) / 2

		badRate := c.badRate(feature, mid)
		sampleRate := sampleRateAt(mid, rangeMid, halfWidth)

		count := int(math.Round(sampleRate * float64(c.cfg.Population)))
		bad := int(math.Round(float64(count) * badRate))

		bins = append(bins, domain.Bin{
			LowerBound: low,
			UpperBound: high,
			BadRate:    badRate,
			SampleRate: sampleRate,
			GoodCount:  count - bad,
			BadCount:   bad,
		})
	}

	totalIV := applyWOE(bins)

	return domain.BinSet{
		Feature: feature,
		Bins:    bins,
		TotalIV: totalIV,
	}
}

func (c *Calculator) badRate(feature string, mid float64) float64 {
	base := fallbackBadRate
	if c.catalogue != nil {
		base = c.catalogue.baseBadRate(feature, mid)
	}
	jitter := (c.rng.Float64()*2 - 1) * c.cfg.JitterAmplitude
	return clamp(base+jitter, minBadRate, maxBadRate)
}

func sampleRateAt(mid, rangeMid, halfWidth float64) float64 {
	if halfWidth <= 0 {
		return peakSampleRate
	}
	d := math.Abs(mid-rangeMid) / halfWidth
	return math.Max(minSampleRate, peakSampleRate-sampleRateFalloff*d)
}

// applyWOE fills WOE and IV contribution in place and returns the total IV.
func applyWOE(bins []domain.Bin) float64 {
	var totalGood, totalBad float64
	for _, b := range bins {
		totalGood += float64(b.GoodCount)
		totalBad += float64(b.BadCount)
	}

	totalGoodD := nonZero(totalGood)
	totalBadD := nonZero(totalBad)
	overallOdds := totalGoodD / totalBadD

	totalIV := 0.0
	for i := range bins {
		good := float64(bins[i].GoodCount)
		bad := float64(bins[i].BadCount)

		odds := nonZero(good) / nonZero(bad)
		woe := math.Log(odds / overallOdds)
		iv := (good/totalGoodD - bad/totalBadD) * woe

		bins[i].WOE = woe
		bins[i].IVContribution = iv
		totalIV += iv
	}

	return totalIV
}

func nonZero(v float64) float64 {
	if v == 0 {
		return woeEpsilon
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
