package binning

import (
	_ "embed"
	"fmt"

	"strategyWorkbench/domain"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var defaultPresetsYAML []byte

// fallbackBadRate is the base used for features missing from the catalogue.
const fallbackBadRate = 0.10

type presetFile struct {
	Features []domain.FeatureProfile `yaml:"features"`
}

// Catalogue is the read-only table of feature presets.
type Catalogue struct {
	order    []string
	profiles map[string]domain.FeatureProfile
}

func DefaultCatalogue() (*Catalogue, error) {
	return ParseCatalogue(defaultPresetsYAML)
}

func ParseCatalogue(data []byte) (*Catalogue, error) {
	var file presetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse feature presets: %w", err)
	}

	c := &Catalogue{profiles: make(map[string]domain.FeatureProfile, len(file.Features))}
	for _, p := range file.Features {
		if p.Name == "" {
			return nil, fmt.Errorf("feature preset without name")
		}
		if _, dup := c.profiles[p.Name]; dup {
			return nil, fmt.Errorf("duplicate feature preset %q", p.Name)
		}
		if err := p.DefaultCutPoints.Validate(); err != nil {
			return nil, fmt.Errorf("feature preset %q: %w", p.Name, err)
		}
		c.order = append(c.order, p.Name)
		c.profiles[p.Name] = p
	}

	return c, nil
}

func (c *Catalogue) Lookup(name string) (domain.FeatureProfile, bool) {
	p, ok := c.profiles[name]
	if !ok {
		return domain.FeatureProfile{}, false
	}
	p.DefaultCutPoints = p.DefaultCutPoints.Clone()
	return p, true
}

// List returns the presets in catalogue order.
func (c *Catalogue) List() []domain.FeatureProfile {
	out := make([]domain.FeatureProfile, 0, len(c.order))
	for _, name := range c.order {
		p, _ := c.Lookup(name)
		out = append(out, p)
	}
	return out
}

// baseBadRate falls back to a flat 10% when the feature is unknown.
func (c *Catalogue) baseBadRate(feature string, mid float64) float64 {
	p, ok := c.profiles[feature]
	if !ok {
		return fallbackBadRate
	}
	return p.BadRate.Intercept + p.BadRate.Slope*mid
}
