// Package testutil provides radar fixture generators and assertions.
// All generators produce deterministic output for reproducible tests.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/wellradar/pkg/model"
)

// GeneratorConfig controls radar generation.
type GeneratorConfig struct {
	Seed        int64           // Random seed for determinism (0 = use current time)
	MaxStrength int             // Strength levels per sector (default: model.DefaultMaxStrength)
	NamePrefix  string          // Prefix for generated sector names (default: "Sector")
	Icons       []model.IconRef // Icon pool cycled over sectors (nil = no icons)
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed:        42,
		MaxStrength: model.DefaultMaxStrength,
		NamePrefix:  "Sector",
	}
}

// Generator creates radar fixtures.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.MaxStrength < 1 {
		cfg.MaxStrength = model.DefaultMaxStrength
	}
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = "Sector"
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// Sectors returns n named sectors, cycling through the icon pool.
func (g *Generator) Sectors(n int) []model.Sector {
	sectors := make([]model.Sector, n)
	for i := range sectors {
		sectors[i].Name = fmt.Sprintf("%s %d", g.cfg.NamePrefix, i+1)
		if len(g.cfg.Icons) > 0 {
			sectors[i].Icon = g.cfg.Icons[i%len(g.cfg.Icons)]
		}
	}
	return sectors
}

func (g *Generator) radar(n int, strengths []int) model.Radar {
	return model.Radar{
		Title:       fmt.Sprintf("Fixture %d", n),
		Sectors:     g.Sectors(n),
		Strengths:   strengths,
		MaxStrength: g.cfg.MaxStrength,
	}
}

// Uniform gives every sector the same strength v, clamped.
func (g *Generator) Uniform(n, v int) model.Radar {
	v = model.ClampStrength(v, g.cfg.MaxStrength)
	strengths := make([]int, n)
	for i := range strengths {
		strengths[i] = v
	}
	return g.radar(n, strengths)
}

// Ramp sets sector i to i mod (max+1), so consecutive sectors walk the
// whole range from empty to full.
func (g *Generator) Ramp(n int) model.Radar {
	strengths := make([]int, n)
	for i := range strengths {
		strengths[i] = i % (g.cfg.MaxStrength + 1)
	}
	return g.radar(n, strengths)
}

// Random draws every strength uniformly from [0, max].
func (g *Generator) Random(n int) model.Radar {
	strengths := make([]int, n)
	for i := range strengths {
		strengths[i] = g.rng.Intn(g.cfg.MaxStrength + 1)
	}
	return g.radar(n, strengths)
}

// Unaligned returns a radar whose strength vector breaks the length
// invariant: it is shorter than the sector list when short is true and
// longer otherwise, with some values out of range. It is what a hand
// edited radar file can look like before normalization.
func (g *Generator) Unaligned(n int, short bool) model.Radar {
	m := n + 2
	if short {
		m = max(0, n-2)
	}
	strengths := make([]int, m)
	for i := range strengths {
		strengths[i] = g.rng.Intn(g.cfg.MaxStrength+5) - 2
	}
	return g.radar(n, strengths)
}

// ToYAML serializes a radar as a radar file document.
func ToYAML(r model.Radar) string {
	data, err := yaml.Marshal(r)
	if err != nil {
		return ""
	}
	return string(data)
}

// ============================================================================
// Convenience Functions
// ============================================================================

// QuickUniform generates n sectors at strength v with default config.
func QuickUniform(n, v int) model.Radar {
	return NewDefault().Uniform(n, v)
}

// QuickRamp generates a ramp radar with default config.
func QuickRamp(n int) model.Radar {
	return NewDefault().Ramp(n)
}

// QuickRandom generates a random radar with default config.
func QuickRandom(n int) model.Radar {
	return NewDefault().Random(n)
}

// Empty returns a radar with no sectors.
func Empty() model.Radar {
	return model.Radar{Title: model.DefaultTitle, MaxStrength: model.DefaultMaxStrength}
}

// Single returns a one-sector radar at full strength.
func Single() model.Radar {
	return NewDefault().Uniform(1, model.DefaultMaxStrength)
}
