// Package model holds the radar's editable state: the title, the ordered
// sectors and the strength vector aligned with them.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxStrength is the number of strength levels (bars) per sector.
const DefaultMaxStrength = 9

// DefaultStrength is the value every sector starts with.
const DefaultStrength = 5

// DefaultTitle is shown above a freshly created radar.
const DefaultTitle = "Wellness Radar"

// ErrIndexOutOfRange is returned when a sector index does not exist.
var ErrIndexOutOfRange = errors.New("sector index out of range")

// Sector is one labeled wedge of the radar. Sectors are addressed by
// position; Name is display text only.
type Sector struct {
	Name string  `yaml:"name" json:"name"`
	Icon IconRef `yaml:"icon" json:"icon"`
}

// Radar is the full editable state. len(Strengths) == len(Sectors) holds
// after every mutation made through the methods below.
type Radar struct {
	Title       string   `yaml:"title" json:"title"`
	Sectors     []Sector `yaml:"sectors" json:"sectors"`
	Strengths   []int    `yaml:"strengths" json:"strengths"`
	MaxStrength int      `yaml:"max_strength,omitempty" json:"max_strength"`
}

// DefaultSectors returns the six stock sectors with their bundled icons.
func DefaultSectors() []Sector {
	return []Sector{
		{Name: "Bewegung", Icon: "korperundbewegung.svg"},
		{Name: "Ernährung & Genuss", Icon: "ErnahrungundGenuss.svg"},
		{Name: "Stress & Erholung", Icon: "StressundErholung.svg"},
		{Name: "Geist & Emotion", Icon: "GeistundEmotionen.svg"},
		{Name: "Lebenssinn & -qualität", Icon: "Lebenssinnundqualitat.svg"},
		{Name: "Umwelt & Soziales", Icon: "UmweltundSoziales.svg"},
	}
}

// DefaultRadar returns the radar shown on first start.
func DefaultRadar() Radar {
	sectors := DefaultSectors()
	strengths := make([]int, len(sectors))
	for i := range strengths {
		strengths[i] = DefaultStrength
	}
	return Radar{
		Title:       DefaultTitle,
		Sectors:     sectors,
		Strengths:   strengths,
		MaxStrength: DefaultMaxStrength,
	}
}

// Max returns the configured maximum strength, falling back to the default.
func (r *Radar) Max() int {
	if r.MaxStrength < 1 {
		return DefaultMaxStrength
	}
	return r.MaxStrength
}

// Clamp limits v to [0, Max()].
func (r *Radar) Clamp(v int) int {
	return ClampStrength(v, r.Max())
}

// ClampStrength limits v to [0, max].
func ClampStrength(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// StrengthAt returns the strength of sector i. Missing entries read as 0.
func (r *Radar) StrengthAt(i int) int {
	if i < 0 || i >= len(r.Strengths) {
		return 0
	}
	return r.Strengths[i]
}

// Normalize restores the length invariant and clamps every value. It is
// used after decoding a radar from an external document.
func (r *Radar) Normalize() {
	r.Strengths = AlignStrengths(r.Strengths, len(r.Sectors), r.Max())
	if strings.TrimSpace(r.Title) == "" {
		r.Title = DefaultTitle
	}
}

// AlignStrengths returns a copy of strengths with exactly n entries, each
// clamped to [0, max]. Missing entries become 0, extra entries are dropped.
func AlignStrengths(strengths []int, n, max int) []int {
	out := make([]int, n)
	for i := 0; i < n && i < len(strengths); i++ {
		out[i] = ClampStrength(strengths[i], max)
	}
	return out
}

// SetTitle replaces the radar title.
func (r *Radar) SetTitle(title string) {
	r.Title = title
}

// ReplaceAll swaps in a new sector list and strength vector.
func (r *Radar) ReplaceAll(sectors []Sector, strengths []int) {
	r.Sectors = append([]Sector(nil), sectors...)
	r.Strengths = AlignStrengths(strengths, len(sectors), r.Max())
}

// RenameSector sets the display name of sector i.
func (r *Radar) RenameSector(i int, name string) error {
	if err := r.CheckIndex(i); err != nil {
		return err
	}
	r.Sectors[i].Name = name
	return nil
}

// SetIcon assigns an asset reference or inline image payload to sector i.
func (r *Radar) SetIcon(i int, icon IconRef) error {
	if err := r.CheckIndex(i); err != nil {
		return err
	}
	r.Sectors[i].Icon = icon
	return nil
}

// SetStrength sets sector i to v, clamped to [0, Max()].
func (r *Radar) SetStrength(i, v int) error {
	if err := r.CheckIndex(i); err != nil {
		return err
	}
	if len(r.Strengths) != len(r.Sectors) {
		r.Strengths = AlignStrengths(r.Strengths, len(r.Sectors), r.Max())
	}
	r.Strengths[i] = r.Clamp(v)
	return nil
}

// Clone returns a deep copy that shares no slices with r.
func (r Radar) Clone() Radar {
	c := r
	c.Sectors = append([]Sector(nil), r.Sectors...)
	c.Strengths = append([]int(nil), r.Strengths...)
	return c
}

// CheckIndex returns a wrapped ErrIndexOutOfRange when sector i does not exist.
func (r *Radar) CheckIndex(i int) error {
	if i < 0 || i >= len(r.Sectors) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(r.Sectors))
	}
	return nil
}
