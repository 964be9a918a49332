package layout

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorFor returns the palette entry for a zero-based bar index, clamped to
// the palette bounds.
func (c Config) ColorFor(barIndex int) color.RGBA {
	if len(c.Palette) == 0 {
		return c.InactiveColor
	}
	if barIndex < 0 {
		barIndex = 0
	}
	if barIndex > len(c.Palette)-1 {
		barIndex = len(c.Palette) - 1
	}
	return c.Palette[barIndex]
}

// SectorColor is the color of the outermost active bar for a strength.
func (c Config) SectorColor(strength int) color.RGBA {
	return c.ColorFor(strength - 1)
}

// AggregateColor maps a 0..100 percentage onto a linear red → green ramp.
func AggregateColor(percent int) color.RGBA {
	p := math.Max(0, math.Min(100, float64(percent)))
	return color.RGBA{
		R: uint8(math.Round(255 - 2.55*p)),
		G: uint8(math.Round(2.55 * p)),
		B: 0,
		A: 0xFF,
	}
}

// Hex renders a color as #rrggbb.
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses #rgb or #rrggbb into an opaque color.
func ParseHex(s string) (color.RGBA, error) {
	if len(s) == 4 && s[0] == '#' {
		s = string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}, nil
}

// ParsePalette parses a list of hex colors.
func ParsePalette(hexes []string) ([]color.RGBA, error) {
	out := make([]color.RGBA, 0, len(hexes))
	for _, h := range hexes {
		c, err := ParseHex(h)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
