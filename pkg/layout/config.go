package layout

import (
	"fmt"
	"image/color"
)

// Config holds every layout constant. It is passed by value into Compute so
// callers and tests can swap in alternate geometry or palettes.
type Config struct {
	Size    float64 // logical canvas edge length (square)
	CenterX float64
	CenterY float64

	CenterRadius    float64 // center marker without a readout
	AggregateRadius float64 // center marker when the aggregate is shown
	InnerRadius     float64 // radius of the first bar
	BarThickness    float64
	BarGap          float64

	BaseVisualGap   float64 // minimum angular gap between sectors, degrees
	MinPerimeterGap float64 // target linear gap between sectors, canvas units
	ReferenceAngle  float64 // angle where sector 0 begins, degrees

	MaxStrength int

	Palette       []color.RGBA // low strength → high strength
	InactiveColor color.RGBA
	CenterColor   color.RGBA
	LabelColor    color.RGBA
	ReadoutColor  color.RGBA

	IconSize    float64
	IconMargin  float64 // space between outermost bar and icon box
	LabelOffset float64 // label radius beyond the icon radius
	LabelLift   float64 // labels sit this far above their anchor
	FontSize    float64

	ShowAggregate bool
}

// DefaultPalette is the red → dark green ramp used for active bars.
var DefaultPalette = []color.RGBA{
	{0xFF, 0x00, 0x00, 0xFF},
	{0xFF, 0x40, 0x00, 0xFF},
	{0xFF, 0x80, 0x00, 0xFF},
	{0xFF, 0xBF, 0x00, 0xFF},
	{0xBF, 0xFF, 0x00, 0xFF},
	{0x80, 0xFF, 0x00, 0xFF},
	{0x40, 0xFF, 0x00, 0xFF},
	{0x20, 0xC0, 0x00, 0xFF},
	{0x00, 0x64, 0x00, 0xFF},
}

// DefaultConfig returns the stock 200×200 radar geometry.
func DefaultConfig() Config {
	return Config{
		Size:            200,
		CenterX:         100,
		CenterY:         100,
		CenterRadius:    6,
		AggregateRadius: 10,
		InnerRadius:     14,
		BarThickness:    4,
		BarGap:          4,
		BaseVisualGap:   6,
		MinPerimeterGap: 8,
		ReferenceAngle:  -90,
		MaxStrength:     9,
		Palette:         append([]color.RGBA(nil), DefaultPalette...),
		InactiveColor:   color.RGBA{0xE0, 0xE0, 0xE0, 0xFF},
		CenterColor:     color.RGBA{0xB0, 0xB0, 0xB0, 0xFF},
		LabelColor:      color.RGBA{0x33, 0x33, 0x33, 0xFF},
		ReadoutColor:    color.RGBA{0xFF, 0xFF, 0xFF, 0xFF},
		IconSize:        12,
		IconMargin:      6,
		LabelOffset:     12,
		LabelLift:       4,
		FontSize:        6,
		ShowAggregate:   true,
	}
}

// Validate reports configuration values the engine cannot work with.
func (c Config) Validate() error {
	switch {
	case c.Size <= 0:
		return fmt.Errorf("layout: size must be positive, got %v", c.Size)
	case c.InnerRadius <= 0:
		return fmt.Errorf("layout: inner radius must be positive, got %v", c.InnerRadius)
	case c.BarThickness <= 0:
		return fmt.Errorf("layout: bar thickness must be positive, got %v", c.BarThickness)
	case c.BarGap < 0:
		return fmt.Errorf("layout: bar gap must not be negative, got %v", c.BarGap)
	case c.MaxStrength < 1:
		return fmt.Errorf("layout: max strength must be at least 1, got %d", c.MaxStrength)
	case len(c.Palette) == 0:
		return fmt.Errorf("layout: palette is empty")
	}
	return nil
}

// BarPitch is the radial distance between consecutive bars.
func (c Config) BarPitch() float64 {
	return c.BarThickness + c.BarGap
}

// BarRadius returns the radius of the bar at zero-based index k.
func (c Config) BarRadius(k int) float64 {
	return c.InnerRadius + float64(k)*c.BarPitch()
}

// OutermostBarRadius is the radius of the last possible bar, independent of data.
func (c Config) OutermostBarRadius() float64 {
	return c.BarRadius(c.MaxStrength - 1)
}

// IconRadius is where icon centers sit.
func (c Config) IconRadius() float64 {
	return c.OutermostBarRadius() + c.IconSize/2 + c.IconMargin
}

// LabelRadius is where label anchors sit before the lift is applied.
func (c Config) LabelRadius() float64 {
	return c.IconRadius() + c.LabelOffset
}
