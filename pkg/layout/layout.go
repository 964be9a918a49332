// Package layout turns sectors and strengths into the drawable primitives of
// one radar frame. Compute is a pure function: identical inputs always give
// identical, identically ordered output.
package layout

import (
	"fmt"
	"image/color"

	"github.com/vanderheijden86/wellradar/pkg/model"
)

// SectorGeometry summarizes where a sector sits and how it is filled.
type SectorGeometry struct {
	Index     int        `json:"index"`
	BaseAngle float64    `json:"base_angle"`
	Span      float64    `json:"span"`
	Bisector  float64    `json:"bisector"`
	Strength  int        `json:"strength"`
	Active    int        `json:"active_bars"`
	Color     color.RGBA `json:"-"`
}

// Frame is the engine output for one render.
type Frame struct {
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	Primitives []Primitive      `json:"-"`
	Sectors    []SectorGeometry `json:"sectors"`
	Aggregate  *Aggregate       `json:"aggregate,omitempty"`
}

// Arcs returns the arc primitives in frame order.
func (f Frame) Arcs() []Arc {
	var arcs []Arc
	for _, p := range f.Primitives {
		if a, ok := p.(Arc); ok {
			arcs = append(arcs, a)
		}
	}
	return arcs
}

// Center returns the center marker, if the frame has one.
func (f Frame) Center() (CenterMarker, bool) {
	for _, p := range f.Primitives {
		if c, ok := p.(CenterMarker); ok {
			return c, true
		}
	}
	return CenterMarker{}, false
}

// Compute lays out the radar. Strengths are read by index against sectors;
// missing entries count as 0 and out-of-range values are clamped. With no
// sectors the frame holds only the center marker.
func Compute(sectors []model.Sector, strengths []int, cfg Config) Frame {
	n := len(sectors)
	frame := Frame{
		Width:  cfg.Size,
		Height: cfg.Size,
	}

	var agg *Aggregate
	if n > 0 && cfg.ShowAggregate {
		a := ComputeAggregate(model.AlignStrengths(strengths, n, cfg.MaxStrength), cfg.MaxStrength)
		agg = &a
	}
	frame.Aggregate = agg
	frame.Primitives = append(frame.Primitives, centerMarker(cfg, agg))
	if n == 0 {
		return frame
	}

	span := SectorSpan(n)
	frame.Sectors = make([]SectorGeometry, n)
	for i := range sectors {
		strength := model.ClampStrength(valueAt(strengths, i), cfg.MaxStrength)
		base := cfg.ReferenceAngle + float64(i)*span
		sectorColor := cfg.SectorColor(strength)
		frame.Sectors[i] = SectorGeometry{
			Index:     i,
			BaseAngle: base,
			Span:      span,
			Bisector:  base + span/2,
			Strength:  strength,
			Active:    strength,
			Color:     sectorColor,
		}

		for k := 0; k < cfg.MaxStrength; k++ {
			r := cfg.BarRadius(k)
			start, end := barSpan(base, span, EffectiveGap(r, cfg.BaseVisualGap, cfg.MinPerimeterGap))
			active := k+1 <= strength
			c := cfg.InactiveColor
			if active {
				c = sectorColor
			}
			frame.Primitives = append(frame.Primitives, Arc{
				Sector:     i,
				Level:      k + 1,
				Center:     Point{X: cfg.CenterX, Y: cfg.CenterY},
				Radius:     r,
				StartAngle: start,
				EndAngle:   end,
				Color:      c,
				Thickness:  cfg.BarThickness,
				Active:     active,
			})
		}
	}

	iconR := cfg.IconRadius()
	labelR := cfg.LabelRadius()
	for i, s := range sectors {
		bisector := frame.Sectors[i].Bisector
		frame.Primitives = append(frame.Primitives, IconMarker{
			Sector:   i,
			Position: PolarToCartesian(cfg.CenterX, cfg.CenterY, iconR, bisector),
			Icon:     s.Icon,
			Title:    s.Name,
			Size:     cfg.IconSize,
		})
		pos := PolarToCartesian(cfg.CenterX, cfg.CenterY, labelR, bisector)
		pos.Y -= cfg.LabelLift
		frame.Primitives = append(frame.Primitives, Label{
			Sector:   i,
			Position: pos,
			Text:     s.Name,
			FontSize: cfg.FontSize,
			Color:    cfg.LabelColor,
		})
	}

	return frame
}

// barSpan centers the drawn part of a bar inside its sector. When the gap
// swallows the whole span the bar collapses to the bisector.
func barSpan(base, span, gap float64) (float64, float64) {
	if gap >= span {
		mid := base + span/2
		return mid, mid
	}
	return base + gap/2, base + span - gap/2
}

func centerMarker(cfg Config, agg *Aggregate) CenterMarker {
	m := CenterMarker{
		Position: Point{X: cfg.CenterX, Y: cfg.CenterY},
		Radius:   cfg.CenterRadius,
		Color:    cfg.CenterColor,
	}
	if agg != nil {
		m.Radius = cfg.AggregateRadius
		m.Color = agg.Color
		m.Text = fmt.Sprintf("%d%%", agg.Percent)
		m.TextColor = cfg.ReadoutColor
		m.FontSize = cfg.FontSize
	}
	return m
}

func valueAt(values []int, i int) int {
	if i < 0 || i >= len(values) {
		return 0
	}
	return values[i]
}
