package layout

import (
	"math"
	"strconv"
	"strings"
	"testing"
)

const eps = 1e-9

func TestPolarToCartesian_Cardinals(t *testing.T) {
	cases := []struct {
		angle float64
		want  Point
	}{
		{0, Point{100, 90}},    // up
		{90, Point{110, 100}},  // right
		{180, Point{100, 110}}, // down
		{270, Point{90, 100}},  // left
		{-90, Point{90, 100}},  // left again
	}
	for _, tc := range cases {
		got := PolarToCartesian(100, 100, 10, tc.angle)
		if math.Abs(got.X-tc.want.X) > eps || math.Abs(got.Y-tc.want.Y) > eps {
			t.Errorf("PolarToCartesian(%v) = %+v, want %+v", tc.angle, got, tc.want)
		}
	}
}

func TestDescribeArc_EndpointsMatchPolar(t *testing.T) {
	cx, cy, r := 100.0, 100.0, 38.0
	start, end := 12.5, 71.25
	d := DescribeArc(cx, cy, r, start, end)

	fields := strings.Fields(d)
	if len(fields) != 11 || fields[0] != "M" || fields[3] != "A" {
		t.Fatalf("unexpected path layout: %q", d)
	}
	parse := func(s string) float64 {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return v
	}

	wantStart := PolarToCartesian(cx, cy, r, end)
	wantEnd := PolarToCartesian(cx, cy, r, start)
	if parse(fields[1]) != wantStart.X || parse(fields[2]) != wantStart.Y {
		t.Errorf("path start (%s, %s) drifted from %+v", fields[1], fields[2], wantStart)
	}
	if parse(fields[9]) != wantEnd.X || parse(fields[10]) != wantEnd.Y {
		t.Errorf("path end (%s, %s) drifted from %+v", fields[9], fields[10], wantEnd)
	}
	if fields[7] != "0" {
		t.Errorf("large-arc flag = %s, want 0", fields[7])
	}
	if fields[8] != "0" {
		t.Errorf("sweep flag = %s, want 0", fields[8])
	}
}

func TestLargeArcFlag(t *testing.T) {
	cases := []struct {
		start, end float64
		want       int
	}{
		{0, 10, 0},
		{0, 180, 0},
		{0, 180.5, 1},
		{-90, 250, 1},
	}
	for _, tc := range cases {
		if got := LargeArcFlag(tc.start, tc.end); got != tc.want {
			t.Errorf("LargeArcFlag(%v, %v) = %d, want %d", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestPerimeterGapAngle(t *testing.T) {
	// 8 units at radius 14 is about 32.7 degrees of arc
	got := PerimeterGapAngle(14, 8)
	want := 360 * 8 / (2 * math.Pi * 14)
	if math.Abs(got-want) > eps {
		t.Errorf("PerimeterGapAngle(14, 8) = %v, want %v", got, want)
	}
	if PerimeterGapAngle(0, 8) != 360 {
		t.Errorf("zero radius should yield a full-circle gap")
	}
}

func TestEffectiveGap_UsesLargerOfBaseAndPerimeter(t *testing.T) {
	cfg := DefaultConfig()
	for k := 0; k < cfg.MaxStrength; k++ {
		r := cfg.BarRadius(k)
		got := EffectiveGap(r, cfg.BaseVisualGap, cfg.MinPerimeterGap)
		want := math.Max(cfg.BaseVisualGap, PerimeterGapAngle(r, cfg.MinPerimeterGap))
		if got != want {
			t.Errorf("bar %d (r=%v): gap %v, want %v", k, r, got, want)
		}
		if got < cfg.BaseVisualGap {
			t.Errorf("bar %d gap %v below base visual gap", k, got)
		}
	}
	// At radius 78 the perimeter rule asks for ~5.9 degrees, so the base gap wins.
	if got := EffectiveGap(78, 6, 8); got != 6 {
		t.Errorf("EffectiveGap(78) = %v, want 6", got)
	}
}

func TestSectorSpan(t *testing.T) {
	if SectorSpan(0) != 0 {
		t.Error("zero sectors should not divide by zero")
	}
	if SectorSpan(6) != 60 {
		t.Errorf("SectorSpan(6) = %v", SectorSpan(6))
	}
}

func TestConfigRadii(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.BarRadius(0); got != 14 {
		t.Errorf("first bar radius = %v, want 14", got)
	}
	if got := cfg.OutermostBarRadius(); got != 78 {
		t.Errorf("outermost bar radius = %v, want 78", got)
	}
	if got := cfg.IconRadius(); got != 90 {
		t.Errorf("icon radius = %v, want 90", got)
	}
	if got := cfg.LabelRadius(); got != 102 {
		t.Errorf("label radius = %v, want 102", got)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := []func(*Config){
		func(c *Config) { c.Size = 0 },
		func(c *Config) { c.InnerRadius = -1 },
		func(c *Config) { c.BarThickness = 0 },
		func(c *Config) { c.BarGap = -2 },
		func(c *Config) { c.MaxStrength = 0 },
		func(c *Config) { c.Palette = nil },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestColorFor_ClampsIndex(t *testing.T) {
	cfg := DefaultConfig()
	last := cfg.Palette[len(cfg.Palette)-1]
	if cfg.ColorFor(0) != cfg.Palette[0] {
		t.Errorf("ColorFor(0) = %v", cfg.ColorFor(0))
	}
	if cfg.ColorFor(-4) != cfg.Palette[0] {
		t.Errorf("negative index should clamp to the first color")
	}
	if cfg.ColorFor(len(cfg.Palette)) != last || cfg.ColorFor(100) != last {
		t.Errorf("large index should clamp to the last color")
	}
	if Hex(cfg.ColorFor(3)) != "#ffbf00" {
		t.Errorf("ColorFor(3) = %s", Hex(cfg.ColorFor(3)))
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#20C000")
	if err != nil {
		t.Fatalf("ParseHex: %v", err)
	}
	if Hex(c) != "#20c000" || c.A != 0xFF {
		t.Errorf("ParseHex(#20C000) = %v", c)
	}
	short, err := ParseHex("#f80")
	if err != nil {
		t.Fatalf("ParseHex short: %v", err)
	}
	if Hex(short) != "#ff8800" {
		t.Errorf("ParseHex(#f80) = %s", Hex(short))
	}
	if _, err := ParseHex("green"); err == nil {
		t.Error("expected error for named color")
	}
}

func TestAggregateColor(t *testing.T) {
	cases := []struct {
		pct     int
		r, g, b uint8
	}{
		{0, 255, 0, 0},
		{100, 0, 255, 0},
		{50, 128, 128, 0},
		{-5, 255, 0, 0},
		{140, 0, 255, 0},
	}
	for _, tc := range cases {
		c := AggregateColor(tc.pct)
		if c.R != tc.r || c.G != tc.g || c.B != tc.b {
			t.Errorf("AggregateColor(%d) = %v, want (%d,%d,%d)", tc.pct, c, tc.r, tc.g, tc.b)
		}
	}
}
