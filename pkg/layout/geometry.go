package layout

import (
	"fmt"
	"math"
	"strconv"
)

// Point is a position on the logical canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PolarToCartesian converts an angle (degrees, 0 = up, clockwise) and radius
// around (cx, cy) into canvas coordinates. Every positioned primitive goes
// through here so icons, labels and bar ends stay aligned.
func PolarToCartesian(cx, cy, r, angleDeg float64) Point {
	rad := (angleDeg - 90) * math.Pi / 180
	return Point{
		X: cx + r*math.Cos(rad),
		Y: cy + r*math.Sin(rad),
	}
}

// ArcEndpoints returns the path start (at endAngle) and end (at startAngle)
// used by DescribeArc.
func ArcEndpoints(cx, cy, r, startAngle, endAngle float64) (Point, Point) {
	return PolarToCartesian(cx, cy, r, endAngle), PolarToCartesian(cx, cy, r, startAngle)
}

// LargeArcFlag is 0 for spans up to 180 degrees and 1 above.
func LargeArcFlag(startAngle, endAngle float64) int {
	if endAngle-startAngle <= 180 {
		return 0
	}
	return 1
}

// DescribeArc builds an SVG path for a circular arc from startAngle to
// endAngle. The path runs from the end point back to the start point.
func DescribeArc(cx, cy, r, startAngle, endAngle float64) string {
	start, end := ArcEndpoints(cx, cy, r, startAngle, endAngle)
	return fmt.Sprintf("M %s %s A %s %s 0 %d 0 %s %s",
		num(start.X), num(start.Y),
		num(r), num(r),
		LargeArcFlag(startAngle, endAngle),
		num(end.X), num(end.Y))
}

// PerimeterGapAngle is the angle (degrees) that spans minGap canvas units of
// arc length at radius r.
func PerimeterGapAngle(r, minGap float64) float64 {
	if r <= 0 {
		return 360
	}
	return 360 * minGap / (2 * math.Pi * r)
}

// EffectiveGap is the angular gap subtracted from a sector span at radius r.
func EffectiveGap(r, baseVisualGap, minGap float64) float64 {
	return math.Max(baseVisualGap, PerimeterGapAngle(r, minGap))
}

// SectorSpan is the angle each of n sectors occupies. Zero sectors span 0.
func SectorSpan(n int) float64 {
	if n <= 0 {
		return 0
	}
	return 360 / float64(n)
}

// num formats with the shortest representation that parses back to v.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
