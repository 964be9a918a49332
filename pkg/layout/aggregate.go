package layout

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Aggregate is the overall score shown at the chart center.
type Aggregate struct {
	Mean    float64    `json:"mean"`
	Percent int        `json:"percent"`
	Color   color.RGBA `json:"-"`
}

// ComputeAggregate averages strengths and expresses the mean as a rounded
// percentage of maxStrength.
func ComputeAggregate(strengths []int, maxStrength int) Aggregate {
	if len(strengths) == 0 || maxStrength <= 0 {
		return Aggregate{Color: AggregateColor(0)}
	}
	xs := make([]float64, len(strengths))
	for i, s := range strengths {
		xs[i] = float64(s)
	}
	mean := stat.Mean(xs, nil)
	pct := int(math.Round(mean / float64(maxStrength) * 100))
	return Aggregate{
		Mean:    mean,
		Percent: pct,
		Color:   AggregateColor(pct),
	}
}

// StrengthPercent is the per-sector readout shown next to a slider.
func StrengthPercent(strength, maxStrength int) int {
	if maxStrength <= 0 {
		return 0
	}
	return int(math.Round(float64(strength) / float64(maxStrength) * 100))
}
