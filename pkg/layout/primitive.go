package layout

import (
	"image/color"

	"github.com/vanderheijden86/wellradar/pkg/model"
)

// Kind discriminates the drawable primitives.
type Kind string

const (
	KindCenter Kind = "center"
	KindArc    Kind = "arc"
	KindIcon   Kind = "icon"
	KindLabel  Kind = "label"
)

// Primitive is one drawable item of a Frame.
type Primitive interface {
	Kind() Kind
}

// Arc is a round-capped stroke along a circle.
type Arc struct {
	Sector     int        `json:"sector"`
	Level      int        `json:"level"` // 1-based strength level this bar represents
	Center     Point      `json:"center"`
	Radius     float64    `json:"radius"`
	StartAngle float64    `json:"start_angle"`
	EndAngle   float64    `json:"end_angle"`
	Color      color.RGBA `json:"-"`
	Thickness  float64    `json:"thickness"`
	Active     bool       `json:"active"`
}

func (Arc) Kind() Kind { return KindArc }

// Path returns the SVG path data for the arc.
func (a Arc) Path() string {
	return DescribeArc(a.Center.X, a.Center.Y, a.Radius, a.StartAngle, a.EndAngle)
}

// IconMarker places a sector icon, centered on Position.
type IconMarker struct {
	Sector   int           `json:"sector"`
	Position Point         `json:"position"`
	Icon     model.IconRef `json:"icon"`
	Title    string        `json:"title"`
	Size     float64       `json:"size"`
}

func (IconMarker) Kind() Kind { return KindIcon }

// TopLeft is the corner of the icon box.
func (m IconMarker) TopLeft() Point {
	return Point{X: m.Position.X - m.Size/2, Y: m.Position.Y - m.Size/2}
}

// Label is a centered line of text.
type Label struct {
	Sector   int        `json:"sector"`
	Position Point      `json:"position"`
	Text     string     `json:"text"`
	FontSize float64    `json:"font_size"`
	Color    color.RGBA `json:"-"`
}

func (Label) Kind() Kind { return KindLabel }

// CenterMarker is the disc at the chart center, optionally with a readout.
type CenterMarker struct {
	Position  Point      `json:"position"`
	Radius    float64    `json:"radius"`
	Color     color.RGBA `json:"-"`
	Text      string     `json:"text,omitempty"`
	TextColor color.RGBA `json:"-"`
	FontSize  float64    `json:"font_size,omitempty"`
}

func (CenterMarker) Kind() Kind { return KindCenter }
