package export

import (
	"github.com/goccy/go-json"

	"github.com/vanderheijden86/wellradar/pkg/layout"
)

type primitiveJSON struct {
	Kind      layout.Kind      `json:"kind"`
	Color     string           `json:"color,omitempty"`
	TextColor string           `json:"text_color,omitempty"`
	Path      string           `json:"path,omitempty"`
	Data      layout.Primitive `json:"data"`
}

type sectorJSON struct {
	layout.SectorGeometry
	Color string `json:"color"`
}

type frameJSON struct {
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
	Sectors    []sectorJSON      `json:"sectors"`
	Aggregate  *layout.Aggregate `json:"aggregate,omitempty"`
	Primitives []primitiveJSON   `json:"primitives"`
}

// MarshalLayout dumps a frame, primitives and colors included, as indented JSON.
func MarshalLayout(frame layout.Frame) ([]byte, error) {
	out := frameJSON{
		Width:      frame.Width,
		Height:     frame.Height,
		Aggregate:  frame.Aggregate,
		Sectors:    make([]sectorJSON, 0, len(frame.Sectors)),
		Primitives: make([]primitiveJSON, 0, len(frame.Primitives)),
	}
	for _, s := range frame.Sectors {
		out.Sectors = append(out.Sectors, sectorJSON{SectorGeometry: s, Color: css(s.Color)})
	}
	for _, p := range frame.Primitives {
		pj := primitiveJSON{Kind: p.Kind(), Data: p}
		switch v := p.(type) {
		case layout.Arc:
			pj.Color = css(v.Color)
			pj.Path = v.Path()
		case layout.Label:
			pj.Color = css(v.Color)
		case layout.CenterMarker:
			pj.Color = css(v.Color)
			if v.Text != "" {
				pj.TextColor = css(v.TextColor)
			}
		}
		out.Primitives = append(out.Primitives, pj)
	}
	return json.MarshalIndent(out, "", "  ")
}
