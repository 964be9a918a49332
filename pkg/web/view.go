package web

import (
	"fmt"
	"html/template"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/wellradar/pkg/export"
	"github.com/vanderheijden86/wellradar/pkg/layout"
	"github.com/vanderheijden86/wellradar/pkg/model"
)

type pageView struct {
	Title        string
	Chart        template.HTML
	Signals      string
	Sectors      []sectorView
	SheetEnabled bool
	Status       string
}

type sectorView struct {
	Index   int
	Name    string
	Max     int
	Percent int
}

// flexInt accepts both 7 and "7"; range inputs may bind either way.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("not an integer: %q", s)
		}
		*f = flexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type sectorSignals struct {
	Name     string  `json:"name"`
	Strength flexInt `json:"strength"`
}

// pageSignals is the client-side state datastar sends with every action.
// Sector keys are "s<index>".
type pageSignals struct {
	Title   string                   `json:"title"`
	Sectors map[string]sectorSignals `json:"sectors"`
}

func sectorKey(i int) string { return "s" + strconv.Itoa(i) }

func signalsFor(r model.Radar, preview []int) pageSignals {
	sig := pageSignals{Title: r.Title, Sectors: make(map[string]sectorSignals, len(r.Sectors))}
	for i, sec := range r.Sectors {
		v := r.StrengthAt(i)
		if i < len(preview) {
			v = preview[i]
		}
		sig.Sectors[sectorKey(i)] = sectorSignals{Name: sec.Name, Strength: flexInt(v)}
	}
	return sig
}

func (s *Server) chartHTML(frame layout.Frame, title string) (template.HTML, error) {
	svg, err := export.SVGString(frame, export.SVGOptions{
		Inline:    true,
		AssetBase: s.assetBase,
		ID:        "radar",
		Title:     title,
		Padding:   export.DefaultPadding,
	})
	if err != nil {
		return "", err
	}
	// The renderer escapes every piece of user text it emits.
	return template.HTML(svg), nil
}

func (s *Server) pageView(status string) (pageView, error) {
	r, frame := s.frame()
	chart, err := s.chartHTML(frame, r.Title)
	if err != nil {
		return pageView{}, err
	}
	sig, err := json.Marshal(signalsFor(r, s.editor.Preview()))
	if err != nil {
		return pageView{}, err
	}
	v := pageView{
		Title:        r.Title,
		Chart:        chart,
		Signals:      string(sig),
		SheetEnabled: s.sheet.URL != "",
		Status:       status,
	}
	preview := s.editor.Preview()
	for i, sec := range r.Sectors {
		v.Sectors = append(v.Sectors, s.sectorView(r, i, sec, preview))
	}
	return v, nil
}

func (s *Server) sectorView(r model.Radar, i int, sec model.Sector, preview []int) sectorView {
	v := r.StrengthAt(i)
	if i < len(preview) {
		v = preview[i]
	}
	return sectorView{
		Index:   i,
		Name:    sec.Name,
		Max:     r.Max(),
		Percent: layout.StrengthPercent(v, r.Max()),
	}
}
