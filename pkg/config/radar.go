package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/wellradar/pkg/model"
)

// ErrEmptyRadar is returned for radar documents that declare no sectors.
var ErrEmptyRadar = errors.New("radar document has no sectors")

// LoadRadar reads a radar document:
//
//	title: Team Q3
//	sectors:
//	  - name: Bewegung
//	    icon: korperundbewegung.svg
//	strengths: [5]
//
// The result is normalized so strengths line up with sectors.
func LoadRadar(path string) (model.Radar, error) {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return model.Radar{}, fmt.Errorf("reading radar file: %w", err)
	}
	return ParseRadar(data)
}

// ParseRadar decodes and normalizes a radar document.
func ParseRadar(data []byte) (model.Radar, error) {
	var r model.Radar
	if err := yaml.Unmarshal(data, &r); err != nil {
		return model.Radar{}, fmt.Errorf("parsing radar file: %w", err)
	}
	if len(r.Sectors) == 0 {
		return model.Radar{}, ErrEmptyRadar
	}
	r.Normalize()
	return r, nil
}
