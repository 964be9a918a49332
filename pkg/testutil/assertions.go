package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/wellradar/pkg/layout"
	"github.com/vanderheijden86/wellradar/pkg/model"
)

// AssertRadarValid verifies the strength vector lines up with the sectors
// and every value is within [0, max].
func AssertRadarValid(t *testing.T, r model.Radar) {
	t.Helper()
	if len(r.Strengths) != len(r.Sectors) {
		t.Errorf("expected %d strengths, got %d", len(r.Sectors), len(r.Strengths))
	}
	for i, s := range r.Strengths {
		if s < 0 || s > r.Max() {
			t.Errorf("strength %d = %d outside [0, %d]", i, s, r.Max())
		}
	}
}

// AssertStrengths verifies the exact strength vector.
func AssertStrengths(t *testing.T, r model.Radar, want ...int) {
	t.Helper()
	if len(r.Strengths) != len(want) {
		t.Errorf("strengths = %v, want %v", r.Strengths, want)
		return
	}
	for i := range want {
		if r.Strengths[i] != want[i] {
			t.Errorf("strengths = %v, want %v", r.Strengths, want)
			return
		}
	}
}

// AssertSectorNames verifies sector names in order.
func AssertSectorNames(t *testing.T, r model.Radar, want ...string) {
	t.Helper()
	if len(r.Sectors) != len(want) {
		t.Errorf("expected %d sectors, got %d", len(want), len(r.Sectors))
		return
	}
	for i, name := range want {
		if r.Sectors[i].Name != name {
			t.Errorf("sector %d name = %q, want %q", i, r.Sectors[i].Name, name)
		}
	}
}

// AssertFrameMatches verifies that a frame draws r: one geometry entry and
// max bars per sector, with exactly strength of them active.
func AssertFrameMatches(t *testing.T, frame layout.Frame, r model.Radar) {
	t.Helper()
	if len(frame.Sectors) != len(r.Sectors) {
		t.Fatalf("frame has %d sectors, radar has %d", len(frame.Sectors), len(r.Sectors))
	}
	active := make([]int, len(r.Sectors))
	total := make([]int, len(r.Sectors))
	for _, a := range frame.Arcs() {
		if a.Sector < 0 || a.Sector >= len(r.Sectors) {
			t.Errorf("arc for unknown sector %d", a.Sector)
			continue
		}
		total[a.Sector]++
		if a.Active {
			active[a.Sector]++
		}
	}
	for i := range r.Sectors {
		want := r.StrengthAt(i)
		if active[i] != want {
			t.Errorf("sector %d: %d active bars, want %d", i, active[i], want)
		}
		if total[i] != 0 && total[i] != r.Max() {
			t.Errorf("sector %d: %d bars, want %d", i, total[i], r.Max())
		}
	}
}

// AssertJSONEqual compares two values after JSON round-tripping.
// Useful for comparing structs that may have different Go representations
// but equivalent JSON forms.
func AssertJSONEqual(t *testing.T, expected, actual any) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// WriteRadarFile writes r as a radar document to dir/name and returns the path.
func WriteRadarFile(t *testing.T, dir, name string, r model.Radar) string {
	t.Helper()
	return WriteFile(t, dir, name, ToYAML(r))
}

// WriteFile writes content to dir/name, creating dir as needed.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
