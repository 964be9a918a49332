package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vanderheijden86/wellradar/pkg/layout"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Editor.CommitDelay != 100*time.Millisecond {
		t.Errorf("expected commit delay 100ms, got %v", cfg.Editor.CommitDelay)
	}
	if cfg.Sheet.Fallback != 5 {
		t.Errorf("expected sheet fallback 5, got %d", cfg.Sheet.Fallback)
	}
	if cfg.Assets.BasePath != "/assets/" {
		t.Errorf("expected asset base /assets/, got %q", cfg.Assets.BasePath)
	}
	if cfg.Server.Addr == "" {
		t.Error("expected a default listen address")
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Editor.CommitDelay != 100*time.Millisecond {
		t.Errorf("expected default config, got delay %v", cfg.Editor.CommitDelay)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
server:
  addr: ":9000"
layout:
  max_strength: 5
  palette: ["#ff0000", "#00ff00"]
  show_aggregate: false
sheet:
  url: https://example.com/sheet.csv
  sections: [A, B]
  fallback: 3
editor:
  commit_delay: 250ms
radar_file: ~/radar.yaml
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("unset fields should keep defaults, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Editor.CommitDelay != 250*time.Millisecond {
		t.Errorf("commit delay = %v", cfg.Editor.CommitDelay)
	}
	if cfg.Sheet.Fallback != 3 || len(cfg.Sheet.Sections) != 2 {
		t.Errorf("sheet = %+v", cfg.Sheet)
	}
	home, _ := os.UserHomeDir()
	if cfg.RadarFile != filepath.Join(home, "radar.yaml") {
		t.Errorf("expected expanded radar path, got %q", cfg.RadarFile)
	}

	lc, err := cfg.LayoutConfig()
	if err != nil {
		t.Fatalf("LayoutConfig: %v", err)
	}
	if lc.MaxStrength != 5 || len(lc.Palette) != 2 || lc.ShowAggregate {
		t.Errorf("layout overrides not applied: max=%d palette=%d agg=%v", lc.MaxStrength, len(lc.Palette), lc.ShowAggregate)
	}
	if layout.Hex(lc.Palette[1]) != "#00ff00" {
		t.Errorf("palette[1] = %s", layout.Hex(lc.Palette[1]))
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLayoutConfig_BadColor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Layout.Palette = []string{"#ff0000", "chartreuse"}
	if _, err := cfg.LayoutConfig(); err == nil {
		t.Error("expected error for non-hex palette entry")
	}
}

func TestLayoutConfig_SizeMovesCenter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Layout.Size = 400
	lc, err := cfg.LayoutConfig()
	if err != nil {
		t.Fatal(err)
	}
	if lc.CenterX != 200 || lc.CenterY != 200 {
		t.Errorf("center = (%v, %v), want (200, 200)", lc.CenterX, lc.CenterY)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Sheet.URL = "https://example.com/pub?output=csv"
	cfg.Editor.CommitDelay = 40 * time.Millisecond

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load after save failed: %v", err)
	}
	if loaded.Sheet.URL != cfg.Sheet.URL {
		t.Errorf("sheet url = %q", loaded.Sheet.URL)
	}
	if loaded.Editor.CommitDelay != 40*time.Millisecond {
		t.Errorf("commit delay = %v", loaded.Editor.CommitDelay)
	}
}

func TestSheetSections_DefaultsToSectorNames(t *testing.T) {
	got := DefaultConfig().SheetSections()
	if len(got) != 6 || got[0] != "Bewegung" {
		t.Errorf("SheetSections() = %v", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"/absolute", "/absolute"},
		{"relative", "relative"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := expandHome(tt.input); got != tt.expected {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestConfigDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if got := ConfigDir(); got != filepath.Join(dir, "wellradar") {
		t.Errorf("ConfigDir() = %q", got)
	}
	if got := ConfigPath(); got != filepath.Join(dir, "wellradar", "config.yaml") {
		t.Errorf("ConfigPath() = %q", got)
	}
}

func TestDataDir_XDGOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	if got := DataDir(); got != filepath.Join(dir, "wellradar") {
		t.Errorf("DataDir() = %q", got)
	}
}

func TestParseRadar(t *testing.T) {
	doc := `
title: Team
sectors:
  - name: A
    icon: a.svg
  - name: B
    icon: "data:image/png;base64,AAAA"
strengths: [12, -1, 4]
`
	r, err := ParseRadar([]byte(doc))
	if err != nil {
		t.Fatalf("ParseRadar: %v", err)
	}
	if r.Title != "Team" || len(r.Sectors) != 2 {
		t.Fatalf("radar = %+v", r)
	}
	if len(r.Strengths) != 2 || r.Strengths[0] != 9 || r.Strengths[1] != 0 {
		t.Errorf("strengths = %v, want [9 0]", r.Strengths)
	}
	if !r.Sectors[1].Icon.IsInline() {
		t.Error("expected inline icon")
	}
}

func TestParseRadar_Errors(t *testing.T) {
	if _, err := ParseRadar([]byte("title: x\n")); !errors.Is(err, ErrEmptyRadar) {
		t.Errorf("expected ErrEmptyRadar, got %v", err)
	}
	if _, err := ParseRadar([]byte("sectors: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadRadar_MissingFile(t *testing.T) {
	if _, err := LoadRadar(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing radar file")
	}
}
