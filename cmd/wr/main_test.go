package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/wellradar/pkg/model"
	"github.com/vanderheijden86/wellradar/pkg/testutil"
	"github.com/vanderheijden86/wellradar/pkg/version"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		command string
		wantErr error
	}{
		{name: "default serve", args: nil, command: "serve"},
		{name: "tui", args: []string{"--watch", "--radar", "r.yaml", "tui"}, command: "tui"},
		{name: "export out", args: []string{"--out", "x.svg", "export"}, command: "export"},
		{name: "export wizard", args: []string{"--wizard", "export"}, command: "export"},
		{name: "export bare", args: []string{"export"}, wantErr: errUsage},
		{name: "unknown", args: []string{"draw"}, wantErr: errUsage},
		{name: "two commands", args: []string{"serve", "tui"}, wantErr: errUsage},
		{name: "help", args: []string{"-h"}, wantErr: flag.ErrHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := parseFlags(tt.args, io.Discard)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.command != tt.command {
				t.Errorf("command = %q, want %q", f.command, tt.command)
			}
		})
	}
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"version"}, &out, io.Discard); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), version.Version) {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_ExportFormats(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	radar := testutil.QuickRamp(4)
	radarPath := testutil.WriteRadarFile(t, dir, "radar.yaml", radar)

	for _, name := range []string{"radar.svg", "radar.png", "radar.md", "radar.json"} {
		t.Run(name, func(t *testing.T) {
			out := filepath.Join(dir, name)
			var stdout bytes.Buffer
			err := run(context.Background(), []string{"--radar", radarPath, "--out", out, "export"}, &stdout, io.Discard)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatalf("read %s: %v", out, err)
			}
			if len(data) == 0 {
				t.Fatal("empty output")
			}
			if strings.TrimSpace(stdout.String()) != out {
				t.Errorf("stdout = %q", stdout.String())
			}
		})
	}

	data, _ := os.ReadFile(filepath.Join(dir, "radar.json"))
	var dump struct {
		Sectors []struct {
			Strength int `json:"strength"`
		} `json:"sectors"`
	}
	if err := json.Unmarshal(data, &dump); err != nil {
		t.Fatalf("layout json: %v", err)
	}
	if len(dump.Sectors) != 4 || dump.Sectors[3].Strength != 3 {
		t.Errorf("layout sectors = %+v", dump.Sectors)
	}
}

func TestRun_ExportUnknownExtension(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "radar.gif")
	if err := run(context.Background(), []string{"--out", out, "export"}, io.Discard, io.Discard); err == nil {
		t.Error("expected an error for .gif")
	}
}

func TestRun_ConfigMaxStrength(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	cfgPath := testutil.WriteFile(t, dir, "config.yaml", "layout:\n  max_strength: 4\n")
	radarPath := testutil.WriteRadarFile(t, dir, "radar.yaml", testutil.QuickUniform(3, 9))

	f, err := parseFlags([]string{"--config", cfgPath, "--radar", radarPath, "--out", "x.svg", "export"}, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	a, err := setup(context.Background(), f)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if a.radar.Max() != 4 {
		t.Errorf("max = %d, want 4", a.radar.Max())
	}
	testutil.AssertStrengths(t, a.radar, 4, 4, 4)
}

func TestSetup_DefaultsWithoutSources(t *testing.T) {
	isolate(t)
	f, err := parseFlags(nil, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	a, err := setup(context.Background(), f)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	testutil.AssertSectorNames(t, a.radar, names(model.DefaultSectors())...)
	if a.assets == nil {
		t.Error("bundled assets not wired")
	}
}

func TestReloadRadar(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := testutil.WriteRadarFile(t, dir, "radar.yaml", testutil.QuickUniform(2, 1))
	f, _ := parseFlags([]string{"--radar", path}, io.Discard)
	a, err := setup(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	ed := a.newEditor(context.Background())

	testutil.WriteRadarFile(t, dir, "radar.yaml", testutil.QuickUniform(3, 6))
	if err := a.reloadRadar(ed); err != nil {
		t.Fatalf("reload: %v", err)
	}
	testutil.AssertStrengths(t, ed.Snapshot(), 6, 6, 6)
}

func TestStartWatcher_NeedsRadarFile(t *testing.T) {
	a := &app{}
	if w, err := a.startWatcher(flags{}); w != nil || err != nil {
		t.Errorf("no --watch: got %v, %v", w, err)
	}
	if _, err := a.startWatcher(flags{watch: true}); err == nil {
		t.Error("--watch without a radar file should fail")
	}
}

func names(sectors []model.Sector) []string {
	out := make([]string, len(sectors))
	for i, s := range sectors {
		out[i] = s.Name
	}
	return out
}

func TestRun_ExportHooks(t *testing.T) {
	cfgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)
	dir := t.TempDir()
	marker := filepath.Join(dir, "hook.txt")
	testutil.WriteFile(t, filepath.Join(cfgHome, "wellradar"), "hooks.yaml", `
hooks:
  post-export:
    - name: record
      command: echo "$WR_EXPORT_FORMAT $WR_SECTOR_COUNT $WR_RADAR_PERCENT" > "`+marker+`"
      on_error: fail
`)
	out := filepath.Join(dir, "radar.svg")
	if err := run(context.Background(), []string{"--out", out, "export"}, io.Discard, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("post-export hook did not run: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "svg 6 56" {
		t.Errorf("hook saw %q", got)
	}

	os.Remove(marker)
	if err := run(context.Background(), []string{"--no-hooks", "--out", out, "export"}, io.Discard, io.Discard); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Error("--no-hooks should skip hooks")
	}
}

func TestRun_PreExportHookCancels(t *testing.T) {
	cfgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)
	testutil.WriteFile(t, filepath.Join(cfgHome, "wellradar"), "hooks.yaml", `
hooks:
  pre-export:
    - name: gate
      command: exit 1
`)
	out := filepath.Join(t.TempDir(), "radar.svg")
	if err := run(context.Background(), []string{"--out", out, "export"}, io.Discard, io.Discard); err == nil {
		t.Fatal("failing pre-export hook should cancel the export")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("export should not have been written")
	}
}
