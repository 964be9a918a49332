// Package config handles loading and saving wr configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/wellradar/config.yaml
//   - Data:   ~/.local/share/wellradar/ (icon overrides, snapshots)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/wellradar/pkg/layout"
	"github.com/vanderheijden86/wellradar/pkg/model"
	"github.com/vanderheijden86/wellradar/pkg/sheet"
)

const appDir = "wellradar"

// ServerConfig controls the web editor.
type ServerConfig struct {
	Addr            string        `yaml:"addr,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
	AllowedOrigins  []string      `yaml:"allowed_origins,omitempty"`
}

// LayoutConfig overrides chart geometry and colors. Zero values keep the defaults.
type LayoutConfig struct {
	Size          float64  `yaml:"size,omitempty"`
	MaxStrength   int      `yaml:"max_strength,omitempty"`
	Palette       []string `yaml:"palette,omitempty"` // hex, low → high
	InactiveColor string   `yaml:"inactive_color,omitempty"`
	CenterColor   string   `yaml:"center_color,omitempty"`
	ShowAggregate *bool    `yaml:"show_aggregate,omitempty"`
}

// SheetConfig points at the published spreadsheet.
type SheetConfig struct {
	URL         string   `yaml:"url,omitempty"`
	Format      string   `yaml:"format,omitempty"` // csv, html, or empty to infer
	Sections    []string `yaml:"sections,omitempty"`
	Fallback    int      `yaml:"fallback,omitempty"`
	SyncOnStart bool     `yaml:"sync_on_start,omitempty"`
}

// EditorConfig tunes interactive editing.
type EditorConfig struct {
	CommitDelay    time.Duration `yaml:"commit_delay,omitempty"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes,omitempty"`
}

// AssetsConfig controls where icons are served from.
type AssetsConfig struct {
	Dir      string `yaml:"dir,omitempty"` // overrides the bundled icons when set
	BasePath string `yaml:"base_path,omitempty"`
}

// ExportConfig holds snapshot defaults.
type ExportConfig struct {
	Dir   string  `yaml:"dir,omitempty"`
	Scale float64 `yaml:"scale,omitempty"`
}

// Config is the top-level configuration for wr.
type Config struct {
	Server    ServerConfig `yaml:"server,omitempty"`
	Layout    LayoutConfig `yaml:"layout,omitempty"`
	Sheet     SheetConfig  `yaml:"sheet,omitempty"`
	Editor    EditorConfig `yaml:"editor,omitempty"`
	Assets    AssetsConfig `yaml:"assets,omitempty"`
	Export    ExportConfig `yaml:"export,omitempty"`
	RadarFile string       `yaml:"radar_file,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8420",
			ShutdownTimeout: 5 * time.Second,
		},
		Sheet: SheetConfig{
			Fallback: model.DefaultStrength,
		},
		Editor: EditorConfig{
			CommitDelay:    100 * time.Millisecond,
			MaxUploadBytes: 2 << 20,
		},
		Assets: AssetsConfig{
			BasePath: model.DefaultAssetBase,
		},
		Export: ExportConfig{
			Scale: 2,
		},
	}
}

// ConfigDir returns the XDG config directory for wr.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appDir)
}

// DataDir returns the XDG data directory for wr.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appDir)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.RadarFile = expandHome(cfg.RadarFile)
	cfg.Assets.Dir = expandHome(cfg.Assets.Dir)
	cfg.Export.Dir = expandHome(cfg.Export.Dir)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// LayoutConfig merges the layout overrides onto layout.DefaultConfig.
func (c Config) LayoutConfig() (layout.Config, error) {
	lc := layout.DefaultConfig()
	o := c.Layout

	if o.Size > 0 {
		scale := o.Size / lc.Size
		lc.Size = o.Size
		lc.CenterX *= scale
		lc.CenterY *= scale
	}
	if o.MaxStrength > 0 {
		lc.MaxStrength = o.MaxStrength
	}
	if len(o.Palette) > 0 {
		p, err := layout.ParsePalette(o.Palette)
		if err != nil {
			return lc, fmt.Errorf("layout.palette: %w", err)
		}
		lc.Palette = p
	}
	if o.InactiveColor != "" {
		col, err := layout.ParseHex(o.InactiveColor)
		if err != nil {
			return lc, fmt.Errorf("layout.inactive_color: %w", err)
		}
		lc.InactiveColor = col
	}
	if o.CenterColor != "" {
		col, err := layout.ParseHex(o.CenterColor)
		if err != nil {
			return lc, fmt.Errorf("layout.center_color: %w", err)
		}
		lc.CenterColor = col
	}
	if o.ShowAggregate != nil {
		lc.ShowAggregate = *o.ShowAggregate
	}
	return lc, lc.Validate()
}

// SheetSections returns the configured section names, or the default
// sector names when none are set.
func (c Config) SheetSections() []string {
	if len(c.Sheet.Sections) > 0 {
		return c.Sheet.Sections
	}
	var names []string
	for _, s := range model.DefaultSectors() {
		names = append(names, s.Name)
	}
	return names
}

// SheetSource builds the fetch description for the configured sheet.
func (c Config) SheetSource(maxStrength int) sheet.Source {
	return sheet.Source{
		URL:         c.Sheet.URL,
		Format:      sheet.Format(c.Sheet.Format),
		Sections:    c.SheetSections(),
		Fallback:    c.Sheet.Fallback,
		MaxStrength: maxStrength,
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
