package export

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/wellradar/pkg/layout"
	"github.com/vanderheijden86/wellradar/pkg/model"
)

// Export formats offered by the wizard.
const (
	FormatSVG      = "svg"
	FormatPNG      = "png"
	FormatMarkdown = "md"
	FormatJSON     = "json"
)

// WizardConfig holds the answers of an export wizard run. It is saved so
// the next run can offer the same settings.
type WizardConfig struct {
	Formats  []string `json:"formats"`
	Dir      string   `json:"dir"`
	BaseName string   `json:"base_name"`
	Scale    float64  `json:"scale"`
}

// WizardResult lists the files an export produced.
type WizardResult struct {
	Paths []string
}

// Wizard handles the interactive export flow.
type Wizard struct {
	config *WizardConfig
}

// NewWizard creates an export wizard seeded with defaults for dir.
func NewWizard(dir string) *Wizard {
	if dir == "" {
		dir = "."
	}
	return &Wizard{
		config: &WizardConfig{
			Formats:  []string{FormatSVG, FormatPNG},
			Dir:      dir,
			BaseName: "radar",
			Scale:    DefaultPNGScale,
		},
	}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run asks for formats, destination and scale.
func (w *Wizard) Run() (*WizardConfig, error) {
	if saved, err := LoadWizardConfig(); err == nil && saved != nil && len(saved.Formats) > 0 {
		w.config = saved
	}

	scale := strconv.FormatFloat(w.config.Scale, 'f', -1, 64)
	form := newForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Export formats").
				Options(
					huh.NewOption("SVG image", FormatSVG),
					huh.NewOption("PNG image", FormatPNG),
					huh.NewOption("Markdown report", FormatMarkdown),
					huh.NewOption("Layout JSON", FormatJSON),
				).
				Validate(func(v []string) error {
					if len(v) == 0 {
						return fmt.Errorf("pick at least one format")
					}
					return nil
				}).
				Value(&w.config.Formats),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Output directory").
				Value(&w.config.Dir),
			huh.NewInput().
				Title("File name (without extension)").
				Value(&w.config.BaseName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" || strings.ContainsRune(s, filepath.Separator) {
						return fmt.Errorf("enter a plain file name")
					}
					return nil
				}),
			huh.NewInput().
				Title("PNG scale").
				Description("Pixels per chart unit; 2 gives a 400px image").
				Value(&scale).
				Validate(validateScale),
		),
	)
	if err := form.Run(); err != nil {
		return nil, err
	}

	w.config.Scale, _ = strconv.ParseFloat(scale, 64)
	if err := SaveWizardConfig(w.config); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not save wizard settings: %v\n", err)
	}
	return w.config, nil
}

func validateScale(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 || v > 16 {
		return fmt.Errorf("enter a number between 0 and 16")
	}
	return nil
}

// GetConfig returns the collected wizard configuration.
func (w *Wizard) GetConfig() *WizardConfig {
	return w.config
}

// PerformExport writes every selected format. Images render concurrently.
func (w *Wizard) PerformExport(ctx context.Context, radar model.Radar, cfg layout.Config, assets fs.FS, assetBase string) (*WizardResult, error) {
	c := w.config
	base := filepath.Join(c.Dir, c.BaseName)
	res := &WizardResult{}

	var snaps []RadarSnapshotOptions
	for _, f := range c.Formats {
		switch f {
		case FormatSVG, FormatPNG:
			snaps = append(snaps, RadarSnapshotOptions{
				Path:      base + "." + f,
				Radar:     radar,
				Layout:    cfg,
				Assets:    assets,
				AssetBase: assetBase,
				Scale:     c.Scale,
			})
			res.Paths = append(res.Paths, base+"."+f)
		}
	}
	if err := SaveSnapshots(ctx, snaps); err != nil {
		return nil, err
	}

	frame := ComputeFrame(radar, cfg)
	for _, f := range c.Formats {
		switch f {
		case FormatMarkdown:
			path := base + ".md"
			if err := SaveMarkdownToFile(radar, frame, path); err != nil {
				return nil, err
			}
			res.Paths = append(res.Paths, path)
		case FormatJSON:
			path := base + ".json"
			data, err := MarshalLayout(frame)
			if err != nil {
				return nil, err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return nil, err
			}
			res.Paths = append(res.Paths, path)
		}
	}
	return res, nil
}

// WizardConfigPath returns the path to the wizard config file.
func WizardConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "wellradar", "export-wizard.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "wellradar", "export-wizard.json")
}

// LoadWizardConfig loads previously saved wizard configuration.
func LoadWizardConfig() (*WizardConfig, error) {
	path := WizardConfigPath()
	if path == "" {
		return nil, fmt.Errorf("could not determine config path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No saved config
		}
		return nil, err
	}

	var config WizardConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveWizardConfig saves wizard configuration for future runs.
func SaveWizardConfig(config *WizardConfig) error {
	path := WizardConfigPath()
	if path == "" {
		return fmt.Errorf("could not determine config path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
