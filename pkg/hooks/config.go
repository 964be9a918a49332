// Package hooks runs user shell commands before and after wr writes an
// export. Hooks live in hooks.yaml in the wr config directory:
//
//	hooks:
//	  pre-export:
//	    - name: lint
//	      command: test -n "$WR_RADAR_TITLE"
//	  post-export:
//	    - command: cp "$WR_EXPORT_PATH" ~/Dropbox/radar/
//	      timeout: 10s
//	      env: {DEST: "${HOME}/radar-${WR_TIMESTAMP}"}
package hooks

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// HookPhase is the point in an export at which a hook runs.
type HookPhase string

const (
	PreExport  HookPhase = "pre-export"
	PostExport HookPhase = "post-export"
)

// ErrorPolicy decides what a failing hook does to the export.
type ErrorPolicy string

const (
	// OnErrorFail cancels a pre-export run, or makes a post-export run
	// report an error. Default for pre-export hooks.
	OnErrorFail ErrorPolicy = "fail"
	// OnErrorContinue only records the failure. Default for post-export hooks.
	OnErrorContinue ErrorPolicy = "continue"
)

// DefaultTimeout bounds a hook without its own timeout.
const DefaultTimeout = 30 * time.Second

// Hook is one configured command.
type Hook struct {
	Name    string
	Command string
	Timeout time.Duration
	Env     map[string]string
	OnError ErrorPolicy
}

// UnmarshalYAML accepts timeouts as Go durations ("1m30s") or bare seconds (90, 2.5).
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout"`
		Env     map[string]string `yaml:"env"`
		OnError string            `yaml:"on_error"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	timeout, err := parseTimeout(raw.Timeout)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*h = Hook{
		Name:    raw.Name,
		Command: raw.Command,
		Timeout: timeout,
		Env:     raw.Env,
		OnError: ErrorPolicy(raw.OnError),
	}
	return nil
}

func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Config is the parsed hooks.yaml.
type Config struct {
	Hooks HooksByPhase `yaml:"hooks"`
}

// HooksByPhase groups hooks in the order they run.
type HooksByPhase struct {
	PreExport  []Hook `yaml:"pre-export"`
	PostExport []Hook `yaml:"post-export"`
}

func (c *Config) phase(p HookPhase) *[]Hook {
	switch p {
	case PreExport:
		return &c.Hooks.PreExport
	case PostExport:
		return &c.Hooks.PostExport
	}
	return nil
}

// ExportContext describes the export to the hook through WR_* variables.
type ExportContext struct {
	ExportPath   string // output file, or the shared base of a multi-format export
	ExportFormat string // svg, png, md, json; comma separated for several
	Title        string
	SectorCount  int
	Percent      int // aggregate strength
	Timestamp    time.Time
}

// ToEnv renders the context as KEY=value pairs.
func (c ExportContext) ToEnv() []string {
	vars := [...][2]string{
		{"WR_EXPORT_PATH", c.ExportPath},
		{"WR_EXPORT_FORMAT", c.ExportFormat},
		{"WR_RADAR_TITLE", c.Title},
		{"WR_SECTOR_COUNT", strconv.Itoa(c.SectorCount)},
		{"WR_RADAR_PERCENT", strconv.Itoa(c.Percent)},
		{"WR_TIMESTAMP", c.Timestamp.Format(time.RFC3339)},
	}
	env := make([]string, len(vars))
	for i, kv := range vars {
		env[i] = kv[0] + "=" + kv[1]
	}
	return env
}

// Loader reads hooks.yaml from a directory.
type Loader struct {
	dir      string
	config   *Config
	warnings []string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithDir sets the directory holding hooks.yaml. Defaults to the working directory.
func WithDir(dir string) LoaderOption {
	return func(l *Loader) { l.dir = dir }
}

// NewLoader creates a loader; call Load before reading hooks.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.dir == "" {
		l.dir, _ = os.Getwd()
	}
	return l
}

// Path is the hooks.yaml location.
func (l *Loader) Path() string {
	return filepath.Join(l.dir, "hooks.yaml")
}

// Load parses hooks.yaml. A missing file is an empty configuration.
func (l *Loader) Load() error {
	path := l.Path()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		l.config = &Config{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	l.warnings = nil
	for _, p := range []HookPhase{PreExport, PostExport} {
		hooks := cfg.phase(p)
		*hooks = l.normalize(*hooks, p)
	}
	l.config = &cfg
	return nil
}

// normalize fills defaults and drops hooks without a command.
func (l *Loader) normalize(hooks []Hook, phase HookPhase) []Hook {
	out := hooks[:0]
	for i, h := range hooks {
		if strings.TrimSpace(h.Command) == "" {
			l.warnings = append(l.warnings, fmt.Sprintf("%s hook %d has empty command; skipping", phase, i+1))
			continue
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		if h.Timeout <= 0 {
			h.Timeout = DefaultTimeout
		}
		if h.OnError == "" {
			h.OnError = OnErrorContinue
			if phase == PreExport {
				h.OnError = OnErrorFail
			}
		}
		out = append(out, h)
	}
	return out
}

// Config returns the loaded configuration, empty before Load.
func (l *Loader) Config() *Config {
	if l.config == nil {
		return &Config{}
	}
	return l.config
}

// HasHooks reports whether any phase has a hook.
func (l *Loader) HasHooks() bool {
	return len(l.GetHooks(PreExport))+len(l.GetHooks(PostExport)) > 0
}

// GetHooks returns the hooks of one phase.
func (l *Loader) GetHooks(phase HookPhase) []Hook {
	if l.config == nil {
		return nil
	}
	if hooks := l.config.phase(phase); hooks != nil {
		return *hooks
	}
	return nil
}

// Warnings lists hooks skipped by the last Load.
func (l *Loader) Warnings() []string {
	return l.warnings
}
