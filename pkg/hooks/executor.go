package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vanderheijden86/wellradar/pkg/debug"
)

// HookResult records one hook run.
type HookResult struct {
	Hook     Hook
	Phase    HookPhase
	Success  bool
	Stdout   string
	Stderr   string
	Duration time.Duration
	Err      error
}

// Executor runs the hooks of one export.
type Executor struct {
	config  *Config
	ctx     ExportContext
	results []HookResult
}

// NewExecutor creates an executor for the given hooks and export.
func NewExecutor(config *Config, ctx ExportContext) *Executor {
	if config == nil {
		config = &Config{}
	}
	return &Executor{config: config, ctx: ctx}
}

// RunPreExport runs the pre-export hooks in order. A failing hook with
// on_error "fail" stops the run and cancels the export.
func (e *Executor) RunPreExport() error {
	for _, h := range e.config.Hooks.PreExport {
		if res := e.run(h, PreExport); !res.Success && h.OnError != OnErrorContinue {
			return fmt.Errorf("pre-export hook %q failed: %w", h.Name, res.Err)
		}
	}
	return nil
}

// RunPostExport runs every post-export hook. The export already exists,
// so later hooks still run after a failure; failures with on_error "fail"
// are joined into the returned error.
func (e *Executor) RunPostExport() error {
	var errs []error
	for _, h := range e.config.Hooks.PostExport {
		if res := e.run(h, PostExport); !res.Success && h.OnError == OnErrorFail {
			errs = append(errs, fmt.Errorf("post-export hook %q failed: %w", h.Name, res.Err))
		}
	}
	return errors.Join(errs...)
}

func (e *Executor) run(h Hook, phase HookPhase) HookResult {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	exportEnv := e.ctx.ToEnv()
	lookup := envLookup(exportEnv)

	cmd := exec.CommandContext(ctx, "sh", "-c", h.Command)
	cmd.Env = append(os.Environ(), exportEnv...)
	for k, v := range h.Env {
		cmd.Env = append(cmd.Env, k+"="+os.Expand(v, lookup))
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Let a timed out shell exit without waiting on its children's pipes.
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	res := HookResult{
		Hook:     h,
		Phase:    phase,
		Success:  err == nil,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %v", timeout)
		}
		res.Err = err
	}
	debug.Log("hooks: %s %s in %v (ok=%v)", phase, h.Name, res.Duration, res.Success)
	e.results = append(e.results, res)
	return res
}

// envLookup resolves ${VAR} in hook env values against the export
// variables first, then the process environment.
func envLookup(exportEnv []string) func(string) string {
	vars := make(map[string]string, len(exportEnv))
	for _, kv := range exportEnv {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return os.Getenv(key)
	}
}

// Results returns the hook runs so far.
func (e *Executor) Results() []HookResult {
	return e.results
}

// Summary describes the hook runs in one line per failure.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return ""
	}
	var ok, failed int
	var sb strings.Builder
	for _, r := range e.results {
		if r.Success {
			ok++
			continue
		}
		failed++
		fmt.Fprintf(&sb, "\n  %s %s: %v", r.Phase, r.Hook.Name, r.Err)
		if r.Stderr != "" {
			fmt.Fprintf(&sb, " (%s)", r.Stderr)
		}
	}
	return fmt.Sprintf("hooks: %d succeeded, %d failed", ok, failed) + sb.String()
}

// RunHooks loads hooks.yaml from dir. It returns a nil executor when hooks
// are disabled or none are configured.
func RunHooks(dir string, ctx ExportContext, noHooks bool) (*Executor, error) {
	if noHooks {
		return nil, nil
	}
	loader := NewLoader(WithDir(dir))
	if err := loader.Load(); err != nil {
		return nil, err
	}
	for _, w := range loader.Warnings() {
		debug.Log("hooks: %s", w)
	}
	if !loader.HasHooks() {
		return nil, nil
	}
	return NewExecutor(loader.Config(), ctx), nil
}
