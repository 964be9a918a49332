package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/vanderheijden86/wellradar/internal/datasource"
	"github.com/vanderheijden86/wellradar/pkg/config"
	"github.com/vanderheijden86/wellradar/pkg/debug"
	"github.com/vanderheijden86/wellradar/pkg/editor"
	"github.com/vanderheijden86/wellradar/pkg/export"
	"github.com/vanderheijden86/wellradar/pkg/hooks"
	"github.com/vanderheijden86/wellradar/pkg/layout"
	"github.com/vanderheijden86/wellradar/pkg/metrics"
	"github.com/vanderheijden86/wellradar/pkg/model"
	"github.com/vanderheijden86/wellradar/pkg/sheet"
	"github.com/vanderheijden86/wellradar/pkg/ui"
	"github.com/vanderheijden86/wellradar/pkg/version"
	"github.com/vanderheijden86/wellradar/pkg/watcher"
	"github.com/vanderheijden86/wellradar/pkg/web"
)

const usage = `Usage: wr [options] [command]

A wellness radar chart editor.

Commands:
  serve    run the web editor (default)
  tui      edit the radar in the terminal
  export   write the radar to --out, or run the export wizard
  version  print the version

Options:
`

var errUsage = errors.New("usage")

// flags holds the parsed command line.
type flags struct {
	configPath string
	radarFile  string
	sheetURL   string
	addr       string
	assetsDir  string
	out        string
	wizard     bool
	noHooks    bool
	watch      bool
	debug      bool
	cpuProfile string
	command    string
}

func parseFlags(args []string, stderr io.Writer) (flags, error) {
	var f flags
	fset := flag.NewFlagSet("wr", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.StringVar(&f.configPath, "config", "", "Config file (default: ~/.config/wellradar/config.yaml)")
	fset.StringVar(&f.radarFile, "radar", "", "Radar YAML file to start from")
	fset.StringVar(&f.sheetURL, "sheet", "", "Published spreadsheet URL (CSV or HTML)")
	fset.StringVar(&f.addr, "addr", "", "Listen address for the web editor")
	fset.StringVar(&f.assetsDir, "assets", "", "Directory whose icons override the bundled set")
	fset.StringVar(&f.out, "out", "", "Export path; .svg, .png, .md or .json")
	fset.BoolVar(&f.wizard, "wizard", false, "Run the interactive export wizard")
	fset.BoolVar(&f.noHooks, "no-hooks", false, "Skip export hooks from hooks.yaml")
	fset.BoolVar(&f.watch, "watch", false, "Reload the radar file when it changes")
	fset.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fset.StringVar(&f.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	fset.Usage = func() {
		fmt.Fprint(stderr, usage)
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		return f, err
	}

	f.command = "serve"
	switch fset.NArg() {
	case 0:
	case 1:
		f.command = fset.Arg(0)
	default:
		fset.Usage()
		return f, errUsage
	}
	switch f.command {
	case "serve", "tui", "export", "version":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", f.command)
		fset.Usage()
		return f, errUsage
	}
	if f.command == "export" && f.out == "" && !f.wizard {
		fmt.Fprintln(stderr, "export needs --out or --wizard")
		return f, errUsage
	}
	return f, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "wr: %v\n", err)
		os.Exit(1)
	}
}

// app is everything a command needs once configuration is resolved.
type app struct {
	cfg       config.Config
	layout    layout.Config
	radar     model.Radar
	source    datasource.DataSource
	sheet     sheet.Source
	assets    fs.FS
	assetBase string
	hooksDir  string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if f.command == "version" {
		fmt.Fprintf(stdout, "wr %s\n", version.Version)
		return nil
	}

	if f.cpuProfile != "" {
		pf, err := os.Create(f.cpuProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer pf.Close()
		if err := pprof.StartCPUProfile(pf); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}
	if f.debug {
		debug.SetEnabled(true)
		metrics.SetEnabled(true)
	}

	a, err := setup(ctx, f)
	if err != nil {
		return err
	}
	debug.Log("wr: starting from %s", a.source)

	switch f.command {
	case "export":
		return runExport(ctx, a, f, stdout)
	case "tui":
		return runTUI(ctx, a, f)
	default:
		return runServe(ctx, a, f)
	}
}

func setup(ctx context.Context, f flags) (*app, error) {
	var (
		cfg config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFrom(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if f.radarFile != "" {
		cfg.RadarFile = f.radarFile
	}
	if f.sheetURL != "" {
		cfg.Sheet.URL = f.sheetURL
	}
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.assetsDir != "" {
		cfg.Assets.Dir = f.assetsDir
	}
	debug.Dump("config", cfg)

	lc, err := cfg.LayoutConfig()
	if err != nil {
		return nil, err
	}
	src := cfg.SheetSource(lc.MaxStrength)

	res, err := datasource.Load(ctx, datasource.Options{
		RadarFile: cfg.RadarFile,
		Sheet:     src,
		Verbose:   debug.Enabled(),
		Logger:    func(msg string) { log.Printf("wr: %s", msg) },
	})
	if err != nil {
		return nil, err
	}
	radar := res.Radar
	if cfg.Layout.MaxStrength > 0 {
		radar.MaxStrength = cfg.Layout.MaxStrength
	}
	radar.Normalize()

	a := &app{
		cfg:       cfg,
		layout:    lc,
		radar:     radar,
		source:    res.Source,
		sheet:     src,
		assets:    web.BundledAssets(),
		assetBase: cfg.Assets.BasePath,
		hooksDir:  config.ConfigDir(),
	}
	if cfg.Assets.Dir != "" {
		a.assets = web.AssetFS(cfg.Assets.Dir)
	}
	return a, nil
}

func (a *app) newEditor(ctx context.Context) *editor.Editor {
	ed := editor.New(a.radar,
		editor.WithCommitDelay(a.cfg.Editor.CommitDelay),
		editor.WithMaxUploadBytes(a.cfg.Editor.MaxUploadBytes),
	)
	// A file source wins at startup; sync_on_start still pulls the sheet on top.
	if a.cfg.Sheet.SyncOnStart && a.sheet.URL != "" && a.source.Type != datasource.SourceTypeSheet {
		if err := sheet.Sync(ctx, a.sheet, ed); err != nil {
			log.Printf("wr: sheet sync failed, fallback applied: %v", err)
		}
	}
	return ed
}

// startWatcher watches the radar file when --watch is set. The returned
// watcher is nil when there is nothing to watch.
func (a *app) startWatcher(f flags) (*watcher.Watcher, error) {
	if !f.watch {
		return nil, nil
	}
	if a.cfg.RadarFile == "" {
		return nil, errors.New("--watch needs a radar file")
	}
	w, err := watcher.NewWatcher(a.cfg.RadarFile,
		watcher.WithOnError(func(err error) { log.Printf("wr: watcher: %v", err) }),
	)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}

// reloadRadar replaces the editor's state with the radar file.
func (a *app) reloadRadar(ed *editor.Editor) error {
	r, err := config.LoadRadar(a.cfg.RadarFile)
	if err != nil {
		return err
	}
	if a.cfg.Layout.MaxStrength > 0 {
		r.MaxStrength = a.cfg.Layout.MaxStrength
		r.Normalize()
	}
	ed.Load(r)
	metrics.FileReloads.Inc()
	return nil
}

func runServe(ctx context.Context, a *app, f flags) error {
	ed := a.newEditor(ctx)
	defer ed.Flush()

	w, err := a.startWatcher(f)
	if err != nil {
		return err
	}
	if w != nil {
		defer w.Stop()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-w.Changed():
					if err := a.reloadRadar(ed); err != nil {
						log.Printf("wr: reload %s: %v", a.cfg.RadarFile, err)
						continue
					}
					log.Printf("wr: reloaded %s", filepath.Base(a.cfg.RadarFile))
				}
			}
		}()
	}

	srv, err := web.New(ed, web.Options{
		Layout:          a.layout,
		AssetBase:       a.assetBase,
		Assets:          a.assets,
		Sheet:           a.sheet,
		PNGScale:        a.cfg.Export.Scale,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
		AllowedOrigins:  a.cfg.Server.AllowedOrigins,
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, a.cfg.Server.Addr)
}

func runTUI(ctx context.Context, a *app, f flags) error {
	ed := a.newEditor(ctx)
	w, err := a.startWatcher(f)
	if err != nil {
		return err
	}
	if w != nil {
		defer w.Stop()
	}
	return ui.Run(ctx, ui.Options{
		Editor:      ed,
		Layout:      a.layout,
		Sheet:       a.sheet,
		Watcher:     w,
		RadarFile:   a.cfg.RadarFile,
		SnapshotDir: a.cfg.Export.Dir,
		AssetBase:   a.assetBase,
		Assets:      a.assets,
		Scale:       a.cfg.Export.Scale,
	})
}

func runExport(ctx context.Context, a *app, f flags, stdout io.Writer) error {
	ed := a.newEditor(ctx)
	radar := ed.Snapshot()

	path, formats := f.out, strings.TrimPrefix(strings.ToLower(filepath.Ext(f.out)), ".")
	var wiz *export.Wizard
	if f.wizard {
		wiz = export.NewWizard(a.cfg.Export.Dir)
		cfg, err := wiz.Run()
		if err != nil {
			return err
		}
		path = filepath.Join(cfg.Dir, cfg.BaseName)
		formats = strings.Join(cfg.Formats, ",")
	}

	frame := export.ComputeFrame(radar, a.layout)
	hookCtx := hooks.ExportContext{
		ExportPath:   path,
		ExportFormat: formats,
		Title:        radar.Title,
		SectorCount:  len(radar.Sectors),
		Timestamp:    time.Now(),
	}
	if frame.Aggregate != nil {
		hookCtx.Percent = frame.Aggregate.Percent
	}
	executor, err := hooks.RunHooks(a.hooksDir, hookCtx, f.noHooks)
	if err != nil {
		return err
	}
	if executor != nil {
		defer func() {
			if summary := executor.Summary(); summary != "" {
				log.Print(summary)
			}
		}()
		if err := executor.RunPreExport(); err != nil {
			return err
		}
	}

	var paths []string
	if wiz != nil {
		res, err := wiz.PerformExport(ctx, radar, a.layout, a.assets, a.assetBase)
		if err != nil {
			return err
		}
		paths = res.Paths
	} else {
		if err := exportFile(radar, a, f.out); err != nil {
			return err
		}
		paths = []string{f.out}
	}
	for _, p := range paths {
		fmt.Fprintln(stdout, p)
	}

	if executor != nil {
		return executor.RunPostExport()
	}
	return nil
}

func exportFile(radar model.Radar, a *app, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return export.SaveMarkdownToFile(radar, export.ComputeFrame(radar, a.layout), path)
	case ".json":
		data, err := export.MarshalLayout(export.ComputeFrame(radar, a.layout))
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	default:
		return export.SaveRadarSnapshot(export.RadarSnapshotOptions{
			Path:      path,
			Radar:     radar,
			Layout:    a.layout,
			Assets:    a.assets,
			AssetBase: a.assetBase,
			Scale:     a.cfg.Export.Scale,
		})
	}
}
