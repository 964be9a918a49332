// Package export renders radar frames to files and reports: SVG and PNG
// snapshots, a markdown summary and a JSON layout dump.
package export

import (
	"context"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/wellradar/pkg/layout"
	"github.com/vanderheijden86/wellradar/pkg/metrics"
	"github.com/vanderheijden86/wellradar/pkg/model"
)

// RadarSnapshotOptions controls snapshot export.
type RadarSnapshotOptions struct {
	Path      string // output path; format inferred from extension when Format empty
	Format    string // "svg" or "png" (case-insensitive)
	Radar     model.Radar
	Layout    layout.Config
	Assets    fs.FS  // icon source for PNG output
	AssetBase string // icon URL base for SVG output
	Scale     float64
	Padding   float64 // negative means none; zero picks DefaultPadding
}

// ComputeFrame lays out radar with cfg, recording the layout timing.
func ComputeFrame(radar model.Radar, cfg layout.Config) layout.Frame {
	defer metrics.Timer(metrics.LayoutCompute)()
	if radar.MaxStrength > 0 && radar.MaxStrength != cfg.MaxStrength {
		cfg.MaxStrength = radar.MaxStrength
	}
	return layout.Compute(radar.Sectors, radar.Strengths, cfg)
}

// SaveRadarSnapshot renders the radar to opts.Path as SVG or PNG.
func SaveRadarSnapshot(opts RadarSnapshotOptions) error {
	format, path, err := resolveFormat(opts.Format, opts.Path)
	if err != nil {
		return err
	}
	opts.Path = path
	if err := opts.Layout.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	frame := ComputeFrame(opts.Radar, opts.Layout)
	pad := opts.Padding
	if pad == 0 {
		pad = DefaultPadding
	}

	file, err := os.Create(opts.Path)
	if err != nil {
		return err
	}

	switch format {
	case "svg":
		err = RenderSVG(file, frame, SVGOptions{AssetBase: opts.AssetBase, Title: opts.Radar.Title, Padding: pad})
	case "png":
		err = RenderPNG(file, frame, PNGOptions{Scale: opts.Scale, Assets: opts.Assets, Background: color.White, Padding: pad})
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", opts.Path, err)
	}
	return nil
}

// SaveSnapshots writes every snapshot concurrently and returns the first error.
func SaveSnapshots(ctx context.Context, snapshots []RadarSnapshotOptions) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, s := range snapshots {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return SaveRadarSnapshot(s)
		})
	}
	return g.Wait()
}

func resolveFormat(format, path string) (string, string, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg"
			if path != "" && filepath.Ext(path) == "" {
				path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return "", "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if path == "" {
		return "", "", fmt.Errorf("output path is required")
	}
	return format, path, nil
}
