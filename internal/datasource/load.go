package datasource

import (
	"context"
	"fmt"

	"github.com/vanderheijden86/wellradar/pkg/config"
	"github.com/vanderheijden86/wellradar/pkg/debug"
	"github.com/vanderheijden86/wellradar/pkg/model"
	"github.com/vanderheijden86/wellradar/pkg/sheet"
)

// Result is the radar chosen at startup and where it came from.
type Result struct {
	Radar  model.Radar
	Source DataSource
	// SheetErr is set when the sheet was chosen but its fetch failed and the
	// fallback vector was installed.
	SheetErr error
}

// defaultRadar is swapped in tests.
var defaultRadar = model.DefaultRadar

// Load discovers sources and loads the best one: a valid radar file first,
// then the sheet applied on top of the defaults, then the defaults alone.
func Load(ctx context.Context, opts Options) (Result, error) {
	sources := DiscoverSources(opts)
	best, err := SelectBestSource(sources)
	if err != nil {
		return Result{}, err
	}
	debug.Log("datasource: selected %s", best)
	return LoadFromSource(ctx, best, opts)
}

// LoadFromSource loads the radar for one DataSource, dispatching on its type.
func LoadFromSource(ctx context.Context, src DataSource, opts Options) (Result, error) {
	switch src.Type {
	case SourceTypeFile:
		r, err := config.LoadRadar(src.Location)
		if err != nil {
			return Result{}, fmt.Errorf("failed to load radar file %s: %w", src.Location, err)
		}
		return Result{Radar: r, Source: src}, nil

	case SourceTypeSheet:
		r := defaultRadar()
		s := opts.Sheet
		if s.MaxStrength < 1 {
			s.MaxStrength = r.Max()
		}
		// Sync never leaves the radar half-updated: on failure it installs
		// the fallback vector and hands back the error.
		err := sheet.Sync(ctx, s, radarTarget{&r})
		if err != nil {
			opts.logf("Sheet fetch failed, using fallback %d: %v", s.Fallback, err)
		}
		return Result{Radar: r, Source: src, SheetErr: err}, nil

	case SourceTypeDefaults:
		return Result{Radar: defaultRadar(), Source: src}, nil

	default:
		return Result{}, fmt.Errorf("unknown source type: %s", src.Type)
	}
}

// radarTarget adapts a bare radar to sheet.Target.
type radarTarget struct {
	r *model.Radar
}

func (t radarTarget) ApplyStrengths(values map[int]int) {
	for i, v := range values {
		// indices past the sector list belong to sections the radar lacks
		_ = t.r.SetStrength(i, v)
	}
}
