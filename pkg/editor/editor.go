// Package editor owns the radar that every surface (web, terminal, file
// reload, sheet sync) edits. All mutations go through one mutex; slider
// drags update a preview immediately and commit after a short delay.
package editor

import (
	"io"
	"sync"
	"time"

	"github.com/vanderheijden86/wellradar/pkg/debug"
	"github.com/vanderheijden86/wellradar/pkg/icon"
	"github.com/vanderheijden86/wellradar/pkg/metrics"
	"github.com/vanderheijden86/wellradar/pkg/model"
	"github.com/vanderheijden86/wellradar/pkg/watcher"
)

// DefaultCommitDelay is how long a previewed strength waits before it is committed.
const DefaultCommitDelay = 100 * time.Millisecond

// Option configures an Editor.
type Option func(*Editor)

// WithCommitDelay sets the debounce delay for PreviewStrength.
func WithCommitDelay(d time.Duration) Option {
	return func(e *Editor) {
		e.commitDelay = d
	}
}

// WithMaxUploadBytes limits icon uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(e *Editor) {
		e.maxUpload = n
	}
}

// Editor is safe for concurrent use.
type Editor struct {
	commitDelay time.Duration
	maxUpload   int64

	mu       sync.RWMutex
	radar    model.Radar
	preview  []int
	revision uint64

	debouncer *watcher.Debouncer

	subMu  sync.Mutex
	subs   map[int]chan uint64
	nextID int
}

// New creates an editor seeded with a copy of initial.
func New(initial model.Radar, opts ...Option) *Editor {
	e := &Editor{
		commitDelay: DefaultCommitDelay,
		maxUpload:   icon.DefaultMaxBytes,
		subs:        make(map[int]chan uint64),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.debouncer = watcher.NewDebouncer(e.commitDelay)

	r := initial.Clone()
	r.Normalize()
	e.radar = r
	e.preview = append([]int(nil), r.Strengths...)
	return e
}

// Snapshot returns a copy of the committed radar.
func (e *Editor) Snapshot() model.Radar {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.radar.Clone()
}

// Preview returns the strengths currently shown while dragging. It equals
// the committed vector whenever nothing is pending.
func (e *Editor) Preview() []int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]int(nil), e.preview...)
}

// Revision increases by one on every committed change.
func (e *Editor) Revision() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.revision
}

// CommitDelay returns the configured debounce delay.
func (e *Editor) CommitDelay() time.Duration {
	return e.debouncer.Duration()
}

// PreviewStrength shows v for sector i at once and schedules the commit.
// Rapid calls coalesce; the last pending preview is what gets committed.
func (e *Editor) PreviewStrength(i, v int) error {
	e.mu.Lock()
	if err := e.radar.CheckIndex(i); err != nil {
		e.mu.Unlock()
		return err
	}
	e.preview[i] = e.radar.Clamp(v)
	e.mu.Unlock()

	e.debouncer.Trigger(e.commitPreview)
	return nil
}

// Pending reports whether a previewed strength is waiting to be committed.
func (e *Editor) Pending() bool {
	return e.debouncer.Pending()
}

// Flush commits any pending preview immediately.
func (e *Editor) Flush() {
	e.debouncer.Flush()
}

func (e *Editor) commitPreview() {
	e.mu.Lock()
	if equalInts(e.preview, e.radar.Strengths) {
		e.mu.Unlock()
		return
	}
	e.radar.Strengths = append([]int(nil), e.preview...)
	rev := e.bumpLocked()
	e.mu.Unlock()

	metrics.Commits.Inc()
	debug.Log("editor: committed strengths (rev %d)", rev)
	e.notify(rev)
}

// SetStrength commits v for sector i immediately and drops any pending preview.
func (e *Editor) SetStrength(i, v int) error {
	e.debouncer.Cancel()
	return e.replaceStrengths(func(r *model.Radar) error {
		return r.SetStrength(i, v)
	})
}

// ApplyStrengths sets several sectors at once. Unknown indexes are ignored.
func (e *Editor) ApplyStrengths(values map[int]int) {
	e.debouncer.Cancel()
	_ = e.replaceStrengths(func(r *model.Radar) error {
		for i, v := range values {
			_ = r.SetStrength(i, v)
		}
		return nil
	})
}

// SetTitle replaces the title.
func (e *Editor) SetTitle(title string) {
	_ = e.mutate(func(r *model.Radar) error {
		r.SetTitle(title)
		return nil
	})
}

// RenameSector sets the name of sector i.
func (e *Editor) RenameSector(i int, name string) error {
	return e.mutate(func(r *model.Radar) error {
		return r.RenameSector(i, name)
	})
}

// SetIcon assigns an icon reference to sector i.
func (e *Editor) SetIcon(i int, ref model.IconRef) error {
	return e.mutate(func(r *model.Radar) error {
		return r.SetIcon(i, ref)
	})
}

// ReplaceAll swaps in a whole new sector list and strength vector.
func (e *Editor) ReplaceAll(sectors []model.Sector, strengths []int) {
	e.debouncer.Cancel()
	_ = e.replaceStrengths(func(r *model.Radar) error {
		r.ReplaceAll(sectors, strengths)
		return nil
	})
}

// Load replaces the whole radar, title included.
func (e *Editor) Load(r model.Radar) {
	e.debouncer.Cancel()
	_ = e.replaceStrengths(func(cur *model.Radar) error {
		next := r.Clone()
		next.Normalize()
		*cur = next
		return nil
	})
}

// UploadIcon converts the whole upload first and only then commits it, so
// a slow or failing read never leaves a half-written icon behind. When two
// uploads race for the same sector the one that finishes last wins.
func (e *Editor) UploadIcon(i int, r io.Reader, filename string) (model.IconRef, error) {
	defer metrics.Timer(metrics.IconUpload)()

	e.mu.RLock()
	err := e.radar.CheckIndex(i)
	e.mu.RUnlock()
	if err != nil {
		return "", err
	}

	ref, err := icon.EncodeDataURL(r, filename, e.maxUpload)
	if err != nil {
		return "", err
	}
	if err := e.SetIcon(i, ref); err != nil {
		return "", err
	}
	debug.Log("editor: sector %d icon set from %s (%s)", i, filename, ref)
	return ref, nil
}

// mutate applies fn under the lock. Edits that leave the strengths alone
// keep the preview, so a drag still pending commits after a rename or
// title change. The preview is only realigned when the sector count moved.
func (e *Editor) mutate(fn func(*model.Radar) error) error {
	return e.apply(fn, false)
}

// replaceStrengths is mutate for edits that overwrite strengths; callers
// cancel the debouncer first and the preview follows the committed vector.
func (e *Editor) replaceStrengths(fn func(*model.Radar) error) error {
	return e.apply(fn, true)
}

func (e *Editor) apply(fn func(*model.Radar) error, resetPreview bool) error {
	e.mu.Lock()
	if err := fn(&e.radar); err != nil {
		e.mu.Unlock()
		return err
	}
	if resetPreview || len(e.preview) != len(e.radar.Strengths) {
		e.preview = append([]int(nil), e.radar.Strengths...)
	}
	rev := e.bumpLocked()
	e.mu.Unlock()

	e.notify(rev)
	return nil
}

func (e *Editor) bumpLocked() uint64 {
	e.revision++
	return e.revision
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
