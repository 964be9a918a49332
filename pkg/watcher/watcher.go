package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/wellradar/pkg/debug"
)

// DefaultPollInterval is how often the radar file is stat'ed in poll mode.
const DefaultPollInterval = 2 * time.Second

var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Mode is how a running Watcher learns about changes.
type Mode int

const (
	ModeStopped Mode = iota
	ModeNotify
	ModePoll
)

func (m Mode) String() string {
	switch m {
	case ModeNotify:
		return "notify"
	case ModePoll:
		return "poll"
	default:
		return "stopped"
	}
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets how long a burst of events is coalesced.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the stat interval used in poll mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithOnChange registers a callback run after each coalesced change.
func WithOnChange(fn func()) WatcherOption {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError registers a callback for watch errors such as ErrFileRemoved.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll skips fsnotify entirely.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) { w.forcePoll = force }
}

// Watcher reports changes to a single radar file. It watches the parent
// directory with fsnotify so editors that save by rename are seen, and
// polls instead on network filesystems or when WR_FORCE_POLL is set.
type Watcher struct {
	path         string
	debounce     time.Duration
	pollInterval time.Duration
	forcePoll    bool
	onChange     func()
	onError      func(error)

	changes chan struct{}

	mu        sync.Mutex
	mode      Mode
	fsType    FilesystemType
	cancel    context.CancelFunc
	done      chan struct{}
	debouncer *Debouncer
}

// NewWatcher prepares a watcher for path. Nothing happens until Start.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:         abs,
		debounce:     DefaultDebounceDuration,
		pollInterval: DefaultPollInterval,
		onChange:     func() {},
		onError:      func(error) {},
		changes:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. A missing file is fine; it is picked up once created.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.mode != ModeStopped {
		return ErrAlreadyStarted
	}

	initial, err := statFile(w.path)
	if err != nil {
		return err
	}

	w.fsType = DetectFilesystemType(w.path)
	poll := w.forcePoll || forcePollFromEnv() || isRemoteFilesystem(w.fsType)

	var fsw *fsnotify.Watcher
	if !poll {
		fsw, err = fsnotify.NewWatcher()
		if err == nil {
			err = fsw.Add(filepath.Dir(w.path))
		}
		if err != nil {
			debug.Log("watcher: fsnotify unavailable for %s, polling: %v", w.path, err)
			if fsw != nil {
				fsw.Close()
				fsw = nil
			}
			poll = true
		}
	}

	w.mode = ModeNotify
	if poll {
		w.mode = ModePoll
	}
	debug.Log("watcher: %s on %s filesystem, mode %s", w.path, w.fsType, w.mode)

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	w.debouncer = NewDebouncer(w.debounce)
	go w.loop(ctx, fsw, initial)
	return nil
}

// Stop ends the watch and waits for the loop to exit. The Changed channel
// is never closed.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.mode == ModeStopped {
		w.mu.Unlock()
		return
	}
	w.mode = ModeStopped
	w.cancel()
	w.debouncer.Cancel()
	done := w.done
	w.mu.Unlock()
	<-done
}

// Changed receives once per coalesced change; bursts collapse into one send.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changes
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Mode reports how the watcher is currently running.
func (w *Watcher) Mode() Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode
}

// IsPolling is shorthand for Mode() == ModePoll.
func (w *Watcher) IsPolling() bool {
	return w.Mode() == ModePoll
}

// IsStarted reports whether Start succeeded and Stop has not been called.
func (w *Watcher) IsStarted() bool {
	return w.Mode() != ModeStopped
}

// FilesystemType is the classification made by the last Start.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fsType
}

// PollInterval returns the stat interval used in poll mode.
func (w *Watcher) PollInterval() time.Duration {
	return w.pollInterval
}

// loop serves both modes: in notify mode the ticker channel is nil, in poll
// mode the fsnotify channels are.
func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, last stamp) {
	defer close(w.done)

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
		tick   <-chan time.Time
	)
	if fsw != nil {
		defer fsw.Close()
		events, errs = fsw.Events, fsw.Errors
	} else {
		t := time.NewTicker(w.pollInterval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		case <-tick:
			last = w.poll(last)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	switch {
	case ev.Has(fsnotify.Remove):
		w.onError(ErrFileRemoved)
	case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create), ev.Has(fsnotify.Rename):
		w.debouncer.Trigger(w.fire)
	}
}

func (w *Watcher) poll(last stamp) stamp {
	cur, err := statFile(w.path)
	if err != nil {
		w.onError(err)
		return last
	}
	switch {
	case !cur.exists && last.exists:
		w.onError(ErrFileRemoved)
	case cur.exists && cur != last:
		w.debouncer.Trigger(w.fire)
	}
	return cur
}

func (w *Watcher) fire() {
	if !w.IsStarted() {
		return
	}
	w.onChange()
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

// stamp is what poll mode compares between ticks.
type stamp struct {
	exists  bool
	modTime time.Time
	size    int64
}

func statFile(path string) (stamp, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return stamp{exists: true, modTime: info.ModTime(), size: info.Size()}, nil
	case errors.Is(err, fs.ErrNotExist):
		return stamp{}, nil
	case errors.Is(err, fs.ErrPermission):
		return stamp{}, ErrPermission
	default:
		return stamp{}, err
	}
}

// forcePollFromEnv reads WR_FORCE_POLL. Besides strconv's booleans it
// accepts yes/on.
func forcePollFromEnv() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("WR_FORCE_POLL")))
	if v == "yes" || v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}
