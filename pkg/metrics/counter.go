package metrics

import "sync/atomic"

// Counter is a monotonically increasing event count.
type Counter struct {
	name string
	n    atomic.Int64
}

func newCounter(name string) *Counter {
	return &Counter{name: name}
}

// Inc adds one.
func (c *Counter) Inc() {
	if Enabled() {
		c.n.Add(1)
	}
}

func (c *Counter) Name() string { return c.name }
func (c *Counter) Value() int64 { return c.n.Load() }
func (c *Counter) Reset()       { c.n.Store(0) }

var (
	Commits        = newCounter("strength_commits")
	SheetFallbacks = newCounter("sheet_fallbacks")
	FileReloads    = newCounter("radar_file_reloads")
)

// AllCounters returns all registered counters.
func AllCounters() []*Counter {
	return []*Counter{Commits, SheetFallbacks, FileReloads}
}

// Report is the JSON body served at /debug/metrics.
type Report struct {
	Timings  []TimingStats    `json:"timings"`
	Counters map[string]int64 `json:"counters"`
}

// Snapshot collects the current timings and counters.
func Snapshot() Report {
	r := Report{
		Timings:  AllTimingStats(),
		Counters: make(map[string]int64),
	}
	for _, c := range AllCounters() {
		r.Counters[c.Name()] = c.Value()
	}
	return r
}
