package task_go

import (
	"sync"
	"time"
)

// Interval is one recorded execution bracket of a task's work closure.
type Interval struct {
	Name  string
	Color DebugColor
	Start time.Time
	End   time.Time
}

// IntervalCollector is the contract of the external profiling subsystem: it
// receives exactly one Interval per execution of a task's work closure. The
// collector is injected, not owned, by the task.
type IntervalCollector interface {
	Collect(iv Interval)
}

// scopedInterval opens the profiling bracket for one execution and returns
// the function that closes it. A nil collector yields a no-op bracket.
func scopedInterval(c IntervalCollector, name string, color DebugColor) func() {
	if c == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		c.Collect(Interval{Name: name, Color: color, Start: start, End: time.Now()})
	}
}

// TimeIntervalCollector is a goroutine-safe in-memory IntervalCollector.
// It stands in for a full profiling pipeline in tests, examples and the CLI.
type TimeIntervalCollector struct {
	mu        sync.Mutex
	intervals []Interval
}

// NewTimeIntervalCollector creates an empty collector.
func NewTimeIntervalCollector() *TimeIntervalCollector {
	return &TimeIntervalCollector{}
}

// Collect appends iv to the collector.
func (c *TimeIntervalCollector) Collect(iv Interval) {
	c.mu.Lock()
	c.intervals = append(c.intervals, iv)
	c.mu.Unlock()
}

// Intervals returns a snapshot copy of everything collected so far.
func (c *TimeIntervalCollector) Intervals() []Interval {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Interval, len(c.intervals))
	copy(out, c.intervals)
	return out
}

// Reset discards all collected intervals.
func (c *TimeIntervalCollector) Reset() {
	c.mu.Lock()
	c.intervals = c.intervals[:0]
	c.mu.Unlock()
}
