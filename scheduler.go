package task_go

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/seoyhaein/task-go/debugonly"
	"github.com/seoyhaein/utils"
	"golang.org/x/sync/errgroup"
)

// SchedulerConfig holds tunable parameters for a Scheduler instance.
// Use DefaultSchedulerConfig for production-ready defaults, or override
// individual fields before passing to NewSchedulerWithConfig.
type SchedulerConfig struct {
	// Workers caps the number of goroutines that invoke tasks concurrently.
	// Default: 4.
	Workers int

	// QueueBuffer is the submit-queue capacity of the worker pool.
	// Default: 64.
	QueueBuffer int

	// PollInterval is the pause between scheduling cycles in which only
	// polling tasks were dispatched, so a recurring task is not spun at full
	// speed. Default: 5 ms.
	PollInterval time.Duration
}

// DefaultSchedulerConfig returns a SchedulerConfig populated with defaults:
//   - Workers:      4
//   - QueueBuffer:  64
//   - PollInterval: 5 ms
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Workers:      4,
		QueueBuffer:  64,
		PollInterval: 5 * time.Millisecond,
	}
}

// SchedulerOption is a functional-option type for NewScheduler.
type SchedulerOption func(*Scheduler)

// WithWorkers sets the worker-goroutine cap.
func WithWorkers(n int) SchedulerOption {
	return func(s *Scheduler) { s.Config.Workers = n }
}

// WithPollInterval sets the pause between polling-only cycles.
func WithPollInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.Config.PollInterval = d }
}

// WithSchedulerCollector sets the profiling collector injected into every
// registered task that does not already carry one.
func WithSchedulerCollector(c IntervalCollector) SchedulerOption {
	return func(s *Scheduler) { s.collector = c }
}

// WorkerPool manages a bounded pool of goroutines for concurrent task
// invocation. Work is submitted via Submit; Close drains the queue and waits
// for all workers.
type WorkerPool struct {
	workerLimit int
	taskQueue   chan func()
	wg          sync.WaitGroup
	closeOnce   sync.Once // prevents double-close panic on taskQueue
}

// NewWorkerPool creates a pool with limit worker goroutines and the given
// queue buffer.
func NewWorkerPool(limit, buffer int) *WorkerPool {
	if limit < 1 {
		limit = 1
	}
	if buffer < limit {
		buffer = limit
	}
	pool := &WorkerPool{
		workerLimit: limit,
		taskQueue:   make(chan func(), buffer),
	}

	for i := 0; i < limit; i++ { //nolint:intrange
		pool.wg.Add(1)
		go func() {
			defer pool.wg.Done()
			for fn := range pool.taskQueue {
				fn()
			}
		}()
	}

	return pool
}

// Submit sends fn to the pool. Blocks when the queue is full.
func (p *WorkerPool) Submit(fn func()) {
	p.taskQueue <- fn
}

// Close shuts the pool down. sync.Once guards the queue close so a double
// call does not panic.
func (p *WorkerPool) Close() {
	p.closeOnce.Do(func() { close(p.taskQueue) })
	p.wg.Wait()
}

// Scheduler is a reference implementation of the external scheduling contract:
// it selects ready tasks (all dependencies Done), sets their status before
// invocation, dispatches them onto a bounded worker pool, and re-queues
// polling tasks each cycle. Continuation tasks are never dispatched directly —
// they run inline from their antecedents — but registering them lets the
// scheduler inject its collector and account for their completion.
//
// Scheduler must always be handled as a pointer; value-copy is forbidden
// because it embeds sync.Mutex.
type Scheduler struct {
	// ID is the unique identifier assigned at creation time (UUID v4).
	ID string

	// Config holds the tunable parameters active for this instance.
	Config SchedulerConfig

	collector IntervalCollector

	mu      sync.Mutex
	tasks   []Handle
	polling map[string]bool // task ID → registered via AddPolling
}

// NewScheduler returns a Scheduler with DefaultSchedulerConfig, then applies
// each option in order.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		ID:      uuid.NewString(),
		Config:  DefaultSchedulerConfig(),
		polling: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers tasks for one-shot execution. A task still in Invalid is
// moved to Pending. The scheduler's collector is injected into tasks that do
// not already carry one.
func (s *Scheduler) Add(tasks ...Handle) {
	s.register(false, tasks...)
}

// AddPolling registers tasks for repeated execution, once per scheduling
// cycle. Each registered task is moved to ScheduledPolling.
func (s *Scheduler) AddPolling(tasks ...Handle) {
	s.register(true, tasks...)
}

func (s *Scheduler) register(polling bool, tasks ...Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tasks {
		if t == nil {
			Log.Warnf("scheduler %s: nil task ignored", s.ID)
			continue
		}
		if utils.IsEmptyString(t.Name()) {
			Log.Debugf("scheduler %s: registering unnamed task %s", s.ID, t.ID())
		}
		if s.collector != nil && t.Collector() == nil {
			t.SetCollector(s.collector)
		}

		if polling {
			s.polling[t.ID()] = true
			t.SetStatus(TaskStatusScheduledPolling)
		} else if t.Status() == TaskStatusInvalid {
			t.SetStatus(TaskStatusPending)
		}
		s.tasks = append(s.tasks, t)
	}
}

// Progress returns the fraction of registered one-shot tasks that have
// reached Done. Polling tasks are excluded; they never finish.
func (s *Scheduler) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, done := 0, 0
	for _, t := range s.tasks {
		if s.polling[t.ID()] {
			continue
		}
		total++
		if t.Status() == TaskStatusDone {
			done++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(done) / float64(total)
}

// Run drives scheduling cycles until every registered one-shot task is Done,
// or ctx fires. Each cycle selects the ready set — tasks whose dependencies
// are all Done, excluding continuations — marks Pending tasks ScheduledOnce,
// dispatches the set onto the worker pool and waits for the cycle to settle.
// Polling tasks that finished a cycle in Done are re-armed to
// ScheduledPolling, which installs a fresh result cell for the next cycle.
//
// When no task is ready, none is running and unfinished work remains, the
// graph cannot make progress (a dependency cycle, or a task that is awaited
// but was never registered) and Run returns ErrSchedulerStalled wrapped in a
// TaskError. When only polling tasks are registered, Run cycles until ctx fires.
func (s *Scheduler) Run(ctx context.Context) error {
	pool := NewWorkerPool(s.Config.Workers, s.Config.QueueBuffer)
	defer pool.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tasks := s.snapshot()
		if len(tasks) == 0 || s.settled(tasks) {
			return nil
		}

		ready := s.readySet(tasks)
		if len(ready) == 0 {
			// Cycles are barriered, so an empty ready set with work remaining
			// means the graph can never make progress.
			debugonly.BreakHere()
			Log.WithField("scheduler_id", s.ID).
				WithError(ErrSchedulerStalled).
				Error("scheduling stalled")
			return &TaskError{TaskID: s.ID, Phase: "schedule", Err: ErrSchedulerStalled}
		}

		var wg sync.WaitGroup
		pollingOnly := true
		for _, t := range ready {
			if t.Status() == TaskStatusPending {
				t.SetStatus(TaskStatusScheduledOnce)
				pollingOnly = false
			}
			tt := t
			wg.Add(1)
			pool.Submit(func() {
				defer wg.Done()
				tt.Invoke()
			})
		}
		wg.Wait()

		// Re-arm polling tasks that completed this cycle. Leaving Done
		// replaces the result cell, so the next cycle publishes afresh.
		for _, t := range ready {
			if s.isPolling(t) && t.Status() == TaskStatusDone {
				t.SetStatus(TaskStatusScheduledPolling)
			}
		}

		if pollingOnly && s.Config.PollInterval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.Config.PollInterval):
			}
		}
	}
}

// snapshot returns a copy of the registered task list.
func (s *Scheduler) snapshot() []Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Handle, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// settled reports whether every registered one-shot task is Done.
func (s *Scheduler) settled(tasks []Handle) bool {
	sawOnce := false
	for _, t := range tasks {
		if s.isPolling(t) {
			continue
		}
		sawOnce = true
		if t.Status() != TaskStatusDone {
			return false
		}
	}
	return sawOnce
}

// readySet returns the tasks eligible for dispatch this cycle: not a
// continuation, status Pending or ScheduledPolling, and every dependency Done.
func (s *Scheduler) readySet(tasks []Handle) []Handle {
	var ready []Handle
	for _, t := range tasks {
		if t.IsContinuation() {
			continue
		}
		st := t.Status()
		if st != TaskStatusPending && st != TaskStatusScheduledPolling {
			continue
		}
		if !dependenciesDone(t) {
			continue
		}
		ready = append(ready, t)
	}
	return ready
}

func (s *Scheduler) isPolling(t Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polling[t.ID()]
}

// dependenciesDone reports whether every dependency of t has reached Done.
func dependenciesDone(t Handle) bool {
	for _, d := range t.Dependencies() {
		if d.Status() != TaskStatusDone {
			return false
		}
	}
	return true
}

// InvokeAll invokes the given tasks concurrently, at most limit at a time
// (0 means no limit), and waits for all of them. Invocation stops early when
// ctx fires; tasks not yet started then return ctx's error. Intended for
// manual dispatch of an independent ready set without a full Scheduler.
func InvokeAll(ctx context.Context, limit int, tasks ...Handle) error {
	eg, egCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}

	for _, t := range tasks {
		tt := t
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			tt.Invoke()
			return nil
		})
	}
	return eg.Wait()
}
