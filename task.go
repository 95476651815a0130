package task_go

import (
	"sync"
	"sync/atomic"
	"weak"

	"github.com/google/uuid"
	"github.com/seoyhaein/utils"
)

// Option configures a Task at construction time.
type Option func(*taskConfig)

type taskConfig struct {
	name  string
	color DebugColor
}

// WithName sets the human-readable name reported to the profiling collector.
func WithName(name string) Option {
	return func(c *taskConfig) { c.name = name }
}

// WithColor sets the 3-component debug color reported to the profiling
// collector. Defaults to opaque white.
func WithColor(r, g, b float32) Option {
	return func(c *taskConfig) { c.color = DebugColor{r, g, b} }
}

// workSlot is the fixed wrapper type stored inside Task.workVal (atomic.Value).
// Using a dedicated concrete type prevents the "inconsistent type" panic that
// occurs when different concrete types are stored across calls.
type workSlot struct{ fn func() }

// contBox pins the type-erased handle of a task so that an antecedent can hold
// a weak, non-owning reference to it. The box is created with the task and is
// reachable only through it, so the box is collectable exactly when the task is.
type contBox struct{ task Handle }

// Task is the generic unit of deferred work: it carries a work closure, a
// single-assignment result cell of type T, an ordered list of strong
// dependency references, a non-owning link to at most one continuation, a
// scheduling status and profiling metadata.
//
// A Task must always be handled as a pointer; copying a Task is forbidden
// because atomic.Value must not be copied after first use.
type Task[T any] struct {
	id             string
	name           string
	isContinuation bool // immutable after construction

	// workVal holds the work closure wrapped in *workSlot.
	// Store exclusively via workStore, load exclusively via workLoad.
	workVal atomic.Value

	// box is the weak-reference target handed to antecedents when this task
	// is installed as a continuation. It lives exactly as long as the task.
	box *contBox

	// mu guards everything below.
	mu        sync.RWMutex
	cell      *ResultCell[T]
	cont      weak.Pointer[contBox]
	contSet   bool
	deps      []Handle
	collector IntervalCollector
	color     DebugColor
	status    TaskStatus
	closed    bool
}

var _ Handle = (*Task[Unit])(nil)

// NewTask creates a task with no work attached. The task starts in
// TaskStatusInvalid with a fresh, unwritten result cell.
func NewTask[T any](opts ...Option) *Task[T] {
	return newTask[T](false, opts...)
}

// NewTaskFunc creates a task whose work publishes f's return value into the
// current result cell and marks the task Done.
func NewTaskFunc[T any](f func() T, opts ...Option) *Task[T] {
	t := NewTask[T](opts...)
	t.SetWork(func() {
		publish(t, f())
	})
	return t
}

func newTask[T any](isContinuation bool, opts ...Option) *Task[T] {
	cfg := taskConfig{color: ColorWhite}
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Task[T]{
		id:             uuid.NewString(),
		name:           cfg.name,
		color:          cfg.color,
		isContinuation: isContinuation,
		status:         TaskStatusInvalid,
		cell:           NewResultCell[T](),
	}
	t.box = &contBox{task: t}
	liveCount.Add(1)
	return t
}

// publish writes value into t's current cell and marks the task Done. A
// duplicate write on a run that was never re-armed is dropped, so a polling
// antecedent may re-trigger an un-reset continuation without failing.
func publish[T any](t *Task[T], value T) {
	if err := t.Result().Set(value); err != nil {
		Log.Debugf("task %s: %v", t.label(), err)
	}
	t.SetStatus(TaskStatusDone)
}

// ID returns the unique identifier assigned at creation time (UUID v4).
func (t *Task[T]) ID() string {
	return t.id
}

// Name returns the human-readable name, or "" when none was set.
func (t *Task[T]) Name() string {
	return t.name
}

// label returns the name when one was set, the ID otherwise. Used in logs.
func (t *Task[T]) label() string {
	if utils.IsEmptyString(t.name) {
		return t.id
	}
	return t.name
}

// IsContinuation reports whether this task was created by a continuation builder.
func (t *Task[T]) IsContinuation() bool {
	return t.isContinuation
}

// Status returns the task's current status under the read lock.
func (t *Task[T]) Status() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// SetStatus sets the task's status. Moving out of Done re-arms the task: the
// result cell is replaced with a fresh one so the next run can publish again,
// while read handles to the old cell keep returning the old value. Setting
// Done never resets.
//
// Competing transitions on the same task are not ordered here; the scheduler
// must ensure at most one goroutine drives a given task's status at a time.
func (t *Task[T]) SetStatus(status TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == TaskStatusDone && status != TaskStatusDone {
		t.cell = NewResultCell[T]()
	}
	t.status = status
}

// Reset installs a fresh result cell and returns the task to Pending,
// regardless of the current status. This is the only way out of Invalid.
func (t *Task[T]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cell = NewResultCell[T]()
	t.status = TaskStatusPending
}

// Result returns the current result cell. The returned cell is the read
// handle: it may be copied to any number of consumers and stays valid for the
// value of the run it belongs to, even after the task is re-armed.
func (t *Task[T]) Result() *ResultCell[T] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cell
}

// workStore stores fn inside t.workVal wrapped in a *workSlot.
// This must be the ONLY way values are written to workVal.
func (t *Task[T]) workStore(fn func()) {
	t.workVal.Store(&workSlot{fn: fn})
}

// workLoad returns the work closure stored in t.workVal, or nil if none was set.
func (t *Task[T]) workLoad() func() {
	v := t.workVal.Load()
	if v == nil {
		return nil
	}
	return v.(*workSlot).fn
}

// SetWork attaches the work closure. The closure is responsible for writing
// its result into the task's current cell and for marking the task Done.
func (t *Task[T]) SetWork(fn func()) {
	t.workStore(fn)
}

// Work returns the attached work closure, or nil.
func (t *Task[T]) Work() func() {
	return t.workLoad()
}

// Collector returns the injected profiling collector, or nil.
func (t *Task[T]) Collector() IntervalCollector {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.collector
}

// SetCollector injects the profiling collector. Pass nil to detach.
func (t *Task[T]) SetCollector(c IntervalCollector) {
	t.mu.Lock()
	t.collector = c
	t.mu.Unlock()
}

// Color returns the debug color.
func (t *Task[T]) Color() DebugColor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.color
}

// SetColor sets the debug color.
func (t *Task[T]) SetColor(color DebugColor) {
	t.mu.Lock()
	t.color = color
	t.mu.Unlock()
}

// Dependencies returns the ordered dependency list. The returned slice is
// stable until the next joiner call; callers must not mutate it.
func (t *Task[T]) Dependencies() []Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.deps
}

// AddDependencies appends one or more antecedents — of arbitrary, possibly
// distinct result types — to the dependency list, in call order. The task
// holds strong references to its antecedents; nil entries are ignored.
// No ordering or readiness check is performed here — readiness tracking is
// the scheduler's responsibility.
func (t *Task[T]) AddDependencies(deps ...Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, d := range deps {
		if d == nil {
			Log.Warnf("task %s: nil dependency ignored", t.label())
			continue
		}
		t.deps = append(t.deps, d)
	}
}

// AddDependencyList appends a homogeneous slice of same-typed antecedents to
// t's dependency list, in order.
func AddDependencyList[T, U any](t *Task[T], deps []*Task[U]) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, d := range deps {
		if d == nil {
			Log.Warnf("task %s: nil dependency ignored", t.label())
			continue
		}
		t.deps = append(t.deps, d)
	}
}

// setContinuation points t's continuation link at box, displacing any
// previous continuation. The link is non-owning: whoever holds the strong
// handle returned by the builder controls the continuation's lifetime.
func (t *Task[T]) setContinuation(box *contBox) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cont = weak.Make(box)
	t.contSet = true
}

// Continuation returns the continuation handle when the link is set and still
// resolvable, or nil.
func (t *Task[T]) Continuation() Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.contSet {
		return nil
	}
	if box := t.cont.Value(); box != nil {
		return box.task
	}
	return nil
}

// Invoke runs the work closure inside the profiling bracket and, when the
// task finished the run in Done, synchronously invokes the continuation on
// the calling goroutine. A task with no work attached is a programming error
// and panics. A task whose status is still Invalid after the closure ran
// panics as well: the closure must drive the status.
//
// Chaining is push-based: the goroutine that runs a task also runs its whole
// continuation chain inline before Invoke returns.
func (t *Task[T]) Invoke() {
	work := t.workLoad()
	if work == nil {
		Log.Panicf("task %s: Invoke called with no work attached", t.label())
	}

	t.mu.RLock()
	collector, name, color := t.collector, t.name, t.color
	t.mu.RUnlock()

	end := scopedInterval(collector, name, color)
	work()
	end()

	switch t.Status() {
	case TaskStatusInvalid:
		Log.Panicf("task %s: status is Invalid after work ran", t.label())
	case TaskStatusDone:
		t.invokeContinuation()
	default:
		// The run did not complete; nothing chains forward.
	}
}

// invokeContinuation resolves the continuation link and invokes it. An unset
// or expired link is a no-op. A link that passes the liveness check but fails
// to resolve means the continuation's owner vanished after claiming liveness,
// which is a fatal invariant violation.
func (t *Task[T]) invokeContinuation() {
	t.mu.RLock()
	contSet, cont := t.contSet, t.cont
	t.mu.RUnlock()

	if !contSet || cont.Value() == nil {
		return
	}
	if box := cont.Value(); box != nil {
		box.task.Invoke()
	} else {
		Log.Panicf("task %s: continuation claims liveness but cannot be resolved", t.label())
	}
}

// Close releases the task for leak accounting. Closing a task that is still
// owned by a scheduler — Pending, ScheduledOnce or ScheduledPolling — is a
// programming error and panics. A second Close returns ErrTaskClosed.
func (t *Task[T]) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTaskClosed
	}
	if t.status == TaskStatusPending ||
		t.status == TaskStatusScheduledOnce ||
		t.status == TaskStatusScheduledPolling {
		Log.Panicf("task %s: closed while still scheduled (status=%v)", t.label(), t.status)
	}

	t.closed = true
	liveCount.Add(-1)
	return nil
}
