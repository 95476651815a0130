package task_go

import (
	"sync/atomic"
)

// TaskStatus represents the scheduling state of a Task.
type TaskStatus int

// TaskStatusPending through TaskStatusInvalid are the scheduling states of a Task.
// A task is constructed in TaskStatusInvalid; the external scheduler moves it
// Pending → ScheduledOnce|ScheduledPolling → Done. Leaving Done for any other
// state re-arms the task with a fresh result cell (see Task.SetStatus).
const (
	TaskStatusPending TaskStatus = iota
	TaskStatusScheduledOnce
	TaskStatusScheduledPolling
	TaskStatusDone
	TaskStatusInvalid
)

func (s TaskStatus) String() string {
	switch s {
	case TaskStatusPending:
		return "Pending"
	case TaskStatusScheduledOnce:
		return "ScheduledOnce"
	case TaskStatusScheduledPolling:
		return "ScheduledPolling"
	case TaskStatusDone:
		return "Done"
	case TaskStatusInvalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// Handle is the type-erased capability surface of a Task. It lets a scheduler
// hold and drive a heterogeneous collection of tasks (differing result types)
// through one polymorphic value. Nothing on Handle is result-typed; all typed
// behaviour lives on Task[T].
type Handle interface {
	// Invoke runs the task's work closure and, when the task completes, its
	// continuation. See Task.Invoke for the full contract.
	Invoke()

	Status() TaskStatus
	SetStatus(status TaskStatus)

	// IsContinuation reports whether this task was created by a continuation
	// builder. Continuations are invoked inline by their antecedent and must
	// not be dispatched directly by a scheduler.
	IsContinuation() bool

	// Dependencies returns the ordered dependency list. The returned slice is
	// read-only and stable until the next joiner call; callers must not mutate it.
	Dependencies() []Handle

	Collector() IntervalCollector
	SetCollector(c IntervalCollector)

	ID() string
	Name() string

	// Close releases the task for leak accounting. It is an error to close a
	// task twice and a programming error (panic) to close one that is still
	// in a scheduled state.
	Close() error
}

// Unit is the result type of continuation tasks built from functions that
// return nothing, so result propagation stays uniform across the four
// continuation shapes.
type Unit struct{}

// DebugColor is the 3-component RGB label handed to the profiling collector.
type DebugColor [3]float32

// ColorWhite is the default debug color (opaque white).
var ColorWhite = DebugColor{1, 1, 1}

// liveCount is the process-wide count of live Task instances, kept for leak
// diagnostics. It is updated atomically because tasks are created and closed
// from multiple goroutines.
var liveCount atomic.Int64

// LiveTaskCount returns the number of Task instances that have been created
// and not yet closed.
func LiveTaskCount() int64 {
	return liveCount.Load()
}
