package task_go

import (
	"errors"
	"fmt"
)

// ErrResultAlreadySet, ErrTaskClosed and ErrSchedulerStalled are the sentinel
// errors reported by result-cell writes, task lifecycle operations and the
// scheduler respectively.
var (
	ErrResultAlreadySet = errors.New("result already set for this run")
	ErrTaskClosed       = errors.New("task already closed")
	ErrSchedulerStalled = errors.New("no task is ready and unfinished work remains")
)

// TaskError carries structured information about a task-level failure.
type TaskError struct {
	TaskID string
	Phase  string
	Err    error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s failed in %s phase: %v", e.TaskID, e.Phase, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}
