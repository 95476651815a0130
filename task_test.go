package task_go

import (
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

// TestInvoke_NoWorkPanics verifies that invoking a task with no work closure
// attached fails fatally instead of silently doing nothing.
func TestInvoke_NoWorkPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	task := NewTask[int](WithName("no-work"))
	defer func() {
		if recover() == nil {
			t.Error("expected Invoke without work to panic")
		}
		task.SetStatus(TaskStatusDone)
		_ = task.Close()
	}()
	task.Invoke()
}

// TestInvoke_InvalidAfterWorkPanics verifies that a work closure which never
// drives the status out of Invalid is treated as a programming error.
func TestInvoke_InvalidAfterWorkPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	task := NewTask[int](WithName("no-status"))
	task.SetWork(func() {})
	defer func() {
		if recover() == nil {
			t.Error("expected Invoke with Invalid status after work to panic")
		}
		task.SetStatus(TaskStatusDone)
		_ = task.Close()
	}()
	task.Invoke()
}

// TestSetStatus_DoneToPendingResets verifies the automatic reset: leaving Done
// installs a fresh result cell, a subsequent write succeeds as if the task had
// never run, and the old read handle keeps returning the old value.
func TestSetStatus_DoneToPendingResets(t *testing.T) {
	defer goleak.VerifyNone(t)

	task := NewTask[int](WithName("reset"))
	old := task.Result()
	if err := old.Set(11); err != nil {
		t.Fatalf("Set on first cell failed: %v", err)
	}
	task.SetStatus(TaskStatusDone)

	// Done → Done does not reset.
	task.SetStatus(TaskStatusDone)
	if task.Result() != old {
		t.Fatal("Done→Done replaced the result cell")
	}

	// Done → Pending resets.
	task.SetStatus(TaskStatusPending)
	fresh := task.Result()
	if fresh == old {
		t.Fatal("Done→Pending did not replace the result cell")
	}
	if err := fresh.Set(22); err != nil {
		t.Errorf("write to fresh cell failed: %v", err)
	}
	if got := old.Get(); got != 11 {
		t.Errorf("old read handle corrupted: expected 11, got %d", got)
	}
	if got := fresh.Get(); got != 22 {
		t.Errorf("fresh cell: expected 22, got %d", got)
	}

	task.SetStatus(TaskStatusDone)
	_ = task.Close()
}

// TestReset_LeavesInvalid verifies that Reset is the way out of Invalid.
func TestReset_LeavesInvalid(t *testing.T) {
	defer goleak.VerifyNone(t)

	task := NewTask[int]()
	if got := task.Status(); got != TaskStatusInvalid {
		t.Fatalf("expected construction status Invalid, got %v", got)
	}
	old := task.Result()
	task.Reset()
	if got := task.Status(); got != TaskStatusPending {
		t.Errorf("expected Pending after Reset, got %v", got)
	}
	if task.Result() == old {
		t.Error("Reset did not install a fresh result cell")
	}

	task.SetStatus(TaskStatusDone)
	_ = task.Close()
}

// TestAddDependencies_HeterogeneousOrder verifies the variadic joiner: three
// antecedents of distinct result types produce exactly three entries in call
// order.
func TestAddDependencies_HeterogeneousOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := NewTask[int](WithName("a"))
	b := NewTask[string](WithName("b"))
	c := NewTask[Unit](WithName("c"))
	join := NewTask[int](WithName("join"))

	join.AddDependencies(a, b, c)

	deps := join.Dependencies()
	if len(deps) != 3 {
		t.Fatalf("expected 3 dependencies, got %d", len(deps))
	}
	for i, want := range []Handle{a, b, c} {
		if deps[i].ID() != want.ID() {
			t.Errorf("dependency %d: expected %s, got %s", i, want.Name(), deps[i].Name())
		}
	}

	for _, task := range []Handle{a, b, c, join} {
		task.SetStatus(TaskStatusDone)
		_ = task.Close()
	}
}

// TestAddDependencyList verifies the homogeneous slice form of the joiner.
func TestAddDependencyList(t *testing.T) {
	defer goleak.VerifyNone(t)

	antecedents := []*Task[int]{
		NewTask[int](WithName("d0")),
		NewTask[int](WithName("d1")),
		NewTask[int](WithName("d2")),
	}
	join := NewTask[string](WithName("join"))

	AddDependencyList(join, antecedents)

	deps := join.Dependencies()
	if len(deps) != len(antecedents) {
		t.Fatalf("expected %d dependencies, got %d", len(antecedents), len(deps))
	}
	for i, d := range antecedents {
		if deps[i].ID() != d.ID() {
			t.Errorf("dependency %d out of order", i)
		}
	}

	join.SetStatus(TaskStatusDone)
	_ = join.Close()
	for _, d := range antecedents {
		d.SetStatus(TaskStatusDone)
		_ = d.Close()
	}
}

// TestClose_LiveCount verifies that the live-instance count returns to its
// pre-test value once every created task has been closed.
func TestClose_LiveCount(t *testing.T) {
	defer goleak.VerifyNone(t)

	pre := LiveTaskCount()

	tasks := make([]*Task[int], 10)
	for i := range tasks {
		tasks[i] = NewTask[int]()
	}
	if got := LiveTaskCount(); got != pre+10 {
		t.Errorf("expected live count %d after creation, got %d", pre+10, got)
	}

	for _, task := range tasks {
		task.SetStatus(TaskStatusDone)
		if err := task.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}
	if got := LiveTaskCount(); got != pre {
		t.Errorf("expected live count restored to %d, got %d", pre, got)
	}
}

// TestClose_LiveCountConcurrent creates and closes tasks from many goroutines
// and verifies the counter stays consistent. Run with -race.
func TestClose_LiveCountConcurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	const (
		goroutines   = 16
		perGoroutine = 100
	)
	pre := LiveTaskCount()

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ { //nolint:intrange
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ { //nolint:intrange
				task := NewTask[Unit]()
				task.SetStatus(TaskStatusDone)
				_ = task.Close()
			}
		}()
	}
	wg.Wait()

	if got := LiveTaskCount(); got != pre {
		t.Errorf("expected live count restored to %d, got %d", pre, got)
	}
}

// TestClose_WhileScheduledPanics verifies the corrected destruction invariant:
// a task must not be released while a scheduler still owns it.
func TestClose_WhileScheduledPanics(t *testing.T) {
	defer goleak.VerifyNone(t)

	cases := []struct {
		name   string
		status TaskStatus
	}{
		{"Pending", TaskStatusPending},
		{"ScheduledOnce", TaskStatusScheduledOnce},
		{"ScheduledPolling", TaskStatusScheduledPolling},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := NewTask[int](WithName("close-" + tc.name))
			task.SetStatus(tc.status)

			func() {
				defer func() {
					if recover() == nil {
						t.Errorf("expected Close in %v to panic", tc.status)
					}
				}()
				_ = task.Close()
			}()

			// Release properly so the counter stays consistent for other tests.
			task.SetStatus(TaskStatusDone)
			if err := task.Close(); err != nil {
				t.Errorf("Close after settling failed: %v", err)
			}
		})
	}
}

// TestClose_Twice verifies that a second Close reports ErrTaskClosed rather
// than corrupting the live count.
func TestClose_Twice(t *testing.T) {
	defer goleak.VerifyNone(t)

	pre := LiveTaskCount()
	task := NewTask[int]()
	task.SetStatus(TaskStatusDone)

	if err := task.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := task.Close(); !errors.Is(err, ErrTaskClosed) {
		t.Errorf("expected ErrTaskClosed, got %v", err)
	}
	if got := LiveTaskCount(); got != pre {
		t.Errorf("double Close corrupted live count: expected %d, got %d", pre, got)
	}
}

// TestInvoke_NotDoneDoesNotChain verifies that a run which does not finish in
// Done never triggers the continuation.
func TestInvoke_NotDoneDoesNotChain(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := NewTaskFunc(func() int { return 1 }, WithName("a"))
	// Work that parks the task back in Pending instead of completing.
	a.SetWork(func() {
		a.SetStatus(TaskStatusPending)
	})

	ran := false
	b := ThenDo(a, func(int) { ran = true }, WithName("b"))

	a.Invoke()
	if ran {
		t.Error("continuation ran although antecedent did not reach Done")
	}
	if got := b.Status(); got == TaskStatusDone {
		t.Errorf("continuation status unexpectedly Done")
	}

	a.SetStatus(TaskStatusDone)
	_ = a.Close()
	b.SetStatus(TaskStatusDone)
	_ = b.Close()
}
