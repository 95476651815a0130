package task_go

import (
	"sync"
	"testing"

	"go.uber.org/goleak"
)

// TestCollector_BracketsEachExecution verifies that an injected collector
// receives exactly one interval per execution, keyed by name and color.
func TestCollector_BracketsEachExecution(t *testing.T) {
	defer goleak.VerifyNone(t)

	collector := NewTimeIntervalCollector()
	task := NewTaskFunc(func() int { return 1 }, WithName("profiled"), WithColor(1, 0, 0))
	task.SetCollector(collector)

	task.Invoke()

	ivs := collector.Intervals()
	if len(ivs) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(ivs))
	}
	iv := ivs[0]
	if iv.Name != "profiled" {
		t.Errorf("expected interval name %q, got %q", "profiled", iv.Name)
	}
	if iv.Color != (DebugColor{1, 0, 0}) {
		t.Errorf("expected color {1,0,0}, got %v", iv.Color)
	}
	if iv.End.Before(iv.Start) {
		t.Error("interval end precedes its start")
	}

	// A second run brackets again.
	task.SetStatus(TaskStatusPending)
	task.Invoke()
	if got := len(collector.Intervals()); got != 2 {
		t.Errorf("expected 2 intervals after re-run, got %d", got)
	}

	_ = task.Close()
}

// TestCollector_NilIsNoOp verifies that a task without a collector runs fine.
func TestCollector_NilIsNoOp(t *testing.T) {
	defer goleak.VerifyNone(t)

	task := NewTaskFunc(func() int { return 7 }, WithName("unprofiled"))
	task.Invoke()
	if got := task.Result().Get(); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	_ = task.Close()
}

// TestCollector_DefaultColorIsWhite verifies the default debug color.
func TestCollector_DefaultColorIsWhite(t *testing.T) {
	defer goleak.VerifyNone(t)

	task := NewTask[int]()
	if got := task.Color(); got != ColorWhite {
		t.Errorf("expected default color %v, got %v", ColorWhite, got)
	}
	task.SetStatus(TaskStatusDone)
	_ = task.Close()
}

// TestTimeIntervalCollector_Concurrent collects from many goroutines and
// verifies nothing is lost. Run with -race.
func TestTimeIntervalCollector_Concurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	const (
		goroutines = 8
		perG       = 50
	)
	collector := NewTimeIntervalCollector()

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ { //nolint:intrange
		go func() {
			defer wg.Done()
			for i := 0; i < perG; i++ { //nolint:intrange
				collector.Collect(Interval{Name: "n", Color: ColorWhite})
			}
		}()
	}
	wg.Wait()

	if got := len(collector.Intervals()); got != goroutines*perG {
		t.Errorf("expected %d intervals, got %d", goroutines*perG, got)
	}

	collector.Reset()
	if got := len(collector.Intervals()); got != 0 {
		t.Errorf("expected empty collector after Reset, got %d", got)
	}
}
