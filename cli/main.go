package main

import (
	"context"
	"fmt"
	"time"

	task "github.com/seoyhaein/task-go"
	"github.com/seoyhaein/task-go/debugonly"
)

// TODO run the wide configuration on a test server; the laptop-sized run below keeps the numbers small.

const (
	fanWidth   = 32 // parallel leaf tasks
	chainDepth = 16 // continuation links hanging off the join
)

// heavyWork simulates a CPU-bound computation followed by a short sleep that
// stands in for network / disk latency.
func heavyWork(iterations int, sleep time.Duration) int {
	sum := 0
	for i := 0; i < iterations; i++ { //nolint:intrange
		sum += i*i + i%3
	}
	time.Sleep(sleep)
	return sum
}

func main() {
	RunHeavyGraph()
}

// RunHeavyGraph builds and executes a wide fan-in feeding a long continuation
// chain, for load testing the scheduler and the inline chaining path.
func RunHeavyGraph() {
	collector := task.NewTimeIntervalCollector()

	leaves := make([]*task.Task[int], fanWidth)
	for i := range leaves {
		leaves[i] = task.NewTaskFunc(func() int {
			return heavyWork(10_000, 2*time.Millisecond)
		}, task.WithName(fmt.Sprintf("leaf-%02d", i)))
	}

	join := task.NewTaskFunc(func() int {
		total := 0
		for _, l := range leaves {
			total += l.Result().Get()
		}
		return total
	}, task.WithName("join"))
	task.AddDependencyList(join, leaves)

	// Hang a long continuation chain off the join node; the whole chain runs
	// inline on the goroutine that completes the join.
	chain := make([]*task.Task[int], 0, chainDepth)
	cur := join
	for i := 0; i < chainDepth; i++ { //nolint:intrange
		cur = task.Then(cur, func(v int) int { return v + 1 },
			task.WithName(fmt.Sprintf("link-%02d", i)))
		chain = append(chain, cur)
	}

	s := task.NewScheduler(
		task.WithWorkers(8),
		task.WithSchedulerCollector(collector),
	)
	for _, l := range leaves {
		s.Add(l)
	}
	s.Add(join)

	start := time.Now()
	if err := s.Run(context.Background()); err != nil {
		panic(fmt.Sprintf("Run failed: %v", err))
	}
	elapsed := time.Since(start)

	tail := chain[len(chain)-1]
	fmt.Printf("debugger tag: %v\n", debugonly.Enabled())
	fmt.Printf("Heavy graph run complete in %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("tail result: %d (chain depth %d)\n", tail.Result().Get(), chainDepth)
	fmt.Printf("intervals collected: %d\n", len(collector.Intervals()))
	fmt.Printf("live tasks: %d\n", task.LiveTaskCount())

	for _, l := range leaves {
		_ = l.Close()
	}
	_ = join.Close()
	for _, c := range chain {
		_ = c.Close()
	}
	fmt.Printf("live tasks after close: %d\n", task.LiveTaskCount())
}
