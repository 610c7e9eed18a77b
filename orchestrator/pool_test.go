package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeRunner struct {
	input  string
	output string
	err    error
	delay  time.Duration

	active  *int32
	maxSeen *int32
}

func (f *fakeRunner) Run(ctx context.Context) error {
	if f.active != nil {
		n := atomic.AddInt32(f.active, 1)
		for {
			seen := atomic.LoadInt32(f.maxSeen)
			if n <= seen || atomic.CompareAndSwapInt32(f.maxSeen, seen, n) {
				break
			}
		}
		defer atomic.AddInt32(f.active, -1)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeRunner) GetInputPath() string  { return f.input }
func (f *fakeRunner) GetOutputPath() string { return f.output }

func TestExecuteRunsAllTasks(t *testing.T) {
	tasks := make([]*Task, 4)
	for i := range tasks {
		tasks[i] = &Task{
			ID:      fmt.Sprintf("clip-%d", i),
			Command: &fakeRunner{input: fmt.Sprintf("in%d.mp4", i), output: fmt.Sprintf("out%d.avi", i)},
		}
	}

	pool := NewPool(2)
	if err := pool.Execute(context.Background(), tasks); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, task := range tasks {
		if task.Status != TaskCompleted {
			t.Errorf("Task %s: expected completed, got %d", task.ID, task.Status)
		}
		if task.Result == nil || !task.Result.Success {
			t.Errorf("Task %s: expected successful result", task.ID)
		}
		if task.EndTime.Before(task.StartTime) {
			t.Errorf("Task %s: end time before start time", task.ID)
		}
	}
}

func TestExecuteFailureDoesNotStopOthers(t *testing.T) {
	tasks := []*Task{
		{ID: "ok-1", Command: &fakeRunner{input: "a.mp4", output: "a.avi"}},
		{ID: "bad", Command: &fakeRunner{input: "b.mp4", err: fmt.Errorf("ffmpeg exited 1")}},
		{ID: "ok-2", Command: &fakeRunner{input: "c.mp4", output: "c.avi"}},
	}

	pool := NewPool(1)
	err := pool.Execute(context.Background(), tasks)
	if err == nil {
		t.Fatal("Expected error but got none")
	}

	if tasks[1].Status != TaskFailed || tasks[1].Result == nil || tasks[1].Result.Success {
		t.Error("Expected the failing task to carry a failed result")
	}
	if tasks[0].Status != TaskCompleted || tasks[2].Status != TaskCompleted {
		t.Error("Expected the other tasks to complete")
	}
}

func TestExecuteHonorsWorkerLimit(t *testing.T) {
	var active, maxSeen int32
	tasks := make([]*Task, 8)
	for i := range tasks {
		tasks[i] = &Task{
			ID: fmt.Sprintf("clip-%d", i),
			Command: &fakeRunner{
				input:   "in.mp4",
				output:  "out.avi",
				delay:   10 * time.Millisecond,
				active:  &active,
				maxSeen: &maxSeen,
			},
		}
	}

	pool := NewPool(3)
	if err := pool.Execute(context.Background(), tasks); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&maxSeen); got > 3 {
		t.Errorf("Expected at most 3 concurrent tasks, saw %d", got)
	}
}

func TestExecuteProgressCallback(t *testing.T) {
	tasks := make([]*Task, 3)
	for i := range tasks {
		tasks[i] = &Task{
			ID:      fmt.Sprintf("clip-%d", i),
			Command: &fakeRunner{input: "in.mp4", output: "out.avi"},
		}
	}

	var mu sync.Mutex
	var seen []int
	pool := NewPool(1)
	pool.SetProgressCallback(func(completed, total int, task *Task) {
		mu.Lock()
		defer mu.Unlock()
		if total != 3 {
			t.Errorf("Expected total 3, got %d", total)
		}
		seen = append(seen, completed)
	})

	if err := pool.Execute(context.Background(), tasks); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 {
		t.Fatalf("Expected 3 progress updates, got %d", len(seen))
	}
	for i, completed := range seen {
		if completed != i+1 {
			t.Errorf("Update %d: expected completed %d, got %d", i, i+1, completed)
		}
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []*Task{
		{ID: "clip-0", Command: &fakeRunner{input: "in.mp4", output: "out.avi", delay: time.Second}},
		{ID: "clip-1", Command: &fakeRunner{input: "in.mp4", output: "out.avi", delay: time.Second}},
	}

	pool := NewPool(1)
	err := pool.Execute(ctx, tasks)
	if err == nil {
		t.Fatal("Expected error but got none")
	}
}

func TestExecuteNoTasks(t *testing.T) {
	pool := NewPool(4)
	if err := pool.Execute(context.Background(), nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestNewPoolClampsWorkers(t *testing.T) {
	pool := NewPool(0)
	tasks := []*Task{{ID: "clip-0", Command: &fakeRunner{input: "in.mp4", output: "out.avi"}}}
	if err := pool.Execute(context.Background(), tasks); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tasks[0].Status != TaskCompleted {
		t.Error("Expected the task to complete with clamped worker count")
	}
}
