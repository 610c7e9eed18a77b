// Package orchestrator runs clip normalization tasks concurrently with
// a bounded worker pool.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/willbearfruits/datamosh-gui/models"
)

// Runner is the unit of work a task executes. The normalization
// Builder satisfies it.
type Runner interface {
	Run(ctx context.Context) error
	GetInputPath() string
	GetOutputPath() string
}

// TaskStatus represents the current state of a task.
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskCompleted
	TaskFailed
)

// Task wraps a Runner with status and result tracking.
type Task struct {
	ID      string
	Command Runner

	Status    TaskStatus
	Error     error
	Result    *models.NormalizeResult
	StartTime time.Time
	EndTime   time.Time
}

// Pool executes tasks with a fixed number of workers.
type Pool struct {
	workers    int
	onProgress func(completed, total int, task *Task)
}

// NewPool creates a pool. Worker counts below one are raised to one.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// SetProgressCallback sets a callback invoked after each task finishes,
// successfully or not.
func (p *Pool) SetProgressCallback(callback func(completed, total int, task *Task)) {
	p.onProgress = callback
}

// Execute runs all tasks and blocks until they finish or the context
// is cancelled. Task failures do not stop the remaining tasks; the
// returned error combines every failure. Cancellation stops workers
// from picking up new tasks and is reported as the context's error.
func (p *Pool) Execute(ctx context.Context, tasks []*Task) error {
	if len(tasks) == 0 {
		return nil
	}

	queue := make(chan *Task)
	var wg sync.WaitGroup

	var mu sync.Mutex
	completed := 0

	finish := func(task *Task) {
		mu.Lock()
		completed++
		done := completed
		mu.Unlock()
		if p.onProgress != nil {
			p.onProgress(done, len(tasks), task)
		}
	}

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				p.runTask(ctx, task)
				finish(task)
			}
		}()
	}

feed:
	for _, task := range tasks {
		select {
		case queue <- task:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)
	wg.Wait()

	var err error
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	for _, task := range tasks {
		if task.Status == TaskFailed {
			err = multierr.Append(err, task.Error)
		}
	}
	return err
}

func (p *Pool) runTask(ctx context.Context, task *Task) {
	task.Status = TaskRunning
	task.StartTime = time.Now()

	err := task.Command.Run(ctx)
	task.EndTime = time.Now()

	if err != nil {
		task.Status = TaskFailed
		task.Error = err
		task.Result, _ = models.NewNormalizeFailure(task.ID, task.Command.GetInputPath(), err)
		return
	}

	task.Status = TaskCompleted
	task.Result, _ = models.NewNormalizeSuccess(task.ID, task.Command.GetInputPath(), task.Command.GetOutputPath())
}
