// Package parallel runs independent per-node and per-pair computations on a
// bounded pool of goroutines.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of worker goroutines
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
	onPanic   func(any)
}

// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
var ErrTooManyWorkers = errors.New("worker count exceeds maximum")

// ErrTaskPanic wraps a panic raised by a task run through Run.
var ErrTaskPanic = errors.New("task panicked")

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// Task is a unit of work executed by Run.
type Task func(ctx context.Context) error

// NewWorkerPool creates a new worker pool with specified number of workers.
// A non-positive count defaults to runtime.NumCPU().
func NewWorkerPool(workers int) (*WorkerPool, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Prevent overflow in buffer size calculation
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2), // Buffer for 2x workers
	}

	pool.start()
	return pool, nil
}

// SetPanicHandler installs a callback for panics recovered from tasks
// submitted with Submit. It must be called before submitting.
func (wp *WorkerPool) SetPanicHandler(fn func(any)) {
	wp.onPanic = fn
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// start initializes the worker goroutines
func (wp *WorkerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// worker processes tasks from the queue
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		// Recover from panics in tasks to prevent worker crash
		func() {
			defer func() {
				if r := recover(); r != nil && wp.onPanic != nil {
					wp.onPanic(r)
				}
			}()
			task()
		}()
	}
}

// Submit adds a task to the worker pool
// Returns false if the pool is closed, true if task was submitted
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return false
	}

	wp.taskQueue <- task
	return true
}

// Close shuts down the worker pool and waits for queued tasks to finish.
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// Run executes tasks on a pool of the given size and returns the first error.
// Once a task fails or ctx is done, tasks that have not started are skipped.
// A panicking task is reported as ErrTaskPanic.
func Run(ctx context.Context, workers int, tasks []Task) error {
	if len(tasks) == 0 {
		return ctx.Err()
	}
	if workers <= 0 || workers > len(tasks) {
		workers = min(len(tasks), runtime.NumCPU())
	}

	pool, err := NewWorkerPool(workers)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel(err)
		})
	}

	for _, task := range tasks {
		pool.Submit(func() {
			if runCtx.Err() != nil {
				return
			}
			defer func() {
				if r := recover(); r != nil {
					fail(fmt.Errorf("%w: %v", ErrTaskPanic, r))
				}
			}()
			if err := task(runCtx); err != nil {
				fail(err)
			}
		})
	}
	pool.Close()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
