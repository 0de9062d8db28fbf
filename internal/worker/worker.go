// Package worker provides a concurrent task execution system with a configurable number of workers.
//
// The Pool struct manages a pool of workers that can execute tasks concurrently while
// limiting the number of goroutines running simultaneously. Task errors are collected
// and aggregated instead of aborting the remaining tasks, which is what the snapshot
// scanner needs when hashing many independent files.
package worker

import (
	"sync"
	"sync/atomic"

	"github.com/treeline-io/treeline/internal/errors"
)

// Task represents a unit of work that can be executed.
type Task func() error

// Pool manages concurrent task execution with a configurable number of workers.
type Pool struct {
	semaphore   chan struct{}
	allErrors   *errors.MultiError
	wg          sync.WaitGroup
	maxWorkers  int
	mu          sync.RWMutex
	allErrorsMu sync.RWMutex
	isStopping  atomic.Bool
	isRunning   bool
}

// NewWorkerPool creates a new worker pool with the specified maximum number of concurrent workers.
func NewWorkerPool(maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}

	return &Pool{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
		isRunning:  false,
		allErrors:  &errors.MultiError{},
	}
}

// Start initializes the worker pool.
func (wp *Pool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.isRunning {
		return
	}

	wp.isRunning = true
	wp.isStopping.Store(false)

	wp.semaphore = make(chan struct{}, wp.maxWorkers)

	wp.allErrorsMu.Lock()
	wp.allErrors = &errors.MultiError{}
	wp.allErrorsMu.Unlock()
}

// appendError safely appends an error to allErrors.
func (wp *Pool) appendError(err error) {
	if err == nil {
		return
	}

	wp.allErrorsMu.Lock()
	wp.allErrors = wp.allErrors.Append(err)
	wp.allErrorsMu.Unlock()
}

// Submit adds a new task and starts a goroutine to execute it when a worker is available.
func (wp *Pool) Submit(task Task) {
	wp.mu.RLock()
	notRunning := !wp.isRunning
	wp.mu.RUnlock()

	if notRunning {
		wp.Start()
	}

	// Don't submit new tasks if the pool is stopping
	if wp.isStopping.Load() {
		return
	}

	wp.wg.Add(1)

	// Start a new goroutine for each task, but limit concurrency with the semaphore
	go func() {
		defer wp.wg.Done()

		wp.semaphore <- struct{}{}

		defer func() { <-wp.semaphore }()

		if err := task(); err != nil {
			wp.appendError(err)
		}
	}()
}

// Wait blocks until all tasks are completed and returns any errors.
func (wp *Pool) Wait() error {
	wp.wg.Wait()

	wp.allErrorsMu.RLock()
	defer wp.allErrorsMu.RUnlock()

	return wp.allErrors.ErrorOrNil()
}

// GracefulStop waits for all tasks to complete before stopping the pool.
func (wp *Pool) GracefulStop() error {
	// Mark as stopping to prevent new task submissions
	wp.isStopping.Store(true)

	err := wp.Wait()

	wp.mu.Lock()
	defer wp.mu.Unlock()

	wp.isRunning = false

	return err
}

// IsRunning returns whether the pool is currently running.
func (wp *Pool) IsRunning() bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	return wp.isRunning
}

// IsStopping returns whether the pool is in the process of stopping.
func (wp *Pool) IsStopping() bool {
	return wp.isStopping.Load()
}
