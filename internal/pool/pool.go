// Package pool provides a fixed-size worker pool for bounded fan-out.
package pool

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Task represents a unit of work.
type Task func(workerID int) error

// WorkerPool manages a pool of worker goroutines.
type WorkerPool struct {
	NumWorkers int
	Tasks      chan Task

	wg          sync.WaitGroup // workers
	taskWG      sync.WaitGroup // submitted tasks
	stopOnce    sync.Once
	activeTasks int64
	failed      int64
}

// NewWorkerPool creates a new worker pool. Fewer than one worker is raised to one.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	// Buffered so Submit rarely blocks while workers drain the queue.
	bufferSize := numWorkers * 10
	if bufferSize < 100 {
		bufferSize = 100
	}
	return &WorkerPool{
		NumWorkers: numWorkers,
		Tasks:      make(chan Task, bufferSize),
	}
}

// Start launches the worker goroutines.
func (p *WorkerPool) Start() {
	slog.Debug("starting worker pool", "workers", p.NumWorkers)
	for i := 0; i < p.NumWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for task := range p.Tasks {
		p.execute(id, task)
	}
}

func (p *WorkerPool) execute(id int, task Task) {
	atomic.AddInt64(&p.activeTasks, 1)
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&p.failed, 1)
			slog.Error("worker task panicked", "worker", id, "panic", r)
		}
		atomic.AddInt64(&p.activeTasks, -1)
		p.taskWG.Done()
	}()
	if err := task(id); err != nil {
		atomic.AddInt64(&p.failed, 1)
		slog.Debug("worker task failed", "worker", id, "error", err)
	}
}

// Submit adds a task to the pool.
func (p *WorkerPool) Submit(t Task) {
	p.taskWG.Add(1)
	p.Tasks <- t
}

// Wait waits for all submitted tasks to complete.
func (p *WorkerPool) Wait() {
	p.taskWG.Wait()
}

// Stop closes the task channel and waits for workers to finish. Safe to call twice.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		close(p.Tasks)
		p.wg.Wait()
		slog.Debug("worker pool stopped")
	})
}

// ActiveCount returns the number of currently executing tasks.
func (p *WorkerPool) ActiveCount() int {
	return int(atomic.LoadInt64(&p.activeTasks))
}

// FailedCount returns how many tasks returned an error or panicked.
func (p *WorkerPool) FailedCount() int {
	return int(atomic.LoadInt64(&p.failed))
}
