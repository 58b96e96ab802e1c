// Package worker runs background tile fetches on a fixed set of goroutines.
package worker

import (
	"context"
	"sync"
)

// Task is one unit of background work. Tasks whose context is already done
// when they are dequeued are skipped.
type Task struct {
	Ctx  context.Context
	Work func(ctx context.Context) error
}

// Pool is a bounded worker pool with a bounded queue.
type Pool struct {
	tasks chan Task
	quit  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewPool starts workers goroutines sharing a queue of queueSize tasks.
func NewPool(workers, queueSize int) *Pool {
	workers, queueSize = max(workers, 1), max(queueSize, 1)
	p := &Pool{
		tasks: make(chan Task, queueSize),
		quit:  make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.tasks:
			ctx := task.Ctx
			if ctx == nil {
				ctx = context.Background()
			}
			if ctx.Err() != nil {
				continue
			}
			_ = task.Work(ctx)
		}
	}
}

// Submit queues a task without blocking. It returns false when the queue is
// full or the pool has been shut down; the caller may retry later.
func (p *Pool) Submit(task Task) bool {
	select {
	case <-p.quit:
		return false
	default:
	}
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Shutdown stops the workers and waits for running tasks to return. Queued
// tasks are dropped.
func (p *Pool) Shutdown() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}
