// Package workerpool bounds how many units of work reconcile at once.
//
// The pool runs a fixed set of worker goroutines over a bounded task queue.
// The queue length is the importer's high-water mark: a producer calling
// SubmitWait blocks once the queue fills, which pauses the feed reader until
// workers catch up.
//
//	pool := workerpool.NewWithQueue(workers, highWater)
//	defer pool.Shutdown()
//
//	if err := pool.SubmitWait(unit); errors.Is(err, workerpool.ErrPoolClosed) {
//	    // shutting down, stop producing
//	}
//
// Submit is the non-blocking variant for callers that would rather drop or
// reroute than wait.
package workerpool

import (
	"errors"
	"sync"
)

// ErrPoolFull means the task queue is at capacity (Submit only).
var ErrPoolFull = errors.New("workerpool: pool is full")

// ErrPoolClosed means Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

// Pool is a fixed-size goroutine pool over a bounded queue.
type Pool struct {
	queue chan func()
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// New creates a pool of size workers with a queue of twice that, enough to
// absorb bursts without letting a producer run far ahead.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return NewWithQueue(size, size*2)
}

// NewWithQueue creates a pool with an explicit queue capacity. The capacity
// is clamped to at least the worker count.
func NewWithQueue(size, queueLen int) *Pool {
	if size <= 0 {
		size = 1
	}
	if queueLen < size {
		queueLen = size
	}

	p := &Pool{
		queue: make(chan func(), queueLen),
		done:  make(chan struct{}),
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		func() {
			// A panicking task must not take the worker down with it.
			defer func() { recover() }()
			task()
		}()
	}
}

// Submit enqueues task without blocking. ErrPoolFull when the queue is at
// capacity, ErrPoolClosed after Shutdown.
func (p *Pool) Submit(task func()) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	default:
	}
	select {
	case p.queue <- task:
		return nil
	default:
		return ErrPoolFull
	}
}

// SubmitWait blocks until the queue has room or the pool closes.
func (p *Pool) SubmitWait(task func()) error {
	select {
	case <-p.done:
		return ErrPoolClosed
	case p.queue <- task:
		return nil
	}
}

// Shutdown stops intake, drains everything already queued and waits for the
// workers to finish. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		close(p.done)
		close(p.queue)
		p.wg.Wait()
	})
}
