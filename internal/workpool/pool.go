// Package workpool runs short tasks on a fixed set of goroutines shared by
// every in-flight verification, and chains them with futures.
package workpool

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
)

var (
	// ErrStopped is returned for tasks submitted after Stop.
	ErrStopped = errors.New("work pool stopped")
	// ErrPanic wraps a value recovered from a panicking task.
	ErrPanic = errors.New("task panicked")
)

// DefaultSize is max(4, 2×GOMAXPROCS).
func DefaultSize() int {
	return max(4, 2*runtime.GOMAXPROCS(0))
}

// Pool is a fixed-size worker pool. The queue grows as needed, so
// submission never blocks and never drops a task; continuations submit from
// worker goroutines and must not wait on each other. Callers bound the work
// they admit.
type Pool struct {
	size int
	log  *slog.Logger

	mu      sync.Mutex
	ready   *sync.Cond
	queue   []func()
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// New creates a pool. size <= 0 selects DefaultSize.
func New(size int, log *slog.Logger) *Pool {
	if size <= 0 {
		size = DefaultSize()
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Pool{size: size, log: log}
	p.ready = sync.NewCond(&p.mu)
	return p
}

// Start launches the worker goroutines. Calling it twice is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	for range p.size {
		p.wg.Add(1)
		go p.work()
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for {
		task, ok := p.next()
		if !ok {
			return
		}
		task()
	}
}

// next blocks until a task is queued. It reports false once the pool is
// stopped and the queue is empty.
func (p *Pool) next() (func(), bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 {
		if p.stopped {
			return nil, false
		}
		p.ready.Wait()
	}
	task := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	return task, true
}

// Stop rejects new tasks, runs what is already queued and waits for the
// workers to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	started := p.started
	p.ready.Broadcast()
	p.mu.Unlock()

	if !started {
		// Nobody will drain the queue; run leftovers inline so their futures resolve.
		for {
			task, ok := p.next()
			if !ok {
				break
			}
			task()
		}
	}
	p.wg.Wait()
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// QueueDepth returns the number of tasks waiting for a worker.
func (p *Pool) QueueDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Pool) submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}
	p.queue = append(p.queue, task)
	p.ready.Signal()
	return nil
}

// call runs fn and converts a panic into an ErrPanic error.
func call[T any](log *slog.Logger, fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("task panic", "panic", r, "stack", string(debug.Stack()))
			var zero T
			v, err = zero, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
