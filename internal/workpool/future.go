package workpool

import (
	"context"
	"sync"
	"sync/atomic"
)

// Future holds the eventual result of a task.
type Future[T any] struct {
	done chan struct{}

	mu        sync.Mutex
	resolved  bool
	val       T
	err       error
	callbacks []func()
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future that is already complete.
func Resolved[T any](v T, err error) *Future[T] {
	f := newFuture[T]()
	f.resolve(v, err)
	return f
}

func (f *Future[T]) resolve(v T, err error) {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return
	}
	f.resolved = true
	f.val, f.err = v, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}

// onDone runs cb once f resolves, on the resolving goroutine, or right away
// if f already has a value.
func (f *Future[T]) onDone(cb func()) {
	f.mu.Lock()
	if !f.resolved {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	cb()
}

func (f *Future[T]) result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.val, f.err
}

// Done is closed when the future resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves or ctx ends. A resolved future
// always returns its value, even with ctx already done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result()
	default:
	}
	select {
	case <-f.done:
		return f.result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Go submits fn to the pool. If the pool refuses the task the future
// resolves immediately with the submission error.
func Go[T any](p *Pool, fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	schedule(p, f, fn)
	return f
}

// Then submits fn with the result of f once f resolves. fn receives f's
// error and decides what to do with it.
func Then[T, U any](p *Pool, f *Future[T], fn func(T, error) (U, error)) *Future[U] {
	out := newFuture[U]()
	f.onDone(func() {
		v, err := f.result()
		schedule(p, out, func() (U, error) { return fn(v, err) })
	})
	return out
}

// Join2 submits fn once both a and b resolve.
func Join2[A, B, C any](p *Pool, a *Future[A], b *Future[B], fn func(A, error, B, error) (C, error)) *Future[C] {
	out := newFuture[C]()
	var pending atomic.Int32
	pending.Store(2)
	fire := func() {
		if pending.Add(-1) != 0 {
			return
		}
		av, aerr := a.result()
		bv, berr := b.result()
		schedule(p, out, func() (C, error) { return fn(av, aerr, bv, berr) })
	}
	a.onDone(fire)
	b.onDone(fire)
	return out
}

func schedule[T any](p *Pool, f *Future[T], fn func() (T, error)) {
	err := p.submit(func() {
		f.resolve(call(p.log, fn))
	})
	if err != nil {
		var zero T
		f.resolve(zero, err)
	}
}
