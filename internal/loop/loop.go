// Package loop provides the single-goroutine event loop the page engine runs on.
//
// All view and component state is owned by the goroutine executing Run.
// Other goroutines (network calls, timers, host notifications) hand work
// back with Post; callers outside the loop that need a result use Do.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrStopped is returned when work is submitted after the loop has exited
var ErrStopped = errors.New("event loop stopped")

// Loop is a cooperative task queue drained by one goroutine
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// New creates a loop; it does nothing until Run is called
func New() *Loop {
	return &Loop{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// Run drains tasks until ctx is cancelled
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.stopped) })

	for {
		l.mu.Lock()
		tasks := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, task := range tasks {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.run(task)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// run executes one task, keeping the loop alive if it panics
func (l *Loop) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event loop task panicked", "panic", r)
		}
	}()
	task()
}

// Post queues fn for the loop without waiting. It never blocks and is safe
// to call from the loop itself.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stopped:
		return false
	default:
	}

	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to return.
// It must not be called from the loop goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Then runs fn on the loop once ready is closed and returns a channel
// closed after fn has run. When ready is already closed fn runs inline, so
// Then must be called from the loop goroutine.
func (l *Loop) Then(ready <-chan struct{}, fn func()) <-chan struct{} {
	out := make(chan struct{})

	select {
	case <-ready:
		fn()
		close(out)
		return out
	default:
	}

	go func() {
		select {
		case <-ready:
		case <-l.stopped:
			return
		}
		l.Post(func() {
			defer close(out)
			fn()
		})
	}()
	return out
}

// Stopped is closed once Run has returned
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}
