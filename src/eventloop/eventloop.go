// Package eventloop provides the single goroutine every piece of engine state
// lives on. Subprocesses, clipboard reads, bus calls, toolkit callbacks and
// timers never touch state directly: they post closures into the loop.
package eventloop

import (
	"context"
	"log/slog"

	"light-dict/src/worker"
)

// Runner is what components need from the loop: a way to get back onto it,
// and a way to run blocking work off it.
type Runner interface {
	// Post schedules fn on the loop goroutine.
	Post(fn func())
	// Go runs work off the loop and then runs the continuation it returns (if
	// any) on the loop. It returns false when the work could not be accepted.
	Go(work func() func()) bool
}

// Loop is the single-threaded coordinator.
type Loop struct {
	tasks chan func()
	pool  *worker.Pool
	done  chan struct{}
}

// New creates a loop whose off-loop work runs on a pool of the given size.
func New(workers int) *Loop {
	if workers <= 0 {
		workers = 4
	}
	return &Loop{
		tasks: make(chan func(), 256),
		pool:  worker.New(workers, workers*4),
		done:  make(chan struct{}),
	}
}

// Post queues fn. Posting from the loop goroutine itself never blocks; when
// the queue is full the send is handed to a helper goroutine.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	default:
		go func() {
			select {
			case l.tasks <- fn:
			case <-l.done:
			}
		}()
	}
}

// Go implements Runner.
func (l *Loop) Go(work func() func()) bool {
	return l.pool.Submit(func() {
		if next := work(); next != nil {
			l.Post(next)
		}
	})
}

// Run processes posted closures until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.pool.Close()
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event loop task panicked", "panic", r)
		}
	}()
	fn()
}

// Call posts fn and waits for it to finish, or for ctx to end. It must not be
// used from the loop goroutine.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return context.Canceled
	}
}

// Inline is a Runner that does everything synchronously on the caller's
// goroutine. Tests use it to drive components deterministically.
type Inline struct{}

func (Inline) Post(fn func()) { fn() }

func (Inline) Go(work func() func()) bool {
	if next := work(); next != nil {
		next()
	}
	return true
}
