package worker

import (
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
)

// Job is one unit of off-loop work.
type Job func()

// Pool is a fixed-size worker pool with a bounded input queue (strict
// back-pressure: Submit never blocks).
type Pool struct {
	jobs      chan Job
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a worker pool. Size defaults to NumCPU when size<=0; queue
// defaults to size when queue<=0.
func New(size, queue int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if queue <= 0 {
		queue = size
	}
	p := &Pool{jobs: make(chan Job, queue)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for j := range p.jobs {
				run(id, j)
			}
		}(i)
	}
}

// run isolates a panicking job so the worker keeps serving the queue.
func run(id int, j Job) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker job panicked", "worker", id, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	j()
}

// Submit enqueues a job if the queue has room. Returns false if dropped.
func (p *Pool) Submit(j Job) (ok bool) {
	defer func() {
		// Submit after Close races with channel close; report as dropped.
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case p.jobs <- j:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining queued work.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.jobs) })
	p.wg.Wait()
}
