package eventloop

import (
	"sort"
	"sync"
	"time"
)

// Scheduler owns named one-shot timers. At most one timer per name is pending:
// Reset cancels the previous one first. Periodic tasks re-arm themselves.
type Scheduler interface {
	Reset(name string, d time.Duration, fn func())
	Cancel(name string)
	Pending(name string) bool
}

// Timers is the wall-clock Scheduler. Callbacks run on the loop through post.
type Timers struct {
	post    func(func())
	mu      sync.Mutex
	gen     uint64
	entries map[string]timerEntry
}

type timerEntry struct {
	t   *time.Timer
	gen uint64
}

// NewTimers returns a scheduler delivering callbacks through post.
func NewTimers(post func(func())) *Timers {
	return &Timers{post: post, entries: make(map[string]timerEntry)}
}

func (t *Timers) Reset(name string, d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked(name)
	t.gen++
	gen := t.gen
	// A stopped timer may already have posted its callback; the generation
	// check on delivery turns that late callback into a no-op.
	timer := time.AfterFunc(d, func() {
		t.post(func() {
			if t.claim(name, gen) {
				fn()
			}
		})
	})
	t.entries[name] = timerEntry{t: timer, gen: gen}
}

func (t *Timers) claim(name string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[name]
	if !ok || e.gen != gen {
		return false
	}
	delete(t.entries, name)
	return true
}

func (t *Timers) Cancel(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked(name)
}

func (t *Timers) cancelLocked(name string) {
	if e, ok := t.entries[name]; ok {
		e.t.Stop()
		delete(t.entries, name)
	}
}

func (t *Timers) Pending(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[name]
	return ok
}

// Stop cancels every pending timer.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name := range t.entries {
		t.cancelLocked(name)
	}
}

// Manual is a Scheduler that only fires when told to.
type Manual struct {
	mu      sync.Mutex
	pending map[string]manualEntry
}

type manualEntry struct {
	d  time.Duration
	fn func()
}

// NewManual returns an empty manual scheduler.
func NewManual() *Manual { return &Manual{pending: make(map[string]manualEntry)} }

func (m *Manual) Reset(name string, d time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[name] = manualEntry{d: d, fn: fn}
}

func (m *Manual) Cancel(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, name)
}

func (m *Manual) Pending(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[name]
	return ok
}

// Delay returns the duration the named timer was armed with.
func (m *Manual) Delay(name string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.pending[name]
	return e.d, ok
}

// Names lists pending timers in sorted order.
func (m *Manual) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.pending))
	for n := range m.pending {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Fire runs the named timer's callback if it is pending. The entry is removed
// before the callback runs, so the callback may re-arm it.
func (m *Manual) Fire(name string) bool {
	m.mu.Lock()
	e, ok := m.pending[name]
	delete(m.pending, name)
	m.mu.Unlock()
	if !ok {
		return false
	}
	e.fn()
	return true
}
