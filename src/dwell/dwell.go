// Package dwell detects the pointer coming to rest after it moved.
package dwell

import (
	"log/slog"
	"time"

	"light-dict/src/eventloop"
	"light-dict/src/windowing"
)

// DefaultInterval is the pointer poll cadence.
const DefaultInterval = 300 * time.Millisecond

const timerName = "dwell-poll"

// Event is emitted once per distinct resting position.
type Event struct {
	// At is where the pointer came to rest.
	At windowing.Point
	// Prior is the sample taken before the pointer stopped.
	Prior windowing.Point
	// Mask is the modifier mask sampled at rest.
	Mask windowing.ModMask
}

// Tracker keeps the last three samples. Stillness is "newest equals previous
// and previous differs from the one before", so a parked pointer reports once.
type Tracker struct {
	samples [3]windowing.Point
	n       int
}

// Push records a sample and reports whether the pointer just became still.
func (t *Tracker) Push(p windowing.Point) bool {
	t.samples[0], t.samples[1], t.samples[2] = t.samples[1], t.samples[2], p
	if t.n < 3 {
		t.n++
	}
	if t.n < 3 {
		return false
	}
	return t.samples[2] == t.samples[1] && t.samples[1] != t.samples[0]
}

// Prior returns the sample before the current resting pair.
func (t *Tracker) Prior() windowing.Point { return t.samples[0] }

// Reset forgets all samples.
func (t *Tracker) Reset() { *t = Tracker{} }

// PointerSource is the slice of the windowing runtime the detector polls.
type PointerSource interface {
	Pointer() (windowing.Point, windowing.ModMask, error)
}

// Detector polls the pointer on the loop while running.
type Detector struct {
	src      PointerSource
	sched    eventloop.Scheduler
	interval time.Duration
	onDwell  func(Event)

	tracker Tracker
	running bool
}

// New returns a stopped detector. onDwell runs on the loop.
func New(src PointerSource, sched eventloop.Scheduler, onDwell func(Event)) *Detector {
	return &Detector{src: src, sched: sched, interval: DefaultInterval, onDwell: onDwell}
}

// SetInterval changes the poll cadence; it takes effect at the next tick.
func (d *Detector) SetInterval(interval time.Duration) {
	if interval > 0 {
		d.interval = interval
	}
}

// Running reports whether polling is active.
func (d *Detector) Running() bool { return d.running }

// Start begins polling. Starting a running detector is a no-op.
func (d *Detector) Start() {
	if d.running {
		return
	}
	d.running = true
	d.tracker.Reset()
	d.sched.Reset(timerName, d.interval, d.tick)
	slog.Debug("dwell detector started", "interval", d.interval)
}

// Stop tears down the poll timer. No tick runs after Stop returns.
func (d *Detector) Stop() {
	if !d.running {
		return
	}
	d.running = false
	d.sched.Cancel(timerName)
	d.tracker.Reset()
	slog.Debug("dwell detector stopped")
}

func (d *Detector) tick() {
	if !d.running {
		return
	}
	d.sched.Reset(timerName, d.interval, d.tick)

	p, mask, err := d.src.Pointer()
	if err != nil {
		slog.Debug("dwell pointer sample failed", "error", err)
		return
	}
	if d.tracker.Push(p) && d.onDwell != nil {
		d.onDwell(Event{At: p, Prior: d.tracker.Prior(), Mask: mask})
	}
}
