// Package monitor turns primary-selection ownership changes into Selections.
package monitor

import (
	"context"
	"log/slog"
	"time"

	"light-dict/src/command"
	"light-dict/src/config"
	"light-dict/src/eventloop"
	"light-dict/src/session"
	"light-dict/src/windowing"
)

// DragPollInterval is how often a held primary button is re-sampled.
const DragPollInterval = 50 * time.Millisecond

const (
	dragTimer   = "drag-debounce"
	readTimeout = 2 * time.Second
)

// Bindings are the settings the monitor follows.
var Bindings = config.Bindings{
	"passive":  {Key: config.KeyPassiveMode, Kind: config.Bool},
	"modifier": {Key: config.KeyPassiveModifier, Kind: config.String},
	"strip":    {Key: config.KeyTextStrip, Kind: config.Bool},
	"apps":     {Key: config.KeyAppList, Kind: config.StringArray},
	"listType": {Key: config.KeyListType, Kind: config.String},
}

// BindingsGroup is the group key the app filter is rebuilt under.
const BindingsGroup = "app-filter"

// Monitor applies the selection gates and fetches the selected text. All
// methods run on the loop goroutine.
type Monitor struct {
	rt     windowing.Runtime
	runner eventloop.Runner
	sched  eventloop.Scheduler
	mode   func() session.TriggerMode

	filter   command.AppFilter
	apps     []string
	listType string
	passive  bool
	modifier windowing.ModMask
	strip    bool
	interval time.Duration

	ignore bool
	gen    uint64

	// OnSelection receives every selection that passed the gates.
	OnSelection func(session.Selection)
}

// New returns a monitor that reads the trigger mode through mode.
func New(rt windowing.Runtime, runner eventloop.Runner, sched eventloop.Scheduler, mode func() session.TriggerMode) *Monitor {
	return &Monitor{
		rt:       rt,
		runner:   runner,
		sched:    sched,
		mode:     mode,
		filter:   command.Deny(nil),
		modifier: windowing.ModControl,
		strip:    true,
		interval: DragPollInterval,
	}
}

// SetFilter replaces the global application gate.
func (m *Monitor) SetFilter(f command.AppFilter) {
	if f == nil {
		f = command.Deny(nil)
	}
	m.filter = f
}

// SetPassive configures passive mode and its modifier.
func (m *Monitor) SetPassive(passive bool, modifier windowing.ModMask) {
	m.passive = passive
	if modifier != 0 {
		m.modifier = modifier
	}
}

// SetStrip toggles whitespace normalization.
func (m *Monitor) SetStrip(strip bool) { m.strip = strip }

// SetDragPollInterval changes the drag debounce cadence.
func (m *Monitor) SetDragPollInterval(d time.Duration) {
	if d > 0 {
		m.interval = d
	}
}

// ArmIgnore makes the next primary selection event a no-op. It is consumed
// by exactly one event.
func (m *Monitor) ArmIgnore() { m.ignore = true }

// Disarm clears the one-shot ignore flag.
func (m *Monitor) Disarm() { m.ignore = false }

// Armed reports whether the one-shot ignore flag is set.
func (m *Monitor) Armed() bool { return m.ignore }

// Apply implements config.Target.
func (m *Monitor) Apply(field string, v any) {
	switch field {
	case "passive":
		m.passive = v.(bool)
	case "modifier":
		if mask := windowing.ParseModifier(v.(string)); mask != 0 {
			m.modifier = mask
		}
	case "strip":
		m.strip = v.(bool)
	case "apps":
		m.apps = v.([]string)
	case "listType":
		m.listType = v.(string)
	}
}

// ApplyGroup implements config.GroupTarget.
func (m *Monitor) ApplyGroup(string) {
	m.SetFilter(command.NewAppFilter(m.listType, m.apps))
}

// Stop cancels a pending drag debounce and invalidates in-flight reads.
func (m *Monitor) Stop() {
	m.sched.Cancel(dragTimer)
	m.gen++
}

// Handle processes one runtime event.
func (m *Monitor) Handle(ev windowing.Event) {
	if ev.Kind != windowing.SelectionOwnerChanged || ev.Class != windowing.Primary {
		return
	}
	if m.ignore {
		m.ignore = false
		slog.Debug("selection change ignored after own write")
		return
	}

	// The newest event wins over any older one still being processed.
	m.gen++
	m.sched.Cancel(dragTimer)

	var appID string
	if w, ok := m.rt.Focused(); ok {
		appID = w.AppID
	}
	if !m.filter.Permits(appID) {
		slog.Debug("selection ignored by app filter", "app", appID)
		return
	}
	if m.passive != ev.Mask.Has(m.modifier) {
		return
	}
	if m.mode != nil && m.mode() == session.Disable {
		return
	}

	gen := m.gen
	if ev.Mask.Has(windowing.Button1) {
		m.sched.Reset(dragTimer, m.interval, func() { m.awaitRelease(gen, appID) })
		return
	}
	m.fetch(gen, appID, ev.Pointer)
}

func (m *Monitor) awaitRelease(gen uint64, appID string) {
	if gen != m.gen {
		return
	}
	p, mask, err := m.rt.Pointer()
	if err != nil {
		slog.Debug("pointer sample failed during drag", "error", err)
		return
	}
	if mask.Has(windowing.Button1) {
		m.sched.Reset(dragTimer, m.interval, func() { m.awaitRelease(gen, appID) })
		return
	}
	m.fetch(gen, appID, p)
}

func (m *Monitor) fetch(gen uint64, appID string, at windowing.Point) {
	strip := m.strip
	ok := m.runner.Go(func() func() {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()
		text, err := m.rt.ReadText(ctx, windowing.Primary)
		return func() {
			if gen != m.gen {
				return
			}
			if err != nil {
				slog.Debug("primary selection read failed", "error", err)
				return
			}
			text = session.Normalize(text, strip)
			if text == "" {
				return
			}
			if m.OnSelection != nil {
				m.OnSelection(session.Selection{Text: text, AppID: appID, Anchor: windowing.AnchorAt(at)})
			}
		}
	})
	if !ok {
		slog.Warn("selection read dropped, workers busy")
	}
}
