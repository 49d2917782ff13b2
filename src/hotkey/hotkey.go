// Package hotkey listens for global key combinations such as "Ctrl+Alt+L".
package hotkey

import (
	"log/slog"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"

	"light-dict/src/config"
)

// Bindings maps the shortcut settings to action names.
var Bindings = config.Bindings{
	ActionToggle: {Key: config.KeyShortcutToggle, Kind: config.String},
	ActionOCR:    {Key: config.KeyShortcutOCR, Kind: config.String},
}

// Action names.
const (
	ActionToggle = "toggle"
	ActionOCR    = "ocr"
)

// Source produces raw key events. The default is gohook's global hook.
type Source interface {
	Start() chan gohook.Event
	End()
}

type hookSource struct{}

func (hookSource) Start() chan gohook.Event { return gohook.Start() }
func (hookSource) End()                     { gohook.End() }

// Combo tracks the pressed state of one key combination.
type Combo struct {
	spec string
	keys []keyState
}

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// ParseCombo builds a combo from a spec like "Ctrl+Alt+L". It returns false
// when no key of the combo can be mapped.
func ParseCombo(spec string) (*Combo, bool) {
	c := &Combo{spec: spec}
	for _, name := range parseHotkey(spec) {
		rawcodes := keyNameToRawcodes(name)
		if len(rawcodes) == 0 {
			slog.Warn("hotkey: cannot map key", "key", name, "hotkey", spec)
			continue
		}
		c.keys = append(c.keys, keyState{name: name, rawcodes: rawcodes})
	}
	return c, len(c.keys) > 0
}

// Press marks raw as held and reports whether the whole combination is now
// held. A completed combination resets so it fires once per press.
func (c *Combo) Press(raw uint16) bool {
	for i := range c.keys {
		if c.keys[i].matches(raw) {
			c.keys[i].pressed = true
		}
	}
	for i := range c.keys {
		if !c.keys[i].pressed {
			return false
		}
	}
	for i := range c.keys {
		c.keys[i].pressed = false
	}
	return true
}

// Release marks raw as no longer held.
func (c *Combo) Release(raw uint16) {
	for i := range c.keys {
		if c.keys[i].matches(raw) {
			c.keys[i].pressed = false
		}
	}
}

func (k keyState) matches(raw uint16) bool {
	for _, r := range k.rawcodes {
		if r == raw {
			return true
		}
	}
	return false
}

type binding struct {
	combo  *Combo
	action func()
}

// Manager owns the hook and the active bindings. The hook runs only while at
// least one binding is set.
type Manager struct {
	src     Source
	post    func(func())
	actions map[string]func()

	mu       sync.Mutex
	bindings map[string]*binding
	running  bool
	stop     chan struct{}
	done     chan struct{}
}

// New returns a manager whose actions run through post (the loop).
func New(post func(func()), actions map[string]func()) *Manager {
	return NewWithSource(hookSource{}, post, actions)
}

// NewWithSource is New with an explicit event source.
func NewWithSource(src Source, post func(func()), actions map[string]func()) *Manager {
	return &Manager{src: src, post: post, actions: actions, bindings: map[string]*binding{}}
}

func (m *Manager) Apply(field string, v any) {
	m.Set(field, v.(string))
}

// Set binds spec to the named action. An empty spec removes the binding; the
// hook stops synchronously when the last binding goes.
func (m *Manager) Set(action, spec string) {
	fn, ok := m.actions[action]
	if !ok {
		return
	}
	m.mu.Lock()
	if strings.TrimSpace(spec) == "" {
		delete(m.bindings, action)
	} else if combo, ok := ParseCombo(spec); ok {
		m.bindings[action] = &binding{combo: combo, action: fn}
		slog.Info("hotkey: bound", "action", action, "hotkey", spec)
	} else {
		slog.Warn("hotkey: no valid keys", "action", action, "hotkey", spec)
		delete(m.bindings, action)
	}
	want := len(m.bindings) > 0
	m.mu.Unlock()

	if want {
		m.start()
	} else {
		m.Stop()
	}
}

// Bound reports whether action has a binding.
func (m *Manager) Bound(action string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bindings[action]
	return ok
}

func (m *Manager) start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	events := m.src.Start()
	if events == nil {
		slog.Error("hotkey: hook did not start")
		return
	}
	m.running = true
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.listen(events, m.stop, m.done)
}

// Stop ends the hook and waits for the listener to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	stop, done := m.stop, m.done
	m.mu.Unlock()

	close(stop)
	m.src.End()
	<-done
	slog.Info("hotkey: listener stopped")
}

func (m *Manager) listen(events chan gohook.Event, stop, done chan struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("hotkey: listener panicked", "panic", r)
		}
	}()
	for {
		var ev gohook.Event
		select {
		case <-stop:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			ev = e
		}
		switch ev.Kind {
		case gohook.KeyDown, gohook.KeyHold:
			m.mu.Lock()
			var fired []func()
			for _, b := range m.bindings {
				if b.combo.Press(ev.Rawcode) {
					slog.Debug("hotkey: activated", "hotkey", b.combo.spec)
					fired = append(fired, b.action)
				}
			}
			m.mu.Unlock()
			for _, fn := range fired {
				m.post(fn)
			}
		case gohook.KeyUp:
			m.mu.Lock()
			for _, b := range m.bindings {
				b.combo.Release(ev.Rawcode)
			}
			m.mu.Unlock()
		}
	}
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	parts := strings.Split(strings.ToLower(hotkeyConfig), "+")
	var keys []string

	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "":
		case "ctrl", "control":
			keys = append(keys, "ctrl")
		case "alt":
			keys = append(keys, "alt")
		case "shift":
			keys = append(keys, "shift")
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}

	return keys
}

var namedKeysyms = map[string][]uint16{
	// Modifiers: left and right variants.
	"ctrl":  {0xffe3, 0xffe4},
	"alt":   {0xffe9, 0xffea},
	"shift": {0xffe1, 0xffe2},
	"cmd":   {0xffeb, 0xffec},

	"space":     {0x0020},
	"enter":     {0xff0d},
	"return":    {0xff0d},
	"esc":       {0xff1b},
	"escape":    {0xff1b},
	"tab":       {0xff09},
	"backspace": {0xff08},
	"delete":    {0xffff},
	"del":       {0xffff},
	"insert":    {0xff63},
	"ins":       {0xff63},
	"home":      {0xff50},
	"end":       {0xff57},
	"pageup":    {0xff55},
	"pgup":      {0xff55},
	"pagedown":  {0xff56},
	"pgdn":      {0xff56},
	"left":      {0xff51},
	"up":        {0xff52},
	"right":     {0xff53},
	"down":      {0xff54},
}

// keyNameToRawcodes maps a key name to the X keysyms the hook reports for it.
// Letters map to both cases since Shift changes the keysym.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if codes, ok := namedKeysyms[keyName]; ok {
		return codes
	}
	switch {
	case keyName == "win" || keyName == "super":
		return namedKeysyms["cmd"]
	case len(keyName) == 1 && keyName[0] >= 'a' && keyName[0] <= 'z':
		return []uint16{uint16(keyName[0]), uint16(keyName[0] - 'a' + 'A')}
	case len(keyName) == 1 && keyName[0] >= '0' && keyName[0] <= '9':
		return []uint16{uint16(keyName[0])}
	case len(keyName) >= 2 && keyName[0] == 'f':
		var n int
		for _, r := range keyName[1:] {
			if r < '0' || r > '9' {
				n = 0
				break
			}
			n = n*10 + int(r-'0')
		}
		if n >= 1 && n <= 24 {
			return []uint16{0xffbe + uint16(n-1)}
		}
	}
	slog.Warn("hotkey: unknown key name", "key", keyName)
	return nil
}
