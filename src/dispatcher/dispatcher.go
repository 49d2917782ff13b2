// Package dispatcher owns the current selection context and decides what a
// selection or an external invocation does.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"light-dict/src/bar"
	"light-dict/src/command"
	"light-dict/src/config"
	"light-dict/src/dwell"
	"light-dict/src/errs"
	"light-dict/src/eventloop"
	"light-dict/src/executor"
	"light-dict/src/monitor"
	"light-dict/src/ocr"
	"light-dict/src/popup"
	"light-dict/src/session"
	"light-dict/src/windowing"
)

// Keyboard types into the focused input and provides the scripted primitives.
type Keyboard interface {
	executor.Host
	Type(text string) error
}

// Notifier shows a desktop notification.
type Notifier interface {
	Notify(summary, body string)
}

// Deps are the collaborators a Dispatcher is built from.
type Deps struct {
	Runtime   windowing.Runtime
	Runner    eventloop.Runner
	Scheduler eventloop.Scheduler
	Store     *config.Store
	Bridge    *config.Bridge
	BarView   bar.View
	PanelView popup.View
	Keyboard  Keyboard
	Notifier  Notifier
	History   executor.History
	OCRHelper string
}

// Dispatcher is the orchestrator. Every method must run on the loop.
type Dispatcher struct {
	rt       windowing.Runtime
	runner   eventloop.Runner
	store    *config.Store
	bridge   *config.Bridge
	keyboard Keyboard
	notifier Notifier

	Monitor  *monitor.Monitor
	Dwell    *dwell.Detector
	Bar      *bar.Bar
	Panel    *popup.Panel
	Executor *executor.Executor

	grant  *ocr.Grant
	helper *ocr.Helper

	selfPID   int
	lastFocus string

	mode        session.TriggerMode
	current     session.Selection
	swift       []command.Command
	swiftActive int
	leftCmd     string
	rightCmd    string

	ocrEnabled  bool
	dwellOCR    bool
	ocrMode     ocr.Mode
	ocrParams   string
	ocrModifier windowing.ModMask

	subs    []*config.Subscription
	cancel  context.CancelFunc
	running bool
}

// New wires the components together. Nothing runs until Start.
func New(deps Deps) *Dispatcher {
	d := &Dispatcher{
		rt:          deps.Runtime,
		runner:      deps.Runner,
		store:       deps.Store,
		bridge:      deps.Bridge,
		keyboard:    deps.Keyboard,
		notifier:    deps.Notifier,
		grant:       &ocr.Grant{},
		selfPID:     os.Getpid(),
		mode:        session.Swift,
		ocrMode:     ocr.ModeWord,
		ocrModifier: windowing.ModControl,
	}
	d.helper = &ocr.Helper{Path: deps.OCRHelper, Grant: d.grant}

	d.Monitor = monitor.New(deps.Runtime, deps.Runner, deps.Scheduler, d.Mode)
	d.Monitor.OnSelection = d.onSelection

	d.Dwell = dwell.New(deps.Runtime, deps.Scheduler, d.onDwell)

	d.Bar = bar.New(deps.BarView, deps.Scheduler)
	d.Bar.OnChosen = d.onChosen

	d.Panel = popup.New(deps.PanelView, deps.Runtime, deps.Scheduler)
	d.Panel.OnAction = d.onPanelAction
	d.Panel.OnCopy = func(text string) {
		if err := d.rt.WriteText(windowing.Clipboard, text); err != nil {
			slog.Warn("copy from panel failed", "error", err)
		}
	}

	d.Executor = executor.New(deps.Runner, deps.Scheduler, sinks{d}, deps.Keyboard)
	d.Executor.SetHistory(deps.History)
	return d
}

// Start binds settings and begins consuming runtime events until ctx ends
// or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) error {
	if d.running {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	events, err := d.rt.Events(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe to windowing events: %w", err)
	}
	d.cancel = cancel
	d.running = true

	if d.bridge != nil {
		d.subs = append(d.subs,
			d.bridge.Attach(monitor.Bindings, d.Monitor, monitor.BindingsGroup),
			d.bridge.Attach(bar.Bindings, d.Bar, ""),
			d.bridge.Attach(popup.Bindings, d.Panel, ""),
			d.bridge.Attach(executor.Bindings, d.Executor, ""),
			d.bridge.Attach(Bindings, d, BindingsGroup),
		)
	}

	go func() {
		for ev := range events {
			ev := ev
			d.runner.Post(func() { d.handle(ev) })
		}
	}()
	slog.Info("dispatcher started", "mode", d.mode)
	return nil
}

// Stop releases every subscription, timer and listener the dispatcher owns.
func (d *Dispatcher) Stop() {
	if !d.running {
		return
	}
	d.running = false
	for _, s := range d.subs {
		s.Close()
	}
	d.subs = nil
	d.cancel()
	d.Dwell.Stop()
	d.Monitor.Stop()
	d.Executor.Stop()
	d.Bar.Hide()
	d.Panel.Dismiss()
	slog.Info("dispatcher stopped")
}

// Mode returns the trigger mode.
func (d *Dispatcher) Mode() session.TriggerMode { return d.mode }

// Current returns the latest selection.
func (d *Dispatcher) Current() session.Selection { return d.current }

// Grant returns the screenshot grant guarding Get.
func (d *Dispatcher) Grant() *ocr.Grant { return d.grant }

func (d *Dispatcher) handle(ev windowing.Event) {
	switch ev.Kind {
	case windowing.FocusChanged:
		if !d.focusMoved() {
			return
		}
		d.Panel.Dismiss()
		d.Bar.Hide()
	case windowing.SelectionOwnerChanged:
		d.Monitor.Handle(ev)
	}
}

// focusMoved reports whether focus went to another application. Our own
// bar and panel windows taking focus do not count.
func (d *Dispatcher) focusMoved() bool {
	w, ok := d.rt.Focused()
	if !ok || w.PID == d.selfPID || w.AppID == d.lastFocus {
		return false
	}
	d.lastFocus = w.AppID
	return true
}

func (d *Dispatcher) onSelection(sel session.Selection) {
	d.current = sel
	if sel.AppID != "" {
		d.lastFocus = sel.AppID
	}
	d.trigger(sel)
}

func (d *Dispatcher) trigger(sel session.Selection) {
	switch d.mode {
	case session.Swift:
		if err := d.runSwift(sel, ""); err != nil {
			slog.Warn("swift command unavailable", "error", err)
		}
	case session.Popup:
		d.Panel.Dismiss()
		d.Bar.Summon(sel)
	}
}

func (d *Dispatcher) runSwift(sel session.Selection, name string) error {
	cmd, err := d.swiftCommand(name)
	if err != nil {
		return err
	}
	d.Executor.Run(cmd, sel)
	return nil
}

func (d *Dispatcher) swiftCommand(name string) (command.Command, error) {
	if name != "" {
		if cmd, ok := command.Find(d.swift, name); ok {
			return cmd, nil
		}
		return command.Command{}, errs.Newf(errs.CodeInvalidArgs, "no swift command named %q", name)
	}
	if d.swiftActive < 0 || d.swiftActive >= len(d.swift) {
		return command.Command{}, errs.New(errs.CodeConfig, "no active swift command")
	}
	return d.swift[d.swiftActive], nil
}

func (d *Dispatcher) onChosen(cmd command.Command) {
	d.Executor.Run(cmd, d.current)
}

func (d *Dispatcher) onPanelAction(a popup.Action) {
	text := d.leftCmd
	name := "left-command"
	if a == popup.ActionRight {
		text, name = d.rightCmd, "right-command"
	}
	if strings.TrimSpace(text) == "" || d.current.Empty() {
		return
	}
	d.Executor.Run(command.Command{Name: name, Text: text, Enabled: true}, d.current)
}

func (d *Dispatcher) onDwell(ev dwell.Event) {
	if !d.ocrEnabled || !d.dwellOCR || !ev.Mask.Has(d.ocrModifier) {
		return
	}
	if d.Panel.Contains(ev.Prior) {
		return
	}
	if err := d.OCR(""); err != nil {
		slog.Warn("dwell OCR failed", "error", err)
	}
}

// Toggle flips the trigger mode between Swift and Popup, persists it and
// notifies the user.
func (d *Dispatcher) Toggle() session.TriggerMode {
	d.setMode(d.mode.Toggle())
	if d.store != nil {
		if err := d.store.Set(config.KeyTriggerStyle, d.mode.String()); err != nil {
			slog.Warn("failed to persist trigger style", "error", err)
		}
	}
	if d.notifier != nil {
		d.notifier.Notify("light-dict", fmt.Sprintf("Switched to %s style", titleCase(d.mode.String())))
	}
	return d.mode
}

// SetMode sets the trigger mode, including Disable, and persists it.
func (d *Dispatcher) SetMode(m session.TriggerMode) {
	d.setMode(m)
	if d.store != nil {
		if err := d.store.Set(config.KeyTriggerStyle, m.String()); err != nil {
			slog.Warn("failed to persist trigger style", "error", err)
		}
	}
}

func (d *Dispatcher) setMode(m session.TriggerMode) {
	if m == d.mode {
		return
	}
	d.mode = m
	d.Bar.Hide()
	slog.Info("trigger mode changed", "mode", m)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sinks routes executor output to the desktop.
type sinks struct{ d *Dispatcher }

func (s sinks) ArmIgnore()    { s.d.Monitor.ArmIgnore() }
func (s sinks) DisarmIgnore() { s.d.Monitor.Disarm() }

func (s sinks) SetPrimary(text string) error {
	return s.d.rt.WriteText(windowing.Primary, text)
}

func (s sinks) CopyClipboard(text string) error {
	return s.d.rt.WriteText(windowing.Clipboard, text)
}

func (s sinks) ShowPanel(sel session.Selection, text string, isError bool) {
	s.d.Panel.Summon(sel.Text, text, isError, sel.Anchor)
}

func (s sinks) Commit(text string) error {
	if s.d.keyboard == nil {
		return errs.New(errs.CodeUnavailable, "no keyboard available")
	}
	return s.d.keyboard.Type(text)
}
