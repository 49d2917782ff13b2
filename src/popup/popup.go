// Package popup is the result panel: it shows the last command output and
// owns its auto-dismiss timers and click actions.
package popup

import (
	"log/slog"
	"time"

	"light-dict/src/config"
	"light-dict/src/eventloop"
	"light-dict/src/windowing"
)

const (
	DefaultAutoHide         = 2500 * time.Millisecond
	DefaultMaxHeightPercent = 50
	GraceInterval           = 250 * time.Millisecond
	hideTimer               = "panel-hide"
	graceTimer              = "panel-grace"
)

// Pointer buttons as reported by the view.
const (
	ButtonLeft   = 1
	ButtonMiddle = 2
	ButtonRight  = 3
)

// Action is a click that runs a configured side command.
type Action int

const (
	ActionLeft Action = iota
	ActionRight
)

// Content is what the panel displays.
type Content struct {
	Info   string
	Text   string
	Error  bool
	Scroll bool

	// MaxHeight is the viewport height in pixels when Scroll is set.
	MaxHeight int
}

// View renders the panel. Calls arrive on the loop goroutine.
type View interface {
	ShowPanel(c Content, anchor windowing.Rect, animate bool)
	HidePanel()
	// Bounds is the panel's last known screen rectangle.
	Bounds() windowing.Rect
	// Measure returns the natural size of c without a scroll viewport.
	Measure(c Content) (width, height int)
}

// Screen is what the panel samples from the windowing runtime.
type Screen interface {
	Pointer() (windowing.Point, windowing.ModMask, error)
	ScreenSize() (int, int)
}

var Bindings = config.Bindings{
	"autoHide":  {Key: config.KeyAutoHide, Kind: config.Uint},
	"maxHeight": {Key: config.KeyMaxHeightFraction, Kind: config.Uint},
}

type Panel struct {
	view   View
	screen Screen
	sched  eventloop.Scheduler

	autoHide  time.Duration
	maxHeight int

	open    bool
	content Content
	anchor  windowing.Rect

	// OnAction runs the left or right side command.
	OnAction func(Action)
	// OnCopy receives the displayed text on middle click.
	OnCopy func(text string)
}

func New(view View, screen Screen, sched eventloop.Scheduler) *Panel {
	return &Panel{
		view:      view,
		screen:    screen,
		sched:     sched,
		autoHide:  DefaultAutoHide,
		maxHeight: DefaultMaxHeightPercent,
	}
}

func (p *Panel) Apply(field string, v any) {
	switch field {
	case "autoHide":
		if ms := v.(uint); ms > 0 {
			p.autoHide = time.Duration(ms) * time.Millisecond
		}
	case "maxHeight":
		if pct := int(v.(uint)); pct > 0 && pct <= 100 {
			p.maxHeight = pct
		}
	}
}

// Open reports whether the panel is shown.
func (p *Panel) Open() bool { return p.open }

// Content returns what is displayed, or was displayed last.
func (p *Panel) Content() Content { return p.content }

// Contains reports whether pt lies inside the open panel.
func (p *Panel) Contains(pt windowing.Point) bool {
	return p.open && p.view.Bounds().Contains(pt)
}

// Summon replaces the content and shows the panel at anchor. An open panel
// swaps content in place without the reveal animation.
func (p *Panel) Summon(info, text string, isError bool, anchor windowing.Rect) {
	c := Content{Info: info, Text: text, Error: isError}
	_, h := p.view.Measure(c)
	_, screenH := p.screen.ScreenSize()
	if limit := screenH * p.maxHeight / 100; h > limit {
		c.Scroll = true
		c.MaxHeight = limit
	}

	animate := !p.open
	p.content = c
	p.anchor = anchor
	p.open = true
	p.view.ShowPanel(c, anchor, animate)
	p.sched.Cancel(graceTimer)
	p.sched.Reset(hideTimer, p.autoHide, p.Dismiss)
	slog.Debug("result panel summoned", "error", isError, "scroll", c.Scroll, "chars", len(text))
}

// Dismiss hides the panel and cancels its timers.
func (p *Panel) Dismiss() {
	p.sched.Cancel(hideTimer)
	p.sched.Cancel(graceTimer)
	if !p.open {
		return
	}
	p.open = false
	p.view.HidePanel()
}

// Enter cancels any pending dismissal.
func (p *Panel) Enter() {
	p.sched.Cancel(hideTimer)
	p.sched.Cancel(graceTimer)
}

// Leave schedules dismissal after the auto-hide interval and a grace check
// that dismisses at once if the pointer really left the panel.
func (p *Panel) Leave() {
	if !p.open {
		return
	}
	p.sched.Reset(hideTimer, p.autoHide, p.Dismiss)
	p.sched.Reset(graceTimer, GraceInterval, p.graceCheck)
}

func (p *Panel) graceCheck() {
	pt, _, err := p.screen.Pointer()
	if err != nil {
		return
	}
	if !p.view.Bounds().Contains(pt) {
		p.Dismiss()
	}
}

// Click handles a button press on the panel.
func (p *Panel) Click(button int) {
	switch button {
	case ButtonLeft:
		if p.OnAction != nil {
			p.OnAction(ActionLeft)
		}
	case ButtonRight:
		if p.OnAction != nil {
			p.OnAction(ActionRight)
		}
		p.Dismiss()
	case ButtonMiddle:
		if p.OnCopy != nil && p.content.Text != "" {
			p.OnCopy(p.content.Text)
		}
	}
}
