// Package bar implements the paged command bar summoned in popup mode.
package bar

import (
	"log/slog"
	"time"

	"light-dict/src/command"
	"light-dict/src/config"
	"light-dict/src/eventloop"
	"light-dict/src/session"
	"light-dict/src/windowing"
)

// Defaults for the bar's timers.
const (
	DefaultAutoHide       = 2500 * time.Millisecond
	DefaultTooltipDivisor = 4
)

const (
	hideTimer    = "bar-hide"
	tooltipTimer = "bar-tooltip"
)

var Bindings = config.Bindings{
	"commands":       {Key: config.KeyPopupList, Kind: config.StringArray},
	"pageSize":       {Key: config.KeyPageSize, Kind: config.Uint},
	"autoHide":       {Key: config.KeyAutoHide, Kind: config.Uint},
	"tooltipDivisor": {Key: config.KeyTooltipDivisor, Kind: config.Uint},
}

// View renders the bar. Calls arrive on the loop goroutine.
type View interface {
	ShowBar(items []command.Command, anchor windowing.Rect)
	HideBar()
	ShowTooltip(index int, text string)
	HideTooltip()
}

// Bar owns pagination, visibility and the bar's timers.
type Bar struct {
	view  View
	sched eventloop.Scheduler

	commands       []command.Command
	pageSize       int
	autoHide       time.Duration
	tooltipDivisor int

	// page state for the current filter context
	appID   string
	text    string
	visible []command.Command
	page    int

	shown  bool
	anchor windowing.Rect

	// OnChosen runs when the user picks a command from the bar.
	OnChosen func(command.Command)
}

// New returns a hidden bar with default timers.
func New(view View, sched eventloop.Scheduler) *Bar {
	return &Bar{
		view:           view,
		sched:          sched,
		autoHide:       DefaultAutoHide,
		tooltipDivisor: DefaultTooltipDivisor,
	}
}

func (b *Bar) Apply(field string, v any) {
	switch field {
	case "commands":
		b.SetCommands(command.DecodeList(v.([]string)))
	case "pageSize":
		b.SetPageSize(int(v.(uint)))
	case "autoHide":
		b.SetAutoHide(time.Duration(v.(uint)) * time.Millisecond)
	case "tooltipDivisor":
		b.SetTooltipDivisor(int(v.(uint)))
	}
}

// SetCommands replaces the popup command list and recomputes the page state.
func (b *Bar) SetCommands(cmds []command.Command) {
	b.commands = cmds
	b.refilter()
}

// SetPageSize sets the page size; 0 disables paging.
func (b *Bar) SetPageSize(n int) {
	if n < 0 {
		n = 0
	}
	b.pageSize = n
	b.refilter()
}

// SetAutoHide sets the hide delay used after summon and pointer leave.
func (b *Bar) SetAutoHide(d time.Duration) {
	if d > 0 {
		b.autoHide = d
	}
}

// SetTooltipDivisor sets the fraction of the auto-hide interval waited before
// a hover shows a tooltip.
func (b *Bar) SetTooltipDivisor(n int) {
	if n > 0 {
		b.tooltipDivisor = n
	}
}

// Filter recomputes the visible list for a new filter context.
func (b *Bar) Filter(appID, text string) {
	b.appID, b.text = appID, text
	b.refilter()
}

func (b *Bar) eligible() []command.Command {
	visible := make([]command.Command, 0, len(b.commands))
	for _, c := range b.commands {
		if c.Eligible(b.appID, b.text) {
			visible = append(visible, c)
		}
	}
	return visible
}

func (b *Bar) refilter() {
	b.visible = b.eligible()
	b.page = Wrap(1, b.PageCount())
	if b.shown {
		if b.PageCount() == 0 {
			b.Hide()
			return
		}
		b.view.ShowBar(b.PageItems(), b.anchor)
	}
}

// Visible returns every command eligible in the current filter context.
func (b *Bar) Visible() []command.Command { return b.visible }

// PageCount returns the number of pages for the current filter context.
func (b *Bar) PageCount() int { return PageCount(len(b.visible), b.pageSize) }

// Page returns the current 1-based page, or 0 when nothing is visible.
func (b *Bar) Page() int { return b.page }

// PageItems returns the commands on the current page.
func (b *Bar) PageItems() []command.Command {
	start, end := PageBounds(len(b.visible), b.pageSize, b.page)
	return b.visible[start:end]
}

// Shown reports whether the bar is on screen.
func (b *Bar) Shown() bool { return b.shown }

// Summon filters for sel and shows the first page at the selection anchor.
// It returns false, leaving the bar hidden, when no command is eligible.
func (b *Bar) Summon(sel session.Selection) bool {
	b.sched.Cancel(hideTimer)
	b.appID, b.text = sel.AppID, sel.Text
	b.visible = b.eligible()
	if b.PageCount() == 0 {
		slog.Debug("command bar has no eligible commands", "app", sel.AppID)
		b.Hide()
		return false
	}
	b.page = 1
	b.anchor = sel.Anchor
	b.shown = true
	b.view.ShowBar(b.PageItems(), b.anchor)
	b.sched.Reset(hideTimer, b.autoHide, b.Hide)
	return true
}

// Hide removes the bar and cancels its timers.
func (b *Bar) Hide() {
	b.sched.Cancel(hideTimer)
	b.sched.Cancel(tooltipTimer)
	if !b.shown {
		return
	}
	b.shown = false
	b.view.HideTooltip()
	b.view.HideBar()
}

// Scroll moves delta pages (negative is up) with wraparound.
func (b *Bar) Scroll(delta int) {
	count := b.PageCount()
	if !b.shown || count <= 1 || delta == 0 {
		return
	}
	b.page = Wrap(b.page+delta, count)
	b.view.HideTooltip()
	b.view.ShowBar(b.PageItems(), b.anchor)
}

// Enter cancels the pending auto-hide while the pointer is over the bar.
func (b *Bar) Enter() { b.sched.Cancel(hideTimer) }

// Leave schedules the auto-hide.
func (b *Bar) Leave() {
	b.Unhover()
	if b.shown {
		b.sched.Reset(hideTimer, b.autoHide, b.Hide)
	}
}

// Hover schedules the tooltip of the index-th item on the current page.
func (b *Bar) Hover(index int) {
	items := b.PageItems()
	if index < 0 || index >= len(items) {
		return
	}
	text := items[index].Tooltip
	if text == "" {
		text = items[index].Name
	}
	b.sched.Reset(tooltipTimer, b.autoHide/time.Duration(b.tooltipDivisor), func() {
		b.view.ShowTooltip(index, text)
	})
}

// Unhover cancels a pending tooltip and hides a shown one.
func (b *Bar) Unhover() {
	b.sched.Cancel(tooltipTimer)
	b.view.HideTooltip()
}

// Choose hides the bar and reports the index-th item on the current page.
func (b *Bar) Choose(index int) {
	items := b.PageItems()
	if index < 0 || index >= len(items) {
		return
	}
	chosen := items[index]
	b.Hide()
	if b.OnChosen != nil {
		b.OnChosen(chosen)
	}
}
