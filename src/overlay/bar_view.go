package overlay

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"light-dict/src/command"
	"light-dict/src/windowing"
)

// BarTarget receives bar input on the loop. *bar.Bar implements it.
type BarTarget interface {
	Choose(index int)
	Hover(index int)
	Unhover()
	Enter()
	Leave()
	Scroll(delta int)
}

// BarView draws the command bar as a row of buttons with a tooltip line.
type BarView struct {
	app    fyne.App
	post   func(func())
	placer Placer

	mu     sync.Mutex
	target BarTarget

	win     fyne.Window
	row     *fyne.Container
	tip     *widget.Label
	buttons []*barButton
}

// NewBarView returns a view that creates its window on first use and places
// it through placer.
func NewBarView(app fyne.App, post func(func()), placer Placer) *BarView {
	return &BarView{app: app, post: post, placer: placer}
}

// SetTarget connects the view to the bar it renders.
func (v *BarView) SetTarget(t BarTarget) {
	v.mu.Lock()
	v.target = t
	v.mu.Unlock()
}

func (v *BarView) send(fn func(BarTarget)) {
	v.mu.Lock()
	t := v.target
	v.mu.Unlock()
	if t == nil {
		return
	}
	v.post(func() { fn(t) })
}

func (v *BarView) ensure() {
	if v.win != nil {
		return
	}
	v.row = container.NewHBox()
	v.tip = widget.NewLabel("")
	v.tip.Hide()
	s := newSurface(container.NewVBox(v.row, v.tip))
	s.onIn = func() { v.send(BarTarget.Enter) }
	s.onOut = func() { v.send(BarTarget.Leave) }
	s.onScroll = func(dy float32) {
		delta := 1
		if dy > 0 {
			delta = -1
		}
		v.send(func(t BarTarget) { t.Scroll(delta) })
	}
	v.win = newPopupWindow(v.app, barTitle)
	v.win.SetContent(s)
}

func (v *BarView) ShowBar(items []command.Command, anchor windowing.Rect) {
	items = append([]command.Command(nil), items...)
	fyne.Do(func() {
		v.ensure()
		v.buttons = v.buttons[:0]
		objs := make([]fyne.CanvasObject, 0, len(items))
		for i, c := range items {
			b := newBarButton(v, i, c)
			v.buttons = append(v.buttons, b)
			objs = append(objs, b)
		}
		v.row.Objects = objs
		v.row.Refresh()
		v.tip.Hide()
		size := v.win.Content().MinSize()
		v.win.Resize(size)
		area := v.placer.Area(windowing.Point{X: anchor.X, Y: anchor.Y})
		v.win.Show()
		move(v.placer, barTitle, placeNear(anchor, int(size.Width), int(size.Height), area))
	})
}

func (v *BarView) HideBar() {
	fyne.Do(func() {
		if v.win != nil {
			v.win.Hide()
		}
	})
}

func (v *BarView) ShowTooltip(index int, text string) {
	fyne.Do(func() {
		if v.win == nil || index < 0 || index >= len(v.buttons) {
			return
		}
		v.tip.SetText(text)
		v.tip.Show()
		v.win.Resize(v.win.Content().MinSize())
	})
}

func (v *BarView) HideTooltip() {
	fyne.Do(func() {
		if v.tip != nil {
			v.tip.Hide()
		}
	})
}

// barButton is a button that also reports hover.
type barButton struct {
	widget.Button
	view  *BarView
	index int
}

func newBarButton(v *BarView, index int, c command.Command) *barButton {
	b := &barButton{view: v, index: index}
	b.Text = c.Name
	if res := iconFor(c.Icon); res != nil {
		b.Icon = res
		b.Text = ""
	}
	b.Importance = widget.LowImportance
	b.OnTapped = func() {
		v.send(func(t BarTarget) { t.Choose(index) })
	}
	b.ExtendBaseWidget(b)
	return b
}

func (b *barButton) MouseIn(e *desktop.MouseEvent) {
	b.Button.MouseIn(e)
	b.view.send(func(t BarTarget) {
		t.Enter()
		t.Hover(b.index)
	})
}

func (b *barButton) MouseOut() {
	b.Button.MouseOut()
	b.view.send(func(t BarTarget) {
		t.Unhover()
		t.Leave()
	})
}

// desktopIcons maps freedesktop icon names used in command records to theme
// icons.
var desktopIcons = map[string]fyne.ThemeIconName{
	"accessories-dictionary":  theme.IconNameDocument,
	"accessories-text-editor": theme.IconNameFileText,
	"dialog-information":      theme.IconNameInfo,
	"document":                theme.IconNameDocument,
	"edit-copy":               theme.IconNameContentCopy,
	"copy":                    theme.IconNameContentCopy,
	"edit-cut":                theme.IconNameContentCut,
	"edit-delete":             theme.IconNameDelete,
	"edit-find":               theme.IconNameSearch,
	"edit-paste":              theme.IconNameContentPaste,
	"paste":                   theme.IconNameContentPaste,
	"format-text-bold":        theme.IconNameFileText,
	"format-text-lowercase":   theme.IconNameFileText,
	"format-text-uppercase":   theme.IconNameFileText,
	"help":                    theme.IconNameHelp,
	"help-browser":            theme.IconNameHelp,
	"mail-send":               theme.IconNameMailSend,
	"search":                  theme.IconNameSearch,
	"system-search":           theme.IconNameSearch,
	"text":                    theme.IconNameFileText,
	"web-browser":             theme.IconNameSearch,
}

// iconFor resolves a freedesktop name, then a theme icon name. Unknown names
// render as text.
func iconFor(name string) fyne.Resource {
	if name == "" {
		return nil
	}
	n, ok := desktopIcons[name]
	if !ok {
		n = fyne.ThemeIconName(name)
	}
	return theme.DefaultTheme().Icon(n)
}
