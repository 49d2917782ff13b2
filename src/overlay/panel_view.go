package overlay

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"light-dict/src/popup"
	"light-dict/src/windowing"
)

const (
	// PanelMaxWidth caps the panel's text width before wrapping.
	PanelMaxWidth  = 480
	revealDuration = 150 * time.Millisecond
)

// PanelTarget receives panel input on the loop. *popup.Panel implements it.
type PanelTarget interface {
	Click(button int)
	Enter()
	Leave()
}

// PanelView draws the result panel: a bold title over a wrapped body that
// scrolls when the panel was told to.
type PanelView struct {
	app    fyne.App
	post   func(func())
	placer Placer

	mu     sync.Mutex
	target PanelTarget
	bounds windowing.Rect

	win    fyne.Window
	bg     *canvas.Rectangle
	title  *widget.Label
	body   *widget.Label
	scroll *container.Scroll
}

// NewPanelView returns a panel view placed through placer.
func NewPanelView(app fyne.App, post func(func()), placer Placer) *PanelView {
	return &PanelView{app: app, post: post, placer: placer}
}

func (v *PanelView) SetTarget(t PanelTarget) {
	v.mu.Lock()
	v.target = t
	v.mu.Unlock()
}

func (v *PanelView) send(fn func(PanelTarget)) {
	v.mu.Lock()
	t := v.target
	v.mu.Unlock()
	if t == nil {
		return
	}
	v.post(func() { fn(t) })
}

// Measure returns the natural size of c.
func (v *PanelView) Measure(c popup.Content) (int, int) {
	title := measure(c.Info, fyne.TextStyle{Bold: true}, PanelMaxWidth)
	body := measure(c.Text, fyne.TextStyle{}, PanelMaxWidth)
	w := max(title.Width, body.Width)
	return int(w), int(title.Height + body.Height)
}

// Bounds returns where the panel was last placed. It is computed when the
// panel is shown, so it is valid before the window appears.
func (v *PanelView) Bounds() windowing.Rect {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bounds
}

func (v *PanelView) ShowPanel(c popup.Content, anchor windowing.Rect, animate bool) {
	w, h := v.Measure(c)
	if c.Scroll && c.MaxHeight > 0 {
		h = min(h, c.MaxHeight)
	}
	b := placeNear(anchor, w, h, v.placer.Area(windowing.Point{X: anchor.X, Y: anchor.Y}))
	v.mu.Lock()
	v.bounds = b
	v.mu.Unlock()

	fyne.Do(func() {
		v.ensure()
		v.title.SetText(c.Info)
		v.title.Hidden = c.Info == ""
		v.body.SetText(c.Text)
		v.body.Importance = widget.MediumImportance
		if c.Error {
			v.body.Importance = widget.DangerImportance
		}
		v.body.Refresh()
		v.scroll.SetMinSize(fyne.NewSize(float32(w), float32(h)))
		v.win.Resize(v.win.Content().MinSize())
		if animate {
			v.reveal()
		}
		v.win.Show()
		move(v.placer, panelTitle, b)
	})
}

func (v *PanelView) reveal() {
	end := theme.Color(theme.ColorNameOverlayBackground)
	r, g, b, _ := end.RGBA()
	start := color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0}
	canvas.NewColorRGBAAnimation(start, end, revealDuration, func(c color.Color) {
		v.bg.FillColor = c
		v.bg.Refresh()
	}).Start()
}

func (v *PanelView) HidePanel() {
	fyne.Do(func() {
		if v.win != nil {
			v.win.Hide()
		}
	})
}

func (v *PanelView) ensure() {
	if v.win != nil {
		return
	}
	v.bg = canvas.NewRectangle(theme.Color(theme.ColorNameOverlayBackground))
	v.title = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	v.body = widget.NewLabel("")
	v.body.Wrapping = fyne.TextWrapWord
	v.scroll = container.NewVScroll(v.body)

	s := newSurface(container.NewStack(v.bg, container.NewBorder(v.title, nil, nil, nil, v.scroll)))
	s.onIn = func() { v.send(PanelTarget.Enter) }
	s.onOut = func() { v.send(PanelTarget.Leave) }
	s.onClick = func(button int) {
		v.send(func(t PanelTarget) { t.Click(button) })
	}
	v.win = newPopupWindow(v.app, panelTitle)
	v.win.SetContent(s)
}

// surface wraps content and reports hover, clicks and scrolling.
type surface struct {
	widget.BaseWidget
	content fyne.CanvasObject

	onIn     func()
	onOut    func()
	onClick  func(button int)
	onScroll func(dy float32)
}

func newSurface(content fyne.CanvasObject) *surface {
	s := &surface{content: content}
	s.ExtendBaseWidget(s)
	return s
}

func (s *surface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.content)
}

func (s *surface) MouseIn(*desktop.MouseEvent) {
	if s.onIn != nil {
		s.onIn()
	}
}

func (s *surface) MouseMoved(*desktop.MouseEvent) {}

func (s *surface) MouseOut() {
	if s.onOut != nil {
		s.onOut()
	}
}

func (s *surface) MouseDown(e *desktop.MouseEvent) {
	if s.onClick == nil {
		return
	}
	switch e.Button {
	case desktop.MouseButtonPrimary:
		s.onClick(popup.ButtonLeft)
	case desktop.MouseButtonTertiary:
		s.onClick(popup.ButtonMiddle)
	case desktop.MouseButtonSecondary:
		s.onClick(popup.ButtonRight)
	}
}

func (s *surface) MouseUp(*desktop.MouseEvent) {}

func (s *surface) Scrolled(e *fyne.ScrollEvent) {
	if s.onScroll != nil {
		s.onScroll(e.Scrolled.DY)
	}
}
