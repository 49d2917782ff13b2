package overlay

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"light-dict/src/command"
	"light-dict/src/popup"
	"light-dict/src/windowing"
)

type placement struct {
	title string
	r     windowing.Rect
}

type fakePlacer struct {
	area  windowing.Rect
	moves []placement
}

func (p *fakePlacer) Area(windowing.Point) windowing.Rect { return p.area }
func (p *fakePlacer) Move(title string, r windowing.Rect) error {
	p.moves = append(p.moves, placement{title, r})
	return nil
}

func TestPlaceNear(t *testing.T) {
	area := windowing.Rect{X: 1920, Y: 0, Width: 1280, Height: 1024}
	tests := []struct {
		name   string
		anchor windowing.Rect
		want   windowing.Rect
	}{
		{"below the anchor", windowing.Rect{X: 2000, Y: 100, Width: 10, Height: 20}, windowing.Rect{X: 2000, Y: 120, Width: 300, Height: 200}},
		{"flips above near the bottom", windowing.Rect{X: 2000, Y: 900, Width: 10, Height: 20}, windowing.Rect{X: 2000, Y: 700, Width: 300, Height: 200}},
		{"clamped at the right edge", windowing.Rect{X: 3150, Y: 100, Width: 1, Height: 1}, windowing.Rect{X: 2900, Y: 101, Width: 300, Height: 200}},
		{"clamped onto the display", windowing.Rect{X: 0, Y: 0, Width: 1, Height: 1}, windowing.Rect{X: 1920, Y: 1, Width: 300, Height: 200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, placeNear(tt.anchor, 300, 200, area))
		})
	}
}

func TestIconForDefaultCommands(t *testing.T) {
	test.NewApp()
	for _, name := range []string{"accessories-dictionary", "web-browser", "format-text-lowercase", "edit-copy", "contentCopy"} {
		assert.NotNil(t, iconFor(name), name)
	}
	assert.Nil(t, iconFor(""))
	assert.Nil(t, iconFor("no-such-icon"))
}

type barCalls struct{ calls []string }

func (b *barCalls) Choose(i int) { b.calls = append(b.calls, "choose", string(rune('0'+i))) }
func (b *barCalls) Hover(i int)  { b.calls = append(b.calls, "hover", string(rune('0'+i))) }
func (b *barCalls) Unhover()     { b.calls = append(b.calls, "unhover") }
func (b *barCalls) Enter()       { b.calls = append(b.calls, "enter") }
func (b *barCalls) Leave()       { b.calls = append(b.calls, "leave") }
func (b *barCalls) Scroll(d int) {
	if d > 0 {
		b.calls = append(b.calls, "down")
	} else {
		b.calls = append(b.calls, "up")
	}
}

type panelCalls struct{ calls []any }

func (p *panelCalls) Click(button int) { p.calls = append(p.calls, button) }
func (p *panelCalls) Enter()           { p.calls = append(p.calls, "enter") }
func (p *panelCalls) Leave()           { p.calls = append(p.calls, "leave") }

func direct(fn func()) { fn() }

func TestBarViewButtonsReportInput(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()
	placer := &fakePlacer{area: windowing.Rect{Width: 1000, Height: 800}}

	target := &barCalls{}
	v := NewBarView(app, direct, placer)
	v.SetTarget(target)
	v.ShowBar([]command.Command{{Name: "copy", Icon: "edit-copy"}, {Name: "lower"}}, windowing.Rect{X: 30, Y: 40, Width: 1, Height: 1})

	require.Len(t, v.buttons, 2)
	require.Len(t, placer.moves, 1)
	assert.Equal(t, barTitle, placer.moves[0].title)
	assert.Equal(t, 30, placer.moves[0].r.X)
	assert.Equal(t, 41, placer.moves[0].r.Y)
	assert.Empty(t, v.buttons[0].Text, "themed icon replaces the name")
	assert.Equal(t, "lower", v.buttons[1].Text)

	test.Tap(v.buttons[1])
	v.buttons[0].MouseIn(&desktop.MouseEvent{})
	v.buttons[0].MouseOut()
	assert.Equal(t, []string{"choose", "1", "enter", "hover", "0", "unhover", "leave"}, target.calls)

	v.ShowTooltip(0, "Copy to clipboard")
	assert.True(t, v.tip.Visible())
	assert.Equal(t, "Copy to clipboard", v.tip.Text)
	v.HideTooltip()
	assert.False(t, v.tip.Visible())

	v.ShowBar([]command.Command{{Name: "only"}}, windowing.Rect{})
	assert.Len(t, v.buttons, 1)
	assert.Len(t, v.row.Objects, 1)
}

func TestSurfaceScrollMapsToPages(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()
	placer := &fakePlacer{area: windowing.Rect{Width: 1000, Height: 800}}

	target := &barCalls{}
	v := NewBarView(app, direct, placer)
	v.SetTarget(target)
	v.ShowBar([]command.Command{{Name: "a"}}, windowing.Rect{})

	s := v.win.Content().(*surface)
	s.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: 10}})
	s.Scrolled(&fyne.ScrollEvent{Scrolled: fyne.Delta{DY: -10}})
	assert.Equal(t, []string{"up", "down"}, target.calls)
}

func TestPanelViewPlacementAndClicks(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()
	placer := &fakePlacer{area: windowing.Rect{Width: 1000, Height: 800}}

	target := &panelCalls{}
	v := NewPanelView(app, direct, placer)
	v.SetTarget(target)

	c := popup.Content{Info: "hello", Text: "a greeting"}
	w, h := v.Measure(c)
	assert.Positive(t, w)
	assert.Positive(t, h)

	anchor := windowing.Rect{X: 40, Y: 50, Width: 1, Height: 1}
	v.ShowPanel(c, anchor, true)
	b := v.Bounds()
	assert.Equal(t, windowing.Rect{X: 40, Y: 51, Width: w, Height: h}, b)
	assert.Equal(t, []placement{{panelTitle, b}}, placer.moves)
	assert.Equal(t, "a greeting", v.body.Text)

	v.ShowPanel(popup.Content{Text: "boom", Error: true}, windowing.Rect{}, false)
	assert.Equal(t, "boom", v.body.Text)
	assert.True(t, v.title.Hidden)

	s := v.win.Content().(*surface)
	s.MouseIn(&desktop.MouseEvent{})
	s.MouseDown(&desktop.MouseEvent{Button: desktop.MouseButtonSecondary})
	s.MouseDown(&desktop.MouseEvent{Button: desktop.MouseButtonTertiary})
	s.MouseOut()
	assert.Equal(t, []any{"enter", popup.ButtonRight, popup.ButtonMiddle, "leave"}, target.calls)
}

func TestScrollContentIsCapped(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()
	placer := &fakePlacer{area: windowing.Rect{Width: 1000, Height: 800}}

	v := NewPanelView(app, direct, placer)
	long := popup.Content{Text: "x\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx\nx"}
	_, natural := v.Measure(long)
	long.Scroll, long.MaxHeight = true, 100
	v.ShowPanel(long, windowing.Rect{}, false)
	require.Greater(t, natural, 100)
	assert.Equal(t, 100, v.Bounds().Height)
}

func TestMeasureWrapsLongLines(t *testing.T) {
	test.NewApp()
	short := measure("word", fyne.TextStyle{}, 100)
	wide := measure("a very long line of text that will certainly need wrapping at this width", fyne.TextStyle{}, 100)
	assert.LessOrEqual(t, wide.Width, 100+2*theme.InnerPadding())
	assert.Greater(t, wide.Height, short.Height)
	assert.Equal(t, []string{"a", "b", ""}, splitLines("a\nb\n"))
}
