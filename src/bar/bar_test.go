package bar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"light-dict/src/command"
	"light-dict/src/eventloop"
	"light-dict/src/session"
	"light-dict/src/windowing"
)

type fakeView struct {
	shown   [][]string
	hidden  int
	tooltip string
}

func (v *fakeView) ShowBar(items []command.Command, _ windowing.Rect) {
	names := make([]string, len(items))
	for i, c := range items {
		names[i] = c.Name
	}
	v.shown = append(v.shown, names)
}
func (v *fakeView) HideBar()                       { v.hidden++ }
func (v *fakeView) ShowTooltip(_ int, text string) { v.tooltip = text }
func (v *fakeView) HideTooltip()                   { v.tooltip = "" }

func (v *fakeView) last() []string {
	if len(v.shown) == 0 {
		return nil
	}
	return v.shown[len(v.shown)-1]
}

func cmds(names ...string) []command.Command {
	out := make([]command.Command, len(names))
	for i, n := range names {
		out[i] = command.Command{Name: n, Text: "echo " + n, Enabled: true}
	}
	return out
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		n, p, want int
	}{
		{0, 0, 0},
		{0, 3, 0},
		{5, 0, 1},
		{1, 3, 1},
		{3, 3, 1},
		{4, 3, 2},
		{7, 2, 4},
		{10, 1, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PageCount(tt.n, tt.p), "n=%d p=%d", tt.n, tt.p)
	}
}

func TestWrap(t *testing.T) {
	assert.Equal(t, 3, Wrap(0, 3))
	assert.Equal(t, 1, Wrap(4, 3))
	assert.Equal(t, 2, Wrap(2, 3))
	assert.Equal(t, 2, Wrap(-1, 3))
	assert.Equal(t, 0, Wrap(1, 0))
}

func TestPageBoundsLastPageOverlaps(t *testing.T) {
	start, end := PageBounds(7, 3, 3)
	assert.Equal(t, 4, start)
	assert.Equal(t, 7, end)

	start, end = PageBounds(7, 3, 2)
	assert.Equal(t, 3, start)
	assert.Equal(t, 6, end)

	start, end = PageBounds(7, 0, 1)
	assert.Equal(t, 0, start)
	assert.Equal(t, 7, end)
}

func TestScrollWrapsBothWays(t *testing.T) {
	view := &fakeView{}
	b := New(view, eventloop.NewManual())
	b.SetPageSize(2)
	b.SetCommands(cmds("a", "b", "c", "d", "e"))
	require.True(t, b.Summon(session.Selection{Text: "x"}))
	require.Equal(t, 3, b.PageCount())

	b.Scroll(-1)
	assert.Equal(t, 3, b.Page())
	assert.Equal(t, []string{"d", "e"}, view.last())

	b.Scroll(1)
	assert.Equal(t, 1, b.Page())
	assert.Equal(t, []string{"a", "b"}, view.last())
}

func TestSummonWithNothingEligibleStaysHidden(t *testing.T) {
	view := &fakeView{}
	sched := eventloop.NewManual()
	b := New(view, sched)
	c := cmds("digits")
	c[0].Regexp = `^\d+$`
	b.SetCommands(c)

	assert.False(t, b.Summon(session.Selection{Text: "words"}))
	assert.False(t, b.Shown())
	assert.Empty(t, view.shown)
	assert.False(t, sched.Pending(hideTimer))
}

func TestAppFilterScenario(t *testing.T) {
	view := &fakeView{}
	b := New(view, eventloop.NewManual())
	c := cmds("editor-only", "everywhere")
	c[0].Apps = []string{"editor.app"}
	b.SetCommands(c)

	require.True(t, b.Summon(session.Selection{Text: "w", AppID: "editor.app"}))
	assert.Equal(t, []string{"editor-only", "everywhere"}, view.last())

	require.True(t, b.Summon(session.Selection{Text: "w", AppID: "other.app"}))
	assert.Equal(t, []string{"everywhere"}, view.last())
}

func TestAutoHideAndReenter(t *testing.T) {
	view := &fakeView{}
	sched := eventloop.NewManual()
	b := New(view, sched)
	b.SetCommands(cmds("a"))
	b.Summon(session.Selection{Text: "x"})

	d, ok := sched.Delay(hideTimer)
	require.True(t, ok)
	assert.Equal(t, DefaultAutoHide, d)

	b.Enter()
	assert.False(t, sched.Pending(hideTimer))
	b.Leave()
	require.True(t, sched.Fire(hideTimer))
	assert.False(t, b.Shown())
	assert.Equal(t, 1, view.hidden)
}

func TestTooltipDelayAndCancel(t *testing.T) {
	view := &fakeView{}
	sched := eventloop.NewManual()
	b := New(view, sched)
	c := cmds("a")
	c[0].Tooltip = "Translate"
	b.SetCommands(c)
	b.Summon(session.Selection{Text: "x"})

	b.Hover(0)
	d, ok := sched.Delay(tooltipTimer)
	require.True(t, ok)
	assert.Equal(t, DefaultAutoHide/DefaultTooltipDivisor, d)

	b.Unhover()
	assert.False(t, sched.Fire(tooltipTimer))
	assert.Empty(t, view.tooltip)

	b.Hover(0)
	require.True(t, sched.Fire(tooltipTimer))
	assert.Equal(t, "Translate", view.tooltip)
}

func TestChooseHidesAndReports(t *testing.T) {
	view := &fakeView{}
	sched := eventloop.NewManual()
	b := New(view, sched)
	b.SetPageSize(2)
	b.SetCommands(cmds("a", "b", "c"))
	b.Summon(session.Selection{Text: "x"})
	b.Scroll(1)

	var chosen string
	b.OnChosen = func(c command.Command) { chosen = c.Name }
	b.Choose(1)

	assert.Equal(t, "c", chosen)
	assert.False(t, b.Shown())
	assert.Empty(t, sched.Names())
}
