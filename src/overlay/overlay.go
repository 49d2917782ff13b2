// Package overlay renders the command bar and the result panel with fyne.
// View methods are called on the engine loop and hop to the fyne main
// goroutine with fyne.Do; user input hops back with the loop's post.
package overlay

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"

	"light-dict/src/windowing"
)

const (
	barTitle   = "light-dict bar"
	panelTitle = "light-dict panel"
)

// Placer positions our windows on screen. fyne has no window placement, so
// the windowing runtime moves them after they are shown. *x11.Runtime
// implements it.
type Placer interface {
	// Area returns the display area containing p.
	Area(p windowing.Point) windowing.Rect
	// Move places the window titled title at r's origin.
	Move(title string, r windowing.Rect) error
}

// newPopupWindow prefers a borderless splash window where the driver offers
// one. The title is what the Placer finds the window by.
func newPopupWindow(app fyne.App, title string) fyne.Window {
	if drv, ok := app.Driver().(desktop.Driver); ok {
		w := drv.CreateSplashWindow()
		w.SetTitle(title)
		return w
	}
	return app.NewWindow(title)
}

// placeNear puts a w by h window just below anchor, flips it above the anchor
// when it would run off the bottom of area, and clamps it into area.
func placeNear(anchor windowing.Rect, w, h int, area windowing.Rect) windowing.Rect {
	x := anchor.X
	y := anchor.Y + anchor.Height
	if y+h > area.Y+area.Height && anchor.Y-h >= area.Y {
		y = anchor.Y - h
	}
	return windowing.Rect{
		X:      clamp(x, area.X, area.X+area.Width-w),
		Y:      clamp(y, area.Y, area.Y+area.Height-h),
		Width:  w,
		Height: h,
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(v, hi))
}

// move runs on the fyne goroutine after Show. A failed move leaves the
// window where the window manager put it.
func move(p Placer, title string, r windowing.Rect) {
	if err := p.Move(title, r); err != nil {
		slog.Debug("overlay: window placement failed", "window", title, "error", err)
	}
}

// measure returns the size of text laid out line by line at the theme text
// size, with lines wider than maxWidth wrapped.
func measure(text string, style fyne.TextStyle, maxWidth float32) fyne.Size {
	size := theme.TextSize()
	pad := theme.InnerPadding()
	var w, h float32
	lineH := fyne.MeasureText("M", size, style).Height
	for _, line := range splitLines(text) {
		lw := fyne.MeasureText(line, size, style).Width
		rows := float32(1)
		if maxWidth > 0 && lw > maxWidth {
			rows = float32(int(lw/maxWidth) + 1)
			lw = maxWidth
		}
		if lw > w {
			w = lw
		}
		h += rows * lineH
	}
	return fyne.NewSize(w+2*pad, h+2*pad)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}
