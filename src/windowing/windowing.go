// Package windowing describes the slice of the desktop session the engine
// consumes: pointer and modifier state, focused window identity, selection
// ownership events and text transfer for both clipboard classes.
package windowing

import (
	"context"
	"strings"
)

// Point is a position in root-window (virtual screen) coordinates.
type Point struct {
	X int
	Y int
}

// Rect is a screen rectangle. A zero Rect is treated as "unknown".
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Contains reports whether p lies inside r. Empty rectangles contain nothing.
func (r Rect) Contains(p Point) bool {
	if r.Empty() {
		return false
	}
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Ints returns the rectangle as [x, y, w, h].
func (r Rect) Ints() []int32 {
	return []int32{int32(r.X), int32(r.Y), int32(r.Width), int32(r.Height)}
}

// AnchorAt returns a one-pixel rectangle used to anchor popups at a pointer position.
func AnchorAt(p Point) Rect { return Rect{X: p.X, Y: p.Y, Width: 1, Height: 1} }

// ModMask mirrors the X11 key/button mask bit layout.
type ModMask uint16

const (
	ModShift   ModMask = 1 << 0
	ModLock    ModMask = 1 << 1
	ModControl ModMask = 1 << 2
	ModAlt     ModMask = 1 << 3
	ModSuper   ModMask = 1 << 6
	Button1    ModMask = 1 << 8
	Button2    ModMask = 1 << 9
	Button3    ModMask = 1 << 10
)

// Has reports whether every bit of m2 is set in m.
func (m ModMask) Has(m2 ModMask) bool { return m2 != 0 && m&m2 == m2 }

// ParseModifier maps a key name ("ctrl", "shift", "alt", "super") to its mask bit.
// Unknown names map to zero.
func ParseModifier(name string) ModMask {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "shift":
		return ModShift
	case "ctrl", "control":
		return ModControl
	case "alt", "mod1":
		return ModAlt
	case "super", "win", "cmd", "mod4":
		return ModSuper
	default:
		return 0
	}
}

// Class selects one of the two text transfer buffers.
type Class int

const (
	// Primary is the "currently highlighted text" selection.
	Primary Class = iota
	// Clipboard is the explicit copy/paste buffer.
	Clipboard
)

func (c Class) String() string {
	if c == Primary {
		return "primary"
	}
	return "clipboard"
}

// EventKind discriminates runtime events.
type EventKind int

const (
	// SelectionOwnerChanged fires when a selection buffer gets a new owner.
	SelectionOwnerChanged EventKind = iota
	// FocusChanged fires when the focused top-level window changes.
	FocusChanged
)

// Event is one notification from the runtime. For selection events Pointer and
// Mask are sampled together with the event, not later.
type Event struct {
	Kind    EventKind
	Class   Class
	Pointer Point
	Mask    ModMask
}

// Window identifies the focused top-level window.
type Window struct {
	AppID  string
	PID    int
	Bounds Rect
}

// Runtime is the windowing system as seen by the engine.
type Runtime interface {
	// Pointer returns the pointer position and the current modifier/button mask.
	Pointer() (Point, ModMask, error)
	// Focused returns the focused window, or false when none is known.
	Focused() (Window, bool)
	// Events streams selection and focus events until ctx is done.
	Events(ctx context.Context) (<-chan Event, error)
	// ReadText returns the text held by the given class. It may block.
	ReadText(ctx context.Context, class Class) (string, error)
	// WriteText takes ownership of the given class with text.
	WriteText(class Class, text string) error
	// ScreenSize returns the size of the whole virtual screen.
	ScreenSize() (int, int)
}
