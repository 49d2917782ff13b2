// Package x11 implements windowing.Runtime on an X server: pointer and
// modifier state through core requests, selection ownership through the
// XFIXES extension, and focus through _NET_ACTIVE_WINDOW.
package x11

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xfixes"
	"github.com/jezek/xgb/xproto"

	"light-dict/src/clipboard"
	"light-dict/src/screenshot"
	"light-dict/src/windowing"
)

// Runtime is a live X connection.
type Runtime struct {
	conn   *xgb.Conn
	root   xproto.Window
	screen *xproto.ScreenInfo

	atomClipboard xproto.Atom
	atomActive    xproto.Atom
	atomPID       xproto.Atom
	atomName      xproto.Atom
	atomUTF8      xproto.Atom

	mu      sync.Mutex
	pumping bool
	selfPID int
	// own caches our top-level windows by title.
	own map[string]xproto.Window
}

// Connect opens the display named by $DISPLAY and enables selection
// ownership notifications.
func Connect() (*Runtime, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X display: %w", err)
	}
	if err := xfixes.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("XFIXES extension: %w", err)
	}
	if _, err := xfixes.QueryVersion(conn, 5, 0).Reply(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("XFIXES version: %w", err)
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	r := &Runtime{conn: conn, root: screen.Root, screen: screen, selfPID: os.Getpid(), own: map[string]xproto.Window{}}
	for name, dst := range map[string]*xproto.Atom{
		"CLIPBOARD":          &r.atomClipboard,
		"_NET_ACTIVE_WINDOW": &r.atomActive,
		"_NET_WM_PID":        &r.atomPID,
		"_NET_WM_NAME":       &r.atomName,
		"UTF8_STRING":        &r.atomUTF8,
	} {
		if *dst, err = r.intern(name); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return r, nil
}

// Close drops the connection; the event stream ends.
func (r *Runtime) Close() { r.conn.Close() }

func (r *Runtime) intern(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(r.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern atom %s: %w", name, err)
	}
	return reply.Atom, nil
}

func (r *Runtime) Pointer() (windowing.Point, windowing.ModMask, error) {
	reply, err := xproto.QueryPointer(r.conn, r.root).Reply()
	if err != nil {
		return windowing.Point{}, 0, fmt.Errorf("query pointer: %w", err)
	}
	return windowing.Point{X: int(reply.RootX), Y: int(reply.RootY)}, windowing.ModMask(reply.Mask), nil
}

func (r *Runtime) Focused() (windowing.Window, bool) {
	win, err := r.activeWindow()
	if err != nil || win == 0 {
		return windowing.Window{}, false
	}
	w := windowing.Window{AppID: r.appID(win), PID: r.pid(win)}
	if w.AppID == "" {
		return windowing.Window{}, false
	}
	if b, err := r.bounds(win); err == nil {
		w.Bounds = b
	}
	return w, true
}

func (r *Runtime) activeWindow() (xproto.Window, error) {
	reply, err := xproto.GetProperty(r.conn, false, r.root, r.atomActive, xproto.AtomWindow, 0, 1).Reply()
	if err != nil {
		return 0, err
	}
	if reply.Format != 32 || len(reply.Value) < 4 {
		return 0, nil
	}
	return xproto.Window(xgb.Get32(reply.Value)), nil
}

// appID is the class part of WM_CLASS ("instance\0class\0").
func (r *Runtime) appID(win xproto.Window) string {
	reply, err := xproto.GetProperty(r.conn, false, win, xproto.AtomWmClass, xproto.AtomString, 0, 128).Reply()
	if err != nil || len(reply.Value) == 0 {
		return ""
	}
	return wmClass(reply.Value)
}

func wmClass(raw []byte) string {
	parts := strings.Split(strings.TrimRight(string(raw), "\x00"), "\x00")
	return parts[len(parts)-1]
}

func (r *Runtime) pid(win xproto.Window) int {
	reply, err := xproto.GetProperty(r.conn, false, win, r.atomPID, xproto.AtomCardinal, 0, 1).Reply()
	if err != nil || reply.Format != 32 || len(reply.Value) < 4 {
		return 0
	}
	return int(xgb.Get32(reply.Value))
}

func (r *Runtime) bounds(win xproto.Window) (windowing.Rect, error) {
	geom, err := xproto.GetGeometry(r.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return windowing.Rect{}, err
	}
	pos, err := xproto.TranslateCoordinates(r.conn, win, r.root, 0, 0).Reply()
	if err != nil {
		return windowing.Rect{}, err
	}
	return windowing.Rect{X: int(pos.DstX), Y: int(pos.DstY), Width: int(geom.Width), Height: int(geom.Height)}, nil
}

// Events selects owner-change notifications for PRIMARY and CLIPBOARD and
// property changes on the root window, then streams them. Only one stream
// may be open at a time. The stream ends when ctx is done (observed at the
// next X event) or the connection closes.
func (r *Runtime) Events(ctx context.Context) (<-chan windowing.Event, error) {
	r.mu.Lock()
	if r.pumping {
		r.mu.Unlock()
		return nil, fmt.Errorf("x11 event stream already open")
	}
	r.pumping = true
	r.mu.Unlock()

	for _, sel := range []xproto.Atom{xproto.AtomPrimary, r.atomClipboard} {
		if err := xfixes.SelectSelectionInputChecked(r.conn, r.root, sel, xfixes.SelectionEventMaskSetSelectionOwner).Check(); err != nil {
			r.stopPump()
			return nil, fmt.Errorf("select selection input: %w", err)
		}
	}
	if err := xproto.ChangeWindowAttributesChecked(r.conn, r.root, xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange}).Check(); err != nil {
		r.stopPump()
		return nil, fmt.Errorf("select root property changes: %w", err)
	}

	out := make(chan windowing.Event, 16)
	go r.pump(ctx, out)
	return out, nil
}

func (r *Runtime) stopPump() {
	r.mu.Lock()
	r.pumping = false
	r.mu.Unlock()
}

func (r *Runtime) pump(ctx context.Context, out chan<- windowing.Event) {
	defer close(out)
	defer r.stopPump()
	for {
		ev, xerr := r.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			slog.Info("x11: connection closed")
			return
		}
		if ctx.Err() != nil {
			return
		}
		if xerr != nil {
			slog.Debug("x11: protocol error", "error", xerr)
			continue
		}
		e, ok := r.translate(ev)
		if !ok {
			continue
		}
		select {
		case out <- e:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runtime) translate(ev xgb.Event) (windowing.Event, bool) {
	switch e := ev.(type) {
	case xfixes.SelectionNotifyEvent:
		class := windowing.Primary
		if e.Selection == r.atomClipboard {
			class = windowing.Clipboard
		}
		// Sample pointer and mask together with the event.
		p, mask, err := r.Pointer()
		if err != nil {
			slog.Debug("x11: pointer sample failed", "error", err)
		}
		return windowing.Event{Kind: windowing.SelectionOwnerChanged, Class: class, Pointer: p, Mask: mask}, true
	case xproto.PropertyNotifyEvent:
		if e.Atom != r.atomActive {
			return windowing.Event{}, false
		}
		return windowing.Event{Kind: windowing.FocusChanged}, true
	}
	return windowing.Event{}, false
}

func (r *Runtime) ReadText(ctx context.Context, class windowing.Class) (string, error) {
	return clipboard.Read(ctx, class)
}

func (r *Runtime) WriteText(class windowing.Class, text string) error {
	return clipboard.Write(class, text)
}

// ScreenSize prefers the union of display bounds and falls back to the root
// window size.
func (r *Runtime) ScreenSize() (int, int) {
	if b, err := screenshot.VirtualBounds(); err == nil && !b.Empty() {
		return b.Width, b.Height
	}
	return int(r.screen.WidthInPixels), int(r.screen.HeightInPixels)
}

// Area returns the display containing p, or the whole screen when display
// bounds are unavailable.
func (r *Runtime) Area(p windowing.Point) windowing.Rect {
	if d, err := screenshot.DisplayAt(p); err == nil && !d.Empty() {
		return d
	}
	w, h := r.ScreenSize()
	return windowing.Rect{Width: w, Height: h}
}

// Move places this process's top-level window titled title at rect's origin.
// The window must already be created; lookups are cached per title.
func (r *Runtime) Move(title string, rect windowing.Rect) error {
	for attempt := 0; attempt < 2; attempt++ {
		win, err := r.ownWindow(title)
		if err != nil {
			return err
		}
		err = xproto.ConfigureWindowChecked(r.conn, win,
			xproto.ConfigWindowX|xproto.ConfigWindowY,
			[]uint32{uint32(int32(rect.X)), uint32(int32(rect.Y))}).Check()
		if err == nil {
			return nil
		}
		// Stale cache entry: the window was destroyed and recreated.
		r.mu.Lock()
		delete(r.own, title)
		r.mu.Unlock()
		if attempt == 1 {
			return fmt.Errorf("move window %q: %w", title, err)
		}
	}
	return nil
}

func (r *Runtime) ownWindow(title string) (xproto.Window, error) {
	r.mu.Lock()
	win, ok := r.own[title]
	r.mu.Unlock()
	if ok {
		return win, nil
	}
	// Reparenting window managers put clients two levels below the root.
	win = r.findOwn(r.root, title, 2)
	if win == 0 {
		return 0, fmt.Errorf("window %q not found", title)
	}
	r.mu.Lock()
	r.own[title] = win
	r.mu.Unlock()
	return win, nil
}

func (r *Runtime) findOwn(parent xproto.Window, title string, depth int) xproto.Window {
	tree, err := xproto.QueryTree(r.conn, parent).Reply()
	if err != nil {
		return 0
	}
	for _, w := range tree.Children {
		if r.pid(w) == r.selfPID && r.title(w) == title {
			return w
		}
	}
	if depth == 0 {
		return 0
	}
	for _, w := range tree.Children {
		if found := r.findOwn(w, title, depth-1); found != 0 {
			return found
		}
	}
	return 0
}

// title prefers _NET_WM_NAME over WM_NAME.
func (r *Runtime) title(win xproto.Window) string {
	reply, err := xproto.GetProperty(r.conn, false, win, r.atomName, r.atomUTF8, 0, 256).Reply()
	if err == nil && len(reply.Value) > 0 {
		return string(reply.Value)
	}
	reply, err = xproto.GetProperty(r.conn, false, win, xproto.AtomWmName, xproto.AtomString, 0, 256).Reply()
	if err != nil {
		return ""
	}
	return string(reply.Value)
}

var _ windowing.Runtime = (*Runtime)(nil)
