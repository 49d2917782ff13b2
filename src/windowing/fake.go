package windowing

import (
	"context"
	"errors"
	"sync"
)

// Fake is an in-memory Runtime for tests and headless runs.
type Fake struct {
	mu      sync.Mutex
	pointer Point
	mask    ModMask
	focused *Window
	texts   map[Class]string
	writes  []Write
	screenW int
	screenH int
	events  chan Event
	readErr error
	// writeErr fails writes to these classes.
	writeErr map[Class]error
}

// Write records one WriteText call.
type Write struct {
	Class Class
	Text  string
}

// NewFake returns a fake with a 1920x1080 screen and no focused window.
func NewFake() *Fake {
	return &Fake{
		texts:   make(map[Class]string),
		screenW: 1920,
		screenH: 1080,
		events:  make(chan Event, 16),
	}
}

// SetPointer sets the pointer position and modifier mask.
func (f *Fake) SetPointer(p Point, mask ModMask) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pointer = p
	f.mask = mask
}

// SetFocused sets the focused window; an empty app id clears focus.
func (f *Fake) SetFocused(w Window) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w.AppID == "" {
		f.focused = nil
		return
	}
	f.focused = &w
}

// SetText sets the content of a class without recording a write.
func (f *Fake) SetText(class Class, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts[class] = text
}

// SetReadError makes ReadText fail with err.
func (f *Fake) SetReadError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErr = err
}

// SetWriteError makes WriteText to class fail with err; nil clears it.
func (f *Fake) SetWriteError(class Class, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr == nil {
		f.writeErr = make(map[Class]error)
	}
	f.writeErr[class] = err
}

// Writes returns all recorded WriteText calls.
func (f *Fake) Writes() []Write {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Write(nil), f.writes...)
}

// Emit pushes an event to the Events stream.
func (f *Fake) Emit(ev Event) { f.events <- ev }

func (f *Fake) Pointer() (Point, ModMask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pointer, f.mask, nil
}

func (f *Fake) Focused() (Window, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.focused == nil {
		return Window{}, false
	}
	return *f.focused, true
}

func (f *Fake) Events(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-f.events:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (f *Fake) ReadText(ctx context.Context, class Class) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return "", f.readErr
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.texts[class], nil
}

func (f *Fake) WriteText(class Class, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if class != Primary && class != Clipboard {
		return errors.New("unknown clipboard class")
	}
	if err := f.writeErr[class]; err != nil {
		return err
	}
	f.texts[class] = text
	f.writes = append(f.writes, Write{Class: class, Text: text})
	return nil
}

func (f *Fake) ScreenSize() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.screenW, f.screenH
}
