// Package clipboard reads and writes the two X selection classes. CLIPBOARD
// goes through golang.design/x/clipboard; PRIMARY goes through
// github.com/atotto/clipboard, which shells out to xclip or xsel.
package clipboard

import (
	"context"
	"errors"
	"sync"

	primary "github.com/atotto/clipboard"
	"golang.design/x/clipboard"

	"light-dict/src/windowing"
)

// ErrUnavailable is returned for CLIPBOARD when Init failed or never ran.
var ErrUnavailable = errors.New("clipboard unavailable")

var (
	// writeMu serialises writes and guards atotto's package-level Primary flag.
	writeMu sync.Mutex
	ready   bool
)

// Init prepares the CLIPBOARD backend. PRIMARY needs no setup.
func Init() error {
	if err := clipboard.Init(); err != nil {
		return err
	}
	writeMu.Lock()
	ready = true
	writeMu.Unlock()
	return nil
}

// Read returns the text held by class. PRIMARY reads run a helper process,
// so Read honours ctx.
func Read(ctx context.Context, class windowing.Class) (string, error) {
	switch class {
	case windowing.Clipboard:
		writeMu.Lock()
		defer writeMu.Unlock()
		if !ready {
			return "", ErrUnavailable
		}
		return string(clipboard.Read(clipboard.FmtText)), nil
	case windowing.Primary:
		type result struct {
			text string
			err  error
		}
		done := make(chan result, 1)
		go func() {
			writeMu.Lock()
			defer writeMu.Unlock()
			primary.Primary = true
			defer func() { primary.Primary = false }()
			text, err := primary.ReadAll()
			done <- result{text, err}
		}()
		select {
		case r := <-done:
			return r.text, r.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	default:
		return "", errors.New("unknown clipboard class")
	}
}

// Write performs a mutex-guarded write to class to prevent corruption under
// parallel writes.
func Write(class windowing.Class, text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	switch class {
	case windowing.Clipboard:
		if !ready {
			return ErrUnavailable
		}
		clipboard.Write(clipboard.FmtText, []byte(text))
		return nil
	case windowing.Primary:
		primary.Primary = true
		defer func() { primary.Primary = false }()
		return primary.WriteAll(text)
	default:
		return errors.New("unknown clipboard class")
	}
}
