// Package session holds the dispatch context: the latest captured selection
// and the global trigger settings that decide what happens to it.
package session

import (
	"fmt"
	"strings"
	"unicode"

	"light-dict/src/windowing"
)

// TriggerMode decides what a fresh selection does.
type TriggerMode int

const (
	// Swift runs the active swift command immediately.
	Swift TriggerMode = iota
	// Popup summons the command bar.
	Popup
	// Disable ignores selections.
	Disable
)

func (m TriggerMode) String() string {
	switch m {
	case Swift:
		return "swift"
	case Popup:
		return "popup"
	case Disable:
		return "disable"
	default:
		return "unknown"
	}
}

// Toggle flips between Swift and Popup. Disable is never produced; toggling
// out of Disable lands on Swift.
func (m TriggerMode) Toggle() TriggerMode {
	if m == Swift {
		return Popup
	}
	return Swift
}

// ParseTriggerMode parses "swift", "popup" or "disable" (case-insensitive).
func ParseTriggerMode(s string) (TriggerMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "swift":
		return Swift, nil
	case "popup":
		return Popup, nil
	case "disable", "disabled":
		return Disable, nil
	default:
		return Disable, fmt.Errorf("unknown trigger mode %q", s)
	}
}

// Selection is the captured text together with where and in which
// application it was captured. It is replaced, never mutated.
type Selection struct {
	Text   string
	AppID  string
	Anchor windowing.Rect
}

// Empty reports whether there is nothing to act on.
func (s Selection) Empty() bool { return s.Text == "" }

// Normalize optionally collapses whitespace runs to a single space and trims
// the ends. Without strip the text is returned untouched.
func Normalize(text string, strip bool) string {
	if !strip {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range strings.TrimSpace(text) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
