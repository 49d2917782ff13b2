// Package keyboard synthesises key input through robotgo: committing text into
// the focused input and the scripted key(...) and search(...) primitives.
package keyboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-vgo/robotgo"

	"light-dict/src/errs"
)

// overviewDelay is how long the desktop overview gets to open before typing.
const overviewDelay = 150 * time.Millisecond

// Backend is the input synthesiser.
type Backend interface {
	KeyTap(key string, mods []string) error
	TypeStr(text string)
}

type robot struct{}

func (robot) KeyTap(key string, mods []string) error {
	if len(mods) == 0 {
		return robotgo.KeyTap(key)
	}
	return robotgo.KeyTap(key, mods)
}

func (robot) TypeStr(text string) { robotgo.TypeStr(text) }

// Keyboard implements the dispatcher's keyboard and the executor's script host.
type Keyboard struct {
	backend Backend
	sleep   func(time.Duration)
}

// New returns a keyboard backed by robotgo.
func New() *Keyboard { return NewWithBackend(robot{}) }

// NewWithBackend returns a keyboard on an explicit backend.
func NewWithBackend(b Backend) *Keyboard { return &Keyboard{backend: b, sleep: time.Sleep} }

// Type commits text to the focused input.
func (k *Keyboard) Type(text string) error {
	if text == "" {
		return nil
	}
	k.backend.TypeStr(text)
	return nil
}

// SimulateKeys taps a space-separated sequence of chords such as
// "ctrl+a ctrl+c".
func (k *Keyboard) SimulateKeys(seq string) error {
	chords, err := ParseSequence(seq)
	if err != nil {
		return err
	}
	for _, c := range chords {
		if err := k.backend.KeyTap(c.Key, c.Mods); err != nil {
			return fmt.Errorf("tap %s: %w", c, err)
		}
	}
	return nil
}

// OpenSearch opens the desktop overview and types text into its search.
func (k *Keyboard) OpenSearch(text string) error {
	if err := k.backend.KeyTap("cmd", nil); err != nil {
		return fmt.Errorf("open overview: %w", err)
	}
	k.sleep(overviewDelay)
	k.backend.TypeStr(text)
	return nil
}

// Chord is one key with its held modifiers.
type Chord struct {
	Key  string
	Mods []string
}

func (c Chord) String() string {
	return strings.Join(append(append([]string(nil), c.Mods...), c.Key), "+")
}

var modifierNames = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"shift":   "shift",
	"super":   "cmd",
	"win":     "cmd",
	"cmd":     "cmd",
}

// ParseSequence parses a chord sequence. Modifier names are normalised to
// robotgo's; the final element of each chord is the key.
func ParseSequence(seq string) ([]Chord, error) {
	fields := strings.Fields(seq)
	if len(fields) == 0 {
		return nil, errs.New(errs.CodeInvalidArgs, "empty key sequence")
	}
	chords := make([]Chord, 0, len(fields))
	for _, f := range fields {
		parts := strings.Split(strings.ToLower(f), "+")
		key := parts[len(parts)-1]
		if key == "" {
			return nil, errs.Newf(errs.CodeInvalidArgs, "chord %q has no key", f)
		}
		c := Chord{Key: key}
		for _, p := range parts[:len(parts)-1] {
			m, ok := modifierNames[p]
			if !ok {
				return nil, errs.Newf(errs.CodeInvalidArgs, "unknown modifier %q in %q", p, f)
			}
			c.Mods = append(c.Mods, m)
		}
		chords = append(chords, c)
	}
	return chords, nil
}
