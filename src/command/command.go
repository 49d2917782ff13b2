// Package command holds the configured actions the engine can run against a
// selection, and the per-record encoding they are persisted with.
package command

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

// Placeholders substituted into Command.Text before execution.
const (
	PlaceholderWord  = "LDWORD"
	PlaceholderAppID = "APPID"
)

// Dialect selects how Command.Text is executed.
type Dialect int

const (
	// Shell runs the text with `sh -c`.
	Shell Dialect = iota
	// Scripted evaluates the text with the trusted expression evaluator.
	Scripted
)

func (d Dialect) String() string {
	if d == Scripted {
		return "script"
	}
	return "shell"
}

// ParseDialect maps a record "type" value to a Dialect. Anything that is not a
// script alias is Shell.
func ParseDialect(s string) Dialect {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "script", "scripted", "expr", "js":
		return Scripted
	default:
		return Shell
	}
}

// Sink is a set of output destinations.
type Sink uint8

const (
	SinkPopup Sink = 1 << iota
	SinkClipboard
	SinkCommit
	SinkSelect
)

// Has reports whether f is set.
func (s Sink) Has(f Sink) bool { return s&f != 0 }

// Detached reports whether no sink is set; such commands run without capture.
func (s Sink) Detached() bool { return s == 0 }

func (s Sink) String() string {
	var parts []string
	for _, e := range []struct {
		f    Sink
		name string
	}{{SinkPopup, "popup"}, {SinkClipboard, "clip"}, {SinkCommit, "commit"}, {SinkSelect, "select"}} {
		if s.Has(e.f) {
			parts = append(parts, e.name)
		}
	}
	if len(parts) == 0 {
		return "detached"
	}
	return strings.Join(parts, "|")
}

// Command is a single configured action.
type Command struct {
	Name    string
	Icon    string
	Tooltip string
	Text    string
	Dialect Dialect
	Sinks   Sink
	// Apps restricts the command to the listed application ids. Empty means any.
	Apps    []string
	Regexp  string
	Enabled bool
}

// MatchesApp reports whether the command is eligible for appID.
func (c Command) MatchesApp(appID string) bool {
	if len(c.Apps) == 0 {
		return true
	}
	for _, a := range c.Apps {
		if a == appID {
			return true
		}
	}
	return false
}

// MatchesText reports whether the command's regexp filter accepts text.
// A pattern that fails to compile is logged and treated as a match.
func (c Command) MatchesText(text string) bool {
	if c.Regexp == "" {
		return true
	}
	re, err := compile(c.Regexp)
	if err != nil {
		slog.Warn("invalid regexp filter, treating as match", "command", c.Name, "pattern", c.Regexp, "error", err)
		return true
	}
	return re.MatchString(text)
}

// Eligible reports whether the command is enabled and passes both filters.
func (c Command) Eligible(appID, text string) bool {
	return c.Enabled && c.MatchesApp(appID) && c.MatchesText(text)
}

// Find returns the first command named name.
func Find(cmds []Command, name string) (Command, bool) {
	for _, c := range cmds {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

type compiled struct {
	re  *regexp.Regexp
	err error
}

var patterns sync.Map // pattern -> compiled

func compile(pattern string) (*regexp.Regexp, error) {
	if v, ok := patterns.Load(pattern); ok {
		c := v.(compiled)
		return c.re, c.err
	}
	re, err := regexp.Compile(pattern)
	patterns.Store(pattern, compiled{re: re, err: err})
	return re, err
}
