package executor

import (
	"fmt"

	"github.com/expr-lang/expr"

	"light-dict/src/command"
	"light-dict/src/session"
)

// Host provides the primitives scripted commands may call.
type Host interface {
	// SimulateKeys taps a key sequence such as "ctrl+c".
	SimulateKeys(seq string) error
	// OpenSearch opens the desktop search with text.
	OpenSearch(text string) error
}

// Evaluate runs a scripted command. The environment exposes exactly the
// selection (LDWORD), the application id (APPID), key(seq) and search(text).
// Scripts are trusted configuration; nothing else of the process is reachable.
func Evaluate(source string, sel session.Selection, host Host) (string, error) {
	env := map[string]any{
		command.PlaceholderWord:  sel.Text,
		command.PlaceholderAppID: sel.AppID,
		"key": func(seq string) (bool, error) {
			if host == nil {
				return false, fmt.Errorf("key simulation unavailable")
			}
			if err := host.SimulateKeys(seq); err != nil {
				return false, err
			}
			return true, nil
		},
		"search": func(text string) (bool, error) {
			if host == nil {
				return false, fmt.Errorf("search unavailable")
			}
			if err := host.OpenSearch(text); err != nil {
				return false, err
			}
			return true, nil
		},
	}
	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return "", err
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", nil
	}
	return fmt.Sprint(out), nil
}
