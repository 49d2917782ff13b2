package executor

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"light-dict/src/command"
)

// Substitute expands the placeholders of a shell command text. Newlines in
// the selection become carriage returns, then each value is shell-escaped as
// a single word. Replacement is one pass, so substituted values are never
// re-scanned for placeholders.
func Substitute(text, selection, appID string) string {
	selection = strings.ReplaceAll(selection, "\n", "\r")
	r := strings.NewReplacer(
		command.PlaceholderWord, Quote(selection),
		command.PlaceholderAppID, Quote(appID),
	)
	return r.Replace(text)
}

// Quote escapes s as exactly one shell word.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	return shellquote.Join(s)
}
