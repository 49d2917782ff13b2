package command

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// record is the flat persisted form of a Command. Every settings array element
// holds one independently encoded record.
type record struct {
	Name    string    `json:"name"`
	Icon    string    `json:"icon,omitempty"`
	Tooltip string    `json:"tooltip,omitempty"`
	Command string    `json:"command"`
	Type    string    `json:"type,omitempty"`
	Popup   bool      `json:"popup,omitempty"`
	Clip    bool      `json:"clip,omitempty"`
	Commit  bool      `json:"commit,omitempty"`
	Select  bool      `json:"select,omitempty"`
	Apps    *[]string `json:"apps,omitempty"`
	Regexp  string    `json:"regexp,omitempty"`
	Enable  bool      `json:"enable,omitempty"`
}

// Encode serializes c into its record form.
func Encode(c Command) (string, error) {
	r := record{
		Name:    c.Name,
		Icon:    c.Icon,
		Tooltip: c.Tooltip,
		Command: c.Text,
		Popup:   c.Sinks.Has(SinkPopup),
		Clip:    c.Sinks.Has(SinkClipboard),
		Commit:  c.Sinks.Has(SinkCommit),
		Select:  c.Sinks.Has(SinkSelect),
		Regexp:  c.Regexp,
		Enable:  c.Enabled,
	}
	if c.Dialect == Scripted {
		r.Type = Scripted.String()
	}
	// An empty list is kept as [] so it decodes back to an empty list.
	if c.Apps != nil {
		r.Apps = &c.Apps
	}
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode command %q: %w", c.Name, err)
	}
	return string(b), nil
}

// Decode parses one record. Unknown keys are ignored; missing optional keys
// leave the field absent/false.
func Decode(s string) (Command, error) {
	var r record
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return Command{}, fmt.Errorf("decode command record: %w", err)
	}
	c := Command{
		Name:    r.Name,
		Icon:    r.Icon,
		Tooltip: r.Tooltip,
		Text:    r.Command,
		Dialect: ParseDialect(r.Type),
		Regexp:  r.Regexp,
		Enabled: r.Enable,
	}
	if r.Apps != nil {
		c.Apps = *r.Apps
	}
	if r.Popup {
		c.Sinks |= SinkPopup
	}
	if r.Clip {
		c.Sinks |= SinkClipboard
	}
	if r.Commit {
		c.Sinks |= SinkCommit
	}
	if r.Select {
		c.Sinks |= SinkSelect
	}
	return c, nil
}

// DecodeList parses every record, skipping (and logging) malformed ones so one
// bad entry does not hide the rest of the list.
func DecodeList(records []string) []Command {
	cmds := make([]Command, 0, len(records))
	for i, s := range records {
		c, err := Decode(s)
		if err != nil {
			slog.Warn("skipping command record", "index", i, "error", err)
			continue
		}
		cmds = append(cmds, c)
	}
	return cmds
}

// EncodeList is the inverse of DecodeList.
func EncodeList(cmds []Command) ([]string, error) {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		s, err := Encode(c)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
