package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{"all optional fields absent", Command{}},
		{"shell popup", Command{Name: "echo", Text: "echo LDWORD", Sinks: SinkPopup, Enabled: true}},
		{"scripted every sink", Command{
			Name:    "upper",
			Icon:    "format-text-uppercase",
			Tooltip: "Uppercase",
			Text:    "upper(LDWORD)",
			Dialect: Scripted,
			Sinks:   SinkPopup | SinkClipboard | SinkCommit | SinkSelect,
			Enabled: true,
		}},
		{"filters", Command{
			Name:   "dict",
			Text:   "sdcv -n LDWORD",
			Sinks:  SinkSelect,
			Apps:   []string{"editor.app", "term.app"},
			Regexp: `^\w+$`,
		}},
		{"empty app list", Command{Name: "any", Text: "true", Apps: []string{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Encode(tt.cmd)
			require.NoError(t, err)

			got, err := Decode(s)
			require.NoError(t, err)
			assert.Equal(t, tt.cmd, got)
		})
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	c, err := Decode(`{"name":"x","command":"echo","clip":true,"future":42,"nested":{"a":1}}`)
	require.NoError(t, err)
	assert.Equal(t, Command{Name: "x", Text: "echo", Sinks: SinkClipboard}, c)
}

func TestDecodeListSkipsMalformed(t *testing.T) {
	cmds := DecodeList([]string{`{"name":"a"}`, `not json`, `{"name":"b"}`})
	require.Len(t, cmds, 2)
	assert.Equal(t, "a", cmds[0].Name)
	assert.Equal(t, "b", cmds[1].Name)
}

func TestEligibility(t *testing.T) {
	c := Command{Name: "word", Apps: []string{"editor.app"}, Regexp: `^[a-z]+$`, Enabled: true}

	assert.True(t, c.Eligible("editor.app", "hello"))
	assert.False(t, c.Eligible("other.app", "hello"))
	assert.False(t, c.Eligible("editor.app", "two words"))

	c.Enabled = false
	assert.False(t, c.Eligible("editor.app", "hello"))
}

func TestMalformedRegexpFailsOpen(t *testing.T) {
	c := Command{Name: "bad", Regexp: `([`, Enabled: true}
	assert.True(t, c.MatchesText("anything"))
	assert.True(t, c.MatchesText(""))
}

func TestAppFilterVariants(t *testing.T) {
	assert.True(t, Allow(nil).Permits("any.app"), "empty allow list permits all")
	assert.True(t, Allow{"a"}.Permits("a"))
	assert.False(t, Allow{"a"}.Permits("b"))
	assert.False(t, Deny{"a"}.Permits("a"))
	assert.True(t, Deny{"a"}.Permits("b"))

	assert.IsType(t, Allow{}, NewAppFilter("allow", nil))
	assert.IsType(t, Deny{}, NewAppFilter("block", nil))
}

func TestSinkString(t *testing.T) {
	assert.Equal(t, "detached", Sink(0).String())
	assert.Equal(t, "popup|select", (SinkPopup | SinkSelect).String())
	assert.True(t, Sink(0).Detached())
}

func TestFind(t *testing.T) {
	cmds := []Command{{Name: "a"}, {Name: "b", Text: "two"}}
	c, ok := Find(cmds, "b")
	require.True(t, ok)
	assert.Equal(t, "two", c.Text)
	_, ok = Find(cmds, "c")
	assert.False(t, ok)
}
