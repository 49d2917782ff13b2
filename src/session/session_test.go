package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle(t *testing.T) {
	assert.Equal(t, Popup, Swift.Toggle())
	assert.Equal(t, Swift, Popup.Toggle())
	assert.Equal(t, Swift, Disable.Toggle(), "toggle never cycles into disable")
}

func TestParseTriggerMode(t *testing.T) {
	for _, m := range []TriggerMode{Swift, Popup, Disable} {
		got, err := ParseTriggerMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseTriggerMode("sideways")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in    string
		strip bool
		want  string
	}{
		{"  hello\n world\t", true, "hello world"},
		{"a\r\n\r\nb", true, "a b"},
		{"  keep \n me ", false, "  keep \n me "},
		{"", true, ""},
		{" \t\n", true, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in, tt.strip), "input %q", tt.in)
	}
}
