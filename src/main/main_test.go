package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"light-dict/src/config"
)

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Normalizes long single dash flags",
			in:   []string{"light-dict", "-env", "/tmp/a.env", "-settings", "/tmp/s.yaml"},
			out:  []string{"light-dict", "--env", "/tmp/a.env", "--settings", "/tmp/s.yaml"},
		},
		{
			name: "Normalizes equals form",
			in:   []string{"light-dict", "-log-file=/tmp/l.log"},
			out:  []string{"light-dict", "--log-file=/tmp/l.log"},
		},
		{
			name: "Leaves other flags unchanged",
			in:   []string{"light-dict", "--env", "-other"},
			out:  []string{"light-dict", "--env", "-other"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.out, normalizeLegacyArgs(tt.in))
		})
	}
}

func TestNormalizeLegacyArgsDoesNotAlias(t *testing.T) {
	in := []string{"light-dict", "-env", "x"}
	_ = normalizeLegacyArgs(in)
	assert.Equal(t, "-env", in[1])
}

func TestNewRootCmdParsesFlags(t *testing.T) {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	require.NoError(t, cmd.ParseFlags([]string{"--env", "/tmp/a.env", "--settings", "/tmp/s.yaml", "--log-file", "/tmp/l.log"}))

	assert.Equal(t, config.LoadOptions{
		EnvFileOverride:      "/tmp/a.env",
		SettingsFileOverride: "/tmp/s.yaml",
		LogFileOverride:      "/tmp/l.log",
	}, opts.loadOptions())
}

func TestRootCmdRejectsPositionalArgs(t *testing.T) {
	err := runWithArgs([]string{"light-dict", "stray"})
	assert.Error(t, err)
}
