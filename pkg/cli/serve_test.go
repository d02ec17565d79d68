package cli

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWatchRoot(t *testing.T) {
	r := parseWatchRoot("./services/api:api")
	assert.Equal(t, "./services/api", r.path)
	assert.Equal(t, "api", r.label)

	r = parseWatchRoot(".")
	assert.Equal(t, ".", r.path)
	assert.Equal(t, "", r.label)
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := parseLogLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseLogLevel_Invalid(t *testing.T) {
	_, err := parseLogLevel("verbose")
	assert.Error(t, err)
}

func TestNewRootCommand_HasServeSubcommand(t *testing.T) {
	root := NewRootCommand()
	found := false
	for _, c := range root.Commands() {
		if c.Name() == "serve" {
			found = true
		}
	}
	assert.True(t, found)
}
