package config

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandRejectsWrongArgCount(t *testing.T) {
	cmd := Command()
	cmd.SetArgs([]string{"only-one-arg"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()
	assert.Error(t, err)
}

func TestCommandUse(t *testing.T) {
	cmd := Command()
	require.Contains(t, cmd.Use, "config")
}

func TestCommandFailsWhenNoConfigFileExists(t *testing.T) {
	// DefaultConfigPaths resolves its first path against $HOME; pointing it
	// at an empty temp dir leaves no config.yaml there. The second searched
	// path (/etc/soundsense-go on Linux) is assumed to hold none either.
	t.Setenv("HOME", t.TempDir())

	cmd := Command()
	cmd.SetArgs([]string{"paths.soundpack", "/tmp/x"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()
	assert.Error(t, err)
}
