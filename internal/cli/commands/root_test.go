package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	t.Run("has correct usage", func(t *testing.T) {
		cmd := NewRootCommand()
		assert.Equal(t, "ansible-ls", cmd.Use)
		assert.NotEmpty(t, cmd.Short)
		assert.NotEmpty(t, cmd.Long)
	})

	t.Run("has all subcommands", func(t *testing.T) {
		cmd := NewRootCommand()

		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}

		assert.Contains(t, names, "version")
		assert.Contains(t, names, "lsp")
	})
}

func TestNewLSPCommand(t *testing.T) {
	cmd := NewLSPCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "lsp", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotNil(t, cmd.RunE)
}

func TestNewVersionCommand(t *testing.T) {
	cmd := NewVersionCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "version", cmd.Use)
	assert.NotNil(t, cmd.Run)
}
