package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	for _, name := range []string{"resource", "authz"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
		assert.NotNil(t, cmd.Flags().Lookup("port"))
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("env-file"))
}

func TestRootCommand_MissingRequiredEnvFile(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"authz", "--env-file", t.TempDir() + "/missing.env"})
	root.SilenceErrors = true

	assert.Error(t, root.Execute())
}

func TestOverridePort(t *testing.T) {
	t.Setenv("MCP_PORT", "9001")

	cmd := newResourceCommand()
	require.NoError(t, cmd.Flags().Set("port", "9101"))
	require.NoError(t, overridePort(cmd, "MCP_PORT", 9101))
	assert.Equal(t, "9101", os.Getenv("MCP_PORT"))
}

func TestOverridePort_Unchanged(t *testing.T) {
	t.Setenv("MCP_PORT", "9001")

	require.NoError(t, overridePort(newResourceCommand(), "MCP_PORT", 9999))
	assert.Equal(t, "9001", os.Getenv("MCP_PORT"))
}
