package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dossier-io/dossier/internal/config"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "dossier", cmd.Use)
	assert.Contains(t, cmd.Long, "canonical")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"serve", "resolve", "graph", "backup"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGraphSubcommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	subcommands := []string{"stats", "centrality", "communities", "path", "neighbors"}

	for _, name := range subcommands {
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{"graph", name})
			require.NoError(t, err)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestResolveCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	resolveCmd, _, err := cmd.Find([]string{"resolve"})
	require.NoError(t, err)

	typeFlag := resolveCmd.Flags().Lookup("type")
	require.NotNil(t, typeFlag)
	assert.Equal(t, "", typeFlag.DefValue)

	dryRunFlag := resolveCmd.Flags().Lookup("dry-run")
	require.NotNil(t, dryRunFlag)
	assert.Equal(t, "false", dryRunFlag.DefValue)
}

func TestCentralityCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	centralityCmd, _, err := cmd.Find([]string{"graph", "centrality"})
	require.NoError(t, err)

	metricFlag := centralityCmd.Flags().Lookup("metric")
	require.NotNil(t, metricFlag)
	assert.Equal(t, "degree", metricFlag.DefValue)
}

func TestPathCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	pathCmd, _, err := cmd.Find([]string{"graph", "path"})
	require.NoError(t, err)

	require.NotNil(t, pathCmd.Flags().Lookup("source"))
	require.NotNil(t, pathCmd.Flags().Lookup("target"))
}

func TestOpenStoreUnknownEngine(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Engine: "mongodb"},
	}
	_, err := openStore(cfg)
	assert.ErrorContains(t, err, "unknown storage engine")
}
