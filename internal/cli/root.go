// Package cli implements the dossier command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dossier-io/dossier/internal/config"
	"github.com/dossier-io/dossier/internal/storage"
	"github.com/dossier-io/dossier/internal/storage/postgres"
	"github.com/dossier-io/dossier/internal/storage/sqlite"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command for the dossier CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "dossier",
		Short: "Dossier - entity resolution and relationship graph engine",
		Long: `Dossier resolves duplicate entity mentions extracted from a document
corpus into canonical identities and analyzes the co-occurrence graph
built over them.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewGraphCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))

	return cmd
}

// loadConfig loads configuration, honoring the --config flag.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.LoadConfigFile(opts.ConfigPath)
	}
	return config.LoadConfig()
}

// openStore opens the configured storage backend.
func openStore(cfg *config.Config) (storage.EntityStore, error) {
	switch cfg.Storage.Engine {
	case "sqlite":
		return sqlite.NewEntityStore(cfg.Storage.DataPath + "/dossier.db")
	case "postgres":
		return postgres.NewEntityStore(cfg.Storage.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage engine %q", cfg.Storage.Engine)
	}
}
