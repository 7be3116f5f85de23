package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dossier-io/dossier/internal/backup"
)

// BackupOptions holds flags shared by the backup subcommands.
type BackupOptions struct {
	*RootOptions
	Dir string
}

// NewBackupCommand creates the backup command and its subcommands.
// Backups only apply to the SQLite engine; Postgres deployments are
// expected to use pg_dump.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BackupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage database backups",
	}
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", "", "backup directory (default <data_path>/backups)")

	cmd.AddCommand(newBackupCreateCommand(opts))
	cmd.AddCommand(newBackupListCommand(opts))
	cmd.AddCommand(newBackupRestoreCommand(opts))
	cmd.AddCommand(newBackupPruneCommand(opts))

	return cmd
}

// backupPaths resolves the database file and backup directory from
// configuration and flags.
func backupPaths(opts *BackupOptions) (dbPath, dir string, err error) {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return "", "", err
	}
	if cfg.Storage.Engine != "sqlite" {
		return "", "", fmt.Errorf("backup supports the sqlite engine only, configured engine is %q", cfg.Storage.Engine)
	}
	dbPath = filepath.Join(cfg.Storage.DataPath, "dossier.db")
	dir = opts.Dir
	if dir == "" {
		dir = filepath.Join(cfg.Storage.DataPath, "backups")
	}
	return dbPath, dir, nil
}

func newBackupCreateCommand(opts *BackupOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "create",
		Short:         "Create a verified backup of the database",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, dir, err := backupPaths(opts)
			if err != nil {
				return err
			}
			info, err := backup.Create(dbPath, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written: %s (%d bytes)\n", info.Path, info.Size)
			return nil
		},
	}
}

func newBackupListCommand(opts *BackupOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List backups, newest first",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, dir, err := backupPaths(opts)
			if err != nil {
				return err
			}
			backups, err := backup.List(dir)
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No backups found.")
				return nil
			}
			for _, b := range backups {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d bytes\n",
					b.Timestamp.Format("2006-01-02 15:04:05"), b.Path, b.Size)
			}
			return nil
		},
	}
}

func newBackupRestoreCommand(opts *BackupOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "restore <backup-file>",
		Short:         "Restore the database from a backup",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _, err := backupPaths(opts)
			if err != nil {
				return err
			}
			if err := backup.Restore(args[0], dbPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from %s\n", dbPath, args[0])
			return nil
		},
	}
}

func newBackupPruneCommand(opts *BackupOptions) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:           "prune",
		Short:         "Delete all but the newest backups",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, dir, err := backupPaths(opts)
			if err != nil {
				return err
			}
			removed, err := backup.Prune(dir, keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d backups.\n", removed)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 10, "number of backups to keep")

	return cmd
}
