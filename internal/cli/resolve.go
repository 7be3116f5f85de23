package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dossier-io/dossier/internal/resolver"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Type   string
	DryRun bool
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Run a resolution pass over the corpus",
		Long: `Compare every same-type entity pair, merging confident duplicates
and queueing borderline ones for review.

Example:
  dossier resolve --type person
  dossier resolve --dry-run`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if opts.Type == "" {
				opts.Type = cfg.Resolution.DefaultType
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			engine := resolver.NewEngine(store)
			result, err := engine.ResolveAll(cmd.Context(), resolver.ResolveOptions{
				Type:   opts.Type,
				DryRun: opts.DryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Entities scanned: %d\n", result.EntitiesScanned)
			fmt.Fprintf(out, "Auto-merged:      %d\n", result.AutoMerged)
			fmt.Fprintf(out, "Suggested:        %d\n", result.Suggested)
			fmt.Fprintf(out, "Skipped:          %d\n", result.Skipped)
			for _, m := range result.Matches {
				fmt.Fprintf(out, "  [%s] %q (%d) -> %q (%d) confidence %.2f via %s\n",
					m.Action, m.SourceName, m.SourceID, m.TargetName, m.TargetID, m.Confidence, m.Strategy)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "", "only resolve entities of this type")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report candidates without writing")

	return cmd
}
