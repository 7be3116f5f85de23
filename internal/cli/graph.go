package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dossier-io/dossier/internal/graph"
)

// GraphOptions holds flags shared by the graph subcommands.
type GraphOptions struct {
	*RootOptions
	Type string
}

// NewGraphCommand creates the graph command and its subcommands.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Analyze the entity co-occurrence graph",
	}
	cmd.PersistentFlags().StringVar(&opts.Type, "type", "", "only include entities of this type")

	cmd.AddCommand(newGraphStatsCommand(opts))
	cmd.AddCommand(newGraphCentralityCommand(opts))
	cmd.AddCommand(newGraphCommunitiesCommand(opts))
	cmd.AddCommand(newGraphPathCommand(opts))
	cmd.AddCommand(newGraphNeighborsCommand(opts))

	return cmd
}

// newAnalyzer opens the store and builds an analyzer for one command
// invocation. The returned closer owns the store.
func newAnalyzer(opts *GraphOptions) (*graph.Analyzer, func() error, error) {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	analyzer := graph.NewAnalyzer(store)
	analyzer.SetCommunitySeed(int64(cfg.Graph.CommunitySeed))
	return analyzer, store.Close, nil
}

func newGraphStatsCommand(opts *GraphOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Print graph summary statistics",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, closeStore, err := newAnalyzer(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			stats, err := analyzer.Stats(cmd.Context(), opts.Type)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Nodes:               %d\n", stats.NodeCount)
			fmt.Fprintf(out, "Edges:               %d\n", stats.EdgeCount)
			fmt.Fprintf(out, "Density:             %.4f\n", stats.Density)
			fmt.Fprintf(out, "Components:          %d\n", stats.Components)
			fmt.Fprintf(out, "Avg degree:          %.2f\n", stats.AvgDegree)
			fmt.Fprintf(out, "Avg weighted degree: %.2f\n", stats.AvgWeightedDegree)
			return nil
		},
	}
}

func newGraphCentralityCommand(opts *GraphOptions) *cobra.Command {
	var metric string
	var limit int

	cmd := &cobra.Command{
		Use:           "centrality",
		Short:         "Rank entities by centrality",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, closeStore, err := newAnalyzer(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			rows, err := analyzer.Centrality(cmd.Context(), opts.Type, metric, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, row := range rows {
				fmt.Fprintf(out, "%3d. %-30s %-10s score %.4f (degree %d, weighted %d)\n",
					i+1, row.Name, row.Type, row.Score, row.Degree, row.WeightedDegree)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metric, "metric", graph.MetricDegree, "centrality metric (degree|betweenness|closeness|eigenvector)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to print (default 50)")
	return cmd
}

func newGraphCommunitiesCommand(opts *GraphOptions) *cobra.Command {
	var minSize int

	cmd := &cobra.Command{
		Use:           "communities",
		Short:         "Detect entity communities",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, closeStore, err := newAnalyzer(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			communities, err := analyzer.Communities(cmd.Context(), opts.Type, minSize)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range communities {
				fmt.Fprintf(out, "Community %d (size %d, density %.3f):\n", c.ID, c.Size, c.Density)
				for _, m := range c.Members {
					fmt.Fprintf(out, "  %s (%s)\n", m.Name, m.Type)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&minSize, "min-size", 0, "hide communities smaller than this (default 2)")
	return cmd
}

func newGraphPathCommand(opts *GraphOptions) *cobra.Command {
	var source, target int64

	cmd := &cobra.Command{
		Use:           "path",
		Short:         "Find the shortest path between two entities",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, closeStore, err := newAnalyzer(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			path, err := analyzer.ShortestPath(cmd.Context(), opts.Type, source, target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if path == nil {
				fmt.Fprintln(out, "No path found.")
				return nil
			}
			for i, node := range path.Nodes {
				if i > 0 {
					fmt.Fprintf(out, "  -(%d)-> ", path.Edges[i-1].Weight)
				}
				fmt.Fprintf(out, "%s", node.Name)
			}
			fmt.Fprintf(out, "\n%d hops, total weight %d\n", path.Hops, path.TotalWeight)
			return nil
		},
	}

	cmd.Flags().Int64Var(&source, "source", 0, "source entity id")
	cmd.Flags().Int64Var(&target, "target", 0, "target entity id")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newGraphNeighborsCommand(opts *GraphOptions) *cobra.Command {
	var id int64
	var hops, minWeight int

	cmd := &cobra.Command{
		Use:           "neighbors",
		Short:         "List an entity's graph neighborhood",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, closeStore, err := newAnalyzer(opts)
			if err != nil {
				return err
			}
			defer closeStore()

			neighbors, err := analyzer.Neighbors(cmd.Context(), opts.Type, id, hops, minWeight)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, n := range neighbors {
				fmt.Fprintf(out, "%s (%s) weight %d, hop %d\n", n.Name, n.Type, n.Weight, n.Hop)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "entity id to expand from")
	cmd.Flags().IntVar(&hops, "hops", 0, "expansion depth (default 1)")
	cmd.Flags().IntVar(&minWeight, "min-weight", 0, "minimum edge weight (default 1)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
