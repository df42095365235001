package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/worldmaking/gotlib/pkg/delta"
	graphio "github.com/worldmaking/gotlib/pkg/io"
	"github.com/worldmaking/gotlib/pkg/ot"
)

// buildCommand creates the "build" command: deltas to graph file.
func (c *CLI) buildCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "build <deltas.json>",
		Short: "Build a graph file by applying deltas to an empty graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prog := newProgress(loggerFromContext(ctx))

			g, err := c.loadGraph(ctx, args[0])
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Built %d nodes, %d arcs", g.NodeCount(), g.ArcCount()))
			return writeGraph(cmd, output, g)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// applyCommand creates the "apply" command.
func (c *CLI) applyCommand() *cobra.Command {
	var output, inverseOut string

	cmd := &cobra.Command{
		Use:   "apply <graph> <deltas.json>",
		Short: "Apply deltas to a graph",
		Long: `Apply a delta batch to a graph and write the resulting graph.

A malformed batch is rolled back and the command fails. A property
conflict is applied anyway and reported as a warning. With --inverse the
batch that undoes the applied deltas is written as well.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := c.loadGraph(ctx, args[0])
			if err != nil {
				return err
			}
			d, err := graphio.ImportDeltas(args[1])
			if err != nil {
				return err
			}

			report, err := c.engine().Apply(ctx, g, d)
			if err != nil {
				return err
			}
			if report != nil {
				describeReport(cmd.ErrOrStderr(), report)
				if report.Kind == ot.KindMalformed {
					return reportError(report)
				}
			}

			if inverseOut != "" {
				if err := graphio.ExportDeltas(delta.Inverse(d), inverseOut); err != nil {
					return err
				}
			}
			return writeGraph(cmd, output, g)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&inverseOut, "inverse", "", "also write the inverse batch to this file")
	return cmd
}

// invertCommand creates the "invert" command.
func (c *CLI) invertCommand() *cobra.Command {
	var output string
	var pretty bool

	cmd := &cobra.Command{
		Use:   "invert <deltas.json>",
		Short: "Print the batch that undoes a delta batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := graphio.ImportDeltas(args[0])
			if err != nil {
				return err
			}
			inv := delta.Inverse(d)
			if pretty {
				fmt.Fprintln(cmd.OutOrStdout(), inv.String())
				return nil
			}
			return writeDeltas(cmd, output, inv)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "print in readable form instead of JSON")
	return cmd
}

// rebaseCommand creates the "rebase" command.
func (c *CLI) rebaseCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "rebase <local.json> <remote.json>",
		Short: "Rebase local deltas over concurrently applied remote deltas",
		Long: `Transform the local batch so it applies after the remote batch.

Deltas the remote batch already made are dropped, and paths the remote
batch moved are rewritten. The command fails when the local batch creates
a path the remote batch also created, or touches a path the remote batch
deleted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := graphio.ImportDeltas(args[0])
			if err != nil {
				return err
			}
			remote, err := graphio.ImportDeltas(args[1])
			if err != nil {
				return err
			}
			out, err := c.engine().Rebase(cmd.Context(), local, remote)
			if err != nil {
				return err
			}
			if dropped := local.Len() - out.Len(); dropped > 0 {
				printInfo(cmd.ErrOrStderr(), "Dropped %d deltas already in the remote batch", dropped)
			}
			return writeDeltas(cmd, output, out)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// mergeCommand creates the "merge" command.
func (c *CLI) mergeCommand() *cobra.Command {
	var output string
	var deltasOnly bool

	cmd := &cobra.Command{
		Use:   "merge <graph> <a.json> <b.json>",
		Short: "Apply two concurrent batches to a graph",
		Long: `Apply batch a, then batch b rebased over a, to the graph.

With --deltas the combined batch is written instead and no graph is read.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if deltasOnly {
				return cobra.ExactArgs(2)(cmd, args)
			}
			return cobra.ExactArgs(3)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if deltasOnly {
				a, err := graphio.ImportDeltas(args[0])
				if err != nil {
					return err
				}
				b, err := graphio.ImportDeltas(args[1])
				if err != nil {
					return err
				}
				merged, err := ot.Merge(b, a)
				if err != nil {
					return err
				}
				return writeDeltas(cmd, output, merged)
			}

			g, err := c.loadGraph(ctx, args[0])
			if err != nil {
				return err
			}
			a, err := graphio.ImportDeltas(args[1])
			if err != nil {
				return err
			}
			b, err := graphio.ImportDeltas(args[2])
			if err != nil {
				return err
			}
			report, err := c.engine().MergeInto(ctx, g, a, b)
			if err != nil {
				return err
			}
			if report != nil {
				describeReport(cmd.ErrOrStderr(), report)
				if report.Kind == ot.KindMalformed {
					return reportError(report)
				}
			}
			return writeGraph(cmd, output, g)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&deltasOnly, "deltas", false, "merge two batches without a graph")
	return cmd
}

// exportCommand creates the "export" command: graph file to deltas.
func (c *CLI) exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <graph>",
		Short: "Export a graph as the creation batch that rebuilds it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := c.loadGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeDeltas(cmd, output, ot.DeltasFromGraph(g))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
