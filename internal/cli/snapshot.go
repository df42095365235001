package cli

import (
	"github.com/spf13/cobra"

	"github.com/worldmaking/gotlib/pkg/cache"
	"github.com/worldmaking/gotlib/pkg/ot"
	"github.com/worldmaking/gotlib/pkg/session"
)

// snapshotCommand creates the snapshot management command.
func (c *CLI) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and load named graph snapshots in the cache backend",
	}

	cmd.AddCommand(c.snapshotSaveCommand())
	cmd.AddCommand(c.snapshotLoadCommand())
	cmd.AddCommand(c.snapshotDeleteCommand())

	return cmd
}

func (c *CLI) sessionOptions() session.Options {
	return session.Options{
		Logger: c.Logger,
		Engine: c.engine(),
		Finder: c.finder(0),
		TTL:    c.Config.Cache.TTL,
	}
}

// snapshotSaveCommand creates the "snapshot save" subcommand.
func (c *CLI) snapshotSaveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "save <name> <graph>",
		Short: "Store a graph under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := c.loadGraph(ctx, args[1])
			if err != nil {
				return err
			}
			s, err := session.FromSnapshot(ctx, ot.DeltasFromGraph(g), c.sessionOptions())
			if err != nil {
				return err
			}

			store, err := c.openCache(ctx, false)
			if err != nil {
				return err
			}
			defer store.Close()

			hash, err := s.Save(ctx, store, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printSuccess(w, "Saved snapshot %s", StyleValue.Render(args[0]))
			printKeyValue(w, "hash", hash[:12])
			printStats(w, g.NodeCount(), g.ArcCount(), false)
			return nil
		},
	}
}

// snapshotLoadCommand creates the "snapshot load" subcommand.
func (c *CLI) snapshotLoadCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Write a saved graph to a file or stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openCache(ctx, false)
			if err != nil {
				return err
			}
			defer store.Close()

			s, err := session.Load(ctx, store, args[0], c.sessionOptions())
			if err != nil {
				return err
			}
			return writeGraph(cmd, output, s.Graph())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// snapshotDeleteCommand creates the "snapshot delete" subcommand.
func (c *CLI) snapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a named snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := c.openCache(ctx, false)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(ctx, cache.NewDefaultKeyer().SnapshotKey(args[0])); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted snapshot %s", args[0])
			return nil
		},
	}
}
