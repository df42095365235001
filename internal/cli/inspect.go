package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/worldmaking/gotlib/pkg/cache"
	"github.com/worldmaking/gotlib/pkg/errors"
	"github.com/worldmaking/gotlib/pkg/feedback"
	"github.com/worldmaking/gotlib/pkg/graph"
	graphio "github.com/worldmaking/gotlib/pkg/io"
	"github.com/worldmaking/gotlib/pkg/observability"
	"github.com/worldmaking/gotlib/pkg/ot"
	"github.com/worldmaking/gotlib/pkg/render/nodelink"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
)

// showCommand creates the "show" command.
func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Pretty-print a graph or delta file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch graphio.Sniff(data) {
			case graphio.FormatTree:
				g, err := graphio.ReadJSON(bytes.NewReader(data))
				if err != nil {
					return err
				}
				fmt.Fprintln(w, StyleTitle.Render(args[0]))
				fmt.Fprint(w, g.String())
				printStats(w, g.NodeCount(), g.ArcCount(), false)
			case graphio.FormatDeltas:
				d, err := graphio.ReadDeltas(bytes.NewReader(data))
				if err != nil {
					return err
				}
				fmt.Fprintln(w, StyleTitle.Render(args[0]))
				fmt.Fprintln(w, d.String())
				printDetail(w, "%d deltas", d.Len())
			default:
				return errors.New(errors.ErrCodeInvalidInput, "%s: neither a graph nor a delta file", args[0])
			}
			return nil
		},
	}
}

// feedbackCommand creates the "feedback" command.
func (c *CLI) feedbackCommand() *cobra.Command {
	var maxPaths int
	var asJSON, noCache bool

	cmd := &cobra.Command{
		Use:   "feedback <graph>",
		Short: "List feedback loops between modules",
		Long: `Search the graph for signal loops that run from an outlet back into the
module it started from. Each loop is printed with its closing arc, where a
one-sample delay would break it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := c.loadGraph(ctx, args[0])
			if err != nil {
				return err
			}
			if maxPaths == 0 {
				maxPaths = c.Config.Feedback.MaxPaths
			}

			store, err := c.openCache(ctx, noCache)
			if err != nil {
				return err
			}
			defer store.Close()

			key := cache.NewDefaultKeyer().FeedbackKey(graphHash(g), cache.FeedbackKeyOpts{MaxPaths: maxPaths})
			prog := newProgress(loggerFromContext(ctx))
			data, hit, err := cached(ctx, store, key, c.Config.Cache.TTL, func() ([]byte, error) {
				paths := c.finder(maxPaths).Find(ctx, g)
				if paths == nil {
					paths = []feedback.Path{}
				}
				return json.Marshal(paths)
			})
			if err != nil {
				return err
			}
			var paths []feedback.Path
			if err := json.Unmarshal(data, &paths); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "decode cached feedback")
			}
			prog.done(fmt.Sprintf("Found %d loops", len(paths)))

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(paths)
			}
			if len(paths) == 0 {
				printSuccess(w, "No feedback loops")
				printStats(w, g.NodeCount(), g.ArcCount(), hit)
				return nil
			}
			fmt.Fprintln(w, feedbackTable(paths))
			printStats(w, g.NodeCount(), g.ArcCount(), hit)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxPaths, "max-paths", 0, "stop after this many loops (default from config, 0 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print loops as JSON arrays of ports")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the result cache")
	return cmd
}

// renderCommand creates the "render" command.
func (c *CLI) renderCommand() *cobra.Command {
	var output, format string
	var detailed, loops, noCache bool

	cmd := &cobra.Command{
		Use:   "render <graph>",
		Short: "Render a graph as a node-link diagram",
		Long: `Render the graph as Graphviz DOT or SVG. Modules become clusters of
their ports. With --feedback the arcs of every feedback loop are drawn red
and closing arcs dashed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != formatDOT && format != formatSVG {
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want dot or svg)", format)
			}

			ctx := cmd.Context()
			g, err := c.loadGraph(ctx, args[0])
			if err != nil {
				return err
			}

			store, err := c.openCache(ctx, noCache)
			if err != nil {
				return err
			}
			defer store.Close()

			key := cache.NewDefaultKeyer().RenderKey(graphHash(g), cache.RenderKeyOpts{
				Format:   format + feedbackSuffix(loops),
				Detailed: detailed,
			})
			prog := newProgress(loggerFromContext(ctx))
			data, hit, err := cached(ctx, store, key, c.Config.Cache.TTL, func() ([]byte, error) {
				opts := nodelink.Options{Detailed: detailed}
				if loops {
					opts.Feedback = c.finder(0).Find(ctx, g)
				}
				dot := nodelink.ToDOT(g, opts)
				if format == formatDOT {
					return []byte(dot), nil
				}
				return nodelink.RenderSVG(dot)
			})
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Rendered %s", format))
			if hit {
				printDetail(cmd.ErrOrStderr(), "%s", iconCached)
			}
			return writeOut(cmd, output, func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", formatSVG, "output format: dot or svg")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "list node properties in labels")
	cmd.Flags().BoolVar(&loops, "feedback", false, "highlight feedback loops")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the render cache")
	return cmd
}

func feedbackSuffix(loops bool) string {
	if loops {
		return "+feedback"
	}
	return ""
}

// graphHash hashes the canonical snapshot batch of g.
func graphHash(g *graph.Graph) string {
	data, _ := json.Marshal(ot.DeltasFromGraph(g))
	return cache.Hash(data)
}

// cached returns the bytes stored under key, or computes and stores them.
// A failing backend read falls through to compute.
func cached(ctx context.Context, c cache.Cache, key string, ttl time.Duration, compute func() ([]byte, error)) ([]byte, bool, error) {
	keyType := cache.KeyType(key)
	data, hit, err := c.Get(ctx, key)
	if err != nil {
		loggerFromContext(ctx).Warn("cache read failed", "key", keyType, "err", err)
	}
	if err == nil && hit {
		observability.Cache().OnCacheHit(ctx, keyType)
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, keyType)

	data, err = compute()
	if err != nil {
		return nil, false, err
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		loggerFromContext(ctx).Warn("cache write failed", "key", keyType, "err", err)
		return data, false, nil
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return data, false, nil
}
