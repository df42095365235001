package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/worldmaking/gotlib/pkg/delta"
	"github.com/worldmaking/gotlib/pkg/errors"
	"github.com/worldmaking/gotlib/pkg/graph"
	graphio "github.com/worldmaking/gotlib/pkg/io"
	"github.com/worldmaking/gotlib/pkg/ot"
)

// loadGraph reads a graph from either a tree file or a delta file. Delta
// files are applied to an empty graph; a report of any kind is an error.
func (c *CLI) loadGraph(ctx context.Context, path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch graphio.Sniff(data) {
	case graphio.FormatTree:
		g, err := graphio.ReadJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return g, nil
	case graphio.FormatDeltas:
		d, err := graphio.ReadDeltas(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		g, report, err := c.engine().GraphFromDeltas(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if report != nil {
			return nil, fmt.Errorf("%s: %w", path, reportError(report))
		}
		return g, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput, "%s: neither a graph nor a delta file", path)
}

// writeOut sends the output of write to path, or to stdout when path is
// empty or "-". Status lines go to stderr so stdout stays pipeable.
func writeOut(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(cmd.OutOrStdout())
	}
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printSuccess(cmd.ErrOrStderr(), "Wrote %d bytes", buf.Len())
	printFile(cmd.ErrOrStderr(), path)
	return nil
}

func writeGraph(cmd *cobra.Command, path string, g *graph.Graph) error {
	return writeOut(cmd, path, func(w io.Writer) error { return graphio.WriteJSON(g, w) })
}

func writeDeltas(cmd *cobra.Command, path string, d delta.Delta) error {
	return writeOut(cmd, path, func(w io.Writer) error { return graphio.WriteDeltas(d, w) })
}

// reportError turns a malformed or conflict report into an error for
// commands that cannot continue past one.
func reportError(r *ot.Report) error {
	return fmt.Errorf("%s: %w", r.Kind, r.Err)
}

// describeReport prints a report to w.
func describeReport(w io.Writer, r *ot.Report) {
	printWarning(w, "%s: %s", r.Kind, r.Message())
	printKeyValue(w, "offending", r.OffendingDelta.String())
	if r.Kind == ot.KindMalformed {
		printDetail(w, "%d applied deltas rolled back", r.InverseDeltas.Len())
	}
}
