package ot

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/worldmaking/gotlib/pkg/delta"
	"github.com/worldmaking/gotlib/pkg/errors"
	"github.com/worldmaking/gotlib/pkg/graph"
	"github.com/worldmaking/gotlib/pkg/observability"
)

// ReportKind classifies a rejection report.
type ReportKind string

const (
	// KindMalformed means a delta lacked required fields. The batch was
	// rolled back in full.
	KindMalformed ReportKind = "MalformedDelta"
	// KindConflict means a property change found an unexpected baseline.
	// Nothing was rolled back; the change was applied anyway.
	KindConflict ReportKind = "ConflictDelta"
)

// Report describes a rejected or conflicting delta.
type Report struct {
	Kind ReportKind
	Err  error

	// InverseDeltas undoes every leaf applied before OffendingDelta. For a
	// malformed batch these deltas have already been replayed.
	InverseDeltas delta.Delta

	OffendingDelta delta.Delta

	// Graph is the live graph after the call.
	Graph *graph.Graph
}

// Message returns the report's error message without its code.
func (r *Report) Message() string {
	if r.Err == nil {
		return ""
	}
	return errors.UserMessage(r.Err)
}

// Options configures an Engine.
type Options struct {
	// Logger receives conflict and rejection warnings, and per-delta debug
	// lines. Defaults to log.Default().
	Logger *log.Logger

	// Comparison selects how a property change's "from" value is matched
	// against the stored value. Defaults to exact comparison.
	Comparison graph.Comparison
}

// Engine applies deltas to graphs. An Engine holds no per-call state and
// may be shared; each Apply runs in its own transaction. Calls against the
// same graph must still be serialized by the caller.
type Engine struct {
	logger     *log.Logger
	comparison graph.Comparison
}

// NewEngine creates an Engine.
func NewEngine(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{logger: logger, comparison: opts.Comparison}
}

var defaultEngine = NewEngine(Options{})

// Apply applies d to g with the default engine. See [Engine.Apply].
func Apply(ctx context.Context, g *graph.Graph, d delta.Delta) (*Report, error) {
	return defaultEngine.Apply(ctx, g, d)
}

// Apply applies a delta or batch to g, leaf by leaf in order.
//
// A malformed leaf stops the batch: every leaf applied before it is undone
// and a KindMalformed report is returned with a nil error. A property
// change whose baseline does not match is applied regardless and reported
// as KindConflict once the batch completes; only the first conflict is
// reported, later ones are logged.
//
// Structural failures (missing paths, occupied paths, deletes of nodes with
// children, ambiguous arcs, duplicate deletes) are returned as errors. The
// graph is left as it was at the point of failure and should be resynced
// from a trusted snapshot.
func (e *Engine) Apply(ctx context.Context, g *graph.Graph, d delta.Delta) (*Report, error) {
	if g == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "apply: graph is nil")
	}
	start := time.Now()
	t := e.begin(ctx, g)

	err := t.apply(d)
	if err != nil && errors.Is(err, errors.ErrCodeMalformedDelta) {
		report, rerr := t.rollback(err)
		observability.Engine().OnApply(ctx, t.attempted, time.Since(start), rerr)
		if rerr != nil {
			return nil, rerr
		}
		observability.Engine().OnReject(ctx, string(report.Kind))
		return report, nil
	}

	observability.Engine().OnApply(ctx, t.attempted, time.Since(start), err)
	if err != nil {
		t.log.Error("apply failed", "err", err)
		return nil, err
	}
	t.log.Debug("applied", "leaves", len(t.applied))
	if t.conflict != nil {
		observability.Engine().OnReject(ctx, string(t.conflict.Kind))
	}
	return t.conflict, nil
}

// txn is the state of one Apply call.
type txn struct {
	e   *Engine
	ctx context.Context
	g   *graph.Graph
	log *log.Logger

	applied   []delta.Delta // leaves as actually applied, in order
	deleted   map[string]bool
	attempted int
	offending delta.Delta
	conflict  *Report
}

func (e *Engine) begin(ctx context.Context, g *graph.Graph) *txn {
	id := uuid.NewString()
	return &txn{
		e:       e,
		ctx:     ctx,
		g:       g,
		log:     e.logger.With("txn", id[:8]),
		deleted: make(map[string]bool),
	}
}

func (t *txn) apply(d delta.Delta) error {
	if d.IsBatch() {
		for _, e := range d.Batch {
			if err := t.apply(e); err != nil {
				return err
			}
		}
		return nil
	}

	t.attempted++
	if err := d.Validate(); err != nil {
		t.offending = d
		return err
	}
	t.log.Debug("apply", "op", d.Op, "path", d.Path, "paths", d.Paths)

	switch d.Op {
	case delta.OpNewNode:
		return t.newNode(d)
	case delta.OpDelNode:
		return t.delNode(d)
	case delta.OpConnect:
		return t.connect(d)
	case delta.OpDisconnect:
		return t.disconnect(d)
	case delta.OpRepath:
		return t.repath(d)
	case delta.OpPropChange:
		return t.propChange(d)
	}
	return errors.New(errors.ErrCodeInternal, "unhandled op %q", d.Op)
}

func (t *txn) record(d delta.Delta) {
	t.applied = append(t.applied, d)
}

func (t *txn) newNode(d delta.Delta) error {
	h, err := t.g.MakePath(d.Path)
	if err != nil {
		return err
	}
	t.g.MergeProps(h, d.Props)
	delete(t.deleted, d.Path)
	t.record(delta.NewNode(d.Path, d.Props))
	return nil
}

func (t *txn) delNode(d delta.Delta) error {
	if _, _, err := t.g.FindPathContainer(d.Path); err != nil {
		return err
	}
	if !t.g.Has(d.Path) && t.deleted[d.Path] {
		return errors.AtPath(errors.ErrCodeDuplicateDelete, d.Path,
			"delnode failed: %s was already deleted in this batch", d.Path)
	}
	props, err := t.g.Remove(d.Path)
	if err != nil {
		return err
	}
	t.deleted[d.Path] = true
	t.record(delta.DelNode(d.Path, props))
	return nil
}

func (t *txn) connect(d delta.Delta) error {
	src, dst := d.Src(), d.Dst()
	if t.g.HasArc(src, dst) {
		return t.repair(d)
	}
	t.g.AddArc(graph.Arc{Src: src, Dst: dst})
	t.record(delta.Connect(src, dst))
	return nil
}

func (t *txn) disconnect(d delta.Delta) error {
	src, dst := d.Src(), d.Dst()
	idx := t.g.FindArcs(src, dst)
	switch len(idx) {
	case 0:
		return t.repair(d)
	case 1:
		t.g.RemoveArc(idx[0])
		t.record(delta.Disconnect(src, dst))
		return nil
	}
	return errors.AtPath(errors.ErrCodeAmbiguousArc, src,
		"disconnect failed: %d arcs match %s -> %s", len(idx), src, dst)
}

// repair resolves a connect of an existing arc, or a disconnect of a
// missing one, by applying the delta's inverse and then the delta itself.
func (t *txn) repair(d delta.Delta) error {
	t.log.Debug("repairing", "op", d.Op, "paths", d.Paths)
	observability.Engine().OnRepair(t.ctx, string(d.Op))
	return t.apply(delta.Seq(delta.Inverse(d), d))
}

func (t *txn) repath(d delta.Delta) error {
	src, dst := d.Src(), d.Dst()
	if err := t.g.Move(src, dst); err != nil {
		return err
	}
	t.g.RewriteArcs(src, dst)
	t.record(delta.Repath(src, dst))
	return nil
}

func (t *txn) propChange(d delta.Delta) error {
	h, ok := t.g.Lookup(d.Path)
	if !ok {
		t.log.Debug("propchange ignored: path not found", "path", d.Path, "name", d.Name)
		return nil
	}
	prev, ok := t.g.Prop(h, d.Name)
	if !ok {
		return errors.AtPath(errors.ErrCodePropertyNotFound, d.Path,
			"propchange failed: %s has no property %q", d.Path, d.Name)
	}
	if !graph.Compare(t.e.comparison, prev, d.From) {
		t.conflicted(d, prev)
	}
	t.g.SetProp(h, d.Name, d.To)
	t.record(delta.PropChange(d.Path, d.Name, prev, d.To))
	return nil
}

func (t *txn) conflicted(d delta.Delta, current any) {
	err := errors.AtPath(errors.ErrCodePropertyConflict, d.Path,
		"propchange %s.%s expected %s but found %s",
		d.Path, d.Name, graph.FormatValue(d.From), graph.FormatValue(current))
	t.log.Warn("conflicting propchange applied", "path", d.Path, "name", d.Name,
		"from", graph.FormatValue(d.From), "current", graph.FormatValue(current))
	if t.conflict != nil {
		return
	}
	t.conflict = &Report{
		Kind:           KindConflict,
		Err:            err,
		InverseDeltas:  delta.Inverse(delta.Seq(t.applied...)),
		OffendingDelta: d.Clone(),
		Graph:          t.g,
	}
}

// rollback undoes every leaf applied so far and builds the malformed report.
func (t *txn) rollback(cause error) (*Report, error) {
	inv := delta.Inverse(delta.Seq(t.applied...))
	t.log.Warn("rejected malformed delta, rolling back",
		"err", errors.UserMessage(cause), "undo", inv.Len())

	undo := t.e.begin(t.ctx, t.g)
	if err := undo.apply(inv); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "rollback failed")
	}
	t.applied = nil
	return &Report{
		Kind:           KindMalformed,
		Err:            cause,
		InverseDeltas:  inv,
		OffendingDelta: t.offending,
		Graph:          t.g,
	}, nil
}

// String renders the report for logs and the CLI.
func (r *Report) String() string {
	return fmt.Sprintf("%s: %s (offending: %s, undo: %d deltas)",
		r.Kind, r.Message(), r.OffendingDelta, r.InverseDeltas.Len())
}
