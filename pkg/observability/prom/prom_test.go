package prom

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/worldmaking/gotlib/pkg/delta"
	"github.com/worldmaking/gotlib/pkg/errors"
	"github.com/worldmaking/gotlib/pkg/feedback"
	"github.com/worldmaking/gotlib/pkg/graph"
	"github.com/worldmaking/gotlib/pkg/observability"
	"github.com/worldmaking/gotlib/pkg/ot"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(reg), reg
}

func TestEngineHooks(t *testing.T) {
	m, _ := newTestMetrics(t)
	ctx := context.Background()

	m.OnApply(ctx, 3, time.Millisecond, nil)
	m.OnApply(ctx, 2, time.Millisecond, errors.NotFound("a.b"))
	m.OnApply(ctx, 1, time.Millisecond, io.EOF)
	m.OnReject(ctx, "MalformedDelta")
	m.OnRepair(ctx, "connect")
	m.OnRepair(ctx, "connect")
	m.OnRebase(ctx, 2, nil)
	m.OnRebase(ctx, 0, errors.New(errors.ErrCodePathInUse, "x"))

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"ok applies", m.ApplyTotal.WithLabelValues("ok"), 1},
		{"failed applies", m.ApplyTotal.WithLabelValues("error"), 2},
		{"deltas", m.DeltasTotal, 6},
		{"not found failures", m.FailuresTotal.WithLabelValues("PATH_NOT_FOUND"), 1},
		{"uncoded failures", m.FailuresTotal.WithLabelValues("unknown"), 1},
		{"malformed reports", m.RejectsTotal.WithLabelValues("MalformedDelta"), 1},
		{"connect repairs", m.RepairsTotal.WithLabelValues("connect"), 2},
		{"rebase ok", m.RebaseTotal.WithLabelValues("ok"), 1},
		{"rebase conflict", m.RebaseTotal.WithLabelValues("conflict"), 1},
		{"rebase dropped", m.RebaseDropped, 2},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
	if n := testutil.CollectAndCount(m.ApplyDuration); n != 1 {
		t.Errorf("ApplyDuration collected %d metrics", n)
	}
}

func TestFeedbackAndCacheHooks(t *testing.T) {
	m, _ := newTestMetrics(t)
	ctx := context.Background()

	m.OnSearch(ctx, 15, 3, time.Millisecond)
	m.OnSearch(ctx, 4, 1, time.Millisecond)
	m.OnCacheHit(ctx, "snapshot")
	m.OnCacheMiss(ctx, "snapshot")
	m.OnCacheMiss(ctx, "snapshot")
	m.OnCacheSet(ctx, "graph", 120)

	if got := testutil.ToFloat64(m.FeedbackSearches); got != 2 {
		t.Errorf("searches = %v", got)
	}
	if got := testutil.ToFloat64(m.FeedbackPaths); got != 1 {
		t.Errorf("paths gauge = %v, want the latest search", got)
	}
	if got := testutil.ToFloat64(m.FeedbackOutlets); got != 4 {
		t.Errorf("outlets gauge = %v", got)
	}
	if got := testutil.ToFloat64(m.CacheRequests.WithLabelValues("snapshot", "miss")); got != 2 {
		t.Errorf("misses = %v", got)
	}
	if got := testutil.ToFloat64(m.CacheBytes.WithLabelValues("graph")); got != 120 {
		t.Errorf("bytes = %v", got)
	}
}

func TestInstallWiresEngine(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.Install()
	defer observability.Reset()

	ctx := context.Background()
	e := ot.NewEngine(ot.Options{Logger: log.New(io.Discard)})
	g, _, err := e.GraphFromDeltas(ctx, delta.Seq(
		delta.NewNode("a", nil),
		delta.NewNode("a.out", graph.Props{"kind": "outlet"}),
		delta.NewNode("a.in", nil),
		delta.Connect("a.out", "a.in"),
		delta.Connect("a.out", "a.in"),
	))
	if err != nil {
		t.Fatal(err)
	}
	feedback.NewFinder(feedback.Options{Logger: log.New(io.Discard)}).Find(ctx, g)

	if got := testutil.ToFloat64(m.RepairsTotal.WithLabelValues("connect")); got != 1 {
		t.Errorf("repairs = %v", got)
	}
	if got := testutil.ToFloat64(m.FeedbackPaths); got != 1 {
		t.Errorf("paths = %v", got)
	}

	expected := `
# HELP got_engine_apply_total Apply calls by outcome.
# TYPE got_engine_apply_total counter
got_engine_apply_total{outcome="ok"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "got_engine_apply_total"); err != nil {
		t.Error(err)
	}
}

func TestWriteToTextfile(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.OnReject(context.Background(), "ConflictDelta")

	path := filepath.Join(t.TempDir(), "got.prom")
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `got_engine_reports_total{kind="ConflictDelta"} 1`) {
		t.Errorf("textfile missing report counter:\n%s", data)
	}
}
