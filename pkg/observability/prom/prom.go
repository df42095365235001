// Package prom implements the observability hooks with Prometheus metrics.
//
// All collectors register on the registerer passed to [New], so tests and
// embedding hosts can use a private registry:
//
//	reg := prometheus.NewRegistry()
//	m := prom.New(reg)
//	m.Install()
//	defer prometheus.WriteToTextfile("got.prom", reg)
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/worldmaking/gotlib/pkg/errors"
	"github.com/worldmaking/gotlib/pkg/observability"
)

const namespace = "got"

// Metrics holds every collector. It implements [observability.EngineHooks],
// [observability.FeedbackHooks] and [observability.CacheHooks].
type Metrics struct {
	// ApplyTotal counts Apply calls by outcome (ok, error).
	ApplyTotal *prometheus.CounterVec
	// ApplyDuration observes Apply latency.
	ApplyDuration prometheus.Histogram
	// DeltasTotal counts leaf deltas attempted.
	DeltasTotal prometheus.Counter
	// FailuresTotal counts fatal apply failures by error code.
	FailuresTotal *prometheus.CounterVec
	// RejectsTotal counts reports by kind (MalformedDelta, ConflictDelta).
	RejectsTotal *prometheus.CounterVec
	// RepairsTotal counts idempotence repairs by op.
	RepairsTotal *prometheus.CounterVec
	// RebaseTotal counts rebases by outcome (ok, conflict).
	RebaseTotal *prometheus.CounterVec
	// RebaseDropped counts leaves dropped as duplicates during rebase.
	RebaseDropped prometheus.Counter

	// FeedbackSearches counts cycle searches.
	FeedbackSearches prometheus.Counter
	// FeedbackPaths tracks the loop count of the latest search.
	FeedbackPaths prometheus.Gauge
	// FeedbackOutlets tracks the outlet count of the latest search.
	FeedbackOutlets prometheus.Gauge
	// FeedbackDuration observes search latency.
	FeedbackDuration prometheus.Histogram

	// CacheRequests counts cache lookups by key type and result (hit, miss).
	CacheRequests *prometheus.CounterVec
	// CacheBytes counts bytes written by key type.
	CacheBytes *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ApplyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "apply_total",
			Help: "Apply calls by outcome.",
		}, []string{"outcome"}),
		ApplyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "engine", Name: "apply_duration_seconds",
			Help:    "Apply call latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		DeltasTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "deltas_total",
			Help: "Leaf deltas attempted.",
		}),
		FailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "failures_total",
			Help: "Fatal apply failures by error code.",
		}, []string{"code"}),
		RejectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "reports_total",
			Help: "Rejection and conflict reports by kind.",
		}, []string{"kind"}),
		RepairsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "engine", Name: "repairs_total",
			Help: "Duplicate connects and missing disconnects repaired, by op.",
		}, []string{"op"}),
		RebaseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "rebase", Name: "total",
			Help: "Rebases by outcome.",
		}, []string{"outcome"}),
		RebaseDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "rebase", Name: "dropped_total",
			Help: "Leaves dropped as duplicates while rebasing.",
		}),
		FeedbackSearches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "feedback", Name: "searches_total",
			Help: "Feedback loop searches.",
		}),
		FeedbackPaths: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "feedback", Name: "paths",
			Help: "Loops found by the latest search.",
		}),
		FeedbackOutlets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "feedback", Name: "outlets",
			Help: "Outlets seen by the latest search.",
		}),
		FeedbackDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "feedback", Name: "search_duration_seconds",
			Help:    "Feedback search latency in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "requests_total",
			Help: "Cache lookups by key type and result.",
		}, []string{"type", "result"}),
		CacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "written_bytes_total",
			Help: "Bytes written to the cache by key type.",
		}, []string{"type"}),
	}
	reg.MustRegister(
		m.ApplyTotal, m.ApplyDuration, m.DeltasTotal, m.FailuresTotal,
		m.RejectsTotal, m.RepairsTotal, m.RebaseTotal, m.RebaseDropped,
		m.FeedbackSearches, m.FeedbackPaths, m.FeedbackOutlets, m.FeedbackDuration,
		m.CacheRequests, m.CacheBytes,
	)
	return m
}

// Install registers m as the global engine, feedback and cache hooks.
func (m *Metrics) Install() {
	observability.SetEngineHooks(m)
	observability.SetFeedbackHooks(m)
	observability.SetCacheHooks(m)
}

func (m *Metrics) OnApply(_ context.Context, leaves int, d time.Duration, err error) {
	m.DeltasTotal.Add(float64(leaves))
	m.ApplyDuration.Observe(d.Seconds())
	if err != nil {
		m.ApplyTotal.WithLabelValues("error").Inc()
		code := string(errors.GetCode(err))
		if code == "" {
			code = "unknown"
		}
		m.FailuresTotal.WithLabelValues(code).Inc()
		return
	}
	m.ApplyTotal.WithLabelValues("ok").Inc()
}

func (m *Metrics) OnReject(_ context.Context, kind string) {
	m.RejectsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) OnRepair(_ context.Context, op string) {
	m.RepairsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) OnRebase(_ context.Context, dropped int, err error) {
	if err != nil {
		m.RebaseTotal.WithLabelValues("conflict").Inc()
		return
	}
	m.RebaseTotal.WithLabelValues("ok").Inc()
	m.RebaseDropped.Add(float64(dropped))
}

func (m *Metrics) OnSearch(_ context.Context, outlets, paths int, d time.Duration) {
	m.FeedbackSearches.Inc()
	m.FeedbackOutlets.Set(float64(outlets))
	m.FeedbackPaths.Set(float64(paths))
	m.FeedbackDuration.Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

var (
	_ observability.EngineHooks   = (*Metrics)(nil)
	_ observability.FeedbackHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
)
