// Package session serializes concurrent editors onto one shared graph.
//
// A [Session] owns a graph and a revision log. Editors submit batches along
// with the revision they were authored against; a batch that is behind is
// rebased over every batch committed since, then applied. The session lock
// guarantees that applies and feedback searches never overlap.
//
//	s := session.New(session.Options{})
//	c, err := s.Submit(ctx, 0, edits)
//	if errors.IsMergeConflict(err) {
//	    // resync the editor from s.Snapshot() and s.Revision()
//	}
//
// Sessions persist through any [cache.Cache] backend as the JSON snapshot
// batch produced by [ot.DeltasFromGraph].
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/worldmaking/gotlib/pkg/cache"
	"github.com/worldmaking/gotlib/pkg/delta"
	"github.com/worldmaking/gotlib/pkg/errors"
	"github.com/worldmaking/gotlib/pkg/feedback"
	"github.com/worldmaking/gotlib/pkg/graph"
	"github.com/worldmaking/gotlib/pkg/observability"
	"github.com/worldmaking/gotlib/pkg/ot"
)

// Options configures a Session. Zero values select defaults.
type Options struct {
	Logger *log.Logger
	Engine *ot.Engine
	Finder *feedback.Finder
	Keyer  cache.Keyer

	// TTL is the expiry given to saved snapshots. Zero keeps them forever.
	TTL time.Duration
}

// Session is a mutex-guarded graph plus the log of batches committed to it.
// Revision n is the state after the first n logged batches.
type Session struct {
	ID string

	mu      sync.Mutex
	graph   *graph.Graph
	history []delta.Delta

	engine *ot.Engine
	finder *feedback.Finder
	keyer  cache.Keyer
	ttl    time.Duration
	logger *log.Logger
}

// Commit is the outcome of a Submit.
type Commit struct {
	// Revision is the session revision after the call.
	Revision int

	// Applied is the batch as committed, after rebasing. It is what peers
	// at the previous revision must apply to catch up.
	Applied delta.Delta

	// Rebased counts the logged batches the submission was rebased over.
	Rebased int

	// Report is non-nil for a malformed batch (nothing committed) or a
	// property conflict (committed anyway).
	Report *ot.Report
}

// Committed reports whether the call advanced the revision.
func (c Commit) Committed() bool {
	return c.Report == nil || c.Report.Kind == ot.KindConflict
}

// New creates a session over an empty graph.
func New(opts Options) *Session {
	return newSession(opts, graph.New())
}

func newSession(opts Options, g *graph.Graph) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	engine := opts.Engine
	if engine == nil {
		engine = ot.NewEngine(ot.Options{Logger: logger})
	}
	finder := opts.Finder
	if finder == nil {
		finder = feedback.NewFinder(feedback.Options{Logger: logger})
	}
	keyer := opts.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	id := uuid.NewString()
	return &Session{
		ID:     id,
		graph:  g,
		engine: engine,
		finder: finder,
		keyer:  keyer,
		ttl:    opts.TTL,
		logger: logger.With("session", id[:8]),
	}
}

// FromSnapshot creates a session whose revision 0 is the graph built by
// snapshot. Any report (malformed or conflicting snapshot) is an error.
func FromSnapshot(ctx context.Context, snapshot delta.Delta, opts Options) (*Session, error) {
	s := newSession(opts, nil)
	g, report, err := s.engine.GraphFromDeltas(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	if report != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, report.Err, "snapshot rejected: %s", report.Kind)
	}
	s.graph = g
	s.logger.Info("session restored", "nodes", g.NodeCount(), "arcs", g.ArcCount())
	return s, nil
}

// Revision returns the number of committed batches.
func (s *Session) Revision() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Graph returns a copy of the current graph.
func (s *Session) Graph() *graph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Clone()
}

// Snapshot returns a creation batch for the current graph.
func (s *Session) Snapshot() delta.Delta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ot.DeltasFromGraph(s.graph)
}

// Since returns the batches committed after rev, in order. Applying them to
// a graph at rev brings it to the current revision.
func (s *Session) Since(rev int) ([]delta.Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRev(rev); err != nil {
		return nil, err
	}
	out := make([]delta.Delta, 0, len(s.history)-rev)
	for _, d := range s.history[rev:] {
		out = append(out, d.Clone())
	}
	return out, nil
}

func (s *Session) checkRev(rev int) error {
	if rev < 0 || rev > len(s.history) {
		return errors.New(errors.ErrCodeStaleRevision,
			"revision %d is outside 0..%d", rev, len(s.history))
	}
	return nil
}

// Submit commits batch, authored against baseRev.
//
// If baseRev is behind, batch is rebased over every batch committed since;
// a rebase conflict (PATH_COLLISION, PATH_IN_USE) is returned as an error
// and nothing changes. The result is applied to a copy of the graph, so a
// structural failure also leaves the session untouched. A malformed batch
// comes back as a report without advancing the revision; a property
// conflict is committed and reported.
func (s *Session) Submit(ctx context.Context, baseRev int, batch delta.Delta) (Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev := len(s.history)
	if err := s.checkRev(baseRev); err != nil {
		return Commit{Revision: rev}, err
	}

	b := batch
	for _, a := range s.history[baseRev:] {
		var err error
		if b, err = s.engine.Rebase(ctx, b, a); err != nil {
			s.logger.Warn("submission conflicts with a committed batch", "base", baseRev, "revision", rev, "err", err)
			return Commit{Revision: rev}, err
		}
	}
	commit := Commit{Revision: rev, Applied: b, Rebased: rev - baseRev}
	if b.IsEmpty() {
		s.logger.Debug("submission fully absorbed", "base", baseRev)
		return commit, nil
	}

	work := s.graph.Clone()
	report, err := s.engine.Apply(ctx, work, b)
	if err != nil {
		s.logger.Error("submission rejected", "base", baseRev, "err", err)
		return commit, err
	}
	commit.Report = report
	if !commit.Committed() {
		s.logger.Warn("malformed submission", "err", report.Err)
		return commit, nil
	}

	s.graph = work
	s.history = append(s.history, b.Clone())
	commit.Revision = len(s.history)
	s.logger.Debug("committed", "revision", commit.Revision, "rebased", commit.Rebased, "leaves", b.Len())
	return commit, nil
}

// Feedback runs the cycle finder on the current graph.
func (s *Session) Feedback(ctx context.Context) []feedback.Path {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finder.Find(ctx, s.graph)
}

// Save stores the current snapshot under name and under its content hash,
// returning the hash.
func (s *Session) Save(ctx context.Context, c cache.Cache, name string) (string, error) {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode snapshot")
	}
	hash := cache.Hash(data)
	for _, key := range []string{s.keyer.SnapshotKey(name), s.keyer.GraphKey(hash)} {
		if err := c.Set(ctx, key, data, s.ttl); err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "save snapshot %s", name)
		}
		observability.Cache().OnCacheSet(ctx, cache.KeyType(key), len(data))
	}
	s.logger.Info("snapshot saved", "name", name, "hash", hash[:12], "bytes", len(data))
	return hash, nil
}

// Load restores the snapshot saved under name into a new session.
func Load(ctx context.Context, c cache.Cache, name string, opts Options) (*Session, error) {
	keyer := opts.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	key := keyer.SnapshotKey(name)
	data, hit, err := c.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load snapshot %s", name)
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, cache.KeyType(key))
		return nil, errors.New(errors.ErrCodeNotFound, "snapshot %q not found", name)
	}
	observability.Cache().OnCacheHit(ctx, cache.KeyType(key))

	var snapshot delta.Delta
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode snapshot %s", name)
	}
	return FromSnapshot(ctx, snapshot, opts)
}
