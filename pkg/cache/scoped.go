package cache

// ScopedKeyer wraps a Keyer with a prefix so several workspaces or
// tenants can share one backend without seeing each other's snapshots.
//
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "project:synth-rack:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

func (k *ScopedKeyer) SnapshotKey(name string) string {
	return k.prefix + k.inner.SnapshotKey(name)
}

func (k *ScopedKeyer) GraphKey(graphHash string) string {
	return k.prefix + k.inner.GraphKey(graphHash)
}

func (k *ScopedKeyer) FeedbackKey(graphHash string, opts FeedbackKeyOpts) string {
	return k.prefix + k.inner.FeedbackKey(graphHash, opts)
}

func (k *ScopedKeyer) RenderKey(graphHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(graphHash, opts)
}
