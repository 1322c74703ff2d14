package cache

// ScopedKeyer wraps a Keyer with a prefix, so that serve sessions or
// tenants sharing one backend cannot read each other's entries.
//
//	sessionKeyer := NewScopedKeyer(NewDefaultKeyer(), "session:"+id+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(treeHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(treeHash, opts)
}

// AnimationKey implements Keyer.
func (k *ScopedKeyer) AnimationKey(treeHash string, opts AnimationKeyOpts) string {
	return k.prefix + k.inner.AnimationKey(treeHash, opts)
}
