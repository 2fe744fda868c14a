package cache

// ScopedKeyer wraps a Keyer with a prefix so separate deployments or users
// sharing one Redis instance get isolated namespaces.
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

// TreeKey generates a prefixed key for a clustering result.
func (k *ScopedKeyer) TreeKey(matrixHash string, opts TreeKeyOpts) string {
	return k.prefix + k.inner.TreeKey(matrixHash, opts)
}

// PlacementKey generates a prefixed key for a placement result.
func (k *ScopedKeyer) PlacementKey(inputsHash string, opts PlacementKeyOpts) string {
	return k.prefix + k.inner.PlacementKey(inputsHash, opts)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(placementHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(placementHash, opts)
}
