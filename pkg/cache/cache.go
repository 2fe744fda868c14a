// Package cache provides pluggable byte caches and deterministic cache keys
// for the pipeline stages.
//
// Three backends: FileCache for CLI usage, RedisCache for the server, and
// NullCache to disable caching. Keys are derived from SHA-256 hashes of the
// stage inputs, so identical inputs always hit the same entry.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache with TTL support.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present; absence is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per pipeline stage. Trees and placements are pure functions
// of their inputs and could live forever; the TTLs just bound disk usage.
const (
	TTLTree      = 7 * 24 * time.Hour
	TTLPlacement = 7 * 24 * time.Hour
	TTLArtifact  = 24 * time.Hour
)

// TreeKeyOpts are the options that affect clustering output.
type TreeKeyOpts struct {
	Linkage string `json:"linkage"`
}

// PlacementKeyOpts are the options that affect placement output.
type PlacementKeyOpts struct {
	Unit float64 `json:"unit"`
}

// ArtifactKeyOpts are the options that affect rendered artifacts.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Style  string `json:"style"`
	Spokes bool   `json:"spokes"`
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// TreeKey keys a clustering result by the source matrix hash.
	TreeKey(matrixHash string, opts TreeKeyOpts) string

	// PlacementKey keys a placement result by the combined input hash
	// (both trees plus the matrix).
	PlacementKey(inputsHash string, opts PlacementKeyOpts) string

	// ArtifactKey keys a rendered artifact by the placement hash.
	ArtifactKey(placementHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer generates hash-based keys with stage prefixes.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// TreeKey generates a key for a clustering result.
func (k *DefaultKeyer) TreeKey(matrixHash string, opts TreeKeyOpts) string {
	return hashKey("tree", matrixHash, opts)
}

// PlacementKey generates a key for a placement result.
func (k *DefaultKeyer) PlacementKey(inputsHash string, opts PlacementKeyOpts) string {
	return hashKey("placement", inputsHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(placementHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", placementHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
