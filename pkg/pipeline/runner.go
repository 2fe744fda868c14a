package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/accviz/accviz/pkg/cache"
	"github.com/accviz/accviz/pkg/dendro"
	"github.com/accviz/accviz/pkg/placement"
	"github.com/accviz/accviz/pkg/render"
	"github.com/accviz/accviz/pkg/render/dendrogram"
	"github.com/accviz/accviz/pkg/render/radial"
	"github.com/accviz/accviz/pkg/simmat"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete cluster → place → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Cluster
	clusterStart := time.Now()
	local, global, clusterHit, err := r.ClusterWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}
	result.LocalTree = local
	result.GlobalTree = global
	result.Stats.ClusterTime = time.Since(clusterStart)
	result.Stats.EntityCount = local.LeafCount()
	result.Stats.ClusterCount = local.LeafCount() - 1
	result.CacheInfo.ClusterHit = clusterHit

	r.Logger.Info("built hierarchies",
		"entities", local.LeafCount(),
		"linkage", opts.Linkage,
		"duration", result.Stats.ClusterTime)

	// Stage 2: Place
	placeStart := time.Now()
	pl, placeHit, err := r.PlaceWithCacheInfo(ctx, local, global, opts)
	if err != nil {
		return nil, fmt.Errorf("place: %w", err)
	}
	result.Placement = pl
	result.Stats.PlaceTime = time.Since(placeStart)
	result.Stats.StepCount = len(pl.Steps)
	result.CacheInfo.PlaceHit = placeHit

	if data, err := json.Marshal(pl); err == nil {
		result.PlacementHash = cache.Hash(data)
	}

	r.Logger.Info("computed placement",
		"steps", len(pl.Steps),
		"duration", result.Stats.PlaceTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, pl, local, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ClusterWithCacheInfo builds both hierarchies with caching and reports
// whether both came from cache.
func (r *Runner) ClusterWithCacheInfo(ctx context.Context, opts Options) (*dendro.Tree, *dendro.Tree, bool, error) {
	if err := opts.ValidateForCluster(); err != nil {
		return nil, nil, false, err
	}
	r.applyLogger(&opts)

	linkage, err := dendro.ParseLinkage(opts.Linkage)
	if err != nil {
		return nil, nil, false, err
	}

	local, localHit, err := r.clusterOne(ctx, opts, opts.LocalMatrix, linkage)
	if err != nil {
		return nil, nil, false, fmt.Errorf("local hierarchy: %w", err)
	}
	global, globalHit, err := r.clusterOne(ctx, opts, opts.GlobalMatrix, linkage)
	if err != nil {
		return nil, nil, false, fmt.Errorf("global hierarchy: %w", err)
	}
	return local, global, localHit && globalHit, nil
}

// clusterOne builds one tree from one matrix, keyed by the matrix content.
func (r *Runner) clusterOne(ctx context.Context, opts Options, m *simmat.Matrix, linkage dendro.Linkage) (*dendro.Tree, bool, error) {
	matrixData, err := json.Marshal(m)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.TreeKey(cache.Hash(matrixData), opts.TreeKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var t dendro.Tree
			if err := json.Unmarshal(data, &t); err == nil {
				return &t, true, nil // Cache hit
			}
		}
	}

	t, err := dendro.Build(m, linkage)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(t); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLTree)
	}

	return t, false, nil // Cache miss
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// PlaceWithCacheInfo runs the placement engine with caching and returns
// cache hit info. The cache key covers both trees and the global matrix.
func (r *Runner) PlaceWithCacheInfo(ctx context.Context, local, global *dendro.Tree, opts Options) (*placement.Result, bool, error) {
	opts.SetPlacementDefaults()
	r.applyLogger(&opts)

	inputsHash, err := placementInputsHash(local, global, opts)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.PlacementKey(inputsHash, opts.PlacementKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var pl placement.Result
			if err := json.Unmarshal(data, &pl); err == nil {
				return &pl, true, nil // Cache hit
			}
		}
	}

	pl, err := placement.Place(local, global, opts.GlobalMatrix, placement.Options{Unit: opts.Unit})
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(pl); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLPlacement)
	}

	return pl, false, nil // Cache miss
}

// Place is a convenience wrapper that discards the cache hit info.
func (r *Runner) Place(ctx context.Context, local, global *dendro.Tree, opts Options) (*placement.Result, error) {
	pl, _, err := r.PlaceWithCacheInfo(ctx, local, global, opts)
	return pl, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, pl *placement.Result, local *dendro.Tree, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	plData, err := json.Marshal(pl)
	if err != nil {
		return nil, false, fmt.Errorf("serialize placement for cache key: %w", err)
	}
	placementHash := cache.Hash(plData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(placementHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		return artifacts, true, nil // All artifacts from cache
	}

	rendered, err := renderFromPlacement(pl, local, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(placementHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, pl *placement.Result, local *dendro.Tree, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, pl, local, opts)
	return artifacts, err
}

// renderFromPlacement renders every requested format.
func renderFromPlacement(pl *placement.Result, local *dendro.Tree, opts Options) (map[string][]byte, error) {
	style, err := radial.ParseStyle(opts.Style)
	if err != nil {
		return nil, err
	}
	radialOpts := []radial.Option{radial.WithStyle(style)}
	if opts.Spokes {
		radialOpts = append(radialOpts, radial.WithSpokes())
	}

	out := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		switch format {
		case FormatSVG:
			out[format] = radial.RenderSVG(pl, radialOpts...)
		case FormatPNG:
			svg := radial.RenderSVG(pl, radialOpts...)
			png, err := render.ToPNG(svg, DefaultPNGScale)
			if err != nil {
				return nil, err
			}
			out[format] = png
		case FormatJSON:
			data, err := radial.RenderJSON(pl)
			if err != nil {
				return nil, err
			}
			out[format] = data
		case FormatDOT:
			out[format] = []byte(dendrogram.ToDOT(local, dendrogram.Options{}))
		default:
			return nil, fmt.Errorf("invalid format: %q", format)
		}
	}
	return out, nil
}

// placementInputsHash hashes everything the placement depends on: both
// trees and the global matrix.
func placementInputsHash(local, global *dendro.Tree, opts Options) (string, error) {
	localData, err := json.Marshal(local)
	if err != nil {
		return "", err
	}
	globalData, err := json.Marshal(global)
	if err != nil {
		return "", err
	}
	matrixData, err := json.Marshal(opts.GlobalMatrix)
	if err != nil {
		return "", err
	}
	combined := make([]byte, 0, len(localData)+len(globalData)+len(matrixData))
	combined = append(combined, localData...)
	combined = append(combined, globalData...)
	combined = append(combined, matrixData...)
	return cache.Hash(combined), nil
}
