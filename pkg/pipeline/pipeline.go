// Package pipeline provides the core diagram pipeline for accviz.
//
// This package implements the complete cluster → place → render pipeline
// that is shared by the CLI and the HTTP API. Centralizing it keeps the two
// entry points consistent and gives both the same caching behavior.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Cluster: build the local and global hierarchies from their similarity
//     matrices via agglomerative clustering
//  2. Place: run the placement engine over the two trees and the global
//     matrix, producing per-entity coordinates
//  3. Render: generate output artifacts (SVG, PNG, JSON, DOT)
//
// Each stage can be run independently or as part of the complete pipeline,
// and each is cached under a SHA-256 content key of its inputs.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    LocalMatrix:  local,
//	    GlobalMatrix: global,
//	    Formats:      []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/accviz/accviz/pkg/cache"
	"github.com/accviz/accviz/pkg/dendro"
	"github.com/accviz/accviz/pkg/placement"
	"github.com/accviz/accviz/pkg/render/radial"
	"github.com/accviz/accviz/pkg/simmat"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultUnit is the scale constant in diameter = unit / simGlobal.
	DefaultUnit = 1.0

	// DefaultLinkage is the default agglomerative linkage method.
	DefaultLinkage = string(dendro.Average)

	// DefaultStyle is the default visual style.
	DefaultStyle = string(radial.StyleSimple)

	// DefaultPNGScale is the rasterization scale for PNG output.
	DefaultPNGScale = 2.0

	// MatrixTolerance is the symmetry/diagonal tolerance for input matrices.
	MatrixTolerance = 1e-6
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// ValidStyles is the set of supported visual styles.
var ValidStyles = map[string]bool{
	string(radial.StyleSimple): true,
	string(radial.StyleDark):   true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the diagram pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Cluster options
	LocalMatrix  *simmat.Matrix `json:"local_matrix"`
	GlobalMatrix *simmat.Matrix `json:"global_matrix"`
	Linkage      string         `json:"linkage,omitempty"`
	Refresh      bool           `json:"refresh,omitempty"`

	// Placement options
	Unit float64 `json:"unit,omitempty"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Style   string   `json:"style,omitempty"`
	Spokes  bool     `json:"spokes,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// LocalTree and GlobalTree are the built hierarchies.
	LocalTree  *dendro.Tree
	GlobalTree *dendro.Tree

	// Placement is the engine output: final coordinates plus step trail.
	Placement *placement.Result

	// PlacementHash is the content hash of the placement result.
	PlacementHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	EntityCount  int
	ClusterCount int
	StepCount    int
	ClusterTime  time.Duration
	PlaceTime    time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ClusterHit bool // Whether both trees came from cache
	PlaceHit   bool // Whether the placement came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is valid.
func ValidateStyle(style string) error {
	if !ValidStyles[style] {
		return fmt.Errorf("invalid style: %q (must be one of: simple, dark)", style)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForCluster(); err != nil {
		return err
	}
	o.SetPlacementDefaults()
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateStyle(o.Style); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForCluster checks required fields for the clustering stage.
func (o *Options) ValidateForCluster() error {
	if o.LocalMatrix == nil || o.GlobalMatrix == nil {
		return fmt.Errorf("local and global similarity matrices are required")
	}
	if err := o.LocalMatrix.Validate(MatrixTolerance); err != nil {
		return fmt.Errorf("local matrix: %w", err)
	}
	if err := o.GlobalMatrix.Validate(MatrixTolerance); err != nil {
		return fmt.Errorf("global matrix: %w", err)
	}
	if o.Linkage == "" {
		o.Linkage = DefaultLinkage
	}
	if _, err := dendro.ParseLinkage(o.Linkage); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetPlacementDefaults sets default values for the placement stage.
func (o *Options) SetPlacementDefaults() {
	if o.Unit == 0 {
		o.Unit = DefaultUnit
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateStyle(o.Style)
}

// TreeKeyOpts returns cache key options for the clustering stage.
func (o *Options) TreeKeyOpts() cache.TreeKeyOpts {
	return cache.TreeKeyOpts{Linkage: o.Linkage}
}

// PlacementKeyOpts returns cache key options for the placement stage.
func (o *Options) PlacementKeyOpts() cache.PlacementKeyOpts {
	return cache.PlacementKeyOpts{Unit: o.Unit}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Style:  o.Style,
		Spokes: o.Spokes,
	}
}
