package pipeline

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/accviz/accviz/pkg/cache"
	"github.com/accviz/accviz/pkg/simmat"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	local, _ := simmat.New([]string{"A", "B", "C"})
	local.Set("A", "B", 0.9)
	local.Set("A", "C", 0.2)
	local.Set("B", "C", 0.4)

	global, _ := simmat.New([]string{"A", "B", "C"})
	global.Set("A", "B", 0.8)
	global.Set("A", "C", 0.3)
	global.Set("B", "C", 0.5)

	return Options{
		LocalMatrix:  local,
		GlobalMatrix: global,
		Logger:       log.NewWithOptions(io.Discard, log.Options{}),
	}
}

func TestExecute(t *testing.T) {
	runner := NewRunner(cache.NewNullCache(), nil, log.NewWithOptions(io.Discard, log.Options{}))
	defer runner.Close()

	res, err := runner.Execute(context.Background(), testOptions(t))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	svg, ok := res.Artifacts[FormatSVG]
	if !ok || len(svg) == 0 {
		t.Fatal("Execute() produced no SVG artifact")
	}
	if res.Stats.EntityCount != 3 {
		t.Errorf("EntityCount = %d, want 3", res.Stats.EntityCount)
	}
	if res.Stats.ClusterCount != 2 {
		t.Errorf("ClusterCount = %d, want 2", res.Stats.ClusterCount)
	}
	if res.Stats.StepCount != 2 {
		t.Errorf("StepCount = %d, want 2 (seed + add)", res.Stats.StepCount)
	}
	if res.PlacementHash == "" {
		t.Error("PlacementHash is empty")
	}
	if len(res.Placement.Final.Points) != 3 {
		t.Errorf("final Points has %d entries, want 3", len(res.Placement.Final.Points))
	}
}

func TestExecute_CacheHitsOnSecondRun(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	runner := NewRunner(c, nil, log.NewWithOptions(io.Discard, log.Options{}))
	defer runner.Close()
	ctx := context.Background()

	first, err := runner.Execute(ctx, testOptions(t))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if first.CacheInfo.ClusterHit || first.CacheInfo.PlaceHit || first.CacheInfo.RenderHit {
		t.Error("first run should miss on every stage")
	}

	second, err := runner.Execute(ctx, testOptions(t))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !second.CacheInfo.ClusterHit || !second.CacheInfo.PlaceHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run cache info = %+v, want hits on every stage", second.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts[FormatSVG], second.Artifacts[FormatSVG]) {
		t.Error("cached artifact differs from freshly rendered one")
	}
}

func TestExecute_RefreshBypassesCache(t *testing.T) {
	c, _ := cache.NewFileCache(t.TempDir())
	runner := NewRunner(c, nil, log.NewWithOptions(io.Discard, log.Options{}))
	defer runner.Close()
	ctx := context.Background()

	if _, err := runner.Execute(ctx, testOptions(t)); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	opts := testOptions(t)
	opts.Refresh = true
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.CacheInfo.ClusterHit || res.CacheInfo.PlaceHit {
		t.Error("refresh run should not hit the cluster or place cache")
	}
}

func TestExecute_Deterministic(t *testing.T) {
	runner := NewRunner(nil, nil, log.NewWithOptions(io.Discard, log.Options{}))
	ctx := context.Background()

	a, err := runner.Execute(ctx, testOptions(t))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	b, err := runner.Execute(ctx, testOptions(t))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !bytes.Equal(a.Artifacts[FormatSVG], b.Artifacts[FormatSVG]) {
		t.Error("identical inputs produced different SVG bytes")
	}
	if a.PlacementHash != b.PlacementHash {
		t.Error("identical inputs produced different placement hashes")
	}
}

func TestExecute_DOTFormat(t *testing.T) {
	runner := NewRunner(nil, nil, log.NewWithOptions(io.Discard, log.Options{}))

	opts := testOptions(t)
	opts.Formats = []string{FormatDOT, FormatJSON}
	res, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(string(res.Artifacts[FormatDOT]), "digraph") {
		t.Error("DOT artifact is not a digraph")
	}
	if !strings.Contains(string(res.Artifacts[FormatJSON]), `"points"`) {
		t.Error("JSON artifact missing points")
	}
}

func TestExecute_InvalidOptions(t *testing.T) {
	runner := NewRunner(nil, nil, log.NewWithOptions(io.Discard, log.Options{}))
	ctx := context.Background()

	if _, err := runner.Execute(ctx, Options{}); err == nil {
		t.Error("Execute() without matrices should fail")
	}

	opts := testOptions(t)
	opts.Formats = []string{"gif"}
	if _, err := runner.Execute(ctx, opts); err == nil {
		t.Error("Execute() with unknown format should fail")
	}

	opts = testOptions(t)
	opts.Linkage = "ward"
	if _, err := runner.Execute(ctx, opts); err == nil {
		t.Error("Execute() with unknown linkage should fail")
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	opts := testOptions(t)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if opts.Linkage != DefaultLinkage {
		t.Errorf("Linkage = %q, want %q", opts.Linkage, DefaultLinkage)
	}
	if opts.Unit != DefaultUnit {
		t.Errorf("Unit = %g, want %g", opts.Unit, DefaultUnit)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Style != DefaultStyle {
		t.Errorf("Style = %q, want %q", opts.Style, DefaultStyle)
	}
}
