package placement

import (
	"math"
	"testing"

	"github.com/accviz/accviz/pkg/dendro"
	"github.com/accviz/accviz/pkg/errors"
	"github.com/accviz/accviz/pkg/simmat"
)

func threeTree(t *testing.T, labels []string, firstPair [2]dendro.NodeID, firstSim, rootSim float64) *dendro.Tree {
	t.Helper()
	b, err := dendro.NewBuilder(labels)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	inner, err := b.Join(firstPair[0], firstPair[1], firstSim)
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	third := dendro.NodeID(3 - firstPair[0] - firstPair[1])
	if _, err := b.Join(inner, third, rootSim); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	tree, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	return tree
}

func TestResolve_ExactMatchWins(t *testing.T) {
	labels := []string{"A", "B", "C"}
	local := threeTree(t, labels, [2]dendro.NodeID{0, 1}, 0.9, 0.3)
	global := threeTree(t, labels, [2]dendro.NodeID{0, 1}, 0.88, 0.25)
	m, _ := simmat.New(labels)
	// A deliberately different pairwise value: the exact match must win.
	m.Set("A", "B", 0.1)

	r, err := NewResolver(local, global, m)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	sim, err := r.Resolve(dendro.NewSet(0, 1))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if sim != 0.88 {
		t.Errorf("Resolve({A,B}) = %g, want the global node's 0.88", sim)
	}
}

func TestResolve_PairwiseFallback(t *testing.T) {
	labels := []string{"A", "B", "C", "D"}
	bl, _ := dendro.NewBuilder(labels)
	ab, _ := bl.Join(0, 1, 0.9)
	abc, _ := bl.Join(ab, 2, 0.7)
	bl.Join(abc, 3, 0.2)
	local, _ := bl.Finish()

	// Global tree groups differently so {A,B,C} has no exact match.
	bg, _ := dendro.NewBuilder(labels)
	cd, _ := bg.Join(2, 3, 0.8)
	acd, _ := bg.Join(0, cd, 0.5)
	bg.Join(acd, 1, 0.2)
	global, _ := bg.Finish()

	m, _ := simmat.New(labels)
	m.Set("A", "B", 0.6)
	m.Set("A", "C", 0.3)
	m.Set("B", "C", 0.9)

	r, err := NewResolver(local, global, m)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	sim, err := r.Resolve(dendro.NewSet(0, 1, 2))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	want := (0.6 + 0.3 + 0.9) / 3
	if math.Abs(sim-want) > eps {
		t.Errorf("Resolve({A,B,C}) = %g, want mean %g", sim, want)
	}
}

func TestResolve_TooFewMembers(t *testing.T) {
	labels := []string{"A", "B", "C"}
	local := threeTree(t, labels, [2]dendro.NodeID{0, 1}, 0.9, 0.3)
	global := threeTree(t, labels, [2]dendro.NodeID{1, 2}, 0.8, 0.3)
	m, _ := simmat.New(labels)

	r, _ := NewResolver(local, global, m)
	_, err := r.Resolve(dendro.NewSet(0))
	if !errors.Is(err, errors.ErrCodeLookup) {
		t.Errorf("Resolve() error = %v, want LOOKUP_ERROR", err)
	}
}

func TestNewResolver_LabelMismatch(t *testing.T) {
	local := threeTree(t, []string{"A", "B", "C"}, [2]dendro.NodeID{0, 1}, 0.9, 0.3)
	global := threeTree(t, []string{"A", "B", "X"}, [2]dendro.NodeID{0, 1}, 0.9, 0.3)
	m, _ := simmat.New([]string{"A", "B", "C"})

	_, err := NewResolver(local, global, m)
	if !errors.Is(err, errors.ErrCodeStructural) {
		t.Errorf("NewResolver() error = %v, want STRUCTURAL_ERROR", err)
	}
}

func TestNewResolver_MatrixMissingEntity(t *testing.T) {
	labels := []string{"A", "B", "C"}
	local := threeTree(t, labels, [2]dendro.NodeID{0, 1}, 0.9, 0.3)
	global := threeTree(t, labels, [2]dendro.NodeID{0, 1}, 0.9, 0.3)
	m, _ := simmat.New([]string{"A", "B"})

	_, err := NewResolver(local, global, m)
	if !errors.Is(err, errors.ErrCodeLookup) {
		t.Errorf("NewResolver() error = %v, want LOOKUP_ERROR", err)
	}
}

func TestDecorate(t *testing.T) {
	labels := []string{"A", "B", "C"}
	local := threeTree(t, labels, [2]dendro.NodeID{0, 1}, 0.9, 0.3)
	global := threeTree(t, labels, [2]dendro.NodeID{0, 1}, 0.88, 0.3)
	m, _ := simmat.New(labels)
	r, _ := NewResolver(local, global, m)

	c := Extract(local)[0] // {A,B}, simLocal 0.9
	if err := Decorate(c, r, 1.0); err != nil {
		t.Fatalf("Decorate() error = %v", err)
	}
	if c.SimGlobal != 0.88 {
		t.Errorf("SimGlobal = %g, want 0.88", c.SimGlobal)
	}
	if want := 1.0 / 0.88; math.Abs(c.Diameter-want) > eps {
		t.Errorf("Diameter = %g, want %g", c.Diameter, want)
	}
	if c.Theta != 18.0 {
		t.Errorf("Theta = %g, want 18.0", c.Theta)
	}
}

func TestDecorate_ZeroSimilarityIsDomainError(t *testing.T) {
	labels := []string{"A", "B", "C"}
	local := threeTree(t, labels, [2]dendro.NodeID{0, 1}, 0.9, 0.3)
	// {A,B} is not a global node, and the matrix holds no A-B entry, so the
	// fallback mean is 0.
	global := threeTree(t, labels, [2]dendro.NodeID{1, 2}, 0.8, 0.3)
	m, _ := simmat.New(labels)
	r, _ := NewResolver(local, global, m)

	c := Extract(local)[0]
	err := Decorate(c, r, 1.0)
	if !errors.Is(err, errors.ErrCodeDomain) {
		t.Errorf("Decorate() error = %v, want DOMAIN_ERROR", err)
	}
}
