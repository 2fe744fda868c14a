package dendro

import (
	"reflect"
	"testing"

	"github.com/accviz/accviz/pkg/simmat"
)

func threeEntityMatrix(t *testing.T) *simmat.Matrix {
	t.Helper()
	m, err := simmat.New([]string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("simmat.New() error = %v", err)
	}
	m.Set("A", "B", 0.9)
	m.Set("A", "C", 0.2)
	m.Set("B", "C", 0.4)
	return m
}

func TestBuild_Average(t *testing.T) {
	tree, err := Build(threeEntityMatrix(t), Average)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// A and B merge first at 0.9.
	sim, ok := tree.FindExact(NewSet(0, 1))
	if !ok || sim != 0.9 {
		t.Errorf("FindExact({A,B}) = %g, %v; want 0.9, true", sim, ok)
	}
	// UPGMA joins {A,B} with C at (0.2+0.4)/2.
	root := tree.Root()
	if got, want := tree.Sim(root), 0.3; got != want {
		t.Errorf("root sim = %g, want %g", got, want)
	}
	if got := tree.NodeCount() - tree.LeafCount(); got != 2 {
		t.Errorf("internal nodes = %d, want 2", got)
	}
}

func TestBuild_SingleAndComplete(t *testing.T) {
	m := threeEntityMatrix(t)

	single, err := Build(m, Single)
	if err != nil {
		t.Fatalf("Build(single) error = %v", err)
	}
	if got := single.Sim(single.Root()); got != 0.4 {
		t.Errorf("single-linkage root sim = %g, want 0.4", got)
	}

	complete, err := Build(m, Complete)
	if err != nil {
		t.Fatalf("Build(complete) error = %v", err)
	}
	if got := complete.Sim(complete.Root()); got != 0.2 {
		t.Errorf("complete-linkage root sim = %g, want 0.2", got)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	m, _ := simmat.New([]string{"A", "B", "C", "D"})
	// All pairs tie: the merge order must still be reproducible.
	for _, p := range [][2]string{{"A", "B"}, {"A", "C"}, {"A", "D"}, {"B", "C"}, {"B", "D"}, {"C", "D"}} {
		m.Set(p[0], p[1], 0.5)
	}

	t1, err := Build(m, Average)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	t2, err := Build(m, Average)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !reflect.DeepEqual(t1, t2) {
		t.Error("two builds over identical input produced different trees")
	}
	// Ties resolve toward the earliest pair: A joins B first.
	sim, ok := t1.FindExact(NewSet(0, 1))
	if !ok || sim != 0.5 {
		t.Errorf("FindExact({A,B}) = %g, %v; want 0.5, true", sim, ok)
	}
}

func TestBuild_UnknownLinkage(t *testing.T) {
	if _, err := Build(threeEntityMatrix(t), Linkage("ward")); err == nil {
		t.Error("Build() should reject unknown linkage")
	}
}

func TestParseLinkage(t *testing.T) {
	got, err := ParseLinkage("UPGMA")
	if err != nil || got != Average {
		t.Errorf("ParseLinkage(UPGMA) = %v, %v", got, err)
	}
	if _, err := ParseLinkage("ward"); err == nil {
		t.Error("ParseLinkage(ward) should fail")
	}
}
