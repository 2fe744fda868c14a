package dendro

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

// buildSix assembles the tree ((J,T),Y),(N,(O,Q)) with distinct join sims.
func buildSix(t *testing.T) *Tree {
	t.Helper()
	b, err := NewBuilder([]string{"J", "T", "Y", "N", "O", "Q"})
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	jt, _ := b.Join(0, 1, 0.9)
	jty, _ := b.Join(jt, 2, 0.7)
	oq, _ := b.Join(4, 5, 0.8)
	noq, _ := b.Join(3, oq, 0.6)
	if _, err := b.Join(jty, noq, 0.3); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	tree, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	return tree
}

func TestBuilder_TreeShape(t *testing.T) {
	tree := buildSix(t)

	if tree.LeafCount() != 6 {
		t.Errorf("LeafCount() = %d, want 6", tree.LeafCount())
	}
	// n leaves means n-1 joins.
	if got := tree.NodeCount() - tree.LeafCount(); got != 5 {
		t.Errorf("internal nodes = %d, want 5", got)
	}
	root := tree.Root()
	if tree.Members(root).Count() != 6 {
		t.Errorf("root covers %d members, want 6", tree.Members(root).Count())
	}
}

func TestBuilder_ChildMemberUnion(t *testing.T) {
	tree := buildSix(t)

	tree.WalkPost(func(id NodeID) {
		if tree.IsLeaf(id) {
			return
		}
		union := tree.Members(tree.Left(id)).Union(tree.Members(tree.Right(id)))
		if !union.Equal(tree.Members(id)) {
			t.Errorf("node %d members != union of children", id)
		}
		if !tree.Members(tree.Left(id)).Disjoint(tree.Members(tree.Right(id))) {
			t.Errorf("node %d children overlap", id)
		}
	})
}

func TestBuilder_RejectsReuse(t *testing.T) {
	b, _ := NewBuilder([]string{"A", "B", "C"})
	b.Join(0, 1, 0.5)
	if _, err := b.Join(0, 2, 0.4); !errors.Is(err, ErrBadChild) {
		t.Errorf("Join() error = %v, want ErrBadChild", err)
	}
}

func TestBuilder_FinishIncomplete(t *testing.T) {
	b, _ := NewBuilder([]string{"A", "B", "C"})
	b.Join(0, 1, 0.5)
	if _, err := b.Finish(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Finish() error = %v, want ErrIncomplete", err)
	}
}

func TestFindExact(t *testing.T) {
	tree := buildSix(t)

	// {J,T} is a node; its sim is returned exactly.
	sim, ok := tree.FindExact(NewSet(0, 1))
	if !ok || sim != 0.9 {
		t.Errorf("FindExact({J,T}) = %g, %v; want 0.9, true", sim, ok)
	}
	// {J,Y} is not a node even though both are under a common ancestor.
	if _, ok := tree.FindExact(NewSet(0, 2)); ok {
		t.Error("FindExact({J,Y}) matched, want no match")
	}
	// Subset of a node is not a match.
	if _, ok := tree.FindExact(NewSet(0, 1, 3)); ok {
		t.Error("FindExact() matched a non-node set")
	}
}

func TestMemberLabels_Sorted(t *testing.T) {
	tree := buildSix(t)
	got := tree.MemberLabels(NewSet(5, 0, 3))
	if !reflect.DeepEqual(got, []string{"J", "N", "Q"}) {
		t.Errorf("MemberLabels() = %v", got)
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	tree := buildSix(t)

	data, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var back Tree
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !reflect.DeepEqual(back.Labels(), tree.Labels()) {
		t.Errorf("labels = %v, want %v", back.Labels(), tree.Labels())
	}
	sim, ok := back.FindExact(NewSet(0, 1))
	if !ok || sim != 0.9 {
		t.Errorf("FindExact({J,T}) after round trip = %g, %v", sim, ok)
	}
	if back.Root() != tree.Root() {
		t.Errorf("root = %d, want %d", back.Root(), tree.Root())
	}
}

func TestJSON_RejectsOverlap(t *testing.T) {
	in := `{"labels":["A","B"],"joins":[{"sim":0.5,"left":0,"right":0}]}`
	var tree Tree
	if err := json.Unmarshal([]byte(in), &tree); err == nil {
		t.Error("Unmarshal() should reject a join with duplicate children")
	}
}
