// Package dendro provides immutable binary clustering trees (dendrograms).
//
// A Tree is an arena of nodes addressed by NodeID: the first LeafCount nodes
// are the leaves (one per entity label, in label order), every later node is
// an internal join carrying the similarity at which its two children were
// merged. Member sets are bitsets over leaf indices, so set equality during
// similarity resolution is a handful of word compares.
//
// Trees are built once, either agglomeratively from a similarity matrix
// (Build) or explicitly through a Builder, and are never mutated afterwards.
package dendro

import (
	"errors"
	"fmt"
	"sort"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnknownLabel indicates a label the tree has no leaf for.
	ErrUnknownLabel = errors.New("unknown label")

	// ErrBadChild indicates a join referencing a node id that doesn't exist
	// or that already has a parent.
	ErrBadChild = errors.New("invalid child reference")

	// ErrNotDisjoint indicates a join whose children share members.
	ErrNotDisjoint = errors.New("child member sets overlap")

	// ErrIncomplete indicates a finished tree that doesn't join all leaves
	// under a single root.
	ErrIncomplete = errors.New("tree does not cover all leaves under one root")
)

// =============================================================================
// TREE
// =============================================================================

// NodeID addresses a node within a Tree's arena.
type NodeID int32

// None marks an absent child reference.
const None NodeID = -1

type node struct {
	sim     float64
	left    NodeID
	right   NodeID
	members Set
}

// Tree is an immutable binary clustering tree over a fixed label set.
type Tree struct {
	labels []string
	index  map[string]int
	nodes  []node
	root   NodeID
}

// Labels returns a copy of the leaf labels in leaf-index order.
func (t *Tree) Labels() []string {
	return append([]string(nil), t.labels...)
}

// LabelIndex returns the leaf index for a label.
func (t *Tree) LabelIndex(label string) (int, bool) {
	i, ok := t.index[label]
	return i, ok
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() int { return len(t.labels) }

// NodeCount returns the total number of nodes, leaves included.
func (t *Tree) NodeCount() int { return len(t.nodes) }

// Root returns the root node id.
func (t *Tree) Root() NodeID { return t.root }

// IsLeaf reports whether the node is a leaf.
func (t *Tree) IsLeaf(id NodeID) bool { return int(id) < len(t.labels) }

// Label returns the entity label of a leaf node.
func (t *Tree) Label(id NodeID) string { return t.labels[id] }

// Sim returns the join similarity of an internal node.
func (t *Tree) Sim(id NodeID) float64 { return t.nodes[id].sim }

// Left returns the left child, or None for leaves.
func (t *Tree) Left(id NodeID) NodeID { return t.nodes[id].left }

// Right returns the right child, or None for leaves.
func (t *Tree) Right(id NodeID) NodeID { return t.nodes[id].right }

// Members returns the node's member set. The returned Set is shared with the
// tree and must not be modified.
func (t *Tree) Members(id NodeID) Set { return t.nodes[id].members }

// MemberLabels returns the labels for a member set in lexicographic order.
func (t *Tree) MemberLabels(s Set) []string {
	idx := s.Members()
	out := make([]string, len(idx))
	for i, m := range idx {
		out[i] = t.labels[m]
	}
	sort.Strings(out)
	return out
}

// WalkPost visits every node in post-order (children before parents).
func (t *Tree) WalkPost(fn func(id NodeID)) {
	var walk func(id NodeID)
	walk = func(id NodeID) {
		if !t.IsLeaf(id) {
			walk(t.nodes[id].left)
			walk(t.nodes[id].right)
		}
		fn(id)
	}
	if t.root != None {
		walk(t.root)
	}
}

// FindExact scans the internal nodes for one whose member set equals s and
// returns its join similarity. Equality is exact, never subset or superset.
func (t *Tree) FindExact(s Set) (float64, bool) {
	for i := len(t.labels); i < len(t.nodes); i++ {
		if t.nodes[i].members.Equal(s) {
			return t.nodes[i].sim, true
		}
	}
	return 0, false
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder assembles a Tree bottom-up. Leaves exist from the start, one per
// label; Join adds internal nodes; Finish validates and seals the tree.
type Builder struct {
	tree      *Tree
	hasParent []bool
}

// NewBuilder creates a builder with one leaf per label.
func NewBuilder(labels []string) (*Builder, error) {
	if len(labels) == 0 {
		return nil, errors.New("tree requires at least one label")
	}
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		if _, dup := index[l]; dup {
			return nil, fmt.Errorf("duplicate label %q", l)
		}
		index[l] = i
	}
	t := &Tree{
		labels: append([]string(nil), labels...),
		index:  index,
		nodes:  make([]node, len(labels)),
		root:   None,
	}
	for i := range labels {
		t.nodes[i] = node{left: None, right: None, members: NewSet(i)}
	}
	return &Builder{tree: t, hasParent: make([]bool, len(labels))}, nil
}

// Join adds an internal node over two parentless nodes at the given
// similarity and returns its id.
func (b *Builder) Join(left, right NodeID, sim float64) (NodeID, error) {
	for _, c := range []NodeID{left, right} {
		if c < 0 || int(c) >= len(b.tree.nodes) {
			return None, fmt.Errorf("%w: node %d", ErrBadChild, c)
		}
		if b.hasParent[c] {
			return None, fmt.Errorf("%w: node %d already joined", ErrBadChild, c)
		}
	}
	lm, rm := b.tree.nodes[left].members, b.tree.nodes[right].members
	if !lm.Disjoint(rm) {
		return None, ErrNotDisjoint
	}
	id := NodeID(len(b.tree.nodes))
	b.tree.nodes = append(b.tree.nodes, node{
		sim:     sim,
		left:    left,
		right:   right,
		members: lm.Union(rm),
	})
	b.hasParent[left] = true
	b.hasParent[right] = true
	b.hasParent = append(b.hasParent, false)
	return id, nil
}

// Finish validates that exactly one parentless node remains and that it
// covers every leaf, then returns the sealed tree.
func (b *Builder) Finish() (*Tree, error) {
	root := None
	for i, joined := range b.hasParent {
		if !joined {
			if root != None {
				return nil, ErrIncomplete
			}
			root = NodeID(i)
		}
	}
	if root == None || b.tree.nodes[root].members.Count() != len(b.tree.labels) {
		return nil, ErrIncomplete
	}
	b.tree.root = root
	return b.tree, nil
}
