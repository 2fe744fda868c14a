package dendro

import (
	"encoding/json"
	"fmt"
	"os"
)

// treeJSON is the wire form of a Tree. Leaves are implicit: node ids below
// len(labels) reference leaves in label order, ids at or above it reference
// joins in listed order.
type treeJSON struct {
	Labels []string   `json:"labels"`
	Joins  []joinJSON `json:"joins"`
}

type joinJSON struct {
	Sim   float64 `json:"sim"`
	Left  NodeID  `json:"left"`
	Right NodeID  `json:"right"`
}

// MarshalJSON encodes the tree as its label list plus the join sequence.
func (t *Tree) MarshalJSON() ([]byte, error) {
	w := treeJSON{Labels: t.labels}
	for i := len(t.labels); i < len(t.nodes); i++ {
		n := t.nodes[i]
		w.Joins = append(w.Joins, joinJSON{Sim: n.sim, Left: n.left, Right: n.right})
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes and validates the wire form produced by MarshalJSON.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var w treeJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	b, err := NewBuilder(w.Labels)
	if err != nil {
		return err
	}
	for i, j := range w.Joins {
		if _, err := b.Join(j.Left, j.Right, j.Sim); err != nil {
			return fmt.Errorf("join %d: %w", i, err)
		}
	}
	built, err := b.Finish()
	if err != nil {
		return err
	}
	*t = *built
	return nil
}

// MarshalJSON encodes the set as its sorted member index list, so member
// sets survive serialization of anything embedding them.
func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Members())
}

// UnmarshalJSON decodes the index list produced by MarshalJSON.
func (s *Set) UnmarshalJSON(data []byte) error {
	var indices []int
	if err := json.Unmarshal(data, &indices); err != nil {
		return err
	}
	*s = NewSet(indices...)
	return nil
}

// WriteFile writes the tree as indented JSON.
func (t *Tree) WriteFile(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ReadFile reads a tree written by WriteFile.
func ReadFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &t, nil
}
