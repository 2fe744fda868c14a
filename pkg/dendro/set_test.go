package dendro

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSet_Basics(t *testing.T) {
	s := NewSet(0, 3, 70)

	if s.Count() != 3 {
		t.Errorf("Count() = %d, want 3", s.Count())
	}
	for _, i := range []int{0, 3, 70} {
		if !s.Has(i) {
			t.Errorf("Has(%d) = false", i)
		}
	}
	if s.Has(1) || s.Has(64) {
		t.Error("Has() reported absent members")
	}
	if got := s.Members(); !reflect.DeepEqual(got, []int{0, 3, 70}) {
		t.Errorf("Members() = %v", got)
	}
}

func TestSet_Equal_DifferentWordLengths(t *testing.T) {
	a := NewSet(1, 2)
	b := NewSet(1, 2)
	b.Add(100)
	// Force trailing zero words onto a copy of {1,2}.
	c := NewSet(1, 2, 100)
	c = c.Diff(NewSet(100))

	if !a.Equal(c) || !c.Equal(a) {
		t.Error("sets with trailing zero words should compare equal")
	}
	if a.Equal(b) {
		t.Error("distinct sets should not compare equal")
	}
}

func TestSet_UnionDiffDisjoint(t *testing.T) {
	a := NewSet(0, 1)
	b := NewSet(2, 65)

	if !a.Disjoint(b) {
		t.Error("Disjoint() = false for disjoint sets")
	}
	u := a.Union(b)
	if got := u.Members(); !reflect.DeepEqual(got, []int{0, 1, 2, 65}) {
		t.Errorf("Union() = %v", got)
	}
	if !u.ContainsAll(a) || !u.ContainsAll(b) {
		t.Error("union should contain both inputs")
	}
	if a.ContainsAll(u) {
		t.Error("ContainsAll() should reject a strict superset argument")
	}
	d := u.Diff(a)
	if !d.Equal(b) {
		t.Errorf("Diff() = %v, want %v", d.Members(), b.Members())
	}
}

func TestSet_CloneIsIndependent(t *testing.T) {
	a := NewSet(1)
	b := a.Clone()
	b.Add(2)

	if a.Has(2) {
		t.Error("mutating a clone modified the original")
	}
}

func TestSet_JSONRoundTrip(t *testing.T) {
	s := NewSet(0, 3, 70)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got := string(data); got != "[0,3,70]" {
		t.Errorf("Marshal() = %s, want [0,3,70]", got)
	}

	var restored Set
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !restored.Equal(s) {
		t.Errorf("round trip = %v, want %v", restored.Members(), s.Members())
	}

	var empty Set
	data, err = json.Marshal(empty)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got := string(data); got != "[]" {
		t.Errorf("empty set Marshal() = %s, want []", got)
	}
}
