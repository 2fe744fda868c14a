package dendro

import "math/bits"

// Set is a bitset over leaf indices. Member sets of tree nodes are compared
// constantly during similarity resolution and placement dispatch, so they
// are stored as machine words rather than label slices.
type Set struct {
	words []uint64
}

// NewSet returns a set containing the given leaf indices.
func NewSet(indices ...int) Set {
	var s Set
	for _, i := range indices {
		s.Add(i)
	}
	return s
}

// Add inserts a leaf index.
func (s *Set) Add(i int) {
	w := i / 64
	for len(s.words) <= w {
		s.words = append(s.words, 0)
	}
	s.words[w] |= 1 << (i % 64)
}

// Has reports whether the set contains the leaf index.
func (s Set) Has(i int) bool {
	w := i / 64
	return w < len(s.words) && s.words[w]&(1<<(i%64)) != 0
}

// Count returns the number of members.
func (s Set) Count() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Equal reports whether both sets contain exactly the same members.
func (s Set) Equal(o Set) bool {
	long, short := s.words, o.words
	if len(long) < len(short) {
		long, short = short, long
	}
	for i, w := range short {
		if w != long[i] {
			return false
		}
	}
	for _, w := range long[len(short):] {
		if w != 0 {
			return false
		}
	}
	return true
}

// ContainsAll reports whether every member of o is also in s.
func (s Set) ContainsAll(o Set) bool {
	for i, w := range o.words {
		if i >= len(s.words) {
			if w != 0 {
				return false
			}
			continue
		}
		if w&^s.words[i] != 0 {
			return false
		}
	}
	return true
}

// Disjoint reports whether the sets share no member.
func (s Set) Disjoint(o Set) bool {
	n := len(s.words)
	if len(o.words) < n {
		n = len(o.words)
	}
	for i := 0; i < n; i++ {
		if s.words[i]&o.words[i] != 0 {
			return false
		}
	}
	return true
}

// Union returns a new set with the members of both.
func (s Set) Union(o Set) Set {
	long, short := s.words, o.words
	if len(long) < len(short) {
		long, short = short, long
	}
	words := append([]uint64(nil), long...)
	for i, w := range short {
		words[i] |= w
	}
	return Set{words: words}
}

// Diff returns a new set with the members of s that are not in o.
func (s Set) Diff(o Set) Set {
	words := append([]uint64(nil), s.words...)
	for i := range words {
		if i < len(o.words) {
			words[i] &^= o.words[i]
		}
	}
	return Set{words: words}
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	return Set{words: append([]uint64(nil), s.words...)}
}

// Members returns the leaf indices in ascending order.
func (s Set) Members() []int {
	out := make([]int, 0, s.Count())
	for wi, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, wi*64+b)
			w &= w - 1
		}
	}
	return out
}
