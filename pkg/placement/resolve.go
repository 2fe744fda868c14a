package placement

import (
	"strings"

	"github.com/accviz/accviz/pkg/dendro"
	"github.com/accviz/accviz/pkg/errors"
	"github.com/accviz/accviz/pkg/simmat"
)

// Resolver resolves a member set (in local-tree index space) to its global
// similarity: an exact member-set match in the global tree wins; otherwise
// the arithmetic mean of the pairwise matrix entries over the set.
//
// Construction validates that every local leaf exists in both the global
// tree and the matrix, so resolution itself can only fail on degenerate
// member sets.
type Resolver struct {
	matrix *simmat.Matrix
	global *dendro.Tree

	// local leaf index → global leaf index / matrix index
	toGlobal []int
	toMatrix []int
	labels   []string
}

// NewResolver builds a resolver over the three read-only inputs. The local
// and global trees and the matrix must cover the same label set; a label
// present in the local tree but missing from the global tree is a
// structural error, one missing from the matrix is a lookup error.
func NewResolver(local, global *dendro.Tree, matrix *simmat.Matrix) (*Resolver, error) {
	if local.LeafCount() != global.LeafCount() {
		return nil, errors.New(errors.ErrCodeStructural,
			"local tree has %d leaves, global tree has %d", local.LeafCount(), global.LeafCount())
	}
	labels := local.Labels()
	r := &Resolver{
		matrix:   matrix,
		global:   global,
		toGlobal: make([]int, len(labels)),
		toMatrix: make([]int, len(labels)),
		labels:   labels,
	}
	for i, l := range labels {
		gi, ok := global.LabelIndex(l)
		if !ok {
			return nil, errors.New(errors.ErrCodeStructural,
				"entity %q is in the local tree but not the global tree", l)
		}
		r.toGlobal[i] = gi
		mi, ok := matrix.Index(l)
		if !ok {
			return nil, errors.New(errors.ErrCodeLookup,
				"entity %q is in the local tree but not the similarity matrix", l)
		}
		r.toMatrix[i] = mi
	}
	return r, nil
}

// Resolve returns the global similarity for a member set over local leaf
// indices. Sets with fewer than two members have no pairwise fallback and
// fail with a lookup error.
func (r *Resolver) Resolve(members dendro.Set) (float64, error) {
	idx := members.Members()
	if len(idx) < 2 {
		return 0, errors.New(errors.ErrCodeLookup,
			"cannot resolve similarity for %d member(s)", len(idx))
	}

	var globalSet dendro.Set
	for _, i := range idx {
		globalSet.Add(r.toGlobal[i])
	}
	if sim, ok := r.global.FindExact(globalSet); ok {
		return sim, nil
	}

	// Pairwise fallback: mean over all unordered pairs.
	var sum float64
	var pairs int
	for a := 0; a < len(idx); a++ {
		for b := a + 1; b < len(idx); b++ {
			sum += r.matrix.At(r.toMatrix[idx[a]], r.toMatrix[idx[b]])
			pairs++
		}
	}
	return sum / float64(pairs), nil
}

// PairSim returns the matrix similarity between two labeled entities.
// The engine's anchor scans go through here.
func (r *Resolver) PairSim(a, b string) (float64, error) {
	v, err := r.matrix.Get(a, b)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeLookup, err, "pair %s-%s", a, b)
	}
	return v, nil
}

func memberList(labels []string) string {
	return strings.Join(labels, ",")
}
