package dendro

import (
	"fmt"
	"strings"

	"github.com/accviz/accviz/pkg/simmat"
)

// Linkage selects how cluster-to-cluster similarity is derived when two
// clusters merge during agglomerative construction.
type Linkage string

const (
	// Average is UPGMA: the size-weighted mean of the merged clusters'
	// similarities to every other cluster.
	Average Linkage = "average"
	// Single takes the maximum similarity (nearest members).
	Single Linkage = "single"
	// Complete takes the minimum similarity (farthest members).
	Complete Linkage = "complete"
)

// ParseLinkage parses a linkage method name.
func ParseLinkage(s string) (Linkage, error) {
	switch strings.ToLower(s) {
	case string(Average), "upgma":
		return Average, nil
	case string(Single):
		return Single, nil
	case string(Complete):
		return Complete, nil
	default:
		return "", fmt.Errorf("unknown linkage %q (want average, single, or complete)", s)
	}
}

// Build runs agglomerative clustering over the similarity matrix and returns
// the resulting tree. At every step the most similar active pair merges;
// ties break toward the earliest-created pair so identical inputs always
// yield the identical tree.
func Build(m *simmat.Matrix, link Linkage) (*Tree, error) {
	switch link {
	case Average, Single, Complete:
	default:
		return nil, fmt.Errorf("unknown linkage %q", link)
	}

	b, err := NewBuilder(m.Labels())
	if err != nil {
		return nil, err
	}
	n := m.Len()

	type active struct {
		id   NodeID
		size int
	}
	clusters := make([]active, n)
	for i := 0; i < n; i++ {
		clusters[i] = active{id: NodeID(i), size: 1}
	}
	// sims[i][j] is the similarity between active clusters i and j under the
	// current ordering of the clusters slice.
	sims := make([][]float64, n)
	for i := range sims {
		sims[i] = make([]float64, n)
		for j := range sims[i] {
			sims[i][j] = m.At(i, j)
		}
	}

	for len(clusters) > 1 {
		bi, bj := 0, 1
		best := sims[0][1]
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				if sims[i][j] > best {
					best, bi, bj = sims[i][j], i, j
				}
			}
		}

		id, err := b.Join(clusters[bi].id, clusters[bj].id, best)
		if err != nil {
			return nil, err
		}
		merged := active{id: id, size: clusters[bi].size + clusters[bj].size}

		// Similarities of the merged cluster to every survivor.
		mergedSims := make([]float64, 0, len(clusters)-2)
		for k := range clusters {
			if k == bi || k == bj {
				continue
			}
			var s float64
			switch link {
			case Average:
				wi := float64(clusters[bi].size)
				wj := float64(clusters[bj].size)
				s = (wi*sims[bi][k] + wj*sims[bj][k]) / (wi + wj)
			case Single:
				s = max(sims[bi][k], sims[bj][k])
			case Complete:
				s = min(sims[bi][k], sims[bj][k])
			}
			mergedSims = append(mergedSims, s)
		}

		// Compact: drop bi and bj, append the merged cluster at the end.
		next := make([]active, 0, len(clusters)-1)
		keep := make([]int, 0, len(clusters)-2)
		for k := range clusters {
			if k != bi && k != bj {
				next = append(next, clusters[k])
				keep = append(keep, k)
			}
		}
		next = append(next, merged)

		nn := len(next)
		nsims := make([][]float64, nn)
		for i := range nsims {
			nsims[i] = make([]float64, nn)
		}
		for a, ka := range keep {
			for c, kc := range keep {
				nsims[a][c] = sims[ka][kc]
			}
			nsims[a][nn-1] = mergedSims[a]
			nsims[nn-1][a] = mergedSims[a]
		}
		clusters, sims = next, nsims
	}

	return b.Finish()
}
