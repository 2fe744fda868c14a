// Package placement implements the geometric placement engine: it turns two
// hierarchical-clustering trees over the same entities plus a global
// similarity matrix into a 2D coordinate per entity. Angular separation
// encodes local similarity, radial distance encodes global similarity.
//
// The pipeline inside a single Place call is: extract one cluster stub per
// internal node of the local tree, resolve each stub's global similarity
// (exact node match in the global tree, else pairwise matrix mean), derive
// geometry (diameter = unit/simGlobal, theta = 180*(1-simLocal)), sort by
// local similarity descending, seed the strongest cluster on an arc, then
// absorb the rest one at a time by adding a single member, merging two built
// structures, or seeding an independent structure.
//
// Coordinates are immutable once assigned: later steps only rotate whole
// frames into position and insert new points, they never rewrite or rescale
// an existing one.
package placement

import (
	"sort"

	"github.com/accviz/accviz/pkg/dendro"
)

// Cluster is the working record of the engine. Stubs come out of extraction
// with Members and SimLocal set; decoration adds the similarity-derived
// geometry; the engine fills Points incrementally. The final surviving
// Cluster, covering every entity, is the engine's output.
type Cluster struct {
	Members      dendro.Set       `json:"members"`
	Labels       []string         `json:"labels"`
	SimLocal     float64          `json:"sim_local"`
	SimGlobal    float64          `json:"sim_global"`
	Diameter     float64          `json:"diameter"`
	Theta        float64          `json:"theta"`
	Center       Point            `json:"center"`
	MidlineAngle float64          `json:"midline_angle"`
	Points       map[string]Point `json:"points"`
}

// Radius returns half the cluster diameter.
func (c *Cluster) Radius() float64 { return c.Diameter / 2 }

// PlacedLabels returns the labels with assigned coordinates, sorted.
// Anchor scans iterate this instead of the Points map so ties always
// resolve to the lexicographically lowest label.
func (c *Cluster) PlacedLabels() []string {
	out := make([]string, 0, len(c.Points))
	for l := range c.Points {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// snapshot returns a deep copy safe to hand out in step records.
func (c *Cluster) snapshot() *Cluster {
	cp := *c
	cp.Members = c.Members.Clone()
	cp.Labels = append([]string(nil), c.Labels...)
	cp.Points = make(map[string]Point, len(c.Points))
	for l, p := range c.Points {
		cp.Points[l] = p
	}
	return &cp
}

// Extract materializes one Cluster stub per internal node of the local
// tree, in post-order. Leaves are skipped; a tree with n leaves yields n-1
// stubs. Post-order matters for ties downstream: a child joined at the same
// similarity as its parent must be placed first.
func Extract(local *dendro.Tree) []*Cluster {
	var out []*Cluster
	local.WalkPost(func(id dendro.NodeID) {
		if local.IsLeaf(id) {
			return
		}
		members := local.Members(id)
		out = append(out, &Cluster{
			Members:  members,
			Labels:   local.MemberLabels(members),
			SimLocal: local.Sim(id),
		})
	})
	return out
}
