package placement

import (
	"sort"

	"github.com/accviz/accviz/pkg/dendro"
	"github.com/accviz/accviz/pkg/errors"
	"github.com/accviz/accviz/pkg/simmat"
)

// referenceMidline is the orientation every structure is seeded and
// re-referenced against: straight up.
const referenceMidline = 0.0

// Options configure a placement run.
type Options struct {
	// Unit is the scale constant in diameter = unit / simGlobal.
	// Zero means 1.0.
	Unit float64
}

// Action names the placement operation a step performed.
type Action string

const (
	ActionSeed  Action = "seed"
	ActionAdd   Action = "add"
	ActionMerge Action = "merge"
)

// Step records the engine state after one placement operation. Structures
// holds deep snapshots of every independently-placed structure at that
// moment; the step viewer replays these.
type Step struct {
	Action     Action     `json:"action"`
	Added      []string   `json:"added"`
	Structures []*Cluster `json:"structures"`
}

// Result is the output of a placement run: the final cluster covering every
// entity, plus the step trail that produced it.
type Result struct {
	Final *Cluster `json:"final"`
	Steps []Step   `json:"steps"`
}

// Place runs the full placement: extract, decorate, sort, seed, absorb.
// The inputs are read-only; identical inputs produce identical output
// coordinates.
func Place(local, global *dendro.Tree, matrix *simmat.Matrix, opts Options) (*Result, error) {
	unit := opts.Unit
	if unit == 0 {
		unit = 1.0
	}
	if unit < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unit must be positive, got %g", unit)
	}

	resolver, err := NewResolver(local, global, matrix)
	if err != nil {
		return nil, err
	}

	clusters := Extract(local)

	// Singleton clusters carry no intrinsic geometry. Extraction only emits
	// internal nodes, so this never fires on a well-formed tree.
	kept := clusters[:0]
	for _, c := range clusters {
		if c.Members.Count() >= 2 {
			kept = append(kept, c)
		}
	}
	clusters = kept
	if len(clusters) == 0 {
		return nil, errors.New(errors.ErrCodeStructural, "local tree has no multi-member clusters")
	}

	for _, c := range clusters {
		if err := Decorate(c, resolver, unit); err != nil {
			return nil, err
		}
	}

	// Strongest local similarity first; the stable sort keeps extraction
	// order on ties, which with post-order extraction guarantees children
	// are placed before the parent that joins them.
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].SimLocal > clusters[j].SimLocal
	})

	eng := &engine{resolver: resolver}
	eng.seed(clusters[0])
	for _, c := range clusters[1:] {
		if err := eng.absorb(c); err != nil {
			return nil, err
		}
	}
	if len(eng.structures) != 1 {
		return nil, errors.New(errors.ErrCodeStructural,
			"placement finished with %d disconnected structures", len(eng.structures))
	}
	return &Result{Final: eng.structures[0], Steps: eng.steps}, nil
}

// =============================================================================
// ENGINE
// =============================================================================

// engine holds the mutable state of one placement run: the list of
// independently-placed structures and the recorded steps.
type engine struct {
	resolver   *Resolver
	structures []*Cluster
	steps      []Step
}

func (e *engine) record(action Action, added []string) {
	snaps := make([]*Cluster, len(e.structures))
	for i, s := range e.structures {
		snaps[i] = s.snapshot()
	}
	e.steps = append(e.steps, Step{Action: action, Added: added, Structures: snaps})
}

// seed distributes a decorated cluster's members along an arc of radius
// diameter/2 spanning theta degrees, centered on the reference midline.
// Members are placed in label order from -theta/2 to +theta/2.
func (e *engine) seed(c *Cluster) {
	k := len(c.Labels)
	step := 0.0
	if k > 1 {
		step = c.Theta / float64(k-1)
	}
	start := -c.Theta / 2

	c.Points = make(map[string]Point, k)
	for i, label := range c.Labels {
		c.Points[label] = FromPolar(c.Radius(), start+float64(i)*step)
	}
	c.Center = Point{}
	c.MidlineAngle = referenceMidline

	e.structures = append(e.structures, c)
	e.record(ActionSeed, c.Labels)
}

// absorb dispatches one sorted cluster: a single new entity over an existing
// structure is added to it, the union of two existing structures merges
// them, and a cluster disjoint from everything seeds a new independent
// structure. Anything else means the hierarchy and the built state disagree.
func (e *engine) absorb(c *Cluster) error {
	var covered []int
	for i, s := range e.structures {
		switch {
		case c.Members.ContainsAll(s.Members):
			covered = append(covered, i)
		case !c.Members.Disjoint(s.Members):
			return errors.New(errors.ErrCodeStructural,
				"cluster {%s} partially overlaps a placed structure {%s}",
				memberList(c.Labels), memberList(s.Labels))
		}
	}

	switch len(covered) {
	case 0:
		e.seed(c)
		return nil
	case 1:
		base := e.structures[covered[0]]
		rest := c.Members.Diff(base.Members)
		if rest.Count() != 1 {
			return errors.New(errors.ErrCodeStructural,
				"cluster {%s} adds %d entities to {%s}, want exactly one",
				memberList(c.Labels), rest.Count(), memberList(base.Labels))
		}
		return e.addMember(base, c)
	case 2:
		base, other := e.structures[covered[0]], e.structures[covered[1]]
		if base.Members.Union(other.Members).Count() != c.Members.Count() {
			return errors.New(errors.ErrCodeStructural,
				"cluster {%s} is not the union of structures {%s} and {%s}",
				memberList(c.Labels), memberList(base.Labels), memberList(other.Labels))
		}
		absorbed := other.Labels
		if err := e.merge(base, other, c); err != nil {
			return err
		}
		e.structures = append(e.structures[:covered[1]], e.structures[covered[1]+1:]...)
		e.record(ActionMerge, absorbed)
		return nil
	default:
		return errors.New(errors.ErrCodeStructural,
			"cluster {%s} spans %d placed structures", memberList(c.Labels), len(covered))
	}
}

// addMember places one new entity into base. The anchor is the placed
// member most similar to the newcomer; the new point sits at the decorated
// cluster's own radius, offset from the anchor by the cluster's theta on
// the anchor's side of the midline. Existing coordinates are untouched.
func (e *engine) addMember(base, c *Cluster) error {
	label := ""
	for _, l := range c.Labels {
		if _, placed := base.Points[l]; !placed {
			label = l
			break
		}
	}

	anchor, err := e.anchorFor(base, label)
	if err != nil {
		return err
	}

	anchorAngle := base.Points[anchor].Angle()
	side := 1.0
	if anchorAngle < base.MidlineAngle {
		side = -1.0
	}
	base.Points[label] = FromPolar(c.Radius(), anchorAngle+side*c.Theta)

	base.Members = c.Members
	base.Labels = c.Labels
	base.SimLocal = c.SimLocal
	base.SimGlobal = c.SimGlobal
	base.Diameter = c.Diameter
	base.Theta = c.Theta
	base.Center = Point{}
	base.MidlineAngle = referenceMidline
	e.record(ActionAdd, []string{label})
	return nil
}

// anchorFor returns the placed member of base with maximum matrix
// similarity to the new entity; ties go to the lowest label.
func (e *engine) anchorFor(base *Cluster, newLabel string) (string, error) {
	anchor := ""
	best := -1.0
	for _, l := range base.PlacedLabels() {
		sim, err := e.resolver.PairSim(l, newLabel)
		if err != nil {
			return "", err
		}
		if sim > best {
			best, anchor = sim, l
		}
	}
	return anchor, nil
}

// merge aligns other's angular frame to base's and unions the point maps.
// The anchor pair is the most similar cross pair; other is rotated as a
// rigid frame so the pair ends up separated by the merged cluster's theta,
// on the base anchor's side of the midline. No radius changes, and none of
// base's coordinates move.
func (e *engine) merge(base, other, c *Cluster) error {
	p, q, err := e.anchorPair(base, other)
	if err != nil {
		return err
	}

	pAngle := base.Points[p].Angle()
	side := 1.0
	if pAngle < base.MidlineAngle {
		side = -1.0
	}
	rotation := pAngle + side*c.Theta - other.Points[q].Angle()

	for _, l := range other.PlacedLabels() {
		base.Points[l] = other.Points[l].Rotate(rotation)
	}

	base.Members = c.Members
	base.Labels = c.Labels
	base.SimLocal = c.SimLocal
	base.SimGlobal = c.SimGlobal
	base.Diameter = c.Diameter
	base.Theta = c.Theta
	base.Center = Point{}
	base.MidlineAngle = referenceMidline
	return nil
}

// anchorPair returns the cross pair (p in base, q in other) with maximum
// matrix similarity; ties go to the lowest pair in label order.
func (e *engine) anchorPair(base, other *Cluster) (string, string, error) {
	var bestP, bestQ string
	best := -1.0
	for _, p := range base.PlacedLabels() {
		for _, q := range other.PlacedLabels() {
			sim, err := e.resolver.PairSim(p, q)
			if err != nil {
				return "", "", err
			}
			if sim > best {
				best, bestP, bestQ = sim, p, q
			}
		}
	}
	return bestP, bestQ, nil
}
