package placement

import "github.com/accviz/accviz/pkg/errors"

// Decorate resolves a stub's global similarity and derives its geometry:
// diameter = unit / simGlobal, theta = 180 * (1 - simLocal) degrees.
// A non-positive resolved similarity leaves the diameter undefined and is a
// domain error.
func Decorate(c *Cluster, r *Resolver, unit float64) error {
	sim, err := r.Resolve(c.Members)
	if err != nil {
		return errors.Wrap(errors.GetCode(err), err, "decorate cluster {%s}", memberList(c.Labels))
	}
	if sim <= 0 {
		return errors.New(errors.ErrCodeDomain,
			"cluster {%s} resolved to similarity %g, diameter undefined", memberList(c.Labels), sim)
	}
	c.SimGlobal = sim
	c.Diameter = unit / sim
	c.Theta = 180 * (1 - c.SimLocal)
	return nil
}
