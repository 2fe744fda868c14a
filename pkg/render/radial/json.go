package radial

import (
	"encoding/json"

	"github.com/accviz/accviz/pkg/placement"
)

// RenderJSON serializes a placement result as indented JSON: the final
// cluster with its per-entity coordinates plus the recorded step trail.
// Map keys are emitted sorted, so identical results yield identical bytes.
func RenderJSON(res *placement.Result) ([]byte, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
