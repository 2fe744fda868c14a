package simmat

import (
	"encoding/json"
	"fmt"
)

// matrixJSON is the wire form of a Matrix.
type matrixJSON struct {
	Labels []string    `json:"labels"`
	Values [][]float64 `json:"values"`
}

// MarshalJSON encodes the matrix as {"labels": [...], "values": [[...], ...]}.
func (m *Matrix) MarshalJSON() ([]byte, error) {
	n := len(m.labels)
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = append([]float64(nil), m.vals[i*n:(i+1)*n]...)
	}
	return json.Marshal(matrixJSON{Labels: m.labels, Values: rows})
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON.
func (m *Matrix) UnmarshalJSON(data []byte) error {
	var w matrixJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	built, err := New(w.Labels)
	if err != nil {
		return err
	}
	n := built.Len()
	if len(w.Values) != n {
		return fmt.Errorf("matrix has %d labels but %d rows", n, len(w.Values))
	}
	for i, row := range w.Values {
		if len(row) != n {
			return fmt.Errorf("row %d has %d values, want %d", i, len(row), n)
		}
		copy(built.vals[i*n:(i+1)*n], row)
	}
	*m = *built
	return nil
}
