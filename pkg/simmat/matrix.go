// Package simmat provides symmetric entity-similarity matrices.
//
// A Matrix stores pairwise similarities in [0,1] between a fixed set of
// labeled entities, backed by a flat row-major slice with a label index built
// once at construction. Matrices can be parsed from CSV, computed from
// presence/absence tables (Jaccard or Dice), and validated for the properties
// downstream clustering and placement rely on (symmetry, unit diagonal,
// values in range).
package simmat

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoLabels indicates a matrix was constructed without any entities.
	ErrNoLabels = errors.New("similarity matrix requires at least one label")

	// ErrDuplicateLabel indicates the same entity label appeared twice.
	ErrDuplicateLabel = errors.New("duplicate label")

	// ErrUnknownEntity indicates a lookup for a label the matrix doesn't contain.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrNotSymmetric indicates sim(a,b) != sim(b,a) beyond tolerance.
	ErrNotSymmetric = errors.New("matrix is not symmetric")

	// ErrBadDiagonal indicates a self-similarity entry differs from 1.0.
	ErrBadDiagonal = errors.New("diagonal entry is not 1.0")

	// ErrValueOutOfRange indicates a similarity outside [0,1].
	ErrValueOutOfRange = errors.New("similarity outside [0,1]")
)

// =============================================================================
// MATRIX
// =============================================================================

// Matrix is a symmetric similarity matrix over a fixed label set.
// Values live in a flat row-major slice; lookups by label go through an
// index map built once at construction.
type Matrix struct {
	labels []string
	index  map[string]int
	vals   []float64
}

// New creates an n×n matrix over the given labels, zero-valued except for
// the diagonal which is initialized to 1.0.
func New(labels []string) (*Matrix, error) {
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		if _, dup := index[l]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, l)
		}
		index[l] = i
	}
	n := len(labels)
	m := &Matrix{
		labels: append([]string(nil), labels...),
		index:  index,
		vals:   make([]float64, n*n),
	}
	for i := 0; i < n; i++ {
		m.vals[i*n+i] = 1.0
	}
	return m, nil
}

// Len returns the number of entities.
func (m *Matrix) Len() int { return len(m.labels) }

// Labels returns a copy of the entity labels in index order.
func (m *Matrix) Labels() []string {
	return append([]string(nil), m.labels...)
}

// SortedLabels returns the entity labels in lexicographic order.
func (m *Matrix) SortedLabels() []string {
	ls := m.Labels()
	sort.Strings(ls)
	return ls
}

// Index returns the row index for a label.
func (m *Matrix) Index(label string) (int, bool) {
	i, ok := m.index[label]
	return i, ok
}

// At returns the similarity at row i, column j. Indices must be in range.
func (m *Matrix) At(i, j int) float64 {
	return m.vals[i*len(m.labels)+j]
}

// Set writes a symmetric similarity for the labeled pair.
func (m *Matrix) Set(a, b string, v float64) error {
	i, ok := m.index[a]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEntity, a)
	}
	j, ok := m.index[b]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEntity, b)
	}
	n := len(m.labels)
	m.vals[i*n+j] = v
	m.vals[j*n+i] = v
	return nil
}

// Get returns the similarity for the labeled pair.
func (m *Matrix) Get(a, b string) (float64, error) {
	i, ok := m.index[a]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEntity, a)
	}
	j, ok := m.index[b]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEntity, b)
	}
	return m.At(i, j), nil
}

// Validate checks the matrix properties clustering and placement depend on:
// values in [0,1], unit diagonal, and symmetry within tol.
func (m *Matrix) Validate(tol float64) error {
	n := len(m.labels)
	for i := 0; i < n; i++ {
		if d := m.At(i, i); math.Abs(d-1.0) > tol {
			return fmt.Errorf("%w: %s = %g", ErrBadDiagonal, m.labels[i], d)
		}
		for j := 0; j < n; j++ {
			v := m.At(i, j)
			if v < 0 || v > 1 {
				return fmt.Errorf("%w: %s-%s = %g", ErrValueOutOfRange, m.labels[i], m.labels[j], v)
			}
			if j > i {
				if diff := math.Abs(v - m.At(j, i)); diff > tol {
					return fmt.Errorf("%w: %s-%s differs by %g", ErrNotSymmetric, m.labels[i], m.labels[j], diff)
				}
			}
		}
	}
	return nil
}
