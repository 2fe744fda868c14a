package simmat

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// =============================================================================
// PRESENCE/ABSENCE TABLES
// =============================================================================

// Presence is an area × taxon presence/absence table, the raw input from
// which similarity matrices are computed.
type Presence struct {
	Areas []string
	Taxa  []string
	cells [][]bool // [area][taxon]
}

// ReadPresence parses a presence/absence table from CSV. The header row
// carries taxon names (first cell ignored); each following row starts with
// an area label followed by 0/1 cells.
func ReadPresence(r io.Reader) (*Presence, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("presence csv needs a header row and at least one area row")
	}

	taxa := records[0][1:]
	p := &Presence{Taxa: append([]string(nil), taxa...)}
	seen := make(map[string]bool, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(taxa)+1 {
			return nil, fmt.Errorf("area %q has %d cells, want %d", rec[0], len(rec), len(taxa)+1)
		}
		area := rec[0]
		if seen[area] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, area)
		}
		seen[area] = true
		row := make([]bool, len(taxa))
		for j, cell := range rec[1:] {
			v, err := strconv.Atoi(strings.TrimSpace(cell))
			if err != nil || (v != 0 && v != 1) {
				return nil, fmt.Errorf("area %q taxon %q: want 0 or 1, got %q", area, taxa[j], cell)
			}
			row[j] = v == 1
		}
		p.Areas = append(p.Areas, area)
		p.cells = append(p.cells, row)
	}
	return p, nil
}

// ReadPresenceFile parses a presence/absence table from a CSV file.
func ReadPresenceFile(path string) (*Presence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := ReadPresence(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Has reports whether the taxon at column j is present in the area at row i.
func (p *Presence) Has(i, j int) bool { return p.cells[i][j] }

// Merge combines presence tables with OR semantics over the union of areas
// and taxa. Tables covering different time slices of the same regions merge
// into one table recording presence in any slice.
func Merge(tables ...*Presence) (*Presence, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("merge requires at least one table")
	}

	var areas, taxa []string
	areaIdx := make(map[string]int)
	taxonIdx := make(map[string]int)
	for _, t := range tables {
		for _, a := range t.Areas {
			if _, ok := areaIdx[a]; !ok {
				areaIdx[a] = len(areas)
				areas = append(areas, a)
			}
		}
		for _, x := range t.Taxa {
			if _, ok := taxonIdx[x]; !ok {
				taxonIdx[x] = len(taxa)
				taxa = append(taxa, x)
			}
		}
	}

	merged := &Presence{Areas: areas, Taxa: taxa, cells: make([][]bool, len(areas))}
	for i := range merged.cells {
		merged.cells[i] = make([]bool, len(taxa))
	}
	for _, t := range tables {
		for i, a := range t.Areas {
			for j, x := range t.Taxa {
				if t.cells[i][j] {
					merged.cells[areaIdx[a]][taxonIdx[x]] = true
				}
			}
		}
	}
	return merged, nil
}

// =============================================================================
// SIMILARITY INDICES
// =============================================================================

// SimilarityIndex selects the formula used to derive a similarity matrix
// from a presence/absence table.
type SimilarityIndex string

const (
	// Jaccard is |A∩B| / |A∪B|.
	Jaccard SimilarityIndex = "jaccard"
	// Dice is 2|A∩B| / (|A| + |B|).
	Dice SimilarityIndex = "dice"
)

// ParseIndex parses a similarity index name.
func ParseIndex(s string) (SimilarityIndex, error) {
	switch strings.ToLower(s) {
	case string(Jaccard):
		return Jaccard, nil
	case string(Dice):
		return Dice, nil
	default:
		return "", fmt.Errorf("unknown similarity index %q (want jaccard or dice)", s)
	}
}

// Similarity computes the area × area similarity matrix for the table under
// the given index. Two areas sharing no taxa at all score 0.
func (p *Presence) Similarity(index SimilarityIndex) (*Matrix, error) {
	m, err := New(p.Areas)
	if err != nil {
		return nil, err
	}
	n := len(p.Areas)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var both, onlyI, onlyJ int
			for k := range p.Taxa {
				a, b := p.cells[i][k], p.cells[j][k]
				switch {
				case a && b:
					both++
				case a:
					onlyI++
				case b:
					onlyJ++
				}
			}
			var sim float64
			switch index {
			case Jaccard:
				if union := both + onlyI + onlyJ; union > 0 {
					sim = float64(both) / float64(union)
				}
			case Dice:
				if total := 2*both + onlyI + onlyJ; total > 0 {
					sim = float64(2*both) / float64(total)
				}
			default:
				return nil, fmt.Errorf("unknown similarity index %q", index)
			}
			m.vals[i*n+j] = sim
			m.vals[j*n+i] = sim
		}
	}
	return m, nil
}
