package simmat

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ReadCSV parses a similarity matrix from CSV. The first row is a header
// whose first cell is ignored and whose remaining cells are entity labels;
// each following row starts with its entity label followed by one value per
// column. Row and column label order must agree.
func ReadCSV(r io.Reader) (*Matrix, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("matrix csv needs a header row and at least one data row")
	}

	labels := records[0][1:]
	m, err := New(labels)
	if err != nil {
		return nil, err
	}
	n := m.Len()
	if len(records)-1 != n {
		return nil, fmt.Errorf("matrix csv has %d labels but %d data rows", n, len(records)-1)
	}
	for i, rec := range records[1:] {
		if len(rec) != n+1 {
			return nil, fmt.Errorf("row %q has %d cells, want %d", rec[0], len(rec), n+1)
		}
		if rec[0] != labels[i] {
			return nil, fmt.Errorf("row label %q does not match column label %q", rec[0], labels[i])
		}
		for j, cell := range rec[1:] {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %q column %q: %w", rec[0], labels[j], err)
			}
			m.vals[i*n+j] = v
		}
	}
	return m, nil
}

// ReadCSVFile parses a similarity matrix from a CSV file.
func ReadCSVFile(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteCSV writes the matrix in the format ReadCSV accepts.
func (m *Matrix) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	n := m.Len()

	header := make([]string, n+1)
	copy(header[1:], m.labels)
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, n+1)
	for i := 0; i < n; i++ {
		row[0] = m.labels[i]
		for j := 0; j < n; j++ {
			row[j+1] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the matrix to a CSV file.
func (m *Matrix) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.WriteCSV(f)
}
