package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/accviz/accviz/pkg/simmat"
)

// similarityCommand creates the similarity command for deriving a similarity
// matrix from presence/absence tables.
func (c *CLI) similarityCommand() *cobra.Command {
	var (
		indexStr string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "similarity [presence.csv...]",
		Short: "Compute a similarity matrix from presence/absence tables",
		Long: `Compute an area-by-area similarity matrix from presence/absence tables.

Each input is a CSV whose header row names the taxa and whose data rows
start with an area label followed by 0/1 presence cells. Multiple inputs
are merged with OR semantics over the union of areas and taxa before the
matrix is computed, so tables covering different time slices of the same
regions combine into one matrix.

The result is written as a matrix CSV suitable for 'cluster' and 'render'.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := simmat.ParseIndex(indexStr)
			if err != nil {
				return err
			}
			return c.runSimilarity(args, index, output)
		},
	}

	cmd.Flags().StringVarP(&indexStr, "index", "i", "jaccard", "similarity index: jaccard (default), dice")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func (c *CLI) runSimilarity(inputs []string, index simmat.SimilarityIndex, output string) error {
	tables := make([]*simmat.Presence, 0, len(inputs))
	for _, path := range inputs {
		p, err := simmat.ReadPresenceFile(path)
		if err != nil {
			return err
		}
		c.Logger.Debugf("loaded %s: %d areas, %d taxa", path, len(p.Areas), len(p.Taxa))
		tables = append(tables, p)
	}

	merged, err := simmat.Merge(tables...)
	if err != nil {
		return err
	}

	m, err := merged.Similarity(index)
	if err != nil {
		return err
	}
	c.Logger.Infof("Computed %s matrix for %d areas", index, m.Len())

	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := m.WriteCSV(out); err != nil {
		return err
	}

	if output != "" {
		printSuccess("Wrote similarity matrix")
		printFile(output)
	}
	return nil
}

// openOutput opens path for writing, or stdout when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
