package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/accviz/accviz/pkg/dendro"
	"github.com/accviz/accviz/pkg/render/dendrogram"
	"github.com/accviz/accviz/pkg/simmat"
)

// clusterCommand creates the cluster command for building a hierarchy from
// a similarity matrix.
func (c *CLI) clusterCommand() *cobra.Command {
	var (
		linkageStr string
		format     string
		output     string
		title      string
	)

	cmd := &cobra.Command{
		Use:   "cluster [matrix.csv]",
		Short: "Build a hierarchy from a similarity matrix",
		Long: `Build a hierarchy from a similarity matrix via agglomerative clustering.

The matrix is a symmetric CSV with entity labels on both axes. Pairs are
merged from most to least similar; ties resolve to the earliest-created
pair so the result is deterministic.

Output formats:
  json   tree as labels plus join list (default)
  dot    Graphviz DOT source
  svg    rendered dendrogram (requires Graphviz layout)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("linkage") {
				if cfg, err := c.loadConfig(); err == nil {
					linkageStr = cfg.Linkage
				}
			}
			return c.runCluster(args[0], linkageStr, format, output, title)
		},
	}

	cmd.Flags().StringVarP(&linkageStr, "linkage", "l", "average", "linkage method: average (default), single, complete")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json (default), dot, svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: derived from input)")
	cmd.Flags().StringVar(&title, "title", "", "diagram title (dot and svg only)")

	return cmd
}

func (c *CLI) runCluster(input, linkageStr, format, output, title string) error {
	linkage, err := dendro.ParseLinkage(linkageStr)
	if err != nil {
		return err
	}

	m, err := simmat.ReadCSVFile(input)
	if err != nil {
		return err
	}
	c.Logger.Debugf("loaded matrix: %d entities", m.Len())

	prog := newProgress(c.Logger)
	t, err := dendro.Build(m, linkage)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Built %s hierarchy over %d entities", linkage, t.LeafCount()))

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
	}

	switch format {
	case "json":
		if err := t.WriteFile(output); err != nil {
			return err
		}
	case "dot":
		dot := dendrogram.ToDOT(t, dendrogram.Options{Title: title})
		out, err := openOutput(output)
		if err != nil {
			return err
		}
		defer out.Close()
		if _, err := out.Write([]byte(dot)); err != nil {
			return err
		}
	case "svg":
		dot := dendrogram.ToDOT(t, dendrogram.Options{Title: title})
		svg, err := dendrogram.RenderSVG(dot)
		if err != nil {
			return err
		}
		out, err := openOutput(output)
		if err != nil {
			return err
		}
		defer out.Close()
		if _, err := out.Write(svg); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid format: %s (must be 'json', 'dot', or 'svg')", format)
	}

	printSuccess("Built hierarchy")
	printFile(output)
	return nil
}
