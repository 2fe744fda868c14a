package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/accviz/accviz/pkg/pipeline"
)

// renderCommand creates the render command for the full pipeline.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [local.csv] [global.csv]",
		Short: "Render a concentric-arc diagram from two similarity matrices",
		Long: `Render a concentric-arc diagram from two similarity matrices.

This runs the complete pipeline: cluster both matrices, compute the
placement, and write the requested artifacts. Intermediate results are
cached locally for faster subsequent runs.

Use 'place' to export the placement itself, or 'steps' to walk through
the construction interactively.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfigDefaults(cmd, &opts)
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if err := pipeline.ValidateStyle(opts.Style); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], args[1], opts, output, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")

	// Pipeline flags
	cmd.Flags().StringVarP(&opts.Linkage, "linkage", "l", "", "linkage method: average (default), single, complete")
	cmd.Flags().Float64Var(&opts.Unit, "unit", 0, "scale constant in diameter = unit / similarity")
	cmd.Flags().StringVar(&opts.Style, "style", "", "visual style: simple (default), dark")
	cmd.Flags().BoolVar(&opts.Spokes, "spokes", false, "draw origin-to-entity spokes")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, json, dot (comma-separated)")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, localPath, globalPath string, opts pipeline.Options, output string, noCache bool) error {
	local, global, err := loadMatrices(localPath, globalPath)
	if err != nil {
		return err
	}
	opts.LocalMatrix = local
	opts.GlobalMatrix = global
	opts.Logger = c.Logger

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, "Rendering diagram...")
	spinner.Start()

	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	cached := res.CacheInfo.ClusterHit && res.CacheInfo.PlaceHit && res.CacheInfo.RenderHit
	if err := writeArtifacts(res.Artifacts, opts.Formats, localPath, output); err != nil {
		return err
	}
	printStats(res.Stats.EntityCount, res.Stats.StepCount, cached)
	return nil
}

// writeArtifacts writes each rendered format to its own file. With a single
// format, output names the file directly; with several, output (or the input
// path) is the base and the format becomes the extension.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) error {
	if len(formats) == 1 {
		path := output
		if path == "" {
			path = basePath("", input) + "." + formats[0]
		}
		if err := os.WriteFile(path, artifacts[formats[0]], 0o644); err != nil {
			return err
		}
		printSuccess("Generated diagram")
		printFile(path)
		return nil
	}

	base := basePath(output, input)
	printSuccess("Generated diagrams")
	for _, format := range formats {
		path := base + "." + format
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input. If output ends in a
// known format extension, that extension is stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
