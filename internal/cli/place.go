package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accviz/accviz/pkg/pipeline"
)

// placeCommand creates the place command for computing entity coordinates.
func (c *CLI) placeCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "place [local.csv] [global.csv]",
		Short: "Compute entity coordinates from two similarity matrices",
		Long: `Compute entity coordinates from two similarity matrices.

Both matrices are clustered into hierarchies; the placement engine then
absorbs the local clusters strongest-first into concentric-arc structures.
Angular separation encodes local similarity, radial distance encodes
global similarity.

The output is a placement JSON holding the final coordinates plus the
step-by-step trail, suitable for 'steps'.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfigDefaults(cmd, &opts)
			return c.runPlace(cmd.Context(), args[0], args[1], opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")
	cmd.Flags().StringVarP(&opts.Linkage, "linkage", "l", "", "linkage method: average (default), single, complete")
	cmd.Flags().Float64Var(&opts.Unit, "unit", 0, "scale constant in diameter = unit / similarity")

	return cmd
}

func (c *CLI) runPlace(ctx context.Context, localPath, globalPath string, opts pipeline.Options, output string, noCache bool) error {
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

	localTree, globalTree, _, err := runner.ClusterWithCacheInfo(ctx, opts)
	if err != nil {
		return err
	}
	pl, cacheHit, err := runner.PlaceWithCacheInfo(ctx, localTree, globalTree, opts)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(pl, "", "  ")
	if err != nil {
		return err
	}
	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(append(data, '\n')); err != nil {
		return err
	}

	if output != "" {
		printSuccess("Computed placement")
		printFile(output)
		printStats(len(pl.Final.Points), len(pl.Steps), cacheHit)
	}
	return nil
}
