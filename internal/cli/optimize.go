package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// optimizeCommand creates the optimize command, which runs the dimension
// search alone.
func (c *CLI) optimizeCommand() *cobra.Command {
	var (
		search searchFlags
		flags  cacheFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Find the largest shell that fits the brick budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			search.apply(cmd, &cfg)
			flags.apply(&cfg.Cache)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, cfg.Cache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			opts := cfg.PipelineOptions()
			opts.Refresh = search.refresh
			prog := newProgress(c.Logger)
			found, hit, err := runner.OptimizeWithCacheInfo(ctx, opts)
			if err != nil {
				return err
			}
			prog.done("Searched dimensions")

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(found)
			}

			d := found.Dimensions
			printSuccess("Best design: outer %.1f × %.1f × %.1f m", d.Length(), d.Width(), d.Height())
			printKeyValue("Dimensions", d.String())
			printKeyValue("Estimate", fmt.Sprintf("%.0f bricks (budget %d)", found.Estimate, cfg.Solver.MaxBricks))
			printKeyValue("Volume", fmt.Sprintf("%.2f m³", found.Volume))
			if hit {
				printKeyValue("Source", styleCached.Render(iconCached))
			} else {
				printKeyValue("Evaluated", fmt.Sprintf("%d candidates", found.Evaluated))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	search.register(cmd)
	flags.register(cmd)

	return cmd
}
