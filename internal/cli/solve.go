package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/brickshell/pkg/config"
	"github.com/matzehuels/brickshell/pkg/errors"
	"github.com/matzehuels/brickshell/pkg/opening"
	"github.com/matzehuels/brickshell/pkg/pipeline"
	"github.com/matzehuels/brickshell/pkg/shell"
	"github.com/matzehuels/brickshell/pkg/store"
)

// searchFlags override the solver section of the config.
type searchFlags struct {
	maxBricks   int
	thicknessMM int
	estimator   string
	workers     int
	refresh     bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxBricks, "max-bricks", 0, "brick budget (default from config, 10000)")
	cmd.Flags().IntVar(&f.thicknessMM, "thickness-mm", 0, "wall thickness in mm (default 200)")
	cmd.Flags().StringVar(&f.estimator, "estimator", "", "brick count estimator: density (default), lattice")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "parallel search workers (0 = sequential)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached search results")
}

func (f searchFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("max-bricks") {
		cfg.Solver.MaxBricks = f.maxBricks
	}
	if cmd.Flags().Changed("thickness-mm") {
		cfg.Solver.WallThicknessMM = f.thicknessMM
	}
	if cmd.Flags().Changed("estimator") {
		cfg.Solver.Estimator = f.estimator
	}
	if cmd.Flags().Changed("workers") {
		cfg.Solver.Workers = f.workers
	}
}

// solveOpts holds the command-line flags of the solve command.
type solveOpts struct {
	openings string
	output   string
	formats  string
	views    string
	storeURL string
	lengthMM int // fixed dimensions; all three or none
	widthMM  int
	heightMM int
	search   searchFlags
	cache    cacheFlags
}

// solveCommand creates the solve command, the full optimize → generate →
// carve → export run.
func (c *CLI) solveCommand() *cobra.Command {
	var opts solveOpts

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Size the shell, generate bricks and carve the openings",
		Long: `Size the shell, generate bricks and carve the openings.

solve picks the largest shell whose estimated brick count fits the budget,
generates every brick, deactivates the bricks inside each door and window
from the openings file, and writes placement.csv plus an openings.csv audit
of the accepted openings.

Malformed opening records are skipped with a warning. Openings on an
unknown wall are accepted but carve nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts.search.apply(cmd, &cfg)
			opts.cache.apply(&cfg.Cache)
			if cmd.Flags().Changed("output") {
				cfg.Output.Dir = opts.output
			}
			if cmd.Flags().Changed("format") {
				cfg.Output.Formats = parseList(opts.formats)
			}
			if cmd.Flags().Changed("views") {
				cfg.Output.Views = parseList(opts.views)
			}
			if cmd.Flags().Changed("store") {
				cfg.Store.URL = opts.storeURL
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return c.runSolve(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.openings, "openings", "i", "", "openings JSON file (required)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "output directory")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): csv (default), json, png, svg, pdf (comma-separated)")
	cmd.Flags().StringVar(&opts.views, "views", "", "views for image formats: front, back, left, right, plan, iso (default all)")
	cmd.Flags().StringVar(&opts.storeURL, "store", "", "save the run to sqlite:PATH or mongodb://HOST/DB")
	cmd.Flags().IntVar(&opts.lengthMM, "length-mm", 0, "fixed outer length in mm (skips the search)")
	cmd.Flags().IntVar(&opts.widthMM, "width-mm", 0, "fixed outer width in mm")
	cmd.Flags().IntVar(&opts.heightMM, "height-mm", 0, "fixed height in mm")
	cmd.MarkFlagsRequiredTogether("length-mm", "width-mm", "height-mm")
	_ = cmd.MarkFlagRequired("openings")
	opts.search.register(cmd)
	opts.cache.register(cmd)

	return cmd
}

func (c *CLI) runSolve(ctx context.Context, cfg config.Config, opts solveOpts) error {
	if err := errors.ValidatePath(opts.openings); err != nil {
		return err
	}
	if err := errors.ValidatePath(cfg.Output.Dir); err != nil {
		return err
	}

	// Input problems abort before anything is written.
	specs, skipped, err := opening.ImportJSON(opts.openings)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		printWarning("Skipping %s", s)
	}
	c.Logger.Debug("loaded openings", "accepted", len(specs), "skipped", len(skipped))

	runner, err := c.newRunner(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	popts := cfg.PipelineOptions()
	popts.Openings = specs
	popts.Refresh = opts.search.refresh
	if opts.lengthMM > 0 {
		popts.Dimensions = &shell.Dimensions{
			LengthMM:    opts.lengthMM,
			WidthMM:     opts.widthMM,
			HeightMM:    opts.heightMM,
			ThicknessMM: cfg.Solver.WallThicknessMM,
		}
	}

	prog := newProgress(c.Logger)
	res, err := runner.Execute(ctx, popts)
	if err != nil {
		return err
	}
	prog.done("Solved shell")

	paths, err := writeArtifacts(cfg.Output.Dir, res.Artifacts)
	if err != nil {
		return err
	}

	var runID string
	if cfg.Store.URL != "" {
		if runID, err = saveRun(ctx, cfg.Store.URL, res, popts); err != nil {
			return err
		}
	}

	printSolveSummary(res, cfg.Output.Dir, paths, runID)
	return nil
}

// writeArtifacts writes every artifact into dir and returns the paths in
// name order. Artifacts are staged in a temporary directory inside dir and
// moved into place only once all of them are written; on failure the files
// already moved are removed again, so a failed run leaves no partial output.
func writeArtifacts(dir string, artifacts map[string][]byte) ([]string, error) {
	names := make([]string, 0, len(artifacts))
	for name := range artifacts {
		if err := errors.ValidateFilename(name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	staging, err := os.MkdirTemp(dir, ".brickshell-")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	for _, name := range names {
		if err := os.WriteFile(filepath.Join(staging, name), artifacts[name], 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}

	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.Rename(filepath.Join(staging, name), path); err != nil {
			for _, p := range paths {
				os.Remove(p)
			}
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func saveRun(ctx context.Context, url string, res *pipeline.Result, opts pipeline.Options) (string, error) {
	st, err := store.Open(ctx, url)
	if err != nil {
		return "", fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	maxBricks := opts.MaxBricks
	if opts.Dimensions != nil {
		maxBricks = 0
	}
	run := store.NewRun(res, maxBricks)
	if err := st.SaveRun(ctx, run); err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	return run.ID, nil
}

func printSolveSummary(res *pipeline.Result, dir string, paths []string, runID string) {
	d := res.Dimensions
	printNewline()
	printSuccess("Final active bricks: %d / %d", res.Stats.Active, res.Stats.Total)
	printStats(res.Stats.Active, res.Stats.Total, res.Stats.Carved, res.Stats.Ignored, res.CacheInfo.OptimizeHit)
	printKeyValue("Dimensions", fmt.Sprintf("%.1f × %.1f × %.1f m", d.Length(), d.Width(), d.Height()))
	if res.Search.Evaluated > 0 || res.CacheInfo.OptimizeHit {
		printKeyValue("Estimate", fmt.Sprintf("%.0f (drift %+d)", res.Stats.Estimate, res.Stats.EstimateDrift))
	}
	for _, o := range res.Openings {
		if o.Err != nil {
			printWarning("Ignored %s on wall %q: %s", o.Spec.Type, o.Spec.Wall, errors.UserMessage(o.Err))
		}
	}
	if runID != "" {
		printKeyValue("Run", runID)
	}
	for _, p := range paths {
		printFile(p)
	}
	if _, ok := res.Artifacts[pipeline.FilePlacementCSV]; ok {
		printNewline()
		printNextStep("Visualize", "brickshell visualize "+filepath.Join(dir, pipeline.FilePlacementCSV))
	}
}
