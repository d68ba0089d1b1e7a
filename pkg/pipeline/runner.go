package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/brickshell/pkg/cache"
	"github.com/matzehuels/brickshell/pkg/io"
	"github.com/matzehuels/brickshell/pkg/observability"
	"github.com/matzehuels/brickshell/pkg/opening"
	"github.com/matzehuels/brickshell/pkg/render"
	"github.com/matzehuels/brickshell/pkg/shell"
	"github.com/matzehuels/brickshell/pkg/shell/optimize"
)

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner can serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses the default keyer and a nil logger uses log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs optimize → generate → carve → export.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	res := &Result{}

	optimizeStart := time.Now()
	if opts.Dimensions != nil {
		res.Dimensions = *opts.Dimensions
		r.Logger.Info("using fixed dimensions", "dimensions", res.Dimensions)
	} else {
		found, hit, err := r.OptimizeWithCacheInfo(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("optimize: %w", err)
		}
		res.Search = found
		res.Dimensions = found.Dimensions
		res.Stats.Estimate = found.Estimate
		res.CacheInfo.OptimizeHit = hit
		r.Logger.Info("chose dimensions",
			"dimensions", found.Dimensions,
			"volume_m3", fmt.Sprintf("%.2f", found.Volume),
			"estimate", int(math.Round(found.Estimate)),
			"cached", hit)
	}
	res.Stats.OptimizeTime = time.Since(optimizeStart)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	generateStart := time.Now()
	res.Collection = Generate(ctx, res.Dimensions, opts.Lattice)
	res.Stats.GenerateTime = time.Since(generateStart)
	res.Stats.Total = res.Collection.Len()
	r.Logger.Info("generated bricks", "total", res.Stats.Total, "regions", res.Collection.RegionCounts())
	if opts.Dimensions == nil {
		res.Stats.EstimateDrift = res.Stats.Total - int(math.Round(res.Stats.Estimate))
		r.Logger.Debug("estimate drift", "generated", res.Stats.Total, "estimated", res.Stats.Estimate, "drift", res.Stats.EstimateDrift)
	}

	carveStart := time.Now()
	res.Openings = Carve(ctx, res.Collection, opts.Openings, r.Logger)
	res.Stats.CarveTime = time.Since(carveStart)
	for _, c := range res.Openings {
		res.Stats.Carved += c.Bricks
		if c.Err != nil {
			res.Stats.Ignored++
		}
	}
	res.Stats.Active = res.Collection.ActiveCount()

	exportStart := time.Now()
	artifacts, err := Export(res.Collection, opts.Openings, opts)
	res.Stats.ExportTime = time.Since(exportStart)
	observability.Solver().OnExport(ctx, opts.Formats, res.Stats.ExportTime, err)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	res.Artifacts = artifacts

	r.Logger.Info("solved",
		"active", res.Stats.Active,
		"total", res.Stats.Total,
		"openings", len(res.Openings),
		"ignored", res.Stats.Ignored)
	return res, nil
}

// OptimizeWithCacheInfo runs the dimension search, consulting the cache
// first unless opts.Refresh is set, and reports whether the result came
// from cache.
func (r *Runner) OptimizeWithCacheInfo(ctx context.Context, opts Options) (optimize.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForOptimize(); err != nil {
		return optimize.Result{}, false, err
	}
	key := r.Keyer.DimensionsKey(opts.DimensionsKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached optimize.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "dimensions")
				return cached, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("cache lookup failed", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "dimensions")
	}

	start := time.Now()
	observability.Solver().OnOptimizeStart(ctx, opts.MaxBricks)
	found, err := opts.Search().Run(ctx)
	observability.Solver().OnOptimizeComplete(ctx, found.Evaluated, time.Since(start), err)
	if err != nil {
		return optimize.Result{}, false, err
	}
	r.Logger.Debug("searched dimensions", "evaluated", found.Evaluated, "duration", time.Since(start))

	if data, err := json.Marshal(found); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLDimensions); err != nil {
			r.Logger.Warn("cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "dimensions", len(data))
		}
	}
	return found, false, nil
}

// Optimize runs the dimension search and discards the cache hit info.
func (r *Runner) Optimize(ctx context.Context, opts Options) (optimize.Result, error) {
	found, _, err := r.OptimizeWithCacheInfo(ctx, opts)
	return found, err
}

// Close releases the runner's cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// Generate builds the brick grid for d.
func Generate(ctx context.Context, d shell.Dimensions, l shell.Lattice) *shell.Collection {
	start := time.Now()
	c := shell.GenerateWith(d, l)
	observability.Solver().OnGenerate(ctx, c.Len(), time.Since(start))
	return c
}

// Carve applies specs to c in order. An opening on an unknown wall is
// logged and recorded with its error; it never aborts the run.
func Carve(ctx context.Context, c *shell.Collection, specs []opening.Spec, logger *log.Logger) []Carved {
	out := make([]Carved, 0, len(specs))
	for i, s := range specs {
		n, err := s.Carve(c)
		observability.Solver().OnCarve(ctx, s.Wall, n, err)
		out = append(out, Carved{Spec: s, Bricks: n, Err: err})
		if err != nil {
			logger.Warn("ignored opening", "index", i, "type", s.Type, "wall", s.Wall, "reason", err)
			continue
		}
		logger.Info("carved opening",
			"type", s.Type,
			"wall", s.Wall,
			"x_mm", s.XMM,
			"z_mm", s.ZMM,
			"size", fmt.Sprintf("%d×%d", s.WidthMM, s.HeightMM),
			"bricks", n)
	}
	return out
}

// Export encodes the requested formats. The opening audit is included
// whenever at least one opening was accepted.
func Export(c *shell.Collection, specs []opening.Spec, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForExport(); err != nil {
		return nil, err
	}
	artifacts := make(map[string][]byte)

	var bricks []shell.Brick
	for _, format := range opts.Formats {
		var buf bytes.Buffer
		switch {
		case format == FormatCSV:
			if err := io.WritePlacementCSV(c, &buf); err != nil {
				return nil, err
			}
			artifacts[FilePlacementCSV] = buf.Bytes()
		case format == FormatJSON:
			if err := io.WritePlacementJSON(c, &buf); err != nil {
				return nil, err
			}
			artifacts[FilePlacementJSON] = buf.Bytes()
		case IsImageFormat(format):
			if bricks == nil {
				bricks = c.Bricks()
			}
			for _, name := range opts.Views {
				view, err := render.ParseView(name)
				if err != nil {
					return nil, err
				}
				data, err := render.Render(bricks, view, render.WithFormat(format))
				if err != nil {
					return nil, fmt.Errorf("render %s view: %w", view, err)
				}
				artifacts[ViewFileName(view, format)] = data
			}
		}
	}

	if len(specs) > 0 {
		var buf bytes.Buffer
		if err := io.WriteOpeningsCSV(specs, &buf); err != nil {
			return nil, err
		}
		artifacts[FileOpeningsCSV] = buf.Bytes()
	}
	return artifacts, nil
}

// ViewFileName names the artifact of one rendered view, e.g. "front.png".
func ViewFileName(view render.View, format string) string {
	return string(view) + "." + format
}
