// Package pipeline runs the brick-shell solve from budget to output files.
//
// The pipeline has four stages, shared by the CLI and the HTTP server:
//
//  1. Optimize: pick the largest-volume dimensions under the brick budget
//     (cached, and skipped entirely when dimensions are given)
//  2. Generate: lay out the brick grid for those dimensions
//  3. Carve: deactivate the bricks covered by each opening, in input order
//  4. Export: encode placement, opening audit and plots in memory
//
// Nothing is written to disk here; callers persist Result.Artifacts once the
// run has succeeded, so a failed run leaves no partial output behind.
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    MaxBricks: 10000,
//	    Openings:  specs,
//	    Formats:   []string{"csv", "json"},
//	})
//	csv := res.Artifacts[pipeline.FilePlacementCSV]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/brickshell/pkg/cache"
	"github.com/matzehuels/brickshell/pkg/opening"
	"github.com/matzehuels/brickshell/pkg/render"
	"github.com/matzehuels/brickshell/pkg/shell"
	"github.com/matzehuels/brickshell/pkg/shell/optimize"
)

// Output formats. csv and json describe the placement; the image formats
// render one plot per view.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatPNG  = "png"
	FormatSVG  = "svg"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatCSV:  true,
	FormatJSON: true,
	FormatPNG:  true,
	FormatSVG:  true,
	FormatPDF:  true,
}

// Artifact file names.
const (
	FilePlacementCSV  = "placement.csv"
	FilePlacementJSON = "placement.json"
	FileOpeningsCSV   = "openings.csv"
)

// DefaultFormats is used when Options.Formats is empty.
var DefaultFormats = []string{FormatCSV}

// Options configures one pipeline run. It is JSON-serializable for API
// requests.
type Options struct {
	// Optimize options
	MaxBricks   int               `json:"max_bricks,omitempty"`
	ThicknessMM int               `json:"thickness_mm,omitempty"`
	Length      optimize.Range    `json:"length,omitempty"`
	Width       optimize.Range    `json:"width,omitempty"`
	Height      optimize.Range    `json:"height,omitempty"`
	Density     optimize.Density  `json:"density,omitempty"`
	Estimator   string            `json:"estimator,omitempty"`
	Workers     int               `json:"workers,omitempty"`
	Dimensions  *shell.Dimensions `json:"dimensions,omitempty"` // fixed dimensions; skips the search
	Refresh     bool              `json:"refresh,omitempty"`

	// Generate options
	Lattice shell.Lattice `json:"lattice,omitempty"`

	// Carve options
	Openings []opening.Spec `json:"openings,omitempty"`

	// Export options
	Formats []string `json:"formats,omitempty"`
	Views   []string `json:"views,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result holds everything a run produced.
type Result struct {
	Dimensions shell.Dimensions
	Search     optimize.Result // zero when Options.Dimensions was set
	Collection *shell.Collection
	Openings   []Carved
	Artifacts  map[string][]byte
	Stats      Stats
	CacheInfo  CacheInfo
}

// Carved is the outcome of one opening.
type Carved struct {
	Spec   opening.Spec
	Bricks int   // bricks deactivated by this opening alone
	Err    error // set when the opening was ignored, e.g. unknown wall
}

// Stats summarizes a run.
type Stats struct {
	Total    int
	Active   int
	Carved   int
	Ignored  int // openings that carved nothing because of an error
	Estimate float64

	// EstimateDrift is the generated brick count minus the search estimate.
	// The areal density model and the lattice disagree, so it is rarely 0.
	EstimateDrift int

	OptimizeTime time.Duration
	GenerateTime time.Duration
	CarveTime    time.Duration
	ExportTime   time.Duration
}

// CacheInfo tracks which stages were served from cache.
type CacheInfo struct {
	OptimizeHit bool
}

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: csv, json, png, svg, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// IsImageFormat reports whether format is rendered as plots.
func IsImageFormat(format string) bool {
	return format == FormatPNG || format == FormatSVG || format == FormatPDF
}

// ValidateAndSetDefaults checks the options and fills defaults for a full
// run. Calling it again is a no-op.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForOptimize(); err != nil {
		return err
	}
	if err := o.ValidateForExport(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetOptimizeDefaults fills unset search parameters from optimize.DefaultSearch.
func (o *Options) SetOptimizeDefaults() {
	def := optimize.DefaultSearch()
	if o.MaxBricks == 0 {
		o.MaxBricks = def.MaxBricks
	}
	if o.ThicknessMM == 0 {
		o.ThicknessMM = def.ThicknessMM
	}
	if o.Length == (optimize.Range{}) {
		o.Length = def.Length
	}
	if o.Width == (optimize.Range{}) {
		o.Width = def.Width
	}
	if o.Height == (optimize.Range{}) {
		o.Height = def.Height
	}
	if o.Density == (optimize.Density{}) {
		o.Density = def.Density
	}
	if o.Estimator == "" {
		o.Estimator = def.Estimator
	}
	if o.Lattice == (shell.Lattice{}) {
		o.Lattice = shell.DefaultLattice
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForOptimize sets defaults and validates the search parameters, or
// the fixed dimensions when given.
func (o *Options) ValidateForOptimize() error {
	o.SetOptimizeDefaults()
	if o.Dimensions != nil {
		return o.Dimensions.Validate()
	}
	return o.Search().Validate()
}

// SetExportDefaults fills unset export options.
func (o *Options) SetExportDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = DefaultFormats
	}
	if len(o.Views) == 0 {
		for _, v := range render.Views {
			o.Views = append(o.Views, string(v))
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForExport sets defaults and validates formats and views.
func (o *Options) ValidateForExport() error {
	o.SetExportDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	for _, v := range o.Views {
		if _, err := render.ParseView(v); err != nil {
			return err
		}
	}
	return nil
}

// Search returns the dimension search described by the options.
func (o *Options) Search() optimize.Search {
	return optimize.Search{
		MaxBricks:   o.MaxBricks,
		ThicknessMM: o.ThicknessMM,
		Length:      o.Length,
		Width:       o.Width,
		Height:      o.Height,
		Density:     o.Density,
		Lattice:     o.Lattice,
		Estimator:   o.Estimator,
		Workers:     o.Workers,
	}
}

// DimensionsKeyOpts returns the cache key inputs of the search. Workers is
// left out because it does not change the result.
func (o *Options) DimensionsKeyOpts() cache.DimensionsKeyOpts {
	r := func(r optimize.Range) [3]int { return [3]int{r.MinMM, r.MaxMM, r.StepMM} }
	return cache.DimensionsKeyOpts{
		MaxBricks:   o.MaxBricks,
		ThicknessMM: o.ThicknessMM,
		Length:      r(o.Length),
		Width:       r(o.Width),
		Height:      r(o.Height),
		Density:     [2]int{o.Density.WallPerM2, o.Density.SlabPerM2},
		Lattice:     [3]int{o.Lattice.StepMM, o.Lattice.SlabStepXMM, o.Lattice.SlabStepYMM},
		Estimator:   o.Estimator,
	}
}
