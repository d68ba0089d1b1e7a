// Package optimize searches for the outer shell dimensions that maximize
// interior volume under a brick budget.
//
// The search is a brute-force sweep over a discretized (length, width,
// height) grid. Each candidate is priced with an estimator; candidates whose
// estimate exceeds the budget are rejected, and the feasible candidate with
// the largest interior volume wins. Ties go to the candidate met first in
// iteration order (length outermost, height innermost).
//
// The sweep is pure: it reads nothing but its parameters and always returns
// the same triple for the same [Search]. Setting Workers splits the length
// range into contiguous chunks evaluated concurrently; the chunk winners are
// reduced in chunk order, which reproduces the sequential tie-break exactly.
package optimize

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/brickshell/pkg/errors"
	"github.com/matzehuels/brickshell/pkg/shell"
)

// DefaultMaxBricks is the default brick budget.
const DefaultMaxBricks = 10_000

// ErrNoFeasibleDimensions matches the error returned when no candidate fits
// the budget.
var ErrNoFeasibleDimensions = errors.Sentinel(errors.ErrCodeNoFeasibleDimensions)

// Range is a closed range of millimeter values: MinMM, MinMM+StepMM, … up to
// and including MaxMM when it lies on the step grid.
type Range struct {
	MinMM  int `json:"min_mm" toml:"min_mm" yaml:"min_mm"`
	MaxMM  int `json:"max_mm" toml:"max_mm" yaml:"max_mm"`
	StepMM int `json:"step_mm" toml:"step_mm" yaml:"step_mm"`
}

// Len returns the number of values in the range.
func (r Range) Len() int {
	if r.StepMM <= 0 || r.MaxMM < r.MinMM {
		return 0
	}
	return (r.MaxMM-r.MinMM)/r.StepMM + 1
}

// At returns the i-th value of the range.
func (r Range) At(i int) int { return r.MinMM + i*r.StepMM }

func (r Range) validate(name string) error {
	if r.StepMM <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "%s step must be positive, got %d", name, r.StepMM)
	}
	if r.MinMM <= 0 || r.MaxMM < r.MinMM {
		return errors.New(errors.ErrCodeInvalidInput, "%s range [%d, %d] is empty", name, r.MinMM, r.MaxMM)
	}
	return nil
}

// Estimator names accepted by Search.Estimator.
const (
	EstimatorDensity = "density" // areal density model, bricks per m²
	EstimatorLattice = "lattice" // exact count from shell.ExpectedCount
)

// Density is the areal brick density model, in bricks per square meter.
type Density struct {
	WallPerM2 int `json:"wall_per_m2" toml:"wall_per_m2" yaml:"wall_per_m2"`
	SlabPerM2 int `json:"slab_per_m2" toml:"slab_per_m2" yaml:"slab_per_m2"`
}

// DefaultDensity prices walls at 200 bricks/m² and floor and roof at
// 50 bricks/m² each.
var DefaultDensity = Density{WallPerM2: 200, SlabPerM2: 50}

// Search describes one dimension search.
type Search struct {
	MaxBricks   int
	ThicknessMM int
	Length      Range
	Width       Range
	Height      Range
	Density     Density
	Lattice     shell.Lattice // used by the lattice estimator
	Estimator   string
	Workers     int // <= 1 runs sequentially
}

// DefaultSearch returns the default search: 0.8–20.0 m for length and width,
// 1.8–3.0 m for height, 0.1 m steps, 0.2 m walls and a budget of
// DefaultMaxBricks.
func DefaultSearch() Search {
	return Search{
		MaxBricks:   DefaultMaxBricks,
		ThicknessMM: shell.DefaultThicknessMM,
		Length:      Range{MinMM: 800, MaxMM: 20000, StepMM: 100},
		Width:       Range{MinMM: 800, MaxMM: 20000, StepMM: 100},
		Height:      Range{MinMM: 1800, MaxMM: 3000, StepMM: 100},
		Density:     DefaultDensity,
		Lattice:     shell.DefaultLattice,
		Estimator:   EstimatorDensity,
	}
}

// Result is the outcome of a search.
type Result struct {
	Dimensions shell.Dimensions `json:"dimensions"`
	Estimate   float64          `json:"estimate"`  // estimated brick count of the winner
	Volume     float64          `json:"volume_m3"` // interior volume in m³
	Evaluated  int              `json:"evaluated"` // candidates visited
}

// FindBestDimensions runs DefaultSearch with the given budget.
func FindBestDimensions(maxBricks int) (shell.Dimensions, error) {
	s := DefaultSearch()
	s.MaxBricks = maxBricks
	res, err := s.Run(context.Background())
	if err != nil {
		return shell.Dimensions{}, err
	}
	return res.Dimensions, nil
}

// Validate checks the search parameters.
func (s Search) Validate() error {
	if s.MaxBricks <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "brick budget must be positive, got %d", s.MaxBricks)
	}
	if s.ThicknessMM <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "wall thickness must be positive, got %d", s.ThicknessMM)
	}
	for _, r := range []struct {
		name string
		r    Range
	}{{"length", s.Length}, {"width", s.Width}, {"height", s.Height}} {
		if err := r.r.validate(r.name); err != nil {
			return err
		}
	}
	switch s.Estimator {
	case "", EstimatorDensity, EstimatorLattice:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown estimator %q (must be density or lattice)", s.Estimator)
	}
	return nil
}

// candidate is the best triple of one chunk; ok is false when the chunk had
// no feasible triple.
type candidate struct {
	dims      shell.Dimensions
	volume    int64
	estimate  float64
	evaluated int
	ok        bool
}

// Run executes the search. It returns an error matching
// ErrNoFeasibleDimensions when nothing fits the budget.
func (s Search) Run(ctx context.Context) (Result, error) {
	if err := s.Validate(); err != nil {
		return Result{}, err
	}

	chunks := s.chunks()
	best := make([]candidate, len(chunks))

	if len(chunks) == 1 {
		best[0] = s.sweep(chunks[0][0], chunks[0][1])
	} else {
		g, gctx := errgroup.WithContext(ctx)
		for i, ch := range chunks {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				best[i] = s.sweep(ch[0], ch[1])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Result{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var win candidate
	evaluated := 0
	for _, c := range best {
		evaluated += c.evaluated
		if c.ok && (!win.ok || c.volume > win.volume) {
			win = c
		}
	}
	if !win.ok {
		return Result{Evaluated: evaluated}, errors.New(errors.ErrCodeNoFeasibleDimensions,
			"no dimensions fit a budget of %d bricks (%d candidates)", s.MaxBricks, evaluated)
	}
	return Result{
		Dimensions: win.dims,
		Estimate:   win.estimate,
		Volume:     float64(win.volume) / 1e9,
		Evaluated:  evaluated,
	}, nil
}

// chunks splits the length indices into contiguous [from, to) spans.
func (s Search) chunks() [][2]int {
	n := s.Length.Len()
	w := s.Workers
	if w <= 1 || n < 2 {
		return [][2]int{{0, n}}
	}
	if w > n {
		w = n
	}
	out := make([][2]int, 0, w)
	size := (n + w - 1) / w
	for from := 0; from < n; from += size {
		out = append(out, [2]int{from, min(from+size, n)})
	}
	return out
}

// sweep evaluates every triple whose length index is in [from, to).
func (s Search) sweep(from, to int) candidate {
	var best candidate
	for li := from; li < to; li++ {
		for wi := 0; wi < s.Width.Len(); wi++ {
			for hi := 0; hi < s.Height.Len(); hi++ {
				d := shell.Dimensions{
					LengthMM:    s.Length.At(li),
					WidthMM:     s.Width.At(wi),
					HeightMM:    s.Height.At(hi),
					ThicknessMM: s.ThicknessMM,
				}
				best.evaluated++
				est, ok := s.fits(d)
				if !ok {
					continue
				}
				if v := d.InteriorVolumeMM3(); !best.ok || v > best.volume {
					best = candidate{dims: d, volume: v, estimate: est, evaluated: best.evaluated, ok: true}
				}
			}
		}
	}
	return best
}

// fits prices d and reports whether it stays within the budget.
func (s Search) fits(d shell.Dimensions) (float64, bool) {
	if d.InteriorLengthMM() <= 0 || d.InteriorWidthMM() <= 0 {
		return 0, false
	}
	if s.Estimator == EstimatorLattice {
		n := shell.ExpectedCount(d, s.Lattice)
		return float64(n), n <= s.MaxBricks
	}
	scaled := s.Density.scaledCount(d)
	return float64(scaled) / 1e6, scaled <= int64(s.MaxBricks)*1_000_000
}

// Estimate returns the density-model brick estimate for d, or +Inf when the
// interior is empty.
func (m Density) Estimate(d shell.Dimensions) float64 {
	if d.InteriorLengthMM() <= 0 || d.InteriorWidthMM() <= 0 {
		return math.Inf(1)
	}
	return float64(m.scaledCount(d)) / 1e6
}

// scaledCount is the density estimate times 10⁶, exact in integers:
// walls·10⁶ = wall·(Lmm+Wmm)·Hmm and slab·10⁶ = slab·Linmm·Winmm, once for
// the floor and once for the roof.
func (m Density) scaledCount(d shell.Dimensions) int64 {
	walls := int64(m.WallPerM2) * int64(d.LengthMM+d.WidthMM) * int64(d.HeightMM)
	slab := int64(m.SlabPerM2) * int64(d.InteriorLengthMM()) * int64(d.InteriorWidthMM())
	return walls + 2*slab
}

func (r Result) String() string {
	return fmt.Sprintf("%s (interior %.2f m³, ~%.0f bricks)", r.Dimensions, r.Volume, r.Estimate)
}
