package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matzehuels/brickshell/pkg/cache"
	"github.com/matzehuels/brickshell/pkg/opening"
	"github.com/matzehuels/brickshell/pkg/shell"
	"github.com/matzehuels/brickshell/pkg/shell/optimize"
)

var cube2m = shell.Dimensions{LengthMM: 2000, WidthMM: 2000, HeightMM: 2000, ThicknessMM: 200}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"csv", false},
		{"json", false},
		{"png", false},
		{"svg", false},
		{"pdf", false},
		{"xlsx", true},
		{"CSV", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("empty formats should pass: %v", err)
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.MaxBricks != optimize.DefaultMaxBricks {
		t.Errorf("MaxBricks = %d, want %d", opts.MaxBricks, optimize.DefaultMaxBricks)
	}
	if opts.ThicknessMM != shell.DefaultThicknessMM {
		t.Errorf("ThicknessMM = %d, want %d", opts.ThicknessMM, shell.DefaultThicknessMM)
	}
	if opts.Estimator != optimize.EstimatorDensity {
		t.Errorf("Estimator = %q", opts.Estimator)
	}
	if opts.Lattice != shell.DefaultLattice {
		t.Errorf("Lattice = %+v", opts.Lattice)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatCSV {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if len(opts.Views) != 6 {
		t.Errorf("Views = %v", opts.Views)
	}
	if opts.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"bad format", Options{Formats: []string{"xlsx"}}},
		{"bad view", Options{Views: []string{"top"}}},
		{"negative budget", Options{MaxBricks: -1}},
		{"bad estimator", Options{Estimator: "guess"}},
		{"bad dimensions", Options{Dimensions: &shell.Dimensions{LengthMM: 300, WidthMM: 2000, HeightMM: 2000, ThicknessMM: 200}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestExecuteDoorExample(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	d := cube2m
	res, err := r.Execute(context.Background(), Options{
		Dimensions: &d,
		Openings:   []opening.Spec{opening.NewSpec(opening.TypeDoor, "front", 800, 0, 900, 2100)},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Stats.Total != 1856 {
		t.Errorf("Total = %d, want 1856", res.Stats.Total)
	}
	if res.Stats.Carved != 200 || res.Openings[0].Bricks != 200 {
		t.Errorf("Carved = %d, want 200", res.Stats.Carved)
	}
	if res.Stats.Active != 1656 {
		t.Errorf("Active = %d, want 1656", res.Stats.Active)
	}
	counts := res.Collection.RegionCounts()
	for _, b := range res.Collection.Bricks() {
		if b.Region != shell.RegionFront && !b.Active {
			t.Fatalf("brick %d in %s was carved", b.ID, b.Region)
		}
	}
	if counts[shell.RegionFront] != 400 {
		t.Errorf("front has %d bricks, want 400", counts[shell.RegionFront])
	}

	csv := string(res.Artifacts[FilePlacementCSV])
	if !strings.HasPrefix(csv, "id,x,y,z,dx,dy,dz,active,region\n") {
		t.Errorf("placement.csv header missing: %.40q", csv)
	}
	if got := strings.Count(csv, "\n"); got != 1857 {
		t.Errorf("placement.csv has %d lines, want 1857", got)
	}
	audit := string(res.Artifacts[FileOpeningsCSV])
	want := "type,wall,x_mm,z_mm,width_mm,height_mm\ndoor,front,800,0,900,2100\n"
	if audit != want {
		t.Errorf("openings.csv = %q, want %q", audit, want)
	}
}

func TestExecuteNoOpenings(t *testing.T) {
	d := cube2m
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{Dimensions: &d})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Stats.Active != res.Stats.Total {
		t.Errorf("Active = %d, want all %d", res.Stats.Active, res.Stats.Total)
	}
	if _, ok := res.Artifacts[FileOpeningsCSV]; ok {
		t.Error("openings.csv produced for an empty opening list")
	}
}

func TestExecuteUnknownWall(t *testing.T) {
	d := cube2m
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{
		Dimensions: &d,
		Openings: []opening.Spec{
			opening.NewSpec(opening.TypeWindow, "roof", 0, 0, 500, 500),
			opening.NewSpec(opening.TypeWindow, "back", 500, 500, 500, 500),
		},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Stats.Ignored != 1 {
		t.Errorf("Ignored = %d, want 1", res.Stats.Ignored)
	}
	if !errors.Is(res.Openings[0].Err, shell.ErrUnknownWall) {
		t.Errorf("first opening error = %v, want unknown wall", res.Openings[0].Err)
	}
	// 0.5–1.0 m in both directions: 6 × 6 bricks.
	if res.Openings[1].Bricks != 36 {
		t.Errorf("back window carved %d, want 36", res.Openings[1].Bricks)
	}
	if _, ok := res.Artifacts[FileOpeningsCSV]; !ok {
		t.Error("openings.csv missing")
	}
}

func TestExecuteDefaultSearch(t *testing.T) {
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{Workers: 4})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := shell.Dimensions{LengthMM: 6400, WidthMM: 6400, HeightMM: 2500, ThicknessMM: 200}
	if res.Dimensions != want {
		t.Errorf("Dimensions = %+v, want %+v", res.Dimensions, want)
	}
	if res.Stats.Total != 10000 || res.Stats.EstimateDrift != 0 {
		t.Errorf("Total = %d, drift = %d; want 10000, 0", res.Stats.Total, res.Stats.EstimateDrift)
	}
}

func TestExecuteInfeasible(t *testing.T) {
	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), Options{MaxBricks: 500})
	if !errors.Is(err, optimize.ErrNoFeasibleDimensions) {
		t.Errorf("error = %v, want no feasible dimensions", err)
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRunner(nil, nil, nil).Execute(ctx, Options{Workers: 2}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func smallSearch() Options {
	return Options{
		MaxBricks: 3000,
		Length:    optimize.Range{MinMM: 800, MaxMM: 6000, StepMM: 100},
		Width:     optimize.Range{MinMM: 800, MaxMM: 6000, StepMM: 100},
	}
}

func TestOptimizeUsesCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	defer r.Close()
	ctx := context.Background()

	first, hit, err := r.OptimizeWithCacheInfo(ctx, smallSearch())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if hit {
		t.Error("first run should miss")
	}
	second, hit, err := r.OptimizeWithCacheInfo(ctx, smallSearch())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !hit {
		t.Error("second run should hit")
	}
	if first != second {
		t.Errorf("cached result %+v differs from %+v", second, first)
	}

	refresh := smallSearch()
	refresh.Refresh = true
	if _, hit, _ := r.OptimizeWithCacheInfo(ctx, refresh); hit {
		t.Error("refresh should bypass the cache")
	}

	other := smallSearch()
	other.MaxBricks = 2500
	if _, hit, _ := r.OptimizeWithCacheInfo(ctx, other); hit {
		t.Error("different budget should miss")
	}
}

func TestExportFormats(t *testing.T) {
	c := shell.Generate(cube2m)
	artifacts, err := Export(c, nil, Options{
		Formats: []string{FormatJSON, FormatSVG},
		Views:   []string{"front", "iso"},
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	for _, name := range []string{FilePlacementJSON, "front.svg", "iso.svg"} {
		if len(artifacts[name]) == 0 {
			t.Errorf("artifact %s missing", name)
		}
	}
	if len(artifacts) != 3 {
		t.Errorf("got %d artifacts, want 3", len(artifacts))
	}
}

func TestDimensionsKeyIgnoresWorkers(t *testing.T) {
	a, b := smallSearch(), smallSearch()
	b.Workers = 8
	a.SetOptimizeDefaults()
	b.SetOptimizeDefaults()
	k := cache.NewDefaultKeyer()
	if k.DimensionsKey(a.DimensionsKeyOpts()) != k.DimensionsKey(b.DimensionsKeyOpts()) {
		t.Error("worker count changed the cache key")
	}
}
