package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/brickshell/pkg/cache"
	"github.com/matzehuels/brickshell/pkg/errors"
	"github.com/matzehuels/brickshell/pkg/shell/optimize"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Solver.MaxBricks != 10000 || cfg.Solver.WallThicknessMM != 200 {
		t.Errorf("solver defaults = %+v", cfg.Solver)
	}
	if diff := cmp.Diff(optimize.DefaultSearch(), cfg.Search()); diff != "" {
		t.Errorf("Search() differs from DefaultSearch (-want +got):\n%s", diff)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "")
	t.Setenv("OPENAI_BASE_URL", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load(\"\") differs from Default (-want +got):\n%s", diff)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "brickshell.toml", `
[solver]
max_bricks = 12000
estimator = "lattice"

[solver.height]
min_mm = 2000
max_mm = 2800
step_mm = 100

[output]
formats = ["csv", "png"]
views = ["front", "plan"]

[cache]
backend = "none"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Solver.MaxBricks != 12000 || cfg.Solver.Estimator != "lattice" {
		t.Errorf("solver = %+v", cfg.Solver)
	}
	if cfg.Solver.Height != (optimize.Range{MinMM: 2000, MaxMM: 2800, StepMM: 100}) {
		t.Errorf("height = %+v", cfg.Solver.Height)
	}
	if cfg.Solver.WallThicknessMM != 200 {
		t.Errorf("unset wall thickness = %d, want default 200", cfg.Solver.WallThicknessMM)
	}
	if diff := cmp.Diff([]string{"csv", "png"}, cfg.Output.Formats); diff != "" {
		t.Errorf("formats (-want +got):\n%s", diff)
	}
	if cfg.Cache.Backend != CacheNone {
		t.Errorf("cache backend = %q", cfg.Cache.Backend)
	}
}

func TestLoadYAML(t *testing.T) {
	for _, name := range []string{"brickshell.yaml", "brickshell.yml"} {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, name, `
solver:
  max_bricks: 8000
  workers: 4
lattice:
  step_mm: 100
  slab_step_x_mm: 100
  slab_step_y_mm: 100
store:
  url: sqlite:runs.db
`)
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Solver.MaxBricks != 8000 || cfg.Solver.Workers != 4 {
				t.Errorf("solver = %+v", cfg.Solver)
			}
			if cfg.Lattice.SlabStepXMM != 100 {
				t.Errorf("lattice = %+v", cfg.Lattice)
			}
			if cfg.Store.URL != "sqlite:runs.db" {
				t.Errorf("store = %+v", cfg.Store)
			}
		})
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "empty.yaml", ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Solver.MaxBricks != 10000 {
		t.Errorf("MaxBricks = %d, want default", cfg.Solver.MaxBricks)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		code    errors.Code
	}{
		{"unknown toml key", "c.toml", "[solver]\nmax_brick = 1\n", errors.ErrCodeInvalidConfig},
		{"unknown yaml key", "c.yaml", "solver:\n  max_brick: 1\n", errors.ErrCodeInvalidConfig},
		{"bad syntax", "c.toml", "[solver\n", errors.ErrCodeInvalidConfig},
		{"unsupported extension", "c.ini", "max_bricks=1", errors.ErrCodeInvalidConfig},
		{"zero budget", "c.toml", "[solver]\nmax_bricks = -5\n", errors.ErrCodeInvalidConfig},
		{"bad format", "c.yaml", "output:\n  formats: [xlsx]\n", errors.ErrCodeInvalidConfig},
		{"bad cache", "c.yaml", "cache:\n  backend: memcached\n", errors.ErrCodeInvalidConfig},
		{"redis without url", "c.yaml", "cache:\n  backend: redis\n", errors.ErrCodeInvalidConfig},
		{"bad store", "c.yaml", "store:\n  url: postgres://x\n", errors.ErrCodeInvalidConfig},
		{"bad estimator", "c.toml", "[solver]\nestimator = \"guess\"\n", errors.ErrCodeInvalidConfig},
		{"bad base url", "c.toml", "[prompt]\nbase_url = \"ftp://models\"\n", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.content))
			if !errors.Is(err, tt.code) {
				t.Errorf("Load error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "gpt-4.1")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prompt.Model != "gpt-4.1" || cfg.Prompt.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("prompt = %+v", cfg.Prompt)
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg := Default()
	cfg.Output.Formats = []string{"json"}
	opts := cfg.PipelineOptions()
	if opts.MaxBricks != cfg.Solver.MaxBricks || opts.ThicknessMM != cfg.Solver.WallThicknessMM {
		t.Errorf("opts = %+v", opts)
	}
	opts.Formats[0] = "csv"
	if cfg.Output.Formats[0] != "json" {
		t.Error("PipelineOptions shares the formats slice with the config")
	}
}

func TestPromptOptions(t *testing.T) {
	t.Setenv("BRICKSHELL_TEST_KEY", "sk-test")
	cfg := Default()
	cfg.Prompt.APIKeyEnv = "BRICKSHELL_TEST_KEY"
	cfg.Prompt.MaxAttempts = 5
	cfg.Prompt.TimeoutSeconds = 30

	opts := cfg.PromptOptions()
	if opts.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", opts.APIKey)
	}
	if opts.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", opts.Model)
	}
	if opts.Timeout != 30*time.Second || opts.Backoff.Attempts != 5 {
		t.Errorf("Timeout = %v, Attempts = %d", opts.Timeout, opts.Backoff.Attempts)
	}
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "examples", "brickshell.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Solver.MaxBricks != 12000 {
		t.Errorf("max_bricks = %d, want 12000", cfg.Solver.MaxBricks)
	}
	want := optimize.Range{MinMM: 2100, MaxMM: 2700, StepMM: 100}
	if diff := cmp.Diff(want, cfg.Solver.Height); diff != "" {
		t.Errorf("height range (-want +got):\n%s", diff)
	}
	if cfg.Store.URL != "sqlite:out/runs.db" {
		t.Errorf("store url = %q", cfg.Store.URL)
	}
}

func TestCacheKeyer(t *testing.T) {
	if k := (Cache{}).Keyer(); k != nil {
		t.Errorf("Keyer() without prefix = %T, want nil", k)
	}

	path := writeConfig(t, "brickshell.toml", "[cache]\nprefix = \"staging:\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	k := cfg.Cache.Keyer()
	if k == nil {
		t.Fatal("Keyer() with prefix = nil")
	}
	opts := cache.DimensionsKeyOpts{MaxBricks: cfg.Solver.MaxBricks}
	want := "staging:" + cache.NewDefaultKeyer().DimensionsKey(opts)
	if got := k.DimensionsKey(opts); got != want {
		t.Errorf("DimensionsKey = %q, want %q", got, want)
	}
}
