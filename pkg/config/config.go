// Package config loads brickshell settings from TOML or YAML files.
//
// Every field has a default, so a config file only lists what it changes:
//
//	# brickshell.toml
//	[solver]
//	max_bricks = 12000
//
//	[output]
//	formats = ["csv", "png"]
//
// The format is chosen by extension: .toml, or .yaml / .yml. Unknown keys are
// rejected so that typos do not silently fall back to defaults. Command-line
// flags override file values; the prompt section also honors OPENAI_MODEL and
// OPENAI_BASE_URL.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/brickshell/pkg/cache"
	"github.com/matzehuels/brickshell/pkg/errors"
	"github.com/matzehuels/brickshell/pkg/httputil"
	"github.com/matzehuels/brickshell/pkg/pipeline"
	"github.com/matzehuels/brickshell/pkg/prompt"
	"github.com/matzehuels/brickshell/pkg/shell"
	"github.com/matzehuels/brickshell/pkg/shell/optimize"
)

// Config is the full configuration.
type Config struct {
	Solver  Solver        `toml:"solver" yaml:"solver" json:"solver"`
	Lattice shell.Lattice `toml:"lattice" yaml:"lattice" json:"lattice"`
	Output  Output        `toml:"output" yaml:"output" json:"output"`
	Cache   Cache         `toml:"cache" yaml:"cache" json:"cache"`
	Store   Store         `toml:"store" yaml:"store" json:"store"`
	Prompt  Prompt        `toml:"prompt" yaml:"prompt" json:"prompt"`
	Server  Server        `toml:"server" yaml:"server" json:"server"`
}

// Solver configures the dimension search.
type Solver struct {
	MaxBricks       int              `toml:"max_bricks" yaml:"max_bricks" json:"max_bricks"`
	WallThicknessMM int              `toml:"wall_thickness_mm" yaml:"wall_thickness_mm" json:"wall_thickness_mm"`
	Length          optimize.Range   `toml:"length" yaml:"length" json:"length"`
	Width           optimize.Range   `toml:"width" yaml:"width" json:"width"`
	Height          optimize.Range   `toml:"height" yaml:"height" json:"height"`
	Density         optimize.Density `toml:"density" yaml:"density" json:"density"`
	Estimator       string           `toml:"estimator" yaml:"estimator" json:"estimator"`
	Workers         int              `toml:"workers" yaml:"workers" json:"workers"`
}

// Output configures what solve writes and where.
type Output struct {
	Dir     string   `toml:"dir" yaml:"dir" json:"dir"`
	Formats []string `toml:"formats" yaml:"formats" json:"formats"`
	Views   []string `toml:"views" yaml:"views" json:"views"`
}

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Cache selects the result cache.
type Cache struct {
	Backend string `toml:"backend" yaml:"backend" json:"backend"`
	Dir     string `toml:"dir" yaml:"dir" json:"dir"`          // file backend; empty means the user cache dir
	URL     string `toml:"url" yaml:"url" json:"url"`          // redis backend
	Prefix  string `toml:"prefix" yaml:"prefix" json:"prefix"` // namespace for keys in a shared cache
}

// Keyer returns the cache keyer, scoped to Prefix when one is set. A nil
// result selects the default keyer.
func (c Cache) Keyer() cache.Keyer {
	if c.Prefix == "" {
		return nil
	}
	return cache.NewScopedKeyer(nil, c.Prefix)
}

// Store names the run store, e.g. "sqlite:runs.db" or "mongodb://host/db".
// Empty disables persistence.
type Store struct {
	URL string `toml:"url" yaml:"url" json:"url"`
}

// Prompt configures the natural-language opening generator.
type Prompt struct {
	Model          string `toml:"model" yaml:"model" json:"model"`
	BaseURL        string `toml:"base_url" yaml:"base_url" json:"base_url"`
	APIKeyEnv      string `toml:"api_key_env" yaml:"api_key_env" json:"api_key_env"`
	MaxAttempts    int    `toml:"max_attempts" yaml:"max_attempts" json:"max_attempts"`
	TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string `toml:"addr" yaml:"addr" json:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes" yaml:"max_body_bytes" json:"max_body_bytes"`
	MaxBricks    int    `toml:"max_bricks" yaml:"max_bricks" json:"max_bricks"` // upper bound accepted from clients
}

// Default returns the built-in configuration.
func Default() Config {
	s := optimize.DefaultSearch()
	return Config{
		Solver: Solver{
			MaxBricks:       s.MaxBricks,
			WallThicknessMM: s.ThicknessMM,
			Length:          s.Length,
			Width:           s.Width,
			Height:          s.Height,
			Density:         s.Density,
			Estimator:       s.Estimator,
		},
		Lattice: shell.DefaultLattice,
		Output: Output{
			Dir:     ".",
			Formats: []string{pipeline.FormatCSV},
		},
		Cache: Cache{Backend: CacheFile},
		Prompt: Prompt{
			Model:          prompt.DefaultModel,
			APIKeyEnv:      "OPENAI_API_KEY",
			MaxAttempts:    3,
			TimeoutSeconds: 60,
		},
		Server: Server{
			Addr:         ":8080",
			MaxBodyBytes: 1 << 20,
			MaxBricks:    100_000,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
			}
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
		}
		if err := Decode(data, filepath.Ext(path), &cfg); err != nil {
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode parses data in the format named by ext into cfg. Keys missing from
// data keep their current values.
func Decode(data []byte, ext string, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
		}
		return nil
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return err
		}
		return nil
	}
	return errors.New(errors.ErrCodeInvalidConfig, "unsupported config format %q (use .toml, .yaml or .yml)", ext)
}

// ApplyEnv overrides prompt settings from OPENAI_MODEL and OPENAI_BASE_URL.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.Prompt.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Prompt.BaseURL = v
	}
}

// Validate checks value ranges and enumerations.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.New(errors.ErrCodeInvalidConfig, format, args...)
	}
	if c.Solver.MaxBricks <= 0 {
		return invalid("solver.max_bricks must be positive, got %d", c.Solver.MaxBricks)
	}
	if c.Solver.WallThicknessMM <= 0 {
		return invalid("solver.wall_thickness_mm must be positive, got %d", c.Solver.WallThicknessMM)
	}
	if c.Solver.Workers < 0 {
		return invalid("solver.workers must not be negative, got %d", c.Solver.Workers)
	}
	if err := c.Search().Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "solver")
	}
	if c.Lattice.StepMM < 0 || c.Lattice.SlabStepXMM < 0 || c.Lattice.SlabStepYMM < 0 {
		return invalid("lattice steps must not be negative")
	}
	if err := pipeline.ValidateFormats(c.Output.Formats); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "output.formats")
	}
	switch c.Cache.Backend {
	case CacheFile, CacheNone:
	case CacheRedis:
		if c.Cache.URL == "" {
			return invalid("cache.url is required for the redis backend")
		}
	default:
		return invalid("cache.backend must be one of file, redis, none, got %q", c.Cache.Backend)
	}
	if u := c.Store.URL; u != "" && !strings.HasPrefix(u, "sqlite:") &&
		!strings.HasPrefix(u, "mongodb://") && !strings.HasPrefix(u, "mongodb+srv://") {
		return invalid("store.url must start with sqlite:, mongodb:// or mongodb+srv://, got %q", u)
	}
	if u := c.Prompt.BaseURL; u != "" {
		if err := errors.ValidateURL(u); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "prompt.base_url")
		}
	}
	if c.Prompt.MaxAttempts < 1 {
		return invalid("prompt.max_attempts must be at least 1, got %d", c.Prompt.MaxAttempts)
	}
	if c.Prompt.TimeoutSeconds <= 0 {
		return invalid("prompt.timeout_seconds must be positive, got %d", c.Prompt.TimeoutSeconds)
	}
	if c.Server.MaxBodyBytes <= 0 || c.Server.MaxBricks <= 0 {
		return invalid("server limits must be positive")
	}
	return nil
}

// Search returns the configured dimension search.
func (c Config) Search() optimize.Search {
	return optimize.Search{
		MaxBricks:   c.Solver.MaxBricks,
		ThicknessMM: c.Solver.WallThicknessMM,
		Length:      c.Solver.Length,
		Width:       c.Solver.Width,
		Height:      c.Solver.Height,
		Density:     c.Solver.Density,
		Lattice:     c.Lattice,
		Estimator:   c.Solver.Estimator,
		Workers:     c.Solver.Workers,
	}
}

// PipelineOptions returns pipeline options for the configured solver and
// output settings. Openings and the logger are left to the caller.
func (c Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		MaxBricks:   c.Solver.MaxBricks,
		ThicknessMM: c.Solver.WallThicknessMM,
		Length:      c.Solver.Length,
		Width:       c.Solver.Width,
		Height:      c.Solver.Height,
		Density:     c.Solver.Density,
		Estimator:   c.Solver.Estimator,
		Workers:     c.Solver.Workers,
		Lattice:     c.Lattice,
		Formats:     append([]string(nil), c.Output.Formats...),
		Views:       append([]string(nil), c.Output.Views...),
	}
}

// PromptOptions returns client options for the prompt section. The API key
// is read from the environment variable named by api_key_env.
func (c Config) PromptOptions() prompt.Options {
	return prompt.Options{
		APIKey:  os.Getenv(c.Prompt.APIKeyEnv),
		BaseURL: c.Prompt.BaseURL,
		Model:   c.Prompt.Model,
		Timeout: time.Duration(c.Prompt.TimeoutSeconds) * time.Second,
		Backoff: httputil.Backoff{Attempts: c.Prompt.MaxAttempts, Delay: httputil.DefaultBackoff.Delay},
	}
}
