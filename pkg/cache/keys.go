package cache

import "time"

// Keyer derives cache keys from the parameters that determine a result.
type Keyer interface {
	// DimensionsKey identifies a dimension search result.
	DimensionsKey(opts DimensionsKeyOpts) string

	// SolveKey identifies a rendered solve response.
	SolveKey(dimensionsKey, openingsHash, format string) string
}

// DimensionsKeyOpts lists every input of the dimension search. Ranges are
// min, max and step in millimeters; Density is wall then slab bricks per m².
type DimensionsKeyOpts struct {
	MaxBricks   int    `json:"max_bricks"`
	ThicknessMM int    `json:"thickness_mm"`
	Length      [3]int `json:"length"`
	Width       [3]int `json:"width"`
	Height      [3]int `json:"height"`
	Density     [2]int `json:"density"`
	Lattice     [3]int `json:"lattice"`
	Estimator   string `json:"estimator"`
}

// DefaultKeyer hashes key inputs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) DimensionsKey(opts DimensionsKeyOpts) string {
	return hashKey("dimensions", opts)
}

func (DefaultKeyer) SolveKey(dimensionsKey, openingsHash, format string) string {
	return hashKey("solve", dimensionsKey, openingsHash, format)
}

// ScopedKeyer prefixes every key of an inner keyer, so that several
// deployments can share one Redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) DimensionsKey(opts DimensionsKeyOpts) string {
	return k.prefix + k.inner.DimensionsKey(opts)
}

func (k *ScopedKeyer) SolveKey(dimensionsKey, openingsHash, format string) string {
	return k.prefix + k.inner.SolveKey(dimensionsKey, openingsHash, format)
}

// Entry lifetimes. Dimension searches are pure, so their results only age
// out to bound disk use.
const (
	TTLDimensions = 30 * 24 * time.Hour
	TTLSolve      = 24 * time.Hour
)
