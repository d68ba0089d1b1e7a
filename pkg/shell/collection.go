package shell

import (
	"slices"

	"github.com/matzehuels/brickshell/pkg/errors"
)

// Collection is the ordered brick set of one building. Bricks keep their
// generation order; a per-region index restricts carving to one wall.
//
// A Collection is not safe for concurrent mutation.
type Collection struct {
	dims     Dimensions
	bricks   []Brick
	byRegion map[Region][]int
}

// NewCollection builds a collection from existing bricks, for example rows
// read back from a placement file. IDs must be unique and every brick must
// carry a known region.
func NewCollection(d Dimensions, bricks []Brick) (*Collection, error) {
	c := newCollection(d, len(bricks))
	seen := make(map[int]struct{}, len(bricks))
	for _, b := range bricks {
		if _, ok := ParseRegion(string(b.Region)); !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "brick %d: unknown region %q", b.ID, b.Region)
		}
		if _, dup := seen[b.ID]; dup {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate brick id %d", b.ID)
		}
		seen[b.ID] = struct{}{}
		c.add(b)
	}
	return c, nil
}

func newCollection(d Dimensions, capacity int) *Collection {
	return &Collection{
		dims:     d,
		bricks:   make([]Brick, 0, capacity),
		byRegion: make(map[Region][]int, len(Regions)),
	}
}

func (c *Collection) add(b Brick) {
	c.byRegion[b.Region] = append(c.byRegion[b.Region], len(c.bricks))
	c.bricks = append(c.bricks, b)
}

// Dimensions returns the shell dimensions the collection was generated for.
func (c *Collection) Dimensions() Dimensions { return c.dims }

// Len returns the total number of bricks, active or not.
func (c *Collection) Len() int { return len(c.bricks) }

// At returns the i-th brick in generation order.
func (c *Collection) At(i int) Brick { return c.bricks[i] }

// Bricks returns a copy of all bricks in generation order.
func (c *Collection) Bricks() []Brick { return slices.Clone(c.bricks) }

// Region returns a copy of the bricks tagged with r, in generation order.
func (c *Collection) Region(r Region) []Brick {
	idx := c.byRegion[r]
	out := make([]Brick, len(idx))
	for i, j := range idx {
		out[i] = c.bricks[j]
	}
	return out
}

// ActiveCount returns the number of bricks still present.
func (c *Collection) ActiveCount() int {
	n := 0
	for i := range c.bricks {
		if c.bricks[i].Active {
			n++
		}
	}
	return n
}

// RegionCounts returns the number of bricks per region.
func (c *Collection) RegionCounts() map[Region]int {
	out := make(map[Region]int, len(c.byRegion))
	for r, idx := range c.byRegion {
		out[r] = len(idx)
	}
	return out
}
