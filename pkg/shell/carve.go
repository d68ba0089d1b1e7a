package shell

import (
	"github.com/matzehuels/brickshell/pkg/errors"
)

// Tolerance widens every bound of an opening box, in meters, so brick centers
// that sit exactly on a box edge are included despite lattice rounding.
const Tolerance = 0.001

var (
	// ErrUnknownWall matches errors returned when an opening names a wall
	// outside front, back, left and right.
	ErrUnknownWall = errors.Sentinel(errors.ErrCodeUnknownWall)

	// ErrInvalidOpening matches errors returned for openings with a
	// non-positive width or height.
	ErrInvalidOpening = errors.Sentinel(errors.ErrCodeInvalidOpening)
)

// Box is an axis-aligned box in the global frame, in meters.
type Box struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// Contains reports whether (x, y, z) lies inside the box widened by
// Tolerance on every bound.
func (b Box) Contains(x, y, z float64) bool {
	return b.MinX-Tolerance <= x && x <= b.MaxX+Tolerance &&
		b.MinY-Tolerance <= y && y <= b.MaxY+Tolerance &&
		b.MinZ-Tolerance <= z && z <= b.MaxZ+Tolerance
}

// OpeningBox converts a wall-relative opening into a global box.
//
// xMM is measured from the wall's left edge and zMM from the ground. On the
// front and back walls the wall-local x axis is global X; on the left and
// right walls it is global Y. The box always spans the full wall thickness.
func OpeningBox(d Dimensions, wall Wall, xMM, zMM, widthMM, heightMM int) (Box, error) {
	if widthMM <= 0 || heightMM <= 0 {
		return Box{}, errors.New(errors.ErrCodeInvalidOpening,
			"opening size must be positive, got %d × %d mm", widthMM, heightMM)
	}

	xRel := mmToM(xMM)
	width := mmToM(widthMM)
	b := Box{MinZ: mmToM(zMM)}
	b.MaxZ = b.MinZ + mmToM(heightMM)

	switch wall {
	case WallFront:
		b.MinX, b.MaxX = xRel, xRel+width
		b.MinY, b.MaxY = 0, d.Thickness()
	case WallBack:
		b.MinX, b.MaxX = xRel, xRel+width
		b.MinY, b.MaxY = d.Width()-d.Thickness(), d.Width()
	case WallLeft:
		b.MinX, b.MaxX = 0, d.Thickness()
		b.MinY, b.MaxY = xRel, xRel+width
	case WallRight:
		b.MinX, b.MaxX = d.Length()-d.Thickness(), d.Length()
		b.MinY, b.MaxY = xRel, xRel+width
	default:
		return Box{}, errors.New(errors.ErrCodeUnknownWall, "unknown wall %s", wall)
	}
	return b, nil
}

// Carve deactivates every brick of the given wall whose center lies inside
// the opening box and returns how many bricks changed from active to
// inactive during this call. Bricks of other regions are never touched, even
// when they fall inside the box. Carving the same opening again returns 0.
//
// Unknown walls yield an error matching ErrUnknownWall and carve nothing.
func (c *Collection) Carve(wall Wall, xMM, zMM, widthMM, heightMM int) (int, error) {
	box, err := OpeningBox(c.dims, wall, xMM, zMM, widthMM, heightMM)
	if err != nil {
		return 0, err
	}
	return c.Deactivate(wall.Region(), box), nil
}

// CarveDoor cuts a door: an opening whose sill is on the ground.
func (c *Collection) CarveDoor(wall Wall, xMM, widthMM, heightMM int) (int, error) {
	return c.Carve(wall, xMM, 0, widthMM, heightMM)
}

// CarveWindow cuts a window whose sill is zMM above the ground.
func (c *Collection) CarveWindow(wall Wall, xMM, zMM, widthMM, heightMM int) (int, error) {
	return c.Carve(wall, xMM, zMM, widthMM, heightMM)
}

// Deactivate marks the bricks of region r inside box as inactive and returns
// the number of transitions.
func (c *Collection) Deactivate(r Region, box Box) int {
	n := 0
	for _, i := range c.byRegion[r] {
		b := &c.bricks[i]
		if b.Active && box.Contains(b.X, b.Y, b.Z) {
			b.Active = false
			n++
		}
	}
	return n
}
