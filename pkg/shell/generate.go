package shell

// Lattice holds the brick spacing used by Generate, in millimeters.
type Lattice struct {
	StepMM      int `json:"step_mm" toml:"step_mm" yaml:"step_mm"`                      // wall bricks, every axis
	SlabStepXMM int `json:"slab_step_x_mm" toml:"slab_step_x_mm" yaml:"slab_step_x_mm"` // floor and roof, along X
	SlabStepYMM int `json:"slab_step_y_mm" toml:"slab_step_y_mm" yaml:"slab_step_y_mm"` // floor and roof, along Y
}

// DefaultLattice places wall bricks every 0.1 m and slab bricks every
// 0.2 m along X and 0.1 m along Y.
var DefaultLattice = Lattice{StepMM: 100, SlabStepXMM: 200, SlabStepYMM: 100}

// withDefaults replaces non-positive steps with the default lattice values.
func (l Lattice) withDefaults() Lattice {
	if l.StepMM <= 0 {
		l.StepMM = DefaultLattice.StepMM
	}
	if l.SlabStepXMM <= 0 {
		l.SlabStepXMM = DefaultLattice.SlabStepXMM
	}
	if l.SlabStepYMM <= 0 {
		l.SlabStepYMM = DefaultLattice.SlabStepYMM
	}
	return l
}

// Generate enumerates the solid shell for d on the default lattice.
func Generate(d Dimensions) *Collection {
	return GenerateWith(d, DefaultLattice)
}

// GenerateWith enumerates the solid shell for d on the given lattice.
//
// Positions run from 0 up to but excluding the outer dimension, so the last
// wall plane sits one step below it. Bricks are emitted, and numbered from 1,
// in this order: for every z plane the front row then the back row; for
// every z plane the left row then the right row; the floor at z = 0; the roof
// at z = height. Floor and roof cover [t, length-t) × [t, width-t).
//
// Callers must not read spatial meaning into brick IDs.
func GenerateWith(d Dimensions, l Lattice) *Collection {
	l = l.withDefaults()
	c := newCollection(d, ExpectedCount(d, l))
	nextID := 1
	emit := func(x, y, z int, o Orientation, r Region) {
		c.add(Brick{
			ID:          nextID,
			X:           mmToM(x),
			Y:           mmToM(y),
			Z:           mmToM(z),
			Orientation: o,
			Active:      true,
			Region:      r,
		})
		nextID++
	}

	t := d.ThicknessMM
	for z := 0; z < d.HeightMM; z += l.StepMM {
		for x := 0; x < d.LengthMM; x += l.StepMM {
			emit(x, 0, z, AlongX, RegionFront)
		}
		for x := 0; x < d.LengthMM; x += l.StepMM {
			emit(x, d.WidthMM-t, z, AlongX, RegionBack)
		}
	}
	for z := 0; z < d.HeightMM; z += l.StepMM {
		for y := 0; y < d.WidthMM; y += l.StepMM {
			emit(0, y, z, AlongY, RegionLeft)
		}
		for y := 0; y < d.WidthMM; y += l.StepMM {
			emit(d.LengthMM-t, y, z, AlongY, RegionRight)
		}
	}
	for _, slab := range []struct {
		z int
		r Region
	}{{0, RegionFloor}, {d.HeightMM, RegionRoof}} {
		for x := t; x < d.LengthMM-t; x += l.SlabStepXMM {
			for y := t; y < d.WidthMM-t; y += l.SlabStepYMM {
				emit(x, y, slab.z, Flat, slab.r)
			}
		}
	}
	return c
}

// ExpectedCount returns the number of bricks GenerateWith emits for d.
func ExpectedCount(d Dimensions, l Lattice) int {
	l = l.withDefaults()
	nx := steps(d.LengthMM, l.StepMM)
	ny := steps(d.WidthMM, l.StepMM)
	nz := steps(d.HeightMM, l.StepMM)
	sx := steps(d.InteriorLengthMM(), l.SlabStepXMM)
	sy := steps(d.InteriorWidthMM(), l.SlabStepYMM)
	return nz*(2*nx+2*ny) + 2*sx*sy
}

// steps counts the positions 0, step, 2·step, … below span.
func steps(span, step int) int {
	if span <= 0 || step <= 0 {
		return 0
	}
	return (span + step - 1) / step
}
