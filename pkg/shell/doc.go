// Package shell models the brick shell of a rectangular building.
//
// A shell is described by its outer [Dimensions] and a wall thickness. The
// [Generate] function enumerates every brick of the four walls, the floor and
// the roof on a fixed lattice and returns them as a [Collection]. Openings
// (doors and windows) are cut with [Collection.Carve], which deactivates the
// bricks of one wall whose centers fall inside the opening's bounding box.
//
// # Units
//
// Lengths are stored as integer millimeters. Brick centers are exposed in
// meters, rounded to the millimeter, which keeps the 0.1 m lattice exact and
// makes comparisons against opening boxes stable.
//
// # Coordinate frame
//
// X runs along the front and back walls, Y along the left and right walls and
// Z upwards. The front wall sits at y = 0, the back wall at y = width - t, the
// left wall at x = 0 and the right wall at x = length - t. Openings on the
// left and right walls are given in wall-local coordinates whose x axis maps
// to global Y.
//
// # Lifecycle
//
// Bricks are never removed. Carving only flips Active from true to false, so
// the full brick set remains available for export and inspection. Carving the
// same box twice is a no-op the second time.
package shell
