// Package render draws brick placements as 2D plots.
//
// Each [View] projects the bricks onto a plane:
//
//   - front, back: global x against z for that wall's bricks
//   - left, right: global y against z for that wall's bricks
//   - plan: x against y for the floor and the bottom course of every wall
//   - iso: an isometric projection of every brick
//
// Elevations use the same wall-local axes as opening specifications, so a
// door at x_mm 800 appears 0.8 m from the left edge of its plot. Active
// bricks are drawn as filled squares and carved bricks as crosses.
//
//	data, err := render.Render(bricks, render.ViewFront, render.WithFormat("svg"))
//
// Drawing is done with gonum.org/v1/plot; any format its WriterTo accepts
// (png, svg, pdf, eps, jpg, tiff) can be requested.
package render
