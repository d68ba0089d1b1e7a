// Package opening reads and validates door and window specifications.
//
// Openings arrive as a JSON array of objects, typically produced by the
// prompt command or written by hand:
//
//	[
//	  {"type": "door", "wall": "front", "x_mm": 800, "z_mm": 0, "width_mm": 900, "height_mm": 2100},
//	  {"type": "window", "wall": "left", "x_mm": 1000, "z_mm": 900, "width_mm": 1200, "height_mm": 1000}
//	]
//
// # Validation
//
// [ReadJSON] validates each record on its own. Records that are not objects,
// lack a required key, carry a non-integer measurement, name a type other
// than door or window, or have a non-positive width or height are returned
// as [Skipped] entries and the rest of the list is still accepted. A door may
// omit z_mm because its sill is always on the ground; a window may not.
//
// The wall is deliberately not validated here. An unrecognized wall passes
// through and is reported when the opening is carved, which then does
// nothing.
//
// Only a document that is not a JSON array at all is an error.
//
// # Field order
//
// Each accepted [Spec] remembers the keys and raw values of its source record
// in their original order, so the accepted list can be echoed verbatim into
// an audit file.
package opening
