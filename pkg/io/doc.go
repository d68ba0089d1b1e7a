// Package io reads and writes brick placements and opening audits.
//
// # Placement CSV
//
// The placement file lists every brick in generation order, one row each:
//
//	id,x,y,z,dx,dy,dz,active,region
//	1,0,0,0,1,0,0,1,front
//	2,0.1,0,0,1,0,0,0,front
//
// Coordinates are brick centers in meters; dx, dy and dz are the unit-axis
// orientation; active is 1 or 0. Use [ExportPlacementCSV] to write a file and
// [ImportPlacementCSV] to read one back, for example to render it.
//
// # Placement JSON
//
// [WritePlacementJSON] emits the same bricks together with the building
// dimensions:
//
//	{
//	  "dimensions": {"length_mm": 6400, "width_mm": 6400, "height_mm": 2500, "thickness_mm": 200},
//	  "bricks": [{"id": 1, "x": 0, "y": 0, "z": 0, "dx": 1, "dy": 0, "dz": 0, "active": true, "region": "front"}]
//	}
//
// Unlike the CSV, this form carries enough information to rebuild a
// [shell.Collection] with [ReadPlacementJSON].
//
// # Opening audit
//
// [ExportOpeningsCSV] echoes the accepted openings. The header is the key list
// of the first opening in its original order; later openings render missing
// keys as empty cells and drop keys the header does not name. An empty list
// writes no file.
//
// [shell.Collection]: github.com/matzehuels/brickshell/pkg/shell.Collection
package io
