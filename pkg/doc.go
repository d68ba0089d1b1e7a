// Package pkg provides the core libraries for brickshell.
//
// # Overview
//
// Brickshell designs a rectangular brick shelter: it picks the largest
// dimensions a brick budget allows, lays out every brick of the walls, floor
// and roof, and carves door and window openings by deactivating the bricks
// inside them. The pkg directory is organized into these areas:
//
//  1. [shell] - Domain model (dimensions, bricks, lattice generation, carving)
//  2. [shell/optimize] - Dimension search under a brick budget
//  3. [opening] - Opening records: validation and the audit field list
//  4. [pipeline] - Orchestration (optimize → generate → carve → export)
//  5. [io], [render] - CSV/JSON files and plotted views
//  6. [cache], [store] - Search cache and run persistence
//  7. [server], [prompt] - HTTP API and natural-language openings
//
// # Architecture
//
// The data flow of a solve:
//
//	openings.json
//	     ↓
//	[opening] package (validate, skip malformed records)
//	     ↓
//	[shell/optimize] package (best dimensions, cached)
//	     ↓
//	[shell] package (generate bricks, carve openings)
//	     ↓
//	placement.csv, openings.csv, JSON, PNG/SVG/PDF
//
// # Quick Start
//
// Solve the default search with one front door:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/brickshell/pkg/opening"
//	    "github.com/matzehuels/brickshell/pkg/pipeline"
//	)
//
//	door := opening.NewSpec(opening.TypeDoor, "front", 800, 0, 900, 2100)
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Execute(context.Background(), pipeline.Options{
//	    Openings: []opening.Spec{door},
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d / %d bricks active\n", res.Stats.Active, res.Stats.Total)
//
// The lower-level pieces can be used on their own:
//
//	c := shell.Generate(shell.Dimensions{LengthMM: 2000, WidthMM: 2000, HeightMM: 2000, ThicknessMM: 200})
//	carved, err := c.CarveDoor(shell.WallFront, 800, 900, 2100)
//
// # Errors
//
// Every package reports failures through [errors], whose codes map onto CLI
// messages and HTTP status codes.
//
// [shell]: https://pkg.go.dev/github.com/matzehuels/brickshell/pkg/shell
// [shell/optimize]: https://pkg.go.dev/github.com/matzehuels/brickshell/pkg/shell/optimize
// [opening]: https://pkg.go.dev/github.com/matzehuels/brickshell/pkg/opening
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/brickshell/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/matzehuels/brickshell/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/brickshell/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/brickshell/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/brickshell/pkg/store
// [server]: https://pkg.go.dev/github.com/matzehuels/brickshell/pkg/server
// [prompt]: https://pkg.go.dev/github.com/matzehuels/brickshell/pkg/prompt
// [errors]: https://pkg.go.dev/github.com/matzehuels/brickshell/pkg/errors
package pkg
