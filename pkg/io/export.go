package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/brickshell/pkg/opening"
	"github.com/matzehuels/brickshell/pkg/shell"
)

// PlacementHeader is the column order of placement CSV files.
var PlacementHeader = []string{"id", "x", "y", "z", "dx", "dy", "dz", "active", "region"}

type placement struct {
	Dimensions shell.Dimensions `json:"dimensions"`
	Bricks     []shell.Brick    `json:"bricks"`
}

// WritePlacementCSV writes every brick of c to w in generation order.
func WritePlacementCSV(c *shell.Collection, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PlacementHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(PlacementHeader))
	for i := 0; i < c.Len(); i++ {
		b := c.At(i)
		row[0] = strconv.Itoa(b.ID)
		row[1] = formatFloat(b.X)
		row[2] = formatFloat(b.Y)
		row[3] = formatFloat(b.Z)
		row[4] = strconv.Itoa(b.DX)
		row[5] = strconv.Itoa(b.DY)
		row[6] = strconv.Itoa(b.DZ)
		row[7] = "0"
		if b.Active {
			row[7] = "1"
		}
		row[8] = string(b.Region)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write brick %d: %w", b.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportPlacementCSV writes the placement CSV to path.
func ExportPlacementCSV(c *shell.Collection, path string) error {
	return writeFile(path, func(w io.Writer) error { return WritePlacementCSV(c, w) })
}

// WritePlacementJSON writes the dimensions and bricks of c as indented JSON.
func WritePlacementJSON(c *shell.Collection, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(placement{Dimensions: c.Dimensions(), Bricks: c.Bricks()}); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportPlacementJSON writes the placement JSON to path.
func ExportPlacementJSON(c *shell.Collection, path string) error {
	return writeFile(path, func(w io.Writer) error { return WritePlacementJSON(c, w) })
}

// WriteOpeningsCSV writes the audit table of specs. The header comes from the
// first spec; nothing is written for an empty list.
func WriteOpeningsCSV(specs []opening.Spec, w io.Writer) error {
	if len(specs) == 0 {
		return nil
	}
	var header []string
	for _, f := range specs[0].Fields() {
		header = append(header, f.Key)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, s := range specs {
		values := make(map[string]string, len(header))
		for _, f := range s.Fields() {
			if _, ok := values[f.Key]; !ok {
				values[f.Key] = f.Text()
			}
		}
		row := make([]string, len(header))
		for j, k := range header {
			row[j] = values[k]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write opening %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportOpeningsCSV writes the audit table to path. It reports whether a file
// was written; an empty list leaves path untouched.
func ExportOpeningsCSV(specs []opening.Spec, path string) (bool, error) {
	if len(specs) == 0 {
		return false, nil
	}
	if err := writeFile(path, func(w io.Writer) error { return WriteOpeningsCSV(specs, w) }); err != nil {
		return false, err
	}
	return true, nil
}

// WriteOpeningsJSON writes specs as an indented JSON array that ReadJSON in
// package opening accepts again.
func WriteOpeningsJSON(specs []opening.Spec, w io.Writer) error {
	if specs == nil {
		specs = []opening.Spec{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(specs); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportOpeningsJSON writes the openings JSON to path.
func ExportOpeningsJSON(specs []opening.Spec, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteOpeningsJSON(specs, w) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
