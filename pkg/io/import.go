package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/brickshell/pkg/errors"
	"github.com/matzehuels/brickshell/pkg/shell"
)

// ReadPlacementCSV decodes a placement CSV. Columns are located by header
// name, so extra columns are ignored; all of [PlacementHeader] must be
// present.
func ReadPlacementCSV(r io.Reader) ([]shell.Brick, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read placement header")
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, h := range PlacementHeader {
		if _, ok := col[h]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "placement header missing column %q", h)
		}
	}

	var bricks []shell.Brick
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read placement line %d", line)
		}
		b, err := parseBrick(rec, col)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "placement line %d", line)
		}
		bricks = append(bricks, b)
	}
	return bricks, nil
}

// ImportPlacementCSV reads a placement CSV file.
func ImportPlacementCSV(path string) ([]shell.Brick, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPlacementCSV(f)
}

// ReadPlacementJSON decodes a placement JSON document into a collection.
func ReadPlacementJSON(r io.Reader) (*shell.Collection, error) {
	var p placement
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode placement")
	}
	c, err := shell.NewCollection(p.Dimensions, p.Bricks)
	if err != nil {
		return nil, fmt.Errorf("placement: %w", err)
	}
	return c, nil
}

// ImportPlacementJSON reads a placement JSON file.
func ImportPlacementJSON(path string) (*shell.Collection, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPlacementJSON(f)
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func parseBrick(rec []string, col map[string]int) (shell.Brick, error) {
	get := func(k string) string {
		if i := col[k]; i < len(rec) {
			return rec[i]
		}
		return ""
	}
	var (
		b   shell.Brick
		err error
	)
	ints := []struct {
		key string
		dst *int
	}{{"id", &b.ID}, {"dx", &b.DX}, {"dy", &b.DY}, {"dz", &b.DZ}}
	for _, f := range ints {
		if *f.dst, err = strconv.Atoi(get(f.key)); err != nil {
			return b, fmt.Errorf("%s: %w", f.key, err)
		}
	}
	floats := []struct {
		key string
		dst *float64
	}{{"x", &b.X}, {"y", &b.Y}, {"z", &b.Z}}
	for _, f := range floats {
		if *f.dst, err = strconv.ParseFloat(get(f.key), 64); err != nil {
			return b, fmt.Errorf("%s: %w", f.key, err)
		}
	}
	switch v := get("active"); v {
	case "1", "true", "True":
		b.Active = true
	case "0", "false", "False":
	default:
		return b, fmt.Errorf("active: unexpected value %q", v)
	}
	r, ok := shell.ParseRegion(get("region"))
	if !ok {
		return b, fmt.Errorf("region: unknown value %q", get("region"))
	}
	b.Region = r
	return b, nil
}
