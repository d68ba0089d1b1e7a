package opening

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/brickshell/pkg/errors"
	"github.com/matzehuels/brickshell/pkg/shell"
)

func TestReadJSONValid(t *testing.T) {
	in := `[
		{"type": "door", "wall": "front", "x_mm": 800, "z_mm": 0, "width_mm": 900, "height_mm": 2100},
		{"type": "window", "wall": "left", "x_mm": 1000, "z_mm": 900, "width_mm": 1200, "height_mm": 1000}
	]`
	specs, skipped, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("skipped = %v, want none", skipped)
	}
	want := []Spec{
		{Type: TypeDoor, Wall: "front", XMM: 800, ZMM: 0, WidthMM: 900, HeightMM: 2100},
		{Type: TypeWindow, Wall: "left", XMM: 1000, ZMM: 900, WidthMM: 1200, HeightMM: 1000},
	}
	if diff := cmp.Diff(want, specs, cmpopts.IgnoreUnexported(Spec{})); diff != "" {
		t.Errorf("specs mismatch (-want +got):\n%s", diff)
	}
}

func TestReadJSONSkipsInvalidRecords(t *testing.T) {
	tests := []struct {
		name   string
		record string
		reason string
	}{
		{"not an object", `42`, "not an object"},
		{"missing type", `{"wall": "front", "x_mm": 0, "z_mm": 0, "width_mm": 900, "height_mm": 2100}`, "missing type"},
		{"missing wall", `{"type": "door", "x_mm": 0, "width_mm": 900, "height_mm": 2100}`, "missing wall"},
		{"missing x", `{"type": "door", "wall": "front", "width_mm": 900, "height_mm": 2100}`, "missing x_mm"},
		{"missing width", `{"type": "door", "wall": "front", "x_mm": 0, "height_mm": 2100}`, "missing width_mm"},
		{"window without z", `{"type": "window", "wall": "back", "x_mm": 0, "width_mm": 900, "height_mm": 900}`, "missing z_mm"},
		{"unknown type", `{"type": "skylight", "wall": "front", "x_mm": 0, "z_mm": 0, "width_mm": 900, "height_mm": 900}`, "type"},
		{"string measurement", `{"type": "door", "wall": "front", "x_mm": "800", "width_mm": 900, "height_mm": 2100}`, "x_mm"},
		{"fractional measurement", `{"type": "door", "wall": "front", "x_mm": 800.5, "width_mm": 900, "height_mm": 2100}`, "x_mm"},
		{"zero width", `{"type": "door", "wall": "front", "x_mm": 0, "width_mm": 0, "height_mm": 2100}`, "width_mm"},
		{"negative height", `{"type": "window", "wall": "front", "x_mm": 0, "z_mm": 900, "width_mm": 900, "height_mm": -1}`, "height_mm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid := `{"type": "door", "wall": "front", "x_mm": 800, "width_mm": 900, "height_mm": 2100}`
			in := "[" + tt.record + "," + valid + "]"
			specs, skipped, err := ReadJSON(strings.NewReader(in))
			if err != nil {
				t.Fatalf("ReadJSON: %v", err)
			}
			if len(specs) != 1 {
				t.Fatalf("accepted %d records, want 1", len(specs))
			}
			if len(skipped) != 1 {
				t.Fatalf("skipped %d records, want 1", len(skipped))
			}
			if skipped[0].Index != 0 {
				t.Errorf("skipped index = %d, want 0", skipped[0].Index)
			}
			if !strings.Contains(skipped[0].Reason, tt.reason) {
				t.Errorf("reason = %q, want it to mention %q", skipped[0].Reason, tt.reason)
			}
		})
	}
}

func TestReadJSONDoorWithoutZ(t *testing.T) {
	in := `[{"type": "door", "wall": "front", "x_mm": 800, "width_mm": 900, "height_mm": 2100}]`
	specs, skipped, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(specs) != 1 || len(skipped) != 0 {
		t.Fatalf("got %d accepted, %d skipped; want 1, 0", len(specs), len(skipped))
	}
	if specs[0].ZMM != 0 {
		t.Errorf("ZMM = %d, want 0", specs[0].ZMM)
	}
}

func TestReadJSONAcceptsUnknownWall(t *testing.T) {
	in := `[{"type": "window", "wall": "roof", "x_mm": 0, "z_mm": 0, "width_mm": 100, "height_mm": 100}]`
	specs, skipped, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(specs) != 1 || len(skipped) != 0 {
		t.Fatalf("got %d accepted, %d skipped; want 1, 0", len(specs), len(skipped))
	}
	if _, ok := specs[0].WallID(); ok {
		t.Error("WallID() ok = true for roof")
	}
}

func TestReadJSONNotArray(t *testing.T) {
	for _, in := range []string{`{"type": "door"}`, `"door"`, ``, `[1, 2`} {
		_, _, err := ReadJSON(strings.NewReader(in))
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("ReadJSON(%q) error = %v, want INVALID_INPUT", in, err)
		}
	}
}

func TestReadJSONEmptyArray(t *testing.T) {
	specs, skipped, err := ReadJSON(strings.NewReader(`[]`))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(specs) != 0 || len(skipped) != 0 {
		t.Errorf("got %d accepted, %d skipped; want none", len(specs), len(skipped))
	}
}

func TestFieldsKeepSourceOrder(t *testing.T) {
	in := `[{"height_mm": 2100, "wall": "front", "note": "main entry", "type": "door", "x_mm": 800, "width_mm": 900}]`
	specs, _, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	var keys, values []string
	for _, f := range specs[0].Fields() {
		keys = append(keys, f.Key)
		values = append(values, f.Text())
	}
	wantKeys := []string{"height_mm", "wall", "note", "type", "x_mm", "width_mm"}
	wantValues := []string{"2100", "front", "main entry", "door", "800", "900"}
	if diff := cmp.Diff(wantKeys, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantValues, values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	out, err := specs[0].MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	want := `{"height_mm":2100,"wall":"front","note":"main entry","type":"door","x_mm":800,"width_mm":900}`
	if string(out) != want {
		t.Errorf("MarshalJSON = %s, want %s", out, want)
	}
}

func TestNewSpecCanonicalFields(t *testing.T) {
	s := NewSpec(TypeWindow, "back", 1000, 900, 1200, 1000)
	out, err := s.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	want := `{"type":"window","wall":"back","x_mm":1000,"z_mm":900,"width_mm":1200,"height_mm":1000}`
	if string(out) != want {
		t.Errorf("MarshalJSON = %s, want %s", out, want)
	}
}

func TestFieldText(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`"front"`, "front"},
		{`800`, "800"},
		{`null`, ""},
		{`true`, "true"},
		{`[1,2]`, "[1,2]"},
	}
	for _, tt := range tests {
		if got := (Field{Key: "k", Value: []byte(tt.raw)}).Text(); got != tt.want {
			t.Errorf("Text(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse([]byte(`{"type": "door"}`)); !errors.Is(err, errors.ErrCodeInvalidOpening) {
		t.Errorf("Parse error = %v, want INVALID_OPENING", err)
	}
	s, err := Parse([]byte(`{"type": "door", "wall": "back", "x_mm": 100, "width_mm": 900, "height_mm": 2100}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Wall != "back" {
		t.Errorf("Wall = %q, want back", s.Wall)
	}
}

func TestImportJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openings.json")
	data := `[{"type": "door", "wall": "front", "x_mm": 800, "width_mm": 900, "height_mm": 2100}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	specs, _, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if len(specs) != 1 {
		t.Errorf("accepted %d, want 1", len(specs))
	}

	_, _, err = ImportJSON(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestSpecCarve(t *testing.T) {
	d := shell.Dimensions{LengthMM: 4000, WidthMM: 3000, HeightMM: 2000, ThicknessMM: 200}

	c := shell.Generate(d)
	door := NewSpec(TypeDoor, "front", 1000, 900, 1000, 1000)
	n, err := door.Carve(c)
	if err != nil {
		t.Fatalf("Carve door: %v", err)
	}
	// The door ignores its z and starts at the ground.
	want, _ := shell.Generate(d).CarveDoor(shell.WallFront, 1000, 1000, 1000)
	if n != want {
		t.Errorf("door carved %d, want %d", n, want)
	}

	c = shell.Generate(d)
	n, err = NewSpec(TypeWindow, "roof", 0, 0, 100, 100).Carve(c)
	if !errors.Is(err, errors.ErrCodeUnknownWall) {
		t.Errorf("unknown wall error = %v, want UNKNOWN_WALL", err)
	}
	if n != 0 || c.ActiveCount() != c.Len() {
		t.Errorf("unknown wall changed %d bricks", c.Len()-c.ActiveCount())
	}
}

func TestImportExampleOpenings(t *testing.T) {
	specs, skipped, err := ImportJSON(filepath.Join("..", "..", "examples", "openings.json"))
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if len(specs) != 3 || len(skipped) != 0 {
		t.Errorf("accepted %d, skipped %d; want 3 and 0", len(specs), len(skipped))
	}
}
