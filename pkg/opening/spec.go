package opening

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/matzehuels/brickshell/pkg/shell"
)

// Type is the kind of opening.
type Type string

const (
	TypeDoor   Type = "door"
	TypeWindow Type = "window"
)

// Field is one key of a source record with its raw JSON value.
type Field struct {
	Key   string
	Value json.RawMessage
}

// Text renders the value for tabular output: strings unquoted, null empty,
// everything else as its JSON text.
func (f Field) Text() string {
	v := bytes.TrimSpace(f.Value)
	if len(v) == 0 || string(v) == "null" {
		return ""
	}
	if v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	return string(v)
}

// Spec is one validated opening. Measurements are millimeters in the wall's
// local frame: XMM from the wall's left edge, ZMM from the ground.
type Spec struct {
	Type     Type   `json:"type"`
	Wall     string `json:"wall"`
	XMM      int    `json:"x_mm"`
	ZMM      int    `json:"z_mm"`
	WidthMM  int    `json:"width_mm"`
	HeightMM int    `json:"height_mm"`

	fields []Field
}

// NewSpec builds a Spec from values; its fields follow the canonical key
// order type, wall, x_mm, z_mm, width_mm, height_mm.
func NewSpec(t Type, wall string, xMM, zMM, widthMM, heightMM int) Spec {
	s := Spec{Type: t, Wall: wall, XMM: xMM, ZMM: zMM, WidthMM: widthMM, HeightMM: heightMM}
	s.fields = s.canonicalFields()
	return s
}

// Fields returns the source record's keys and values in their original order.
func (s Spec) Fields() []Field {
	if len(s.fields) == 0 {
		return s.canonicalFields()
	}
	return s.fields
}

func (s Spec) canonicalFields() []Field {
	str := func(v string) json.RawMessage { return json.RawMessage(strconv.Quote(v)) }
	num := func(v int) json.RawMessage { return json.RawMessage(strconv.Itoa(v)) }
	return []Field{
		{"type", str(string(s.Type))},
		{"wall", str(s.Wall)},
		{"x_mm", num(s.XMM)},
		{"z_mm", num(s.ZMM)},
		{"width_mm", num(s.WidthMM)},
		{"height_mm", num(s.HeightMM)},
	}
}

// WallID resolves the wall identifier. Unknown walls return
// shell.WallUnknown and false.
func (s Spec) WallID() (shell.Wall, bool) {
	return shell.ParseWall(s.Wall)
}

// Carve cuts the opening into c and returns the number of bricks it
// deactivated. Doors always start at the ground, whatever ZMM says.
func (s Spec) Carve(c *shell.Collection) (int, error) {
	wall, _ := s.WallID()
	if s.Type == TypeDoor {
		return c.CarveDoor(wall, s.XMM, s.WidthMM, s.HeightMM)
	}
	return c.CarveWindow(wall, s.XMM, s.ZMM, s.WidthMM, s.HeightMM)
}

// MarshalJSON writes the record with its original key order.
func (s Spec) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range s.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(f.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
