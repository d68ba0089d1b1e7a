package opening

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/brickshell/pkg/errors"
)

// Skipped describes a record that failed validation.
type Skipped struct {
	Index  int             // position in the source array
	Raw    json.RawMessage // record as it appeared in the source
	Reason string
}

func (s Skipped) String() string {
	return fmt.Sprintf("opening #%d: %s", s.Index, s.Reason)
}

// record mirrors the accepted schema. Pointers distinguish a missing key
// from a zero value.
type record struct {
	Type     *string `json:"type" validate:"required,oneof=door window"`
	Wall     *string `json:"wall" validate:"required"`
	XMM      *int    `json:"x_mm" validate:"required"`
	ZMM      *int    `json:"z_mm"`
	WidthMM  *int    `json:"width_mm" validate:"required,gt=0"`
	HeightMM *int    `json:"height_mm" validate:"required,gt=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// ImportJSON reads openings from a JSON file.
func ImportJSON(path string) ([]Spec, []Skipped, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "openings file %s", path)
		}
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ReadJSON decodes a JSON array of openings. Invalid records are reported in
// the skipped list; only a document that is not an array is an error.
func ReadJSON(r io.Reader) ([]Spec, []Skipped, error) {
	var elems []json.RawMessage
	if err := json.NewDecoder(r).Decode(&elems); err != nil {
		if err == io.EOF {
			return nil, nil, errors.New(errors.ErrCodeInvalidInput, "openings: empty document")
		}
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "openings: expected a JSON array")
	}

	var (
		specs   []Spec
		skipped []Skipped
	)
	for i, raw := range elems {
		s, err := parse(raw)
		if err != nil {
			skipped = append(skipped, Skipped{Index: i, Raw: raw, Reason: err.Error()})
			continue
		}
		specs = append(specs, s)
	}
	return specs, skipped, nil
}

// Parse validates a single JSON object.
func Parse(raw []byte) (Spec, error) {
	s, err := parse(raw)
	if err != nil {
		return Spec{}, errors.Wrap(errors.ErrCodeInvalidOpening, err, "invalid opening")
	}
	return s, nil
}

func parse(raw json.RawMessage) (Spec, error) {
	fields, err := objectFields(raw)
	if err != nil {
		return Spec{}, err
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		var te *json.UnmarshalTypeError
		if stderrors.As(err, &te) {
			return Spec{}, fmt.Errorf("%s: expected %s, got %s", te.Field, te.Type, te.Value)
		}
		return Spec{}, err
	}
	if err := validate.Struct(rec); err != nil {
		return Spec{}, describe(err)
	}
	if Type(*rec.Type) == TypeWindow && rec.ZMM == nil {
		return Spec{}, fmt.Errorf("missing z_mm")
	}

	s := Spec{
		Type:     Type(*rec.Type),
		Wall:     *rec.Wall,
		XMM:      *rec.XMM,
		WidthMM:  *rec.WidthMM,
		HeightMM: *rec.HeightMM,
		fields:   fields,
	}
	if rec.ZMM != nil {
		s.ZMM = *rec.ZMM
	}
	return s, nil
}

// objectFields lists the keys of a JSON object with their raw values, in
// source order.
func objectFields(raw json.RawMessage) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("not an object")
	}
	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		fields = append(fields, Field{Key: key, Value: v})
	}
	return fields, nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("missing %s", fe.Field())
	case "oneof":
		return fmt.Errorf("%s must be one of %s, got %v", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "gt":
		return fmt.Errorf("%s must be greater than %s, got %v", fe.Field(), fe.Param(), fe.Value())
	}
	return fmt.Errorf("%s failed %s", fe.Field(), fe.Tag())
}
