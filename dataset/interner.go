package dataset

import (
	"fmt"
	"strconv"

	"github.com/pbanos/dyntree/feature"
	"github.com/pbanos/dyntree/pointset"
)

/*
Interner turns the string tokens of a point record into float32 feature
values. Real tokens are parsed as numbers; binary and categorical tokens
are assigned float ids in first-seen order, the same token always
mapping to the same id. A binary feature yielding a third distinct token
is an error.

The encoding is lossy but sound: trees only ever compare binary and
categorical values by equality, never by order.
*/
type Interner struct {
	schema *feature.Schema
	ids    []map[string]float32
}

/*
NewInterner takes a feature schema and returns an Interner for records
conforming to it.
*/
func NewInterner(schema *feature.Schema) *Interner {
	ids := make([]map[string]float32, schema.Dimension())
	for i, f := range schema.Features() {
		if f.Kind() != feature.Real {
			ids[i] = make(map[string]float32)
		}
	}
	return &Interner{schema, ids}
}

/*
Intern takes a feature position and a string token and returns the
float32 value of the token for that feature, or an error when a real
token does not parse as a number or a binary feature sees a third
distinct token.
*/
func (in *Interner) Intern(position int, token string) (float32, error) {
	f := in.schema.Feature(position)
	if f.Kind() == feature.Real {
		v, err := strconv.ParseFloat(token, 32)
		if err != nil {
			return 0, fmt.Errorf("parsing value %q of real feature %s: %v", token, f.Name(), err)
		}
		return float32(v), nil
	}
	if v, ok := in.ids[position][token]; ok {
		return v, nil
	}
	v := float32(len(in.ids[position]))
	if f.Kind() == feature.Binary && v > 1 {
		return 0, fmt.Errorf("binary feature %s has at least 3 distinct values", f.Name())
	}
	in.ids[position][token] = v
	return v, nil
}

/*
RecordParser parses point records: ordered string fields holding one
token per feature plus a label token at a fixed position. The label
token is compared literally against a configured true value; the
feature tokens go through a shared Interner.
*/
type RecordParser struct {
	schema        *feature.Schema
	labelPosition int
	trueValue     string
	interner      *Interner
}

/*
NewRecordParser takes a feature schema, the position of the label among
the record fields and the label value to read as true, and returns a
RecordParser for such records.
*/
func NewRecordParser(schema *feature.Schema, labelPosition int, trueValue string) *RecordParser {
	return &RecordParser{schema, labelPosition, trueValue, NewInterner(schema)}
}

/*
Parse takes the ordered fields of a record and returns the point they
describe, or an error when the number of fields does not match the
schema or a token cannot be interned.
*/
func (rp *RecordParser) Parse(fields []string) (*pointset.Point, error) {
	dimension := rp.schema.Dimension()
	if len(fields) != dimension+1 {
		return nil, fmt.Errorf("record has %d fields, %d expected", len(fields), dimension+1)
	}
	features := make([]float32, dimension)
	var label bool
	for i, token := range fields {
		if i == rp.labelPosition {
			label = token == rp.trueValue
			continue
		}
		position := i
		if i > rp.labelPosition {
			position--
		}
		v, err := rp.interner.Intern(position, token)
		if err != nil {
			return nil, err
		}
		features[position] = v
	}
	return pointset.NewPoint(features, label), nil
}
