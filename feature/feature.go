/*
Package feature describes the columns a point stream is made of: every
feature has a name and a Kind that determines how the tree may split on it.
*/
package feature

import "fmt"

/*
Kind classifies the values a feature can take. Binary features take
at most 2 distinct values, categorical features take any number of
distinct values compared by equality, and real features take numeric
values compared by order.
*/
type Kind int

const (
	// Binary is the kind of features with at most 2 distinct values
	Binary Kind = iota
	// Categorical is the kind of features with a finite set of values
	// that can only be compared by equality
	Categorical
	// Real is the kind of numeric features that can be compared by order
	Real
)

/*
Feature represents a property that can be observed on every point of a
stream.
*/
type Feature struct {
	name string
	kind Kind
}

/*
Schema is an ordered, immutable list of features describing a point
stream. The label is not part of the schema: points carry it separately.
*/
type Schema struct {
	features []*Feature
	kinds    []Kind
}

func (k Kind) String() string {
	switch k {
	case Binary:
		return "binary"
	case Categorical:
		return "categorical"
	case Real:
		return "real"
	}
	return fmt.Sprintf("unknown kind %d", int(k))
}

/*
ParseKind takes a string and returns the Kind it names or an error if it
names none. Both the full names used on schema files ("binary",
"categorical", "real") and the single-letter column identifiers of CSV
headers ("b", "c", "n") are accepted.
*/
func ParseKind(s string) (Kind, error) {
	switch s {
	case "binary", "b":
		return Binary, nil
	case "categorical", "c":
		return Categorical, nil
	case "real", "numeric", "n":
		return Real, nil
	}
	return 0, fmt.Errorf("unknown feature kind %q", s)
}

/*
New takes a name string and a Kind and returns a feature with them.
*/
func New(name string, kind Kind) *Feature {
	return &Feature{name, kind}
}

/*
NewBinary takes a name string and returns a binary feature with the given
name.
*/
func NewBinary(name string) *Feature {
	return New(name, Binary)
}

/*
NewCategorical takes a name string and returns a categorical feature with
the given name.
*/
func NewCategorical(name string) *Feature {
	return New(name, Categorical)
}

/*
NewReal takes a name string and returns a real feature with the given
name.
*/
func NewReal(name string) *Feature {
	return New(name, Real)
}

/*
Name returns a string with the name of the feature
*/
func (f *Feature) Name() string {
	return f.name
}

/*
Kind returns the kind of the feature
*/
func (f *Feature) Kind() Kind {
	return f.kind
}

func (f *Feature) String() string {
	return fmt.Sprintf("%s (%v)", f.name, f.kind)
}

/*
NewSchema takes a slice of features and returns a schema with them or an
error if the slice is empty, contains a nil feature, repeats a feature
name or contains a feature of an unknown kind.
*/
func NewSchema(features []*Feature) (*Schema, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("schema needs at least 1 feature")
	}
	names := make(map[string]bool)
	kinds := make([]Kind, 0, len(features))
	for i, f := range features {
		if f == nil {
			return nil, fmt.Errorf("schema feature %d is not defined", i)
		}
		if f.kind != Binary && f.kind != Categorical && f.kind != Real {
			return nil, fmt.Errorf("schema feature %s has unknown kind %d", f.name, int(f.kind))
		}
		if names[f.name] {
			return nil, fmt.Errorf("schema feature name %q is repeated", f.name)
		}
		names[f.name] = true
		kinds = append(kinds, f.kind)
	}
	fs := make([]*Feature, len(features))
	copy(fs, features)
	return &Schema{fs, kinds}, nil
}

/*
Dimension returns the number of features in the schema
*/
func (s *Schema) Dimension() int {
	return len(s.features)
}

/*
Features returns the ordered features of the schema. The returned slice
must not be modified.
*/
func (s *Schema) Features() []*Feature {
	return s.features
}

/*
Feature returns the feature at the given position in the schema
*/
func (s *Schema) Feature(i int) *Feature {
	return s.features[i]
}

/*
Kinds returns the ordered feature kinds of the schema. The returned
slice is shared by every tree built on the schema and must not be
modified.
*/
func (s *Schema) Kinds() []Kind {
	return s.kinds
}
