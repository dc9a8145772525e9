package pointset

import (
	"fmt"
	"strconv"
	"strings"
)

/*
Point is an immutable labelled feature vector: a fixed number of float32
feature values plus a boolean label. Points never change after
construction, so a single point can safely be referenced from several
sets and trees at the same time.
*/
type Point struct {
	features []float32
	label    bool
}

/*
NewPoint takes a slice of float32 feature values and a boolean label and
returns a point with them. The slice is copied: later changes to it do
not affect the point.
*/
func NewPoint(features []float32, label bool) *Point {
	fs := make([]float32, len(features))
	copy(fs, features)
	return &Point{fs, label}
}

/*
Dimension returns the number of features of the point
*/
func (p *Point) Dimension() int {
	return len(p.features)
}

/*
Feature returns the value of the feature at the given position. It
panics if the position is not below the dimension of the point.
*/
func (p *Point) Feature(position int) float32 {
	if position < 0 || position >= len(p.features) {
		panic(fmt.Sprintf("feature position %d out of range for point of dimension %d", position, len(p.features)))
	}
	return p.features[position]
}

/*
Features returns a copy of the feature values of the point
*/
func (p *Point) Features() []float32 {
	fs := make([]float32, len(p.features))
	copy(fs, p.features)
	return fs
}

/*
Label returns the label of the point
*/
func (p *Point) Label() bool {
	return p.label
}

/*
Compare orders points lexicographically over their features and then
their label (false before true). It returns a negative number if p
orders before o, 0 if both are equal and a positive number otherwise.
This ordering is the discipline of every point multiset in the package.
*/
func (p *Point) Compare(o *Point) int {
	for i, v := range p.features {
		if v < o.features[i] {
			return -1
		}
		if v > o.features[i] {
			return 1
		}
	}
	if p.label == o.label {
		return 0
	}
	if o.label {
		return -1
	}
	return 1
}

/*
Equal returns whether p and o have equal features and label
*/
func (p *Point) Equal(o *Point) bool {
	return p.Dimension() == o.Dimension() && p.Compare(o) == 0
}

func (p *Point) String() string {
	fs := make([]string, 0, len(p.features)+1)
	for _, v := range p.features {
		fs = append(fs, strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	fs = append(fs, strconv.FormatBool(p.label))
	return fmt.Sprintf("(%s)", strings.Join(fs, ";"))
}
