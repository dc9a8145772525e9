/*
Package dyntree grows dynamic binary decision-tree classifiers: Gini
trees of bounded height that keep answering predictions while their
training population changes, rebuilding only the subtrees whose update
budget runs out.

The heart of the module lives in the tree and pointset packages; this
package ties them to the dataset sources so that a tree can be grown
from any point stream in one call.
*/
package dyntree

import (
	"context"
	"fmt"

	"github.com/pbanos/dyntree/dataset"
	"github.com/pbanos/dyntree/tree"
)

/*
Params carries the tree parameters of Grow, everything a tree.Config
needs except the feature schema, which Grow takes from the dataset
source.
*/
type Params struct {
	MaxHeight           int
	Epsilon             float64
	EpsilonTransmission float64
	MinSplitPoints      int
	MinSplitGini        float64
	Builds              *tree.BuildCounter
}

/*
Grow takes a context, a dataset source and tree parameters, reads the
schema and points of the source and returns a tree grown over them, or
an error if the source cannot be read or the resulting config is
invalid.
*/
func Grow(ctx context.Context, src dataset.Source, params Params) (*tree.Tree, error) {
	schema, err := src.Schema(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %v", err)
	}
	points, err := src.Points(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading points: %v", err)
	}
	t, err := tree.New(tree.Config{
		Dimension:           schema.Dimension(),
		Kinds:               schema.Kinds(),
		MaxHeight:           params.MaxHeight,
		Epsilon:             params.Epsilon,
		EpsilonTransmission: params.EpsilonTransmission,
		MinSplitPoints:      params.MinSplitPoints,
		MinSplitGini:        params.MinSplitGini,
		Builds:              params.Builds,
	}, points)
	if err != nil {
		return nil, fmt.Errorf("growing tree: %v", err)
	}
	return t, nil
}

/*
DefaultEpsilon returns the epsilon the benchmarks fall back to when none
is given: min(minSplitGini/6, 1/(minSplitPoints+2)).
*/
func DefaultEpsilon(minSplitPoints int, minSplitGini float64) float64 {
	e := minSplitGini / 6
	if alt := 1 / float64(minSplitPoints+2); alt < e {
		e = alt
	}
	return e
}
