/*
Package dataset defines the seam between stored labelled points and the
code that consumes them: a Source yields a feature schema and the points
conforming to it. Implementations for CSV files, SQL databases, MongoDB
and redis live in the subpackages.
*/
package dataset

import (
	"context"

	"github.com/pbanos/dyntree/feature"
	"github.com/pbanos/dyntree/pointset"
)

/*
Source represents a collection of labelled points.

Its Schema method returns the feature schema the points conform to.

Its Points method returns the points of the collection. Implementations
backed by external services may honour the context's timeout or
cancellation.
*/
type Source interface {
	Schema(context.Context) (*feature.Schema, error)
	Points(context.Context) ([]*pointset.Point, error)
}

type memorySource struct {
	schema *feature.Schema
	points []*pointset.Point
}

/*
New takes a feature schema and a slice of points and returns a Source
serving them from memory.
*/
func New(schema *feature.Schema, points []*pointset.Point) Source {
	return &memorySource{schema, points}
}

func (ms *memorySource) Schema(ctx context.Context) (*feature.Schema, error) {
	return ms.schema, nil
}

func (ms *memorySource) Points(ctx context.Context) ([]*pointset.Point, error) {
	return ms.points, nil
}
