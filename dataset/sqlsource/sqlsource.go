/*
Package sqlsource provides an implementation of dataset.Source that
reads labelled points from a SQL database table.

The source reads from a samples table holding one column per feature
plus a label column. Binary and categorical columns are stored as text
and interned exactly like CSV tokens; numeric and label columns are read
as text too, so any column type the database can cast to text works.
Database-specific SQL lives behind the Adapter interface; the pgadapter
and sqlite3adapter subpackages implement it for PostgreSQL and SQLite3.
*/
package sqlsource

import (
	"context"
	"fmt"

	"github.com/pbanos/dyntree/dataset"
	"github.com/pbanos/dyntree/feature"
	"github.com/pbanos/dyntree/pointset"
)

/*
Adapter is an interface for the database-specific part of a SQL point
source.

Its ColumnName method takes a feature name and returns the column name
to use for it or an error when the name cannot be a column of the
backend.

Its SelectRecords method takes a context and a slice of column names and
returns one record per row of the samples table, each holding the text
value of the requested columns in order.
*/
type Adapter interface {
	ColumnName(featureName string) (string, error)
	SelectRecords(ctx context.Context, columns []string) ([][]string, error)
}

type sqlSource struct {
	db        Adapter
	schema    *feature.Schema
	columns   []string
	trueValue string
}

/*
Open takes an Adapter to a db backend, a feature schema, the name of the
label column and the label value to read as true, and returns a
dataset.Source reading points from the backend's samples table, or an
error when a feature or label name cannot be used as a column name.
*/
func Open(db Adapter, schema *feature.Schema, label, trueValue string) (dataset.Source, error) {
	columns := make([]string, 0, schema.Dimension()+1)
	for _, f := range schema.Features() {
		c, err := db.ColumnName(f.Name())
		if err != nil {
			return nil, fmt.Errorf("opening sql point source: %v", err)
		}
		columns = append(columns, c)
	}
	c, err := db.ColumnName(label)
	if err != nil {
		return nil, fmt.Errorf("opening sql point source: label: %v", err)
	}
	columns = append(columns, c)
	return &sqlSource{db, schema, columns, trueValue}, nil
}

func (s *sqlSource) Schema(ctx context.Context) (*feature.Schema, error) {
	return s.schema, nil
}

func (s *sqlSource) Points(ctx context.Context) ([]*pointset.Point, error) {
	records, err := s.db.SelectRecords(ctx, s.columns)
	if err != nil {
		return nil, fmt.Errorf("reading points from sql backend: %v", err)
	}
	parser := dataset.NewRecordParser(s.schema, s.schema.Dimension(), s.trueValue)
	points := make([]*pointset.Point, 0, len(records))
	for i, record := range records {
		p, err := parser.Parse(record)
		if err != nil {
			return nil, fmt.Errorf("parsing sql record %d: %v", i, err)
		}
		points = append(points, p)
	}
	return points, nil
}
