/*
Package mongosource provides an implementation of dataset.Source that
reads labelled points from a MongoDB collection.

Points are stored as one document per point on the samples collection,
with one property per feature plus a label property. Binary and
categorical values are interned from their string form exactly like CSV
tokens.
*/
package mongosource

import (
	"context"
	"fmt"

	"github.com/pbanos/dyntree/dataset"
	"github.com/pbanos/dyntree/feature"
	"github.com/pbanos/dyntree/pointset"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

const samplesCollectionName = "samples"

type mongoSource struct {
	session   *mgo.Session
	schema    *feature.Schema
	label     string
	trueValue string
}

/*
Open takes a MongoDB database session, a feature schema, the name of the
label property and the label value to read as true, and returns a
dataset.Source reading points from the samples collection of the
session's default database.
*/
func Open(session *mgo.Session, schema *feature.Schema, label, trueValue string) dataset.Source {
	return &mongoSource{session, schema, label, trueValue}
}

func (ms *mongoSource) Schema(ctx context.Context) (*feature.Schema, error) {
	return ms.schema, nil
}

func (ms *mongoSource) Points(ctx context.Context) ([]*pointset.Point, error) {
	parser := dataset.NewRecordParser(ms.schema, ms.schema.Dimension(), ms.trueValue)
	iter := ms.samplesCollection().Find(nil).Iter()
	defer iter.Close()
	var points []*pointset.Point
	var doc bson.M
	for iter.Next(&doc) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record := make([]string, 0, ms.schema.Dimension()+1)
		for _, f := range ms.schema.Features() {
			v, ok := doc[f.Name()]
			if !ok {
				return nil, fmt.Errorf("sample %v defines no value for feature %s", doc["_id"], f.Name())
			}
			record = append(record, fmt.Sprintf("%v", v))
		}
		v, ok := doc[ms.label]
		if !ok {
			return nil, fmt.Errorf("sample %v defines no value for label %s", doc["_id"], ms.label)
		}
		record = append(record, fmt.Sprintf("%v", v))
		p, err := parser.Parse(record)
		if err != nil {
			return nil, fmt.Errorf("parsing sample %v: %v", doc["_id"], err)
		}
		points = append(points, p)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("reading points from mongodb: %v", err)
	}
	return points, nil
}

func (ms *mongoSource) samplesCollection() *mgo.Collection {
	return ms.session.DB("").C(samplesCollectionName)
}
