/*
Package redissource provides an implementation of dataset.Source that
reads labelled points from a redis list.

Every entry of the list is one delimiter-separated record with one token
per feature and the label token last; tokens are interned exactly like
CSV tokens. The list key is derived from a configurable prefix, so
several point streams can share a redis DB.
*/
package redissource

import (
	"context"
	"fmt"
	"strings"

	"github.com/pbanos/dyntree/dataset"
	"github.com/pbanos/dyntree/feature"
	"github.com/pbanos/dyntree/pointset"
	redis "gopkg.in/redis.v5"
)

type redisSource struct {
	rc        *redis.Client
	prefix    string
	schema    *feature.Schema
	delimiter string
	trueValue string
}

/*
New takes a redis client, a key prefix, a feature schema, the delimiter
separating record tokens and the label value to read as true, and
returns a dataset.Source reading points from the list at <prefix>:points.
*/
func New(rc *redis.Client, prefix string, schema *feature.Schema, delimiter, trueValue string) dataset.Source {
	if delimiter == "" {
		delimiter = ";"
	}
	return &redisSource{rc, prefix, schema, delimiter, trueValue}
}

func (rs *redisSource) Schema(ctx context.Context) (*feature.Schema, error) {
	return rs.schema, nil
}

func (rs *redisSource) Points(ctx context.Context) ([]*pointset.Point, error) {
	records, err := rs.rc.LRange(rs.pointsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading points from redis list %q: %v", rs.pointsKey(), err)
	}
	parser := dataset.NewRecordParser(rs.schema, rs.schema.Dimension(), rs.trueValue)
	points := make([]*pointset.Point, 0, len(records))
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := parser.Parse(strings.Split(record, rs.delimiter))
		if err != nil {
			return nil, fmt.Errorf("parsing redis record %d: %v", i, err)
		}
		points = append(points, p)
	}
	return points, nil
}

func (rs *redisSource) pointsKey() string {
	return fmt.Sprintf("%s:points", rs.prefix)
}
