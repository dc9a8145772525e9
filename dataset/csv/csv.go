/*
Package csv reads labelled points from delimiter-separated text files.

The expected format is the one the benchmark datasets come in: an
optional first line of irrelevant data, then a schema header holding one
single-letter kind identifier per column ('l' for the label column,
exactly once; 'n', 'b' or 'c' for numeric, binary and categorical
feature columns), then one record per line. String tokens of binary and
categorical columns are interned to float ids in first-seen order.
*/
package csv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pbanos/dyntree/dataset"
	"github.com/pbanos/dyntree/feature"
	"github.com/pbanos/dyntree/pointset"
)

/*
Options configures the reading of a points file. The zero value reads
';'-separated records, takes "1" as the label value meaning true and
expects the schema header on the first line.
*/
type Options struct {
	// Delimiter is the rune separating the fields of a line.
	// 0 means ';'.
	Delimiter rune
	// TrueValue is the label token read as a true label.
	// "" means "1".
	TrueValue string
	// SkipFirstLine makes the reader discard one line before the
	// schema header, for files carrying a human header above it.
	SkipFirstLine bool
}

func (o *Options) delimiter() string {
	if o == nil || o.Delimiter == 0 {
		return ";"
	}
	return string(o.Delimiter)
}

func (o *Options) trueValue() string {
	if o == nil || o.TrueValue == "" {
		return "1"
	}
	return o.TrueValue
}

func (o *Options) skipFirstLine() bool {
	return o != nil && o.SkipFirstLine
}

/*
ParseHeader takes the fields of a schema header line and returns the
feature schema they describe and the position of the label column, or
an error when a field is neither 'l' nor a kind feature.ParseKind
accepts ('n', 'b', 'c' or a full kind name), or the 'l' identifier does
not appear exactly once. Feature names are synthesised
from the feature position as f0, f1...
*/
func ParseHeader(fields []string) (*feature.Schema, int, error) {
	labelPosition := -1
	features := make([]*feature.Feature, 0, len(fields))
	for i, field := range fields {
		if field == "l" {
			if labelPosition >= 0 {
				return nil, 0, fmt.Errorf("label identifier found twice in header, should contain exactly 1 'l'")
			}
			labelPosition = i
			continue
		}
		kind, err := feature.ParseKind(field)
		if err != nil {
			return nil, 0, fmt.Errorf("header column %d: %v", i, err)
		}
		features = append(features, feature.New(fmt.Sprintf("f%d", len(features)), kind))
	}
	if labelPosition < 0 {
		return nil, 0, fmt.Errorf("no label identifier found in header, should contain exactly 1 'l'")
	}
	schema, err := feature.NewSchema(features)
	if err != nil {
		return nil, 0, err
	}
	return schema, labelPosition, nil
}

/*
ReadPoints takes an io.Reader over a points file and options, and
returns the feature schema parsed from the file's header and the points
parsed from its records, or an error describing the offending line.
*/
func ReadPoints(reader io.Reader, opts *Options) (*feature.Schema, []*pointset.Point, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	if opts.skipFirstLine() {
		line++
		if !scanner.Scan() {
			return nil, nil, fmt.Errorf("file is empty")
		}
	}
	line++
	if !scanner.Scan() {
		return nil, nil, fmt.Errorf("file is empty or contains only lines to skip")
	}
	schema, labelPosition, err := ParseHeader(strings.Split(scanner.Text(), opts.delimiter()))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing header on line %d: %v", line, err)
	}
	parser := dataset.NewRecordParser(schema, labelPosition, opts.trueValue())
	var points []*pointset.Point
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" {
			continue
		}
		p, err := parser.Parse(strings.Split(text, opts.delimiter()))
		if err != nil {
			return nil, nil, fmt.Errorf("parsing line %d: %v", line, err)
		}
		points = append(points, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading points: %v", err)
	}
	return schema, points, nil
}

/*
ReadPointsFromFilePath takes a filepath string and options, opens the
file it points to (os.Stdin when the filepath is empty) and uses
ReadPoints to return the schema and points read from it or an error.
*/
func ReadPointsFromFilePath(filepath string, opts *Options) (*feature.Schema, []*pointset.Point, error) {
	var f *os.File
	var err error
	if filepath == "" {
		f = os.Stdin
	} else {
		f, err = os.Open(filepath)
		if err != nil {
			return nil, nil, fmt.Errorf("reading points: %v", err)
		}
		defer f.Close()
	}
	schema, points, err := ReadPoints(f, opts)
	if err != nil {
		err = fmt.Errorf("parsing points file %s: %v", filepath, err)
	}
	return schema, points, err
}

/*
ReadSource takes a filepath string and options and returns a
dataset.Source serving the schema and points read from the file, or an
error.
*/
func ReadSource(filepath string, opts *Options) (dataset.Source, error) {
	schema, points, err := ReadPointsFromFilePath(filepath, opts)
	if err != nil {
		return nil, err
	}
	return dataset.New(schema, points), nil
}
