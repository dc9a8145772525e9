/*
Package yaml provides methods to parse feature schemas, also known as
metadata, from YAML documents.
*/
package yaml

import (
	"fmt"
	"os"

	"github.com/pbanos/dyntree/feature"
	yaml "gopkg.in/yaml.v2"
)

/*
ReadSchema takes a slice of bytes with a feature schema in YML and
returns the feature.Schema parsed from it or an error.
The YML is expected to be an object containing a features property whose
value is an ordered list of objects with a name and a kind property, the
kind being one of 'binary', 'categorical' or 'real'.
*/
func ReadSchema(md []byte) (*feature.Schema, error) {
	metadata := struct {
		Features []struct {
			Name string
			Kind string
		}
	}{}
	err := yaml.Unmarshal(md, &metadata)
	if err != nil {
		return nil, fmt.Errorf("parsing yml schema: %v", err)
	}
	if len(metadata.Features) == 0 {
		return nil, fmt.Errorf("metadata file has no feature information")
	}
	features := make([]*feature.Feature, 0, len(metadata.Features))
	for i, fd := range metadata.Features {
		if fd.Name == "" {
			return nil, fmt.Errorf("feature %d has no name", i)
		}
		kind, err := feature.ParseKind(fd.Kind)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %v", fd.Name, err)
		}
		features = append(features, feature.New(fd.Name, kind))
	}
	return feature.NewSchema(features)
}

/*
ReadSchemaFromFile takes a filepath string, reads its contents and uses
ReadSchema to parse it and return the feature schema or an error.
If the file indicated by the filepath cannot be opened for reading an
error will be returned.
*/
func ReadSchemaFromFile(filepath string) (*feature.Schema, error) {
	md, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading schema yml file %s: %v", filepath, err)
	}
	s, err := ReadSchema(md)
	if err != nil {
		err = fmt.Errorf("parsing schema yml file %s: %v", filepath, err)
	}
	return s, err
}
