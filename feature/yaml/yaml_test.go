package yaml

import (
	"testing"

	"github.com/pbanos/dyntree/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSchema(t *testing.T) {
	doc := `features:
  - name: age
    kind: real
  - name: smoker
    kind: binary
  - name: color
    kind: categorical
`
	schema, err := ReadSchema([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, 3, schema.Dimension())
	assert.Equal(t, "age", schema.Feature(0).Name())
	assert.Equal(t, feature.Real, schema.Feature(0).Kind())
	assert.Equal(t, feature.Binary, schema.Feature(1).Kind())
	assert.Equal(t, feature.Categorical, schema.Feature(2).Kind())
}

func TestReadSchemaErrors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{"no features", "features: []"},
		{"unknown kind", "features:\n  - name: age\n    kind: sorta\n"},
		{"missing name", "features:\n  - kind: real\n"},
		{"not yaml", ":::"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadSchema([]byte(tc.doc))
			require.Error(t, err)
		})
	}
}
