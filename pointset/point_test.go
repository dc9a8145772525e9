package pointset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointIsImmutable(t *testing.T) {
	features := []float32{1, 2, 3}
	p := NewPoint(features, true)
	features[0] = 42
	assert.Equal(t, float32(1), p.Feature(0))
	fs := p.Features()
	fs[1] = 42
	assert.Equal(t, float32(2), p.Feature(1))
	assert.Equal(t, 3, p.Dimension())
	assert.True(t, p.Label())
}

func TestPointFeaturePanicsOutOfRange(t *testing.T) {
	p := NewPoint([]float32{1, 2}, false)
	assert.Panics(t, func() { p.Feature(2) })
	assert.Panics(t, func() { p.Feature(-1) })
}

func TestPointCompare(t *testing.T) {
	testCases := []struct {
		name     string
		a, b     *Point
		expected int
	}{
		{"equal", NewPoint([]float32{1, 2}, true), NewPoint([]float32{1, 2}, true), 0},
		{"first feature decides", NewPoint([]float32{0, 9}, true), NewPoint([]float32{1, 0}, false), -1},
		{"later feature decides", NewPoint([]float32{1, 0}, true), NewPoint([]float32{1, 2}, false), -1},
		{"label breaks ties", NewPoint([]float32{1, 2}, false), NewPoint([]float32{1, 2}, true), -1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.a.Compare(tc.b))
			require.Equal(t, -tc.expected, tc.b.Compare(tc.a))
		})
	}
}

func TestPointEqual(t *testing.T) {
	assert.True(t, NewPoint([]float32{1, 2}, true).Equal(NewPoint([]float32{1, 2}, true)))
	assert.False(t, NewPoint([]float32{1, 2}, true).Equal(NewPoint([]float32{1, 2}, false)))
	assert.False(t, NewPoint([]float32{1}, true).Equal(NewPoint([]float32{1, 2}, true)))
}
