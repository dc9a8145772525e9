package tree

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/pbanos/dyntree/feature"
	"github.com/pbanos/dyntree/pointset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkInvariants walks the whole tree checking the structural
// invariants: every internal vertex's point set is the exact union of
// its children's, the cached statistics match their definitions, and
// the leaf point sets union to the tree's owned point population.
func checkInvariants(t *testing.T, tr *Tree) {
	t.Helper()
	var leafPoints []*pointset.Point
	tr.root.walk(func(v *vertex) bool {
		size := v.points.Size()
		positive := v.points.PositiveCount()
		fraction := v.points.PositiveFraction()
		recount := 0
		for _, p := range v.points.Points() {
			if p.Label() {
				recount++
			}
		}
		require.Equal(t, recount, positive)
		if size == 0 {
			require.Equal(t, 0.0, fraction)
		} else {
			require.InDelta(t, float64(positive)/float64(size), fraction, 1e-12)
		}
		require.InDelta(t, 2*fraction*(1-fraction), v.points.Gini(), 1e-12)
		if v.isLeaf {
			leafPoints = append(leafPoints, v.points.Points()...)
			return true
		}
		require.Equal(t, size, v.under.points.Size()+v.over.points.Size())
		require.Equal(t, positive, v.under.points.PositiveCount()+v.over.points.PositiveCount())
		return true
	})
	require.Equal(t, len(tr.points), len(leafPoints))
	sort.SliceStable(leafPoints, func(i, j int) bool { return leafPoints[i].Compare(leafPoints[j]) < 0 })
	for i, p := range tr.points {
		require.Equal(t, 0, p.Compare(leafPoints[i]), "owned point %d differs from leaf population", i)
	}
}

func scenarioTree(t *testing.T) *Tree {
	tr, err := New(Config{
		Dimension:           2,
		Kinds:               []feature.Kind{feature.Real, feature.Real},
		MaxHeight:           2,
		Epsilon:             0.5,
		EpsilonTransmission: 0.5,
	}, []*pointset.Point{
		pointset.NewPoint([]float32{0, 0}, false),
		pointset.NewPoint([]float32{0, 1}, false),
		pointset.NewPoint([]float32{1, 0}, true),
		pointset.NewPoint([]float32{1, 1}, true),
	})
	require.NoError(t, err)
	return tr
}

func TestSeparableInitialTree(t *testing.T) {
	tr := scenarioTree(t)
	require.False(t, tr.root.isLeaf)
	assert.Equal(t, 0, tr.root.splitFeature)
	assert.Equal(t, float32(0.5), tr.root.splitThreshold)
	require.True(t, tr.root.under.isLeaf)
	require.True(t, tr.root.over.isLeaf)
	assert.Equal(t, 0.0, tr.root.under.points.Gini())
	assert.Equal(t, 0.0, tr.root.over.points.Gini())
	assert.False(t, tr.Predict([]float32{0.2, 0.9}))
	assert.True(t, tr.Predict([]float32{0.8, 0.1}))
	assert.Equal(t, 0, tr.TrainingError())
	checkInvariants(t, tr)
}

func TestInsertBelowRebuildBudget(t *testing.T) {
	tr := scenarioTree(t)
	tr.Insert([]float32{0.6, 0.0}, false)
	// The point lands in the over leaf, which is now impure but was
	// not rebuilt: 1 update < epsilon * 5.
	require.False(t, tr.root.isLeaf)
	assert.Equal(t, 1, tr.root.updatesSinceBuild)
	assert.Equal(t, 3, tr.root.over.points.Size())
	// Majority in the over leaf is still positive: 2/3 >= 0.5.
	assert.True(t, tr.Predict([]float32{0.6, 0.0}))
	assert.Equal(t, 1, tr.TrainingError())
	checkInvariants(t, tr)
}

func TestBinarySplitMarksFeatureUsedUp(t *testing.T) {
	var points []*pointset.Point
	for i := 0; i < 5; i++ {
		points = append(points, pointset.NewPoint([]float32{0}, false))
		points = append(points, pointset.NewPoint([]float32{1}, true))
	}
	tr, err := New(Config{
		Dimension:           1,
		Kinds:               []feature.Kind{feature.Binary},
		MaxHeight:           2,
		Epsilon:             0.5,
		EpsilonTransmission: 0.5,
	}, points)
	require.NoError(t, err)
	require.False(t, tr.root.isLeaf)
	assert.Equal(t, 0, tr.root.splitFeature)
	assert.Equal(t, float32(1), tr.root.splitThreshold)
	require.True(t, tr.root.over.isLeaf)
	require.True(t, tr.root.under.isLeaf)
	assert.Equal(t, 1.0, tr.root.over.points.PositiveFraction())
	assert.Equal(t, 0.0, tr.root.under.points.PositiveFraction())
	assert.False(t, tr.root.over.points.StillUseful(0))
	assert.False(t, tr.root.under.points.StillUseful(0))
	assert.True(t, tr.Predict([]float32{1}))
	assert.False(t, tr.Predict([]float32{0}))
	checkInvariants(t, tr)
}

func TestRemoveMissingPointLeavesTreeUntouched(t *testing.T) {
	tr := scenarioTree(t)
	before := tr.Render()
	err := tr.Remove([]float32{3, 3}, true)
	require.ErrorIs(t, err, ErrNotFound)
	// A present feature vector with the wrong label is missing too.
	err = tr.Remove([]float32{0, 0}, true)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, tr.Render())
	assert.Equal(t, 4, tr.Size())
}

func TestInsertThenRemoveRestoresTree(t *testing.T) {
	// With an epsilon too large for any rebuild to trigger, removing
	// the inserted point leaves an identical tree.
	tr, err := New(Config{
		Dimension:           2,
		Kinds:               []feature.Kind{feature.Real, feature.Real},
		MaxHeight:           2,
		Epsilon:             100,
		EpsilonTransmission: 100,
	}, []*pointset.Point{
		pointset.NewPoint([]float32{0, 0}, false),
		pointset.NewPoint([]float32{0, 1}, false),
		pointset.NewPoint([]float32{1, 0}, true),
		pointset.NewPoint([]float32{1, 1}, true),
	})
	require.NoError(t, err)
	before := tr.Render()
	tr.Insert([]float32{0.6, 0.0}, false)
	require.NoError(t, tr.Remove([]float32{0.6, 0.0}, false))
	assert.Equal(t, before, tr.Render())
	assert.False(t, tr.Predict([]float32{0.2, 0.9}))
	assert.True(t, tr.Predict([]float32{0.8, 0.1}))
	checkInvariants(t, tr)
}

func TestEmptyTreePredictsFalse(t *testing.T) {
	tr, err := New(Config{
		Dimension:           1,
		Kinds:               []feature.Kind{feature.Real},
		MaxHeight:           3,
		Epsilon:             0.5,
		EpsilonTransmission: 0.5,
	}, nil)
	require.NoError(t, err)
	assert.True(t, tr.root.isLeaf)
	assert.False(t, tr.Predict([]float32{42}))
	assert.Equal(t, 0, tr.TrainingError())
}

func TestStopSplittingRules(t *testing.T) {
	separable := []*pointset.Point{
		pointset.NewPoint([]float32{0}, false),
		pointset.NewPoint([]float32{1}, true),
		pointset.NewPoint([]float32{2}, false),
		pointset.NewPoint([]float32{3}, true),
	}
	testCases := []struct {
		name   string
		config Config
		points []*pointset.Point
	}{
		{
			"max height 1",
			Config{MaxHeight: 1},
			separable,
		},
		{
			"min split points covers the whole set",
			Config{MaxHeight: 3, MinSplitPoints: 4},
			separable,
		},
		{
			"pure labels leave gini at 0",
			Config{MaxHeight: 3},
			[]*pointset.Point{
				pointset.NewPoint([]float32{0}, true),
				pointset.NewPoint([]float32{1}, true),
				pointset.NewPoint([]float32{2}, true),
			},
		},
		{
			"identical points leave no finite split",
			Config{MaxHeight: 3},
			[]*pointset.Point{
				pointset.NewPoint([]float32{1}, true),
				pointset.NewPoint([]float32{1}, false),
				pointset.NewPoint([]float32{1}, true),
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := tc.config
			config.Dimension = 1
			config.Kinds = []feature.Kind{feature.Real}
			config.Epsilon = 0.5
			config.EpsilonTransmission = 0.5
			tr, err := New(config, tc.points)
			require.NoError(t, err)
			assert.True(t, tr.root.isLeaf)
		})
	}
}

func TestConfigValidation(t *testing.T) {
	valid := Config{
		Dimension:           2,
		Kinds:               []feature.Kind{feature.Real, feature.Binary},
		MaxHeight:           2,
		Epsilon:             0.5,
		EpsilonTransmission: 0.5,
	}
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dimension", func(c *Config) { c.Dimension = 0 }},
		{"zero max height", func(c *Config) { c.MaxHeight = 0 }},
		{"kind vector mismatch", func(c *Config) { c.Kinds = c.Kinds[:1] }},
		{"unknown kind", func(c *Config) { c.Kinds = []feature.Kind{feature.Real, feature.Kind(17)} }},
		{"negative min split points", func(c *Config) { c.MinSplitPoints = -1 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := valid
			tc.mutate(&config)
			_, err := New(config, nil)
			require.Error(t, err)
		})
	}
	t.Run("point dimension mismatch", func(t *testing.T) {
		_, err := New(valid, []*pointset.Point{pointset.NewPoint([]float32{1}, true)})
		require.Error(t, err)
	})
	t.Run("valid config grows", func(t *testing.T) {
		_, err := New(valid, nil)
		require.NoError(t, err)
	})
}

func TestCloneWithEpsilon(t *testing.T) {
	tr := twoLevelTree(t, 0.5, nil)
	clone := tr.CloneWithEpsilon(0.2, 0.3)
	assert.Equal(t, tr.Render(), clone.Render())
	assert.Equal(t, 0.2, clone.config.Epsilon)
	assert.Equal(t, 0.3, clone.config.EpsilonTransmission)
	assert.Equal(t, 0.5, tr.config.Epsilon)
	checkInvariants(t, clone)

	// The clone evolves independently of the original.
	for i := 0; i < 10; i++ {
		clone.Insert([]float32{0, 0.25}, false)
	}
	assert.Equal(t, tr.Size()+10, clone.Size())
	assert.Equal(t, 16, tr.Size())
	checkInvariants(t, tr)
	checkInvariants(t, clone)
}

func TestWalkLeaves(t *testing.T) {
	tr := twoLevelTree(t, 0.5, nil)
	var sizes []int
	err := tr.WalkLeaves(context.Background(), func(ps *pointset.PointSet) error {
		sizes = append(sizes, ps.Size())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 8}, sizes)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = tr.WalkLeaves(ctx, func(ps *pointset.PointSet) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestTrainingErrorSumsOverLeaves(t *testing.T) {
	tr := twoLevelTree(t, 100, nil)
	require.Equal(t, 0, tr.TrainingError())
	tr.Insert([]float32{0, 0.1}, true)
	tr.Insert([]float32{1, 0}, false)
	assert.Equal(t, 2, tr.TrainingError())
}

func TestInterleavedUpdatesKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var points []*pointset.Point
	for i := 0; i < 60; i++ {
		p := pointset.NewPoint([]float32{float32(rng.Intn(4)), rng.Float32()}, rng.Intn(2) == 0)
		points = append(points, p)
	}
	tr, err := New(Config{
		Dimension:           2,
		Kinds:               []feature.Kind{feature.Categorical, feature.Real},
		MaxHeight:           4,
		Epsilon:             0.2,
		EpsilonTransmission: 0.2,
		MinSplitPoints:      2,
	}, points)
	require.NoError(t, err)
	checkInvariants(t, tr)
	inTree := append([]*pointset.Point{}, points...)
	for i := 0; i < 200; i++ {
		if len(inTree) > 0 && rng.Float64() < 0.4 {
			j := rng.Intn(len(inTree))
			p := inTree[j]
			inTree = append(inTree[:j], inTree[j+1:]...)
			require.NoError(t, tr.Remove(p.Features(), p.Label()))
		} else {
			p := pointset.NewPoint([]float32{float32(rng.Intn(4)), rng.Float32()}, rng.Intn(2) == 0)
			tr.InsertPoint(p)
			inTree = append(inTree, p)
		}
		if i%20 == 19 {
			checkInvariants(t, tr)
		}
	}
	require.Equal(t, len(inTree), tr.Size())
	checkInvariants(t, tr)
}
