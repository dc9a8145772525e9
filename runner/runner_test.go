package runner

import (
	"math/rand"
	"testing"

	"github.com/pbanos/dyntree/feature"
	"github.com/pbanos/dyntree/pointset"
	"github.com/pbanos/dyntree/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamPoints(n int) []*pointset.Point {
	points := make([]*pointset.Point, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, pointset.NewPoint([]float32{float32(i)}, i%2 == 0))
	}
	return points
}

func TestSlidingWindowSequencing(t *testing.T) {
	points := streamPoints(5)
	initial, events := SlidingWindow(points, 3, 0, rand.New(rand.NewSource(1)))
	require.Equal(t, points[:3], initial)
	// Each step deletes the oldest windowed point before adding the
	// next one.
	require.Len(t, events, 4)
	assert.Equal(t, Event{points[0], Del}, events[0])
	assert.Equal(t, Event{points[3], Add}, events[1])
	assert.Equal(t, Event{points[1], Del}, events[2])
	assert.Equal(t, Event{points[4], Add}, events[3])
}

func TestSlidingWindowAlwaysEvaluates(t *testing.T) {
	points := streamPoints(5)
	_, events := SlidingWindow(points, 3, 1, rand.New(rand.NewSource(1)))
	require.Len(t, events, 6)
	assert.Equal(t, Event{points[3], Eval}, events[0])
	assert.Equal(t, Event{points[0], Del}, events[1])
	assert.Equal(t, Event{points[3], Add}, events[2])
	assert.Equal(t, Event{points[4], Eval}, events[3])
}

func TestSlidingWindowLargerThanStream(t *testing.T) {
	points := streamPoints(3)
	initial, events := SlidingWindow(points, 10, 0.5, rand.New(rand.NewSource(1)))
	assert.Equal(t, points, initial)
	assert.Empty(t, events)
}

func TestRandomSamplingIsDeterministic(t *testing.T) {
	points := streamPoints(50)
	initialA, eventsA := RandomSampling(points, 10, 30, 0.3, 0.5, rand.New(rand.NewSource(42)))
	initialB, eventsB := RandomSampling(points, 10, 30, 0.3, 0.5, rand.New(rand.NewSource(42)))
	assert.Equal(t, initialA, initialB)
	assert.Equal(t, eventsA, eventsB)
	initialC, _ := RandomSampling(points, 10, 30, 0.3, 0.5, rand.New(rand.NewSource(43)))
	assert.NotEqual(t, initialA, initialC)
}

func TestRandomSamplingRespectsBounds(t *testing.T) {
	points := streamPoints(20)
	initial, events := RandomSampling(points, 5, 10, 0, 0.5, rand.New(rand.NewSource(3)))
	require.Len(t, initial, 5)
	updates := 0
	size := len(initial)
	for _, ev := range events {
		switch ev.Type {
		case Add:
			updates++
			size++
		case Del:
			updates++
			size--
		default:
			t.Fatalf("unexpected eval event with probability 0")
		}
		require.GreaterOrEqual(t, size, 0)
	}
	assert.Equal(t, 10, updates)
}

func TestRandomSamplingCapsUpdatesByStream(t *testing.T) {
	points := streamPoints(6)
	_, events := RandomSampling(points, 4, 100, 0, 1, rand.New(rand.NewSource(3)))
	// Only 2 stream points remain after the initial dataset.
	assert.Len(t, events, 2)
}

func TestRunScoresEvaluations(t *testing.T) {
	// A tree separating negatives below 2 from positives above it.
	tr, err := tree.New(tree.Config{
		Dimension:           1,
		Kinds:               []feature.Kind{feature.Real},
		MaxHeight:           2,
		Epsilon:             100,
		EpsilonTransmission: 100,
	}, []*pointset.Point{
		pointset.NewPoint([]float32{0}, false),
		pointset.NewPoint([]float32{1}, false),
		pointset.NewPoint([]float32{3}, true),
		pointset.NewPoint([]float32{4}, true),
	})
	require.NoError(t, err)
	events := []Event{
		{pointset.NewPoint([]float32{0.5}, false), Eval}, // true negative
		{pointset.NewPoint([]float32{3.5}, true), Eval},  // true positive
		{pointset.NewPoint([]float32{0.5}, true), Eval},  // false negative
		{pointset.NewPoint([]float32{3.5}, false), Eval}, // false positive
		{pointset.NewPoint([]float32{5}, true), Add},
		{pointset.NewPoint([]float32{5}, true), Del},
	}
	result, err := Run(events, tr)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TruePositive)
	assert.Equal(t, 1, result.TrueNegative)
	assert.Equal(t, 1, result.FalsePositive)
	assert.Equal(t, 1, result.FalseNegative)
	assert.Equal(t, 4, result.Evaluations())
	assert.Equal(t, 0.0, result.MeanTrainingError())
	assert.Equal(t, 4, tr.Size())
}

func TestRunReportsMissingDelPoint(t *testing.T) {
	tr, err := tree.New(tree.Config{
		Dimension:           1,
		Kinds:               []feature.Kind{feature.Real},
		MaxHeight:           1,
		Epsilon:             100,
		EpsilonTransmission: 100,
	}, nil)
	require.NoError(t, err)
	_, err = Run([]Event{{pointset.NewPoint([]float32{1}, true), Del}}, tr)
	require.Error(t, err)
}

func TestResultMeanTrainingError(t *testing.T) {
	r := &Result{TruePositive: 2, FalseNegative: 2, TotalTrainingError: 6}
	assert.Equal(t, 1.5, r.MeanTrainingError())
	empty := &Result{}
	assert.Equal(t, 0.0, empty.MeanTrainingError())
}
