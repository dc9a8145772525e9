/*
Package runner drives benchmark sequences against a dynamic decision
tree: it turns a point stream into an ordered list of insertion,
deletion and evaluation events, applies them to a tree and collects the
classification outcomes.
*/
package runner

import (
	"fmt"
	"math/rand"

	"github.com/pbanos/dyntree/pointset"
	"github.com/pbanos/dyntree/tree"
)

/*
EventType is the action an event performs with its point
*/
type EventType int

const (
	// Add inserts the point into the tree
	Add EventType = iota
	// Del removes the point from the tree
	Del
	// Eval asks the tree for a prediction on the point's features
	// and scores it against the point's label
	Eval
)

/*
Event is one step of a benchmark sequence: a point and the action to
perform with it.
*/
type Event struct {
	Point *pointset.Point
	Type  EventType
}

/*
Result collects the outcomes of the Eval events of a sequence: the
confusion counts of the predictions and the training error of the tree
accumulated at every evaluation.
*/
type Result struct {
	TruePositive       int
	TrueNegative       int
	FalsePositive      int
	FalseNegative      int
	TotalTrainingError int
}

/*
Evaluations returns the number of Eval events scored in the result
*/
func (r *Result) Evaluations() int {
	return r.TruePositive + r.TrueNegative + r.FalsePositive + r.FalseNegative
}

/*
MeanTrainingError returns the training error averaged over the
evaluations of the result, or 0 when nothing was evaluated.
*/
func (r *Result) MeanTrainingError() float64 {
	if r.Evaluations() == 0 {
		return 0
	}
	return float64(r.TotalTrainingError) / float64(r.Evaluations())
}

/*
Run takes a slice of events and a tree, applies the events in order and
returns the result of the evaluations among them. It returns an error
when a Del event references a point absent from the tree, which means
the event sequence was not produced by a driver of this package.
*/
func Run(events []Event, t *tree.Tree) (*Result, error) {
	result := &Result{}
	for i, ev := range events {
		switch ev.Type {
		case Add:
			t.InsertPoint(ev.Point)
		case Del:
			if err := t.Remove(ev.Point.Features(), ev.Point.Label()); err != nil {
				return nil, fmt.Errorf("applying event %d: %v", i, err)
			}
		case Eval:
			prediction := t.Predict(ev.Point.Features())
			switch {
			case prediction && ev.Point.Label():
				result.TruePositive++
			case prediction && !ev.Point.Label():
				result.FalsePositive++
			case !prediction && ev.Point.Label():
				result.FalseNegative++
			default:
				result.TrueNegative++
			}
			result.TotalTrainingError += t.TrainingError()
		}
	}
	return result, nil
}

/*
SlidingWindow takes a point stream, a window size, an evaluation
probability and a seeded random source, and returns the initial tree
points and the event sequence of a sliding-window benchmark: the tree
starts on the first windowSize points and every later point produces an
optional evaluation on itself, the deletion of the oldest windowed point
and its own insertion, so the tree always holds the last windowSize
points of the stream.
*/
func SlidingWindow(points []*pointset.Point, windowSize int, evalProbability float64, rng *rand.Rand) ([]*pointset.Point, []Event) {
	if windowSize > len(points) {
		windowSize = len(points)
	}
	initial := make([]*pointset.Point, windowSize)
	copy(initial, points[:windowSize])
	var events []Event
	for i := windowSize; i < len(points); i++ {
		if rng.Float64() < evalProbability {
			events = append(events, Event{points[i], Eval})
		}
		events = append(events, Event{points[i-windowSize], Del})
		events = append(events, Event{points[i], Add})
	}
	return initial, events
}

/*
RandomSampling takes a point stream, an initial size, an update count,
evaluation and insertion probabilities and a seeded random source, and
returns the initial tree points and the event sequence of a random
benchmark: the stream is shuffled, the tree starts on the first
initialSize points, and each update draws an optional evaluation on the
next stream point followed by either its insertion or the deletion of a
uniformly random point currently in the tree. The update count is capped
by the points left in the stream.
*/
func RandomSampling(points []*pointset.Point, initialSize, updates int, evalProbability, insertProbability float64, rng *rand.Rand) ([]*pointset.Point, []Event) {
	shuffled := make([]*pointset.Point, len(points))
	copy(shuffled, points)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if initialSize > len(shuffled) {
		initialSize = len(shuffled)
	}
	initial := make([]*pointset.Point, initialSize)
	copy(initial, shuffled[:initialSize])
	inserted := make([]*pointset.Point, initialSize)
	copy(inserted, shuffled[:initialSize])
	var events []Event
	next := initialSize
	for u := 0; u < updates && next < len(shuffled); u, next = u+1, next+1 {
		p := shuffled[next]
		if rng.Float64() < evalProbability {
			events = append(events, Event{p, Eval})
		}
		if len(inserted) == 0 || rng.Float64() < insertProbability {
			events = append(events, Event{p, Add})
			inserted = append(inserted, p)
		} else {
			i := rng.Intn(len(inserted))
			events = append(events, Event{inserted[i], Del})
			inserted = append(inserted[:i], inserted[i+1:]...)
		}
	}
	return initial, events
}
