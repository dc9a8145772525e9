/*
Package tree implements a dynamic binary decision-tree classifier: a
Gini-impurity tree of bounded height over labelled feature vectors that
accepts interleaved point insertions, deletions and prediction queries.

Instead of rebuilding after every update, every vertex counts the
updates its subtree has absorbed since it was last built and rebuilds
locally once the count passes an epsilon fraction of its size; a second
epsilon lifts each rebuild to the highest ancestor whose size still fits
under the triggering subset's transmission threshold. This keeps the
amortised cost per update logarithmic while the tree tracks the evolving
point population.
*/
package tree

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pbanos/dyntree/feature"
	"github.com/pbanos/dyntree/pointset"
)

/*
Error is the type of the sentinel errors of the package
*/
type Error string

func (e Error) Error() string {
	return string(e)
}

/*
ErrNotFound is the error returned by Remove when no point of the tree
matches the features and label to remove.
*/
const ErrNotFound = Error("point not found in tree")

/*
Config carries the construction parameters of a tree.

Epsilon is the update-budget fraction that makes a vertex eligible for
rebuilding; 1+EpsilonTransmission is the base of the size shells used
to pick which ancestor performs an eligible rebuild. MinSplitPoints and
MinSplitGini stop the splitting of small or near-pure vertices.
MaxHeight bounds the number of vertices between root and leaf, both
included.

Kinds is shared read-only by every vertex of the tree. Builds may be nil
to count builds on the process-wide default counter.
*/
type Config struct {
	Dimension           int
	Kinds               []feature.Kind
	MaxHeight           int
	Epsilon             float64
	EpsilonTransmission float64
	MinSplitPoints      int
	MinSplitGini        float64
	Builds              *BuildCounter
}

func (c *Config) builds() *BuildCounter {
	if c.Builds == nil {
		return DefaultBuildCounter
	}
	return c.Builds
}

func (c *Config) validate() error {
	if c.Dimension < 1 {
		return fmt.Errorf("invalid config: dimension must be at least 1, got %d", c.Dimension)
	}
	if c.MaxHeight < 1 {
		return fmt.Errorf("invalid config: max height must be at least 1, got %d", c.MaxHeight)
	}
	if len(c.Kinds) != c.Dimension {
		return fmt.Errorf("invalid config: %d feature kinds for dimension %d", len(c.Kinds), c.Dimension)
	}
	for i, k := range c.Kinds {
		if k != feature.Binary && k != feature.Categorical && k != feature.Real {
			return fmt.Errorf("invalid config: feature %d has unknown kind %d", i, int(k))
		}
	}
	if c.MinSplitPoints < 0 {
		return fmt.Errorf("invalid config: min split points must not be negative, got %d", c.MinSplitPoints)
	}
	return nil
}

/*
Tree is the root owner of a dynamic decision tree: it holds the point
population the tree classifies and the root vertex, and forwards every
update to the vertex structure.

A tree is exclusively owned by its caller: its operations must not be
invoked concurrently.
*/
type Tree struct {
	config Config
	points []*pointset.Point
	root   *vertex
}

/*
New takes a config and an initial slice of points and returns a tree
grown over them, or an error when the config is invalid or a point does
not match the configured dimension. The root is built eagerly, so
predictions are available as soon as New returns.
*/
func New(config Config, initial []*pointset.Point) (*Tree, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	points := make([]*pointset.Point, len(initial))
	copy(points, initial)
	for _, p := range points {
		if p.Dimension() != config.Dimension {
			return nil, fmt.Errorf("invalid config: point %v has dimension %d, tree has dimension %d", p, p.Dimension(), config.Dimension)
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Compare(points[j]) < 0 })
	t := &Tree{config: config, points: points}
	t.root = newVertex(pointset.New(points, config.Kinds, nil), &t.config, config.MaxHeight-1, true)
	return t, nil
}

/*
Config returns a copy of the config the tree was built with
*/
func (t *Tree) Config() Config {
	return t.config
}

/*
Size returns the number of points currently in the tree
*/
func (t *Tree) Size() int {
	return len(t.points)
}

/*
Insert takes a slice of feature values and a label, builds a point with
them and adds it to the tree, rebuilding whatever subtree the update
protocol designates. It panics if the number of values does not match
the tree dimension; values are expected to be finite.
*/
func (t *Tree) Insert(features []float32, label bool) {
	t.InsertPoint(pointset.NewPoint(features, label))
}

/*
InsertPoint adds an already-built point to the tree. The point must not
be mutated afterwards; points are immutable so the same point may be
shared with other trees.
*/
func (t *Tree) InsertPoint(p *pointset.Point) {
	if p.Dimension() != t.config.Dimension {
		panic(fmt.Sprintf("point of dimension %d inserted in tree of dimension %d", p.Dimension(), t.config.Dimension))
	}
	i := sort.Search(len(t.points), func(i int) bool { return t.points[i].Compare(p) >= 0 })
	t.points = append(t.points, nil)
	copy(t.points[i+1:], t.points[i:])
	t.points[i] = p
	t.root.insert(p)
}

/*
Remove takes a slice of feature values and a label, looks up the first
point of the tree equal to them and removes it from the tree and every
vertex holding it. It returns ErrNotFound when no point matches.
*/
func (t *Tree) Remove(features []float32, label bool) error {
	pattern := pointset.NewPoint(features, label)
	i := sort.Search(len(t.points), func(i int) bool { return t.points[i].Compare(pattern) >= 0 })
	if i == len(t.points) || t.points[i].Compare(pattern) != 0 {
		return ErrNotFound
	}
	p := t.points[i]
	t.points = append(t.points[:i], t.points[i+1:]...)
	t.root.remove(p)
	return nil
}

/*
Predict takes a slice of feature values and returns the label the tree
assigns to them: the majority label of the leaf the values descend to.
An empty leaf predicts false.
*/
func (t *Tree) Predict(features []float32) bool {
	if len(features) != t.config.Dimension {
		panic(fmt.Sprintf("prediction over %d features on tree of dimension %d", len(features), t.config.Dimension))
	}
	return t.root.predict(features)
}

/*
TrainingError returns the number of points of the tree its own leaves
would misclassify: the sum over all leaves of the minority count of the
leaf.
*/
func (t *Tree) TrainingError() int {
	return t.root.trainingError()
}

/*
Render returns a human-readable dump of the tree in pre-order with the
over subtree before the under subtree, one line per leaf: the
description of an internal vertex (split feature and threshold, positive
fraction and size) prefixes the first line of its over subtree, and leaf
descriptions carry the positive fraction and size of the leaf.
*/
func (t *Tree) Render() string {
	var b strings.Builder
	for _, line := range t.root.renderLines() {
		b.WriteString(line)
	}
	return b.String()
}

/*
CloneWithEpsilon returns an independent tree over the same points with
the same structure and split parameters but the given epsilon and
epsilon transmission values. The already-computed splits are reused
rather than searched again, so cloning costs one partition pass per
vertex; parameter scans clone one tree per epsilon from a common
reference tree.
*/
func (t *Tree) CloneWithEpsilon(epsilon, epsilonTransmission float64) *Tree {
	config := t.config
	config.Epsilon = epsilon
	config.EpsilonTransmission = epsilonTransmission
	points := make([]*pointset.Point, len(t.points))
	copy(points, t.points)
	c := &Tree{config: config, points: points}
	c.root = t.root.clone(pointset.New(points, config.Kinds, nil), &c.config, true)
	return c
}

/*
WalkLeaves takes a context and an error-returning function on a point
set and runs the function on the point set of every leaf of the tree,
under subtrees before over subtrees. It stops at the first error and
returns it, or the context error if the context expires first.
*/
func (t *Tree) WalkLeaves(ctx context.Context, f func(*pointset.PointSet) error) error {
	var err error
	t.root.walk(func(v *vertex) bool {
		if ctx.Err() != nil {
			err = ctx.Err()
			return false
		}
		if !v.isLeaf {
			return true
		}
		err = f(v.points)
		return err == nil
	})
	return err
}
