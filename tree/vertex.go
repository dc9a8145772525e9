package tree

import (
	"fmt"
	"math"
	"strings"

	"github.com/pbanos/dyntree/feature"
	"github.com/pbanos/dyntree/pointset"
)

/*
Vertex is a node of a dynamic decision tree: a point set plus either a
split (feature and threshold) with two children, or nothing when the
vertex is a leaf.

Every vertex counts the updates applied to its subtree since it was last
built. When the count reaches an epsilon fraction of its current size
the vertex is eligible for rebuilding, and the update call that
triggered it returns a transmission threshold so that the rebuild can be
lifted to the highest ancestor small enough to be the appropriate
rebuild root.
*/
type vertex struct {
	points *pointset.PointSet
	config *Config
	isRoot bool
	isLeaf bool

	splitFeature    int
	splitThreshold  float32
	remainingHeight int

	updatesSinceBuild int

	under *vertex
	over  *vertex
}

// newVertex returns a built vertex over the given point set.
func newVertex(points *pointset.PointSet, config *Config, remainingHeight int, isRoot bool) *vertex {
	v := &vertex{
		points:          points,
		config:          config,
		isRoot:          isRoot,
		remainingHeight: remainingHeight,
	}
	v.build()
	return v
}

/*
build discards the children of the vertex, if any, and decides the
vertex state from its current point set: it stays a leaf when the
remaining height is exhausted, the set is too small or too pure, or no
candidate split has positive gain; otherwise it stores the best split,
partitions the set and builds a child on each part. The update counter
restarts at 0 either way.
*/
func (v *vertex) build() {
	v.config.builds().inc()
	v.under = nil
	v.over = nil
	if v.remainingHeight == 0 ||
		v.points.Size() <= v.config.MinSplitPoints ||
		v.points.Gini() <= v.config.MinSplitGini ||
		!(v.points.BestGain() > 0) {
		v.isLeaf = true
	} else {
		v.isLeaf = false
		best := v.points.BestSplit()
		v.splitFeature = best.Feature
		v.splitThreshold = best.Threshold
		under, over := v.points.SplitAtBest()
		v.under = newVertex(under, v.config, v.remainingHeight-1, false)
		v.over = newVertex(over, v.config, v.remainingHeight-1, false)
	}
	v.updatesSinceBuild = 0
}

// routeFor returns the child in charge of points holding the given
// value for the split feature. Real splits send values up to the
// threshold to the under child; binary and categorical splits send the
// values equal to the threshold to the over child.
func (v *vertex) routeFor(value float32) *vertex {
	if v.points.Kind(v.splitFeature) == feature.Real {
		if value <= v.splitThreshold {
			return v.under
		}
		return v.over
	}
	if value == v.splitThreshold {
		return v.over
	}
	return v.under
}

/*
insert and remove apply an update to the subtree of the vertex. Both
return a rebuild threshold: 0 when nothing remains to be done, or the
transmission threshold of a descendant eligible for rebuilding, which
the caller compares against its own size to decide whether the rebuild
belongs to it, to the child it came from, or to an ancestor further up.
*/
func (v *vertex) insert(p *pointset.Point) int {
	return v.apply(p, false)
}

func (v *vertex) remove(p *pointset.Point) int {
	return v.apply(p, true)
}

// apply is the shared body of insert and remove: mutate the point set,
// count the update, check rebuild eligibility, recurse, and arbitrate
// any threshold the child reports.
func (v *vertex) apply(p *pointset.Point, removal bool) int {
	if removal {
		v.points.Remove(p)
	} else {
		v.points.Insert(p)
	}
	v.updatesSinceBuild++
	if v.isLeaf {
		// A leaf stays consistent under any relabelling of its
		// points, so it never checks eligibility; its counter still
		// counts the update and, as on any vertex, build() resets it.
		return 0
	}
	if float64(v.updatesSinceBuild) >= v.config.Epsilon*float64(v.points.Size()) {
		if v.isRoot {
			v.build()
			return 0
		}
		return transmissionThreshold(v.points.Size(), v.config.EpsilonTransmission)
	}
	child := v.routeFor(p.Feature(v.splitFeature))
	threshold := child.apply(p, removal)
	if threshold > 0 {
		if v.points.Size() < threshold {
			// Still below the shell: the rebuild belongs higher up.
			if v.isRoot {
				v.build()
				return 0
			}
			return threshold
		}
		child.build()
	}
	return 0
}

/*
predict descends the subtree with the given feature values and returns
the majority label of the leaf it reaches.
*/
func (v *vertex) predict(features []float32) bool {
	if v.isLeaf {
		return v.points.PositiveFraction() >= 0.5
	}
	return v.routeFor(features[v.splitFeature]).predict(features)
}

/*
trainingError returns the number of points of the subtree its leaves
would misclassify.
*/
func (v *vertex) trainingError() int {
	if v.isLeaf {
		return v.points.TrainingError()
	}
	return v.under.trainingError() + v.over.trainingError()
}

/*
renderLines returns the textual dump of the subtree, one line per
element, right (over) subtree before left (under) subtree.
*/
func (v *vertex) renderLines() []string {
	if v.isLeaf {
		return []string{fmt.Sprintf("p=%.6f;s=%d\n", v.points.PositiveFraction(), v.points.Size())}
	}
	basis := fmt.Sprintf("f=%d;t=%.6f;p=%.6f;s=%d", v.splitFeature, v.splitThreshold, v.points.PositiveFraction(), v.points.Size())
	lines := v.over.renderLines()
	lines[0] = basis + "--" + lines[0]
	overIndent := strings.Repeat(" ", len(basis)-1) + "|  "
	for i := 1; i < len(lines); i++ {
		lines[i] = overIndent + lines[i]
	}
	underLines := v.under.renderLines()
	lines = append(lines, strings.Repeat(" ", len(basis)-1)+"|--"+underLines[0])
	underIndent := strings.Repeat(" ", len(basis)+2)
	for _, line := range underLines[1:] {
		lines = append(lines, underIndent+line)
	}
	return lines
}

// clone rebuilds the vertex structure over a fresh point set without
// re-running the split search: the stored split parameters repartition
// the set for the children. Used by Tree.CloneWithEpsilon for parameter
// scans.
func (v *vertex) clone(points *pointset.PointSet, config *Config, isRoot bool) *vertex {
	c := &vertex{
		points:            points,
		config:            config,
		isRoot:            isRoot,
		isLeaf:            v.isLeaf,
		splitFeature:      v.splitFeature,
		splitThreshold:    v.splitThreshold,
		remainingHeight:   v.remainingHeight,
		updatesSinceBuild: v.updatesSinceBuild,
	}
	if !v.isLeaf {
		under, over := points.SplitAt(v.splitFeature, v.splitThreshold)
		c.under = v.under.clone(under, config, false)
		c.over = v.over.clone(over, config, false)
	}
	return c
}

// walk runs f on every vertex of the subtree in pre-order, under child
// before over child, until f returns false.
func (v *vertex) walk(f func(*vertex) bool) bool {
	if !f(v) {
		return false
	}
	if v.isLeaf {
		return true
	}
	if !v.under.walk(f) {
		return false
	}
	return v.over.walk(f)
}

/*
transmissionThreshold returns the smallest power of (1+epsilon) not
below n. The power is a theoretically integer quantity computed in
floating point, so half is added before truncating to absorb the
representation error.
*/
func transmissionThreshold(n int, epsilon float64) int {
	return int(math.Pow(1+epsilon, math.Ceil(math.Log(float64(n))/math.Log(1+epsilon))) + 0.5)
}
