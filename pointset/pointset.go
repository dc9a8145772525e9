package pointset

import (
	"math"
	"sort"

	"github.com/pbanos/dyntree/feature"
)

/*
PointSet is a multiset of point references annotated with the statistics
a decision tree needs from it: the number of positively-labelled points,
the Gini impurity and the best axis-aligned split of the set.

The statistics are cached and recomputed lazily: every mutation
invalidates the caches and the next accessor call materialises them
again. The positive count is special-cased: while it is valid it is
maintained in constant time across mutations.

A PointSet does not own its points. The same point may be referenced by
every set on the path from the root of a tree to the leaf the point
falls in.
*/
type PointSet struct {
	points      []*Point
	kinds       []feature.Kind
	stillUseful []bool

	positiveCount    int
	positiveFraction float64
	gini             float64
	best             Split

	countValid bool
	giniValid  bool
	splitValid bool
}

/*
Split describes the best axis-aligned split of a point set: the feature
and threshold to split at, the gain proxy the split achieves and the
sizes and positive counts of the two subsets the split would produce.

The gain proxy is not the Gini gain itself but a linearly related
surrogate: -(underPositive·(1-underFraction) + overPositive·(1-overFraction)).
The true gain is gini + 2·GainProxy/size; PointSet.BestGain computes it.
*/
type Split struct {
	Feature       int
	Threshold     float32
	GainProxy     float64
	UnderCount    int
	UnderPositive int
	OverCount     int
	OverPositive  int
}

/*
New takes a slice of point references, the shared feature kind vector of
the tree and a per-subtree feature relevance vector, and returns a
PointSet with them. The point slice is copied and kept ordered by
Point.Compare; the kind vector is shared and never modified; the
relevance vector is owned by the set. A nil relevance vector stands for
an all-relevant one.
*/
func New(points []*Point, kinds []feature.Kind, stillUseful []bool) *PointSet {
	ps := make([]*Point, len(points))
	copy(ps, points)
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Compare(ps[j]) < 0 })
	if stillUseful == nil {
		stillUseful = make([]bool, len(kinds))
		for i := range stillUseful {
			stillUseful[i] = true
		}
	}
	return &PointSet{points: ps, kinds: kinds, stillUseful: stillUseful}
}

/*
Size returns the number of points in the set
*/
func (ps *PointSet) Size() int {
	return len(ps.points)
}

/*
Dimension returns the number of features of the points in the set
*/
func (ps *PointSet) Dimension() int {
	return len(ps.kinds)
}

/*
Kind returns the kind of the feature at the given position
*/
func (ps *PointSet) Kind(position int) feature.Kind {
	return ps.kinds[position]
}

/*
StillUseful returns whether the feature at the given position can still
discriminate points of this set, that is, whether an ancestor split has
not already made the subtree constant on it.
*/
func (ps *PointSet) StillUseful(position int) bool {
	return ps.stillUseful[position]
}

/*
Points returns the points of the set in multiset order. The returned
slice is a copy; the referenced points are shared.
*/
func (ps *PointSet) Points() []*Point {
	points := make([]*Point, len(ps.points))
	copy(points, ps.points)
	return points
}

/*
Insert adds a point reference to the set, keeping equal-valued points
together in multiset order. The positive count is maintained in constant
time when its cache is valid; the Gini and best-split caches are
invalidated.
*/
func (ps *PointSet) Insert(p *Point) {
	i := sort.Search(len(ps.points), func(i int) bool { return ps.points[i].Compare(p) >= 0 })
	ps.points = append(ps.points, nil)
	copy(ps.points[i+1:], ps.points[i:])
	ps.points[i] = p
	if ps.countValid {
		if p.Label() {
			ps.positiveCount++
		}
		ps.positiveFraction = float64(ps.positiveCount) / float64(len(ps.points))
		ps.giniValid = false
	}
	ps.splitValid = false
}

/*
Remove deletes one point equal to p from the set and returns whether one
was found. When the set holds several equal points the one removed is
the given reference if present, or the first equal point otherwise.
*/
func (ps *PointSet) Remove(p *Point) bool {
	i := sort.Search(len(ps.points), func(i int) bool { return ps.points[i].Compare(p) >= 0 })
	if i == len(ps.points) || ps.points[i].Compare(p) != 0 {
		return false
	}
	for j := i; j < len(ps.points) && ps.points[j].Compare(p) == 0; j++ {
		if ps.points[j] == p {
			i = j
			break
		}
	}
	ps.points = append(ps.points[:i], ps.points[i+1:]...)
	if ps.countValid {
		if p.Label() {
			ps.positiveCount--
		}
		if len(ps.points) == 0 {
			ps.positiveFraction = 0
		} else {
			ps.positiveFraction = float64(ps.positiveCount) / float64(len(ps.points))
		}
		ps.giniValid = false
	}
	ps.splitValid = false
	return true
}

func (ps *PointSet) materializeCount() {
	if ps.countValid {
		return
	}
	ps.positiveCount = 0
	for _, p := range ps.points {
		if p.Label() {
			ps.positiveCount++
		}
	}
	if len(ps.points) == 0 {
		ps.positiveFraction = 0
	} else {
		ps.positiveFraction = float64(ps.positiveCount) / float64(len(ps.points))
	}
	ps.countValid = true
}

/*
PositiveCount returns the number of points in the set labelled true
*/
func (ps *PointSet) PositiveCount() int {
	ps.materializeCount()
	return ps.positiveCount
}

/*
PositiveFraction returns the fraction of points in the set labelled
true, or 0 for an empty set.
*/
func (ps *PointSet) PositiveFraction() float64 {
	ps.materializeCount()
	return ps.positiveFraction
}

/*
Gini returns the Gini impurity of the set: 2·p·(1-p) with p the positive
fraction.
*/
func (ps *PointSet) Gini() float64 {
	if !ps.giniValid {
		p := ps.PositiveFraction()
		ps.gini = 2 * p * (1 - p)
		ps.giniValid = true
	}
	return ps.gini
}

/*
TrainingError returns the number of points of the set a majority-class
leaf holding it would misclassify: the smaller of the positive and
negative counts.
*/
func (ps *PointSet) TrainingError() int {
	positive := ps.PositiveCount()
	if negative := len(ps.points) - positive; negative < positive {
		return negative
	}
	return positive
}

/*
BestSplit returns the best split of the set over the features that are
still useful for it. For an empty set, or when no feature yields a
finite gain proxy, the returned split has a NaN gain proxy for a
non-empty set and a zero one for an empty set; callers must treat both
as "cannot split". Ties between candidates are broken in favour of the
first one encountered: features are examined in ascending position
order, thresholds in sweep order within each feature.
*/
func (ps *PointSet) BestSplit() Split {
	ps.materializeSplit()
	return ps.best
}

/*
BestGain returns the true Gini gain of the best split:
gini + 2·gainProxy/size. It is 0 for an empty set and NaN when no
candidate split had a finite gain proxy.
*/
func (ps *PointSet) BestGain() float64 {
	ps.materializeSplit()
	if len(ps.points) == 0 {
		return 0
	}
	return ps.Gini() + 2*ps.best.GainProxy/float64(len(ps.points))
}

func (ps *PointSet) materializeSplit() {
	if ps.splitValid {
		return
	}
	ps.best = Split{}
	if len(ps.points) == 0 {
		ps.splitValid = true
		return
	}
	ps.materializeCount()
	ps.best.GainProxy = math.NaN()
	ps.best.Threshold = float32(math.NaN())
	scratch := make([]*Point, len(ps.points))
	copy(scratch, ps.points)
	for position := range ps.kinds {
		if !ps.stillUseful[position] {
			continue
		}
		if ps.kinds[position] == feature.Real {
			ps.sweepReal(position, scratch)
		} else {
			ps.sweepDiscrete(position)
		}
	}
	ps.splitValid = true
}

// sweepReal looks for the best threshold on a real feature: it sorts
// the points by the feature and evaluates one candidate per boundary
// between distinct values, maintaining the under/over counters across
// the sweep. The candidate threshold is the midpoint of the two
// adjacent distinct values, so equal-valued points are never separated.
func (ps *PointSet) sweepReal(position int, scratch []*Point) {
	sort.SliceStable(scratch, func(i, j int) bool {
		return scratch[i].Feature(position) < scratch[j].Feature(position)
	})
	var underCount, underPositive int
	overCount := len(scratch)
	overPositive := ps.positiveCount
	for i := 0; i < len(scratch); {
		value := scratch[i].Feature(position)
		for ; i < len(scratch) && scratch[i].Feature(position) == value; i++ {
			underCount++
			overCount--
			if scratch[i].Label() {
				underPositive++
				overPositive--
			}
		}
		if i == len(scratch) {
			break
		}
		threshold := (value + scratch[i].Feature(position)) / 2
		ps.consider(Split{
			Feature:       position,
			Threshold:     threshold,
			GainProxy:     gainProxy(underPositive, underCount, overPositive, overCount),
			UnderCount:    underCount,
			UnderPositive: underPositive,
			OverCount:     overCount,
			OverPositive:  overPositive,
		})
	}
}

// sweepDiscrete looks for the best value of a binary or categorical
// feature to segregate into the over child: for each distinct value v
// it evaluates the split "feature != v" versus "feature == v". Values
// are swept from the highest down, so that on a tied binary feature the
// split lands on the higher of the two values.
func (ps *PointSet) sweepDiscrete(position int) {
	counts := make(map[float32]int)
	positives := make(map[float32]int)
	for _, p := range ps.points {
		v := p.Feature(position)
		counts[v]++
		if p.Label() {
			positives[v]++
		}
	}
	values := make([]float32, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] > values[j] })
	for _, v := range values {
		overCount := counts[v]
		overPositive := positives[v]
		underCount := len(ps.points) - overCount
		underPositive := ps.positiveCount - overPositive
		ps.consider(Split{
			Feature:       position,
			Threshold:     v,
			GainProxy:     gainProxy(underPositive, underCount, overPositive, overCount),
			UnderCount:    underCount,
			UnderPositive: underPositive,
			OverCount:     overCount,
			OverPositive:  overPositive,
		})
	}
}

// consider replaces the best split with the candidate when the
// candidate strictly improves on it. NaN candidates never win; the
// first finite candidate always replaces the NaN the search starts
// from.
func (ps *PointSet) consider(candidate Split) {
	if math.IsNaN(candidate.GainProxy) {
		return
	}
	if math.IsNaN(ps.best.GainProxy) || candidate.GainProxy > ps.best.GainProxy {
		ps.best = candidate
	}
}

// gainProxy is the split-quality surrogate maximised by the best-split
// search. It is 0/0 = NaN when either side is empty, which the search
// treats as "never better".
func gainProxy(underPositive, underCount, overPositive, overCount int) float64 {
	underFraction := float64(underPositive) / float64(underCount)
	overFraction := float64(overPositive) / float64(overCount)
	return -(float64(underPositive)*(1-underFraction) + float64(overPositive)*(1-overFraction))
}

/*
SplitAtBest partitions the set in two according to its best split and
returns the two resulting sets, under first. The children's positive
counts are seeded from the counters recorded by the best-split search,
so they need no recounting pass. Callers must not invoke it when
BestGain reports the set cannot be split.
*/
func (ps *PointSet) SplitAtBest() (*PointSet, *PointSet) {
	ps.materializeSplit()
	under, over := ps.SplitAt(ps.best.Feature, ps.best.Threshold)
	under.positiveCount = ps.best.UnderPositive
	if under.Size() == 0 {
		under.positiveFraction = 0
	} else {
		under.positiveFraction = float64(under.positiveCount) / float64(under.Size())
	}
	under.countValid = true
	over.positiveCount = ps.best.OverPositive
	if over.Size() == 0 {
		over.positiveFraction = 0
	} else {
		over.positiveFraction = float64(over.positiveCount) / float64(over.Size())
	}
	over.countValid = true
	return under, over
}

/*
SplitAt partitions the set by the given feature and threshold and
returns the two resulting sets, under first. For a real feature the
under set receives the points whose value is less than or equal to the
threshold; for binary and categorical features the over set receives
the points whose value equals the threshold.

The children's feature relevance vectors are copies of this set's with
the split feature cleared in both children for a binary feature, cleared
in the over child only for a categorical one (that child is now constant
on the feature) and left untouched for a real one.
*/
func (ps *PointSet) SplitAt(position int, threshold float32) (*PointSet, *PointSet) {
	var underPoints, overPoints []*Point
	if ps.kinds[position] == feature.Real {
		for _, p := range ps.points {
			if p.Feature(position) <= threshold {
				underPoints = append(underPoints, p)
			} else {
				overPoints = append(overPoints, p)
			}
		}
	} else {
		for _, p := range ps.points {
			if p.Feature(position) == threshold {
				overPoints = append(overPoints, p)
			} else {
				underPoints = append(underPoints, p)
			}
		}
	}
	underUseful := make([]bool, len(ps.stillUseful))
	overUseful := make([]bool, len(ps.stillUseful))
	copy(underUseful, ps.stillUseful)
	copy(overUseful, ps.stillUseful)
	switch ps.kinds[position] {
	case feature.Binary:
		underUseful[position] = false
		overUseful[position] = false
	case feature.Categorical:
		overUseful[position] = false
	}
	under := New(underPoints, ps.kinds, underUseful)
	over := New(overPoints, ps.kinds, overUseful)
	return under, over
}
