package tree

import "sync/atomic"

/*
BuildCounter counts vertex builds. Benchmarks use it to compare how much
rebuilding different epsilon values cost; it has no effect on the tree
itself. The zero value is ready to use.

Trees are single-threaded, but a counter may be shared by trees living
on different goroutines, so it is atomic.
*/
type BuildCounter struct {
	n atomic.Uint64
}

// DefaultBuildCounter is the counter trees fall back to when their
// config names none.
var DefaultBuildCounter = &BuildCounter{}

/*
NewBuildCounter returns a new build counter starting at 0
*/
func NewBuildCounter() *BuildCounter {
	return &BuildCounter{}
}

func (bc *BuildCounter) inc() {
	bc.n.Add(1)
}

/*
Value returns the number of builds counted since the last Reset
*/
func (bc *BuildCounter) Value() uint64 {
	return bc.n.Load()
}

/*
Reset sets the counter back to 0
*/
func (bc *BuildCounter) Reset() {
	bc.n.Store(0)
}
