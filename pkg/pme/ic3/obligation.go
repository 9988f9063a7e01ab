package ic3

import (
	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
)

// obligation is one entry of the blocking queue: a counterexample-to-
// induction cube that must be blocked at level, plus the concrete state
// and inputs it was extracted from and a back-pointer to the obligation it
// is a predecessor of. Obligations are allocated from a pool that never
// relocates, so the priority queue can hold raw pointers while levels are
// mutated in place, and parent chains stay valid until the pool is
// cleared.
type obligation struct {
	cti    ids.Cube
	level  uint
	parent *obligation

	state  ids.Cube
	inputs ids.Cube

	mayDegree uint
}

type obligationPool struct {
	obls []*obligation
}

func (p *obligationPool) new(cti ids.Cube, level uint, parent *obligation) *obligation {
	o := &obligation{cti: ids.SortedCopy(cti), level: level, parent: parent}
	p.obls = append(p.obls, o)
	return o
}

func (p *obligationPool) clear() {
	p.obls = nil
}

// obligationQueue is a binary min-heap ordered by (level, cube size,
// may-degree, cube lexicographic), smallest first. Ties broken on the cube
// itself keep replay deterministic.
type obligationQueue []*obligation

func (q obligationQueue) Len() int { return len(q) }

func (q obligationQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.level != b.level {
		return a.level < b.level
	}
	if len(a.cti) != len(b.cti) {
		return len(a.cti) < len(b.cti)
	}
	if a.mayDegree != b.mayDegree {
		return a.mayDegree < b.mayDegree
	}
	return cubeLess(a.cti, b.cti)
}

func (q obligationQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *obligationQueue) Push(x interface{}) {
	*q = append(*q, x.(*obligation))
}

func (q *obligationQueue) Pop() interface{} {
	old := *q
	n := len(old)
	o := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return o
}

func cubeLess(a, b ids.Cube) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
