package ic3

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ryanberryhill/pme-sub000/pkg/pme/ids"
)

func TestObligationQueueOrdering(t *testing.T) {
	var pool obligationPool
	var q obligationQueue

	deep := pool.new(ids.Cube{ids.MIN_ID}, 3, nil)
	shallow := pool.new(ids.Cube{ids.MIN_ID, ids.MIN_ID + 2}, 1, nil)
	shallowSmall := pool.new(ids.Cube{ids.MIN_ID + 2}, 1, nil)

	heap.Push(&q, deep)
	heap.Push(&q, shallow)
	heap.Push(&q, shallowSmall)

	// Lowest level first; within a level, the smaller cube first.
	assert.Equal(t, shallowSmall, heap.Pop(&q).(*obligation))
	assert.Equal(t, shallow, heap.Pop(&q).(*obligation))
	assert.Equal(t, deep, heap.Pop(&q).(*obligation))
}

func TestObligationQueueLexTieBreak(t *testing.T) {
	var pool obligationPool
	var q obligationQueue

	hi := pool.new(ids.Cube{ids.MIN_ID + 4}, 2, nil)
	lo := pool.new(ids.Cube{ids.MIN_ID}, 2, nil)

	heap.Push(&q, hi)
	heap.Push(&q, lo)

	assert.Equal(t, lo, heap.Pop(&q).(*obligation))
	assert.Equal(t, hi, heap.Pop(&q).(*obligation))
}

func TestObligationLevelMutationAndRepush(t *testing.T) {
	var pool obligationPool
	var q obligationQueue

	a := pool.new(ids.Cube{ids.MIN_ID}, 1, nil)
	b := pool.new(ids.Cube{ids.MIN_ID + 2}, 2, nil)
	heap.Push(&q, a)
	heap.Push(&q, b)

	got := heap.Pop(&q).(*obligation)
	assert.Equal(t, a, got)
	got.level = 3
	heap.Push(&q, got)

	assert.Equal(t, b, heap.Pop(&q).(*obligation))
	assert.Equal(t, a, heap.Pop(&q).(*obligation))
}
