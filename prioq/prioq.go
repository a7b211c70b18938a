// Package prioq provides a minimum-priority multiset.
//
// Removal order among items with equal keys is the order of insertion.
// That stability is load-bearing for users of this package: ready-queue
// fairness at equal priority and the determinism of the finished-process
// summary both depend on it.
package prioq

import "golang.org/x/exp/constraints"

type entry[T any, K constraints.Ordered] struct {
	val T
	key K
	seq uint64
}

// Queue is a stable min-ordered priority queue. The zero value is an
// empty queue ready for use.
type Queue[T any, K constraints.Ordered] struct {
	heap []entry[T, K]
	seq  uint64
}

// Add inserts val with the given priority key.
func (q *Queue[T, K]) Add(val T, key K) {
	q.heap = append(q.heap, entry[T, K]{val: val, key: key, seq: q.seq})
	q.seq++
	q.up(len(q.heap) - 1)
}

// Peek returns the minimum item without removing it.
// It panics on an empty queue.
func (q *Queue[T, K]) Peek() T {
	if len(q.heap) == 0 {
		panic("prioq: peek on empty queue")
	}
	return q.heap[0].val
}

// Remove removes and returns the minimum item.
// It panics on an empty queue.
func (q *Queue[T, K]) Remove() T {
	if len(q.heap) == 0 {
		panic("prioq: remove on empty queue")
	}
	val := q.heap[0].val
	last := len(q.heap) - 1
	q.heap[0] = q.heap[last]
	q.heap[last] = entry[T, K]{} // release the reference
	q.heap = q.heap[:last]
	q.down(0)
	return val
}

// Empty reports whether the queue holds no items.
func (q *Queue[T, K]) Empty() bool { return len(q.heap) == 0 }

// Len returns the number of items in the queue.
func (q *Queue[T, K]) Len() int { return len(q.heap) }

// less orders primarily by key, breaking ties by insertion sequence.
func (q *Queue[T, K]) less(i, j int) bool {
	if q.heap[i].key != q.heap[j].key {
		return q.heap[i].key < q.heap[j].key
	}
	return q.heap[i].seq < q.heap[j].seq
}

func (q *Queue[T, K]) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.less(i, parent) {
			break
		}
		q.heap[i], q.heap[parent] = q.heap[parent], q.heap[i]
		i = parent
	}
}

func (q *Queue[T, K]) down(i int) {
	for {
		min, l, r := i, 2*i+1, 2*i+2
		if l < len(q.heap) && q.less(l, min) {
			min = l
		}
		if r < len(q.heap) && q.less(r, min) {
			min = r
		}
		if min == i {
			return
		}
		q.heap[i], q.heap[min] = q.heap[min], q.heap[i]
		i = min
	}
}
