package prioq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrdering(t *testing.T) {
	var q Queue[string, int]
	q.Add("c", 3)
	q.Add("a", 1)
	q.Add("d", 4)
	q.Add("b", 2)

	var got []string
	for !q.Empty() {
		got = append(got, q.Remove())
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

// Equal keys must come out in insertion order; ready-queue fairness and
// the finished-summary determinism both rely on it.
func TestStability(t *testing.T) {
	var q Queue[int, int]
	for i := 0; i < 100; i++ {
		q.Add(i, i%3)
	}

	var got [3][]int
	for !q.Empty() {
		k := q.Peek() % 3
		got[k] = append(got[k], q.Remove())
	}
	for k, vals := range got {
		for i := 1; i < len(vals); i++ {
			assert.Greater(t, vals[i], vals[i-1], "key %d out of insertion order", k)
		}
	}
}

func TestPeekDoesNotRemove(t *testing.T) {
	var q Queue[string, int]
	q.Add("x", 7)
	require.Equal(t, "x", q.Peek())
	require.Equal(t, 1, q.Len())
	require.Equal(t, "x", q.Remove())
	assert.True(t, q.Empty())
}

func TestEmptyPanics(t *testing.T) {
	var q Queue[int, int]
	assert.Panics(t, func() { q.Peek() })
	assert.Panics(t, func() { q.Remove() })
}

func TestInterleavedAddRemove(t *testing.T) {
	var q Queue[int, int]
	q.Add(5, 5)
	q.Add(1, 1)
	require.Equal(t, 1, q.Remove())
	q.Add(3, 3)
	q.Add(2, 2)
	require.Equal(t, 2, q.Remove())
	require.Equal(t, 3, q.Remove())
	require.Equal(t, 5, q.Remove())
	assert.True(t, q.Empty())
}
