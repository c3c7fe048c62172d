package queue

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinQueueOrder(t *testing.T) {
	pq := NewMin(4)
	pq.Push(Item{Node: 1, Distance: 3})
	pq.Push(Item{Node: 2, Distance: 1})
	pq.Push(Item{Node: 3, Distance: 2})

	top, ok := pq.Top()
	require.True(t, ok)
	assert.Equal(t, uint32(2), top.Node)

	var got []float32
	for pq.Len() > 0 {
		item, ok := pq.Pop()
		require.True(t, ok)
		got = append(got, item.Distance)
	}
	assert.Equal(t, []float32{1, 2, 3}, got)
}

func TestMaxQueueOrder(t *testing.T) {
	pq := NewMax(4)
	pq.Push(Item{Node: 1, Distance: 3})
	pq.Push(Item{Node: 2, Distance: 1})
	pq.Push(Item{Node: 3, Distance: 2})

	top, ok := pq.Top()
	require.True(t, ok)
	assert.Equal(t, float32(3), top.Distance)

	var got []float32
	for pq.Len() > 0 {
		item, _ := pq.Pop()
		got = append(got, item.Distance)
	}
	assert.Equal(t, []float32{3, 2, 1}, got)
}

func TestMaxQueueMin(t *testing.T) {
	pq := NewMax(4)
	_, ok := pq.Min()
	assert.False(t, ok)

	pq.Push(Item{Node: 1, Distance: 3})
	pq.Push(Item{Node: 2, Distance: 1})
	pq.Push(Item{Node: 3, Distance: 2})

	min, ok := pq.Min()
	require.True(t, ok)
	assert.Equal(t, float32(1), min.Distance)
	assert.Equal(t, uint32(2), min.Node)
	assert.Equal(t, 3, pq.Len())
}

func TestEmptyQueue(t *testing.T) {
	pq := NewMin(0)
	_, ok := pq.Pop()
	assert.False(t, ok)
	_, ok = pq.Top()
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	pq := NewMin(2)
	pq.Push(Item{Node: 1, Distance: 1})
	pq.Reset()
	assert.Equal(t, 0, pq.Len())
}

func TestHeapPropertyRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pq := NewMin(16)

	want := make([]float32, 0, 1000)
	for i := 0; i < 1000; i++ {
		d := rng.Float32()
		want = append(want, d)
		pq.Push(Item{Node: uint32(i), Distance: d})
	}
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

	for i := 0; pq.Len() > 0; i++ {
		item, _ := pq.Pop()
		assert.Equal(t, want[i], item.Distance)
	}
}
