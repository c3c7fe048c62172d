package visited

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisit(t *testing.T) {
	s := New(128)

	assert.False(t, s.Visited(5))
	s.Visit(5)
	assert.True(t, s.Visited(5))
	assert.False(t, s.Visited(6))
}

func TestReset(t *testing.T) {
	s := New(128)
	for _, id := range []uint32{0, 63, 64, 100} {
		s.Visit(id)
	}
	s.Reset()
	for _, id := range []uint32{0, 63, 64, 100} {
		assert.False(t, s.Visited(id))
	}
}

func TestGrowBeyondCapacity(t *testing.T) {
	s := New(8)

	s.Visit(1000)
	assert.True(t, s.Visited(1000))
	assert.False(t, s.Visited(999))
}

func TestVisitedOutOfRange(t *testing.T) {
	s := New(8)
	assert.False(t, s.Visited(1<<20))
}

func TestEnsureCapacity(t *testing.T) {
	s := New(8)
	s.EnsureCapacity(4096)
	s.Visit(4095)
	assert.True(t, s.Visited(4095))
}
