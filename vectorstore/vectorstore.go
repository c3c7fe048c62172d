// Package vectorstore owns raw vector payloads and per-document scalar
// fields, keyed by dense internal vector ids.
//
// The in-memory Store is append-only: ids are assigned in insertion order and
// never reused. Indexes hold only vector ids, never copies of vector data.
// The mmap-backed store in mmap.go implements the same read contract over an
// on-disk file.
package vectorstore

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zvecdb/zvec/core"
)

// ErrWrongDimension is returned when a vector doesn't match the store dimension.
var ErrWrongDimension = errors.New("wrong vector dimension")

// Reader is the read contract indexes operate on.
//
// Implementations must treat the configured dimension as authoritative.
// Callers should assume returned slices may alias internal memory.
type Reader interface {
	Dimension() int
	Len() int
	GetVector(id core.VectorID) ([]float32, bool)
}

// Store is the canonical in-memory vector storage. Vectors are kept in a
// single flat backing array; scalar fields are kept per id.
type Store struct {
	mu     sync.RWMutex
	dim    int
	data   []float32
	fields []map[string]any
}

var _ Reader = (*Store)(nil)

// New creates a new in-memory store for vectors of the given dimension.
func New(dimension int) *Store {
	return &Store{dim: dimension}
}

// Dimension returns the configured vector dimension.
func (s *Store) Dimension() int { return s.dim }

// Len returns the number of stored vectors.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fields)
}

// Append stores a vector and its scalar fields, returning the assigned id.
// The vector is copied; the fields map is retained as-is.
func (s *Store) Append(v []float32, fields map[string]any) (core.VectorID, error) {
	if len(v) != s.dim {
		return 0, fmt.Errorf("%w: expected %d, got %d", ErrWrongDimension, s.dim, len(v))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := core.VectorID(len(s.fields))
	s.data = append(s.data, v...)
	s.fields = append(s.fields, fields)
	return id, nil
}

// GetVector returns the vector for the given id. The slice aliases the
// backing array and must not be mutated.
func (s *Store) GetVector(id core.VectorID) ([]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(id) >= len(s.fields) {
		return nil, false
	}
	off := int(id) * s.dim
	return s.data[off : off+s.dim : off+s.dim], true
}

// Get returns the vector and scalar fields for the given id.
func (s *Store) Get(id core.VectorID) ([]float32, map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(id) >= len(s.fields) {
		return nil, nil, false
	}
	off := int(id) * s.dim
	return s.data[off : off+s.dim : off+s.dim], s.fields[id], true
}

// Fields returns the scalar fields for the given id.
func (s *Store) Fields(id core.VectorID) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if int(id) >= len(s.fields) {
		return nil, false
	}
	return s.fields[id], true
}
