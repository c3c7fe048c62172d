// Package core defines shared identifier types.
package core

// VectorID is a dense, internal identifier for a vector within a single
// collection field. IDs are assigned in insertion order and never reused.
// Strictly 32-bit, allowing for max 4 billion vectors per field. Used for
// all hot-path structures (graph adjacency, bitsets, heaps).
type VectorID uint32

// MaxVectorID is the maximum possible value for a VectorID.
const MaxVectorID = ^VectorID(0)
