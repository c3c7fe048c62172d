// Package index provides interfaces and parameter types for vector search
// indexes.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/zvecdb/zvec/core"
	"github.com/zvecdb/zvec/distance"
)

const (
	// DefaultM is the default number of bidirectional links per node per layer.
	DefaultM = 50

	// DefaultEFConstruction is the default beam width during graph build.
	DefaultEFConstruction = 500
)

// ErrInvalidParam is returned when an index parameter set is rejected.
var ErrInvalidParam = errors.New("invalid index param")

// ErrDimensionMismatch is a named error type for dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Kind identifies an index family.
type Kind uint8

const (
	// KindHNSW is the graph-based HNSW index.
	KindHNSW Kind = iota

	// KindOmega is the Omega index, which delegates to HNSW.
	KindOmega
)

func (k Kind) String() string {
	switch k {
	case KindHNSW:
		return "HNSW"
	case KindOmega:
		return "OMEGA"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Param is the closed set of index parameter shapes. Dispatch on Kind is
// exhaustive; there is no reflective parameter handling.
type Param interface {
	Kind() Kind
	Validate() error
}

// HNSWParam configures an HNSW index.
//
// Use DefaultHNSWParam for the standard defaults; a zero M or EFConstruction
// passed explicitly is rejected by Validate.
type HNSWParam struct {
	M              int
	EFConstruction int
	Metric         distance.Metric
}

// DefaultHNSWParam returns an HNSWParam with the default parameter set
// (m=50, efConstruction=500, metric=InnerProduct).
func DefaultHNSWParam() HNSWParam {
	return HNSWParam{
		M:              DefaultM,
		EFConstruction: DefaultEFConstruction,
		Metric:         distance.MetricInnerProduct,
	}
}

// Kind returns KindHNSW.
func (p HNSWParam) Kind() Kind { return KindHNSW }

// Validate checks the parameter set.
func (p HNSWParam) Validate() error { return validateParams(p.M, p.EFConstruction, p.Metric) }

// OmegaParam configures an Omega index. It carries the same field set as
// HNSWParam; the Omega index is contractually result-compatible with an HNSW
// index built from the same parameters.
type OmegaParam struct {
	M              int
	EFConstruction int
	Metric         distance.Metric
}

// DefaultOmegaParam returns an OmegaParam with the default parameter set
// (m=50, efConstruction=500, metric=InnerProduct).
func DefaultOmegaParam() OmegaParam {
	return OmegaParam{
		M:              DefaultM,
		EFConstruction: DefaultEFConstruction,
		Metric:         distance.MetricInnerProduct,
	}
}

// Kind returns KindOmega.
func (p OmegaParam) Kind() Kind { return KindOmega }

// Validate checks the parameter set.
func (p OmegaParam) Validate() error { return validateParams(p.M, p.EFConstruction, p.Metric) }

func validateParams(m, efConstruction int, metric distance.Metric) error {
	if m <= 0 {
		return fmt.Errorf("%w: m must be positive, got %d", ErrInvalidParam, m)
	}
	if efConstruction <= 0 {
		return fmt.Errorf("%w: efConstruction must be positive, got %d", ErrInvalidParam, efConstruction)
	}
	if !metric.Valid() {
		return fmt.Errorf("%w: unknown metric %v", ErrInvalidParam, metric)
	}
	return nil
}

// SearchResult represents a search result. Distance follows the internal
// lower-is-better convention; use distance.Score for the public score.
type SearchResult struct {
	ID       core.VectorID
	Distance float32
}

// SearchOptions tunes a single search call.
type SearchOptions struct {
	// EFSearch raises the layer-0 beam width. The effective width is never
	// below max(efConstruction, k).
	EFSearch int

	// Filter, if non-nil, restricts results to ids it accepts. Applied
	// during traversal, not after.
	Filter func(id core.VectorID) bool
}

// Index represents an ANN index over a vector store. Indexes hold vector ids
// only; payloads stay in the store.
type Index interface {
	// Kind identifies the index family.
	Kind() Kind

	// Dimension returns the dimensionality of indexed vectors.
	Dimension() int

	// Metric returns the metric the index was built with.
	Metric() distance.Metric

	// Len returns the number of indexed vectors.
	Len() int

	// Insert adds the vector with the given store id to the graph.
	// Insertion order is load-bearing: it determines layer assignment and
	// graph shape, and must not be reordered.
	Insert(ctx context.Context, id core.VectorID) error

	// Search returns up to k nearest neighbors of query, best first, ties
	// broken by lower id. An empty index or k <= 0 yields an empty result.
	Search(ctx context.Context, query []float32, k int, opts *SearchOptions) ([]SearchResult, error)
}
