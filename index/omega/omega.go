// Package omega implements the OMEGA index.
//
// OMEGA is an index identity that can evolve independently of HNSW while
// today being behavior-frozen to it: it constructs an internal HNSW graph
// from the same (m, efConstruction, metric) parameter set and delegates
// every operation to it. For identical parameters, vector population and
// query, OMEGA and HNSW return the same ids at every rank with scores equal
// within floating-point tolerance. This equivalence is a public guarantee,
// not an incidental property; any future divergence of the internal
// algorithm must preserve it until an explicit, versioned contract change.
package omega

import (
	"context"
	"io"

	"github.com/zvecdb/zvec/core"
	"github.com/zvecdb/zvec/distance"
	"github.com/zvecdb/zvec/index"
	"github.com/zvecdb/zvec/index/hnsw"
	"github.com/zvecdb/zvec/vectorstore"
)

// Compile-time check
var _ index.Index = (*Omega)(nil)

// Options represents the options for configuring OMEGA. The field set is
// identical to hnsw.Options and is handed to the internal graph verbatim.
type Options struct {
	Dimension      int
	M              int
	EFConstruction int
	Metric         distance.Metric
	Vectors        vectorstore.Reader
}

// DefaultOptions contains the default options for OMEGA.
var DefaultOptions = Options{
	M:              index.DefaultM,
	EFConstruction: index.DefaultEFConstruction,
	Metric:         distance.MetricInnerProduct,
}

// Omega wraps an internally constructed HNSW index.
type Omega struct {
	inner *hnsw.HNSW
}

// New creates a new OMEGA instance.
func New(optFns ...func(o *Options)) (*Omega, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	inner, err := hnsw.New(func(o *hnsw.Options) {
		o.Dimension = opts.Dimension
		o.M = opts.M
		o.EFConstruction = opts.EFConstruction
		o.Metric = opts.Metric
		o.Vectors = opts.Vectors
	})
	if err != nil {
		return nil, err
	}
	return &Omega{inner: inner}, nil
}

// Kind returns KindOmega.
func (o *Omega) Kind() index.Kind { return index.KindOmega }

// Dimension returns the dimensionality of the vectors in the index.
func (o *Omega) Dimension() int { return o.inner.Dimension() }

// Metric returns the metric the index was built with.
func (o *Omega) Metric() distance.Metric { return o.inner.Metric() }

// Len returns the number of indexed vectors.
func (o *Omega) Len() int { return o.inner.Len() }

// Insert delegates to the internal HNSW graph.
func (o *Omega) Insert(ctx context.Context, id core.VectorID) error {
	return o.inner.Insert(ctx, id)
}

// Search delegates to the internal HNSW graph.
func (o *Omega) Search(ctx context.Context, query []float32, k int, opts *index.SearchOptions) ([]index.SearchResult, error) {
	return o.inner.Search(ctx, query, k, opts)
}

// Stats delegates to the internal HNSW graph.
func (o *Omega) Stats() hnsw.Stats { return o.inner.Stats() }

// SaveTo delegates to the internal HNSW graph. The snapshot is an HNSW
// snapshot; Load restores the OMEGA identity around it.
func (o *Omega) SaveTo(w io.Writer, codec hnsw.Compression) error {
	return o.inner.SaveTo(w, codec)
}

// Load reads a snapshot written by SaveTo.
func Load(r io.Reader, optFns ...func(o *hnsw.Options)) (*Omega, error) {
	inner, err := hnsw.Load(r, optFns...)
	if err != nil {
		return nil, err
	}
	return &Omega{inner: inner}, nil
}
