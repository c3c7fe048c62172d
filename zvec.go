package zvec

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zvecdb/zvec/core"
	"github.com/zvecdb/zvec/index"
	"github.com/zvecdb/zvec/index/hnsw"
	"github.com/zvecdb/zvec/index/omega"
	"github.com/zvecdb/zvec/metadata"
	"github.com/zvecdb/zvec/searcher"
	"github.com/zvecdb/zvec/vectorstore"
)

// QueryResult is one ranked query hit.
type QueryResult = searcher.QueryResult

// vectorField bundles everything one vector field owns: the store, the
// external document ids aligned to store ids, the scalar filter index and
// the currently built ANN index.
type vectorField struct {
	schema VectorSchema

	store  vectorstore.Reader
	mem    *vectorstore.Store // nil for snapshot-opened fields
	filter *metadata.FilterIndex

	// mu guards docIDs and the idx swap. Queries read the index under
	// RLock; a rebuild publishes its finished index under Lock, so readers
	// see the old graph fully or the new one fully, never a partial build.
	mu     sync.RWMutex
	docIDs []string
	idx    index.Index

	// buildMu serializes rebuilds of this field's index.
	buildMu sync.Mutex
}

var _ searcher.DocResolver = (*vectorField)(nil)

// DocID resolves a store id to the external document id.
func (vf *vectorField) DocID(id core.VectorID) (string, bool) {
	vf.mu.RLock()
	defer vf.mu.RUnlock()
	if int(id) >= len(vf.docIDs) {
		return "", false
	}
	return vf.docIDs[id], true
}

// Fields resolves a store id to the document's scalar fields. Fields are not
// part of snapshot files; snapshot-opened fields resolve to nil.
func (vf *vectorField) Fields(id core.VectorID) (map[string]any, bool) {
	if vf.mem == nil {
		return nil, true
	}
	return vf.mem.Fields(id)
}

func (vf *vectorField) currentIndex() index.Index {
	vf.mu.RLock()
	defer vf.mu.RUnlock()
	return vf.idx
}

// Collection orchestrates insert, index build and query for one schema.
type Collection struct {
	schema  Schema
	opts    options
	scalars map[string]FieldSchema
	fields  map[string]*vectorField

	// insertMu serializes batches: ids are assigned in exactly the order
	// documents are given, which is load-bearing for reproducible index
	// structure. It also guards seenIDs.
	insertMu sync.Mutex
	seenIDs  map[string]struct{}
}

// New creates an empty collection for the given schema.
func New(schema Schema, optFns ...Option) (*Collection, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	c := &Collection{
		schema:  schema,
		opts:    applyOptions(optFns),
		scalars: make(map[string]FieldSchema, len(schema.Fields)),
		fields:  make(map[string]*vectorField, len(schema.Vectors)),
		seenIDs: make(map[string]struct{}),
	}
	for _, f := range schema.Fields {
		c.scalars[f.Name] = f
	}
	for _, v := range schema.Vectors {
		mem := vectorstore.New(v.Dimension)
		c.fields[v.Name] = &vectorField{
			schema: v,
			store:  mem,
			mem:    mem,
			filter: metadata.NewFilterIndex(),
		}
	}
	return c, nil
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.schema.Name }

// Schema returns the collection schema.
func (c *Collection) Schema() Schema { return c.schema }

// Count returns the number of vectors stored for the given field.
func (c *Collection) Count(field string) (int, error) {
	vf := c.fields[field]
	if vf == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return vf.store.Len(), nil
}

// Insert stores a batch of documents. It returns one Status per input
// document: a failed document never blocks its siblings, and ids are
// assigned in the order documents are given.
func (c *Collection) Insert(ctx context.Context, docs []Doc) []Status {
	statuses := make([]Status, len(docs))

	if c.opts.readOnly {
		for i := range statuses {
			statuses[i] = StatusError(ErrReadOnly)
		}
		return statuses
	}

	c.insertMu.Lock()
	defer c.insertMu.Unlock()

	failed := 0
	for i := range docs {
		if err := ctx.Err(); err != nil {
			statuses[i] = StatusError(err)
			failed++
			continue
		}
		statuses[i] = StatusError(c.insertOne(&docs[i]))
		if !statuses[i].OK() {
			failed++
		}
	}

	c.opts.logger.LogBatchInsert(ctx, len(docs), failed)
	return statuses
}

// insertOne validates a document fully, then appends it to every vector
// field's store. Validation-first keeps a failing document from partially
// landing in some fields.
func (c *Collection) insertOne(doc *Doc) error {
	// Document ids are primary keys: a second insert of the same id fails
	// rather than producing two vectors that resolve to one document.
	if _, dup := c.seenIDs[doc.ID]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateID, doc.ID)
	}

	for name, value := range doc.Fields {
		fs, ok := c.scalars[name]
		if !ok {
			return fmt.Errorf("%w: scalar field %q", ErrUnknownField, name)
		}
		if err := fs.checkValue(value); err != nil {
			return err
		}
	}
	for _, fs := range c.schema.Fields {
		if _, present := doc.Fields[fs.Name]; !present && !fs.Nullable {
			return fmt.Errorf("missing value for non-nullable field %q", fs.Name)
		}
	}

	for name := range doc.Vectors {
		if c.fields[name] == nil {
			return fmt.Errorf("%w: vector field %q", ErrUnknownField, name)
		}
	}
	for _, vs := range c.schema.Vectors {
		vec, present := doc.Vectors[vs.Name]
		if !present {
			return fmt.Errorf("missing vector for field %q", vs.Name)
		}
		if len(vec) != vs.Dimension {
			return &ErrDimensionMismatch{Field: vs.Name, Expected: vs.Dimension, Actual: len(vec)}
		}
	}

	for _, vs := range c.schema.Vectors {
		vf := c.fields[vs.Name]
		id, err := vf.mem.Append(doc.Vectors[vs.Name], doc.Fields)
		if err != nil {
			return translateError(vs.Name, err)
		}
		vf.mu.Lock()
		vf.docIDs = append(vf.docIDs, doc.ID)
		vf.mu.Unlock()
		vf.filter.Add(id, doc.Fields)
	}
	c.seenIDs[doc.ID] = struct{}{}
	return nil
}

// CreateIndex builds (or rebuilds, discarding any prior index for the
// field) the index described by param over the field's stored vectors. It
// blocks until the build completes; queries keep using the previous index
// until the new one is published.
func (c *Collection) CreateIndex(ctx context.Context, field string, param index.Param) Status {
	vf := c.fields[field]
	if vf == nil {
		return StatusError(fmt.Errorf("%w: %q", ErrUnknownField, field))
	}
	if c.opts.readOnly {
		return StatusError(ErrReadOnly)
	}
	if param == nil {
		return StatusError(fmt.Errorf("%w: nil param", index.ErrInvalidParam))
	}
	if err := param.Validate(); err != nil {
		return StatusError(err)
	}

	start := time.Now()

	if err := c.opts.controller.AcquireBuild(ctx); err != nil {
		return StatusError(err)
	}
	defer c.opts.controller.ReleaseBuild()

	vf.buildMu.Lock()
	defer vf.buildMu.Unlock()

	idx, err := newIndex(vf.store, vf.schema.Dimension, param)
	if err != nil {
		c.opts.logger.LogIndexBuild(ctx, field, param.Kind().String(), 0, 0, err)
		return StatusError(err)
	}

	// Insertion order is the id order; it must not be reordered.
	n := vf.store.Len()
	for i := 0; i < n; i++ {
		if err := idx.Insert(ctx, core.VectorID(i)); err != nil {
			err = translateError(field, err)
			c.opts.logger.LogIndexBuild(ctx, field, param.Kind().String(), i, time.Since(start), err)
			return StatusError(err)
		}
	}

	vf.mu.Lock()
	vf.idx = idx
	vf.mu.Unlock()

	c.opts.logger.LogIndexBuild(ctx, field, param.Kind().String(), n, time.Since(start), nil)
	return StatusOK()
}

// BuildIndexes builds every vector field's schema-declared index. Distinct
// fields' indexes are independent, so builds run concurrently, bounded by
// the resource controller; per-field results are identical to sequential
// builds. The returned statuses align with Schema.Vectors; fields without a
// declared param get StatusOK.
func (c *Collection) BuildIndexes(ctx context.Context) []Status {
	statuses := make([]Status, len(c.schema.Vectors))

	var g errgroup.Group
	for i, vs := range c.schema.Vectors {
		if vs.IndexParam == nil {
			statuses[i] = StatusOK()
			continue
		}
		i, vs := i, vs
		g.Go(func() error {
			statuses[i] = c.CreateIndex(ctx, vs.Name, vs.IndexParam)
			return nil
		})
	}
	g.Wait()

	return statuses
}

// newIndex dispatches on the param kind. The param set is closed; adding a
// kind means adding a case here.
func newIndex(store vectorstore.Reader, dimension int, param index.Param) (index.Index, error) {
	switch p := param.(type) {
	case index.HNSWParam:
		return hnsw.New(func(o *hnsw.Options) {
			o.Dimension = dimension
			o.M = p.M
			o.EFConstruction = p.EFConstruction
			o.Metric = p.Metric
			o.Vectors = store
		})
	case index.OmegaParam:
		return omega.New(func(o *omega.Options) {
			o.Dimension = dimension
			o.M = p.M
			o.EFConstruction = p.EFConstruction
			o.Metric = p.Metric
			o.Vectors = store
		})
	default:
		return nil, fmt.Errorf("%w: unsupported index kind %v", index.ErrInvalidParam, param.Kind())
	}
}
