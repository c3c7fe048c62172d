package zvec

import (
	"context"
	"fmt"

	"github.com/zvecdb/zvec/index"
	"github.com/zvecdb/zvec/metadata"
	"github.com/zvecdb/zvec/searcher"
)

type queryOptions struct {
	efSearch int
	filters  []scalarFilter
}

type scalarFilter struct {
	field string
	value any
}

// QueryOption configures a single query.
type QueryOption func(*queryOptions)

// WithEFSearch widens the search beam beyond the index default. Values at or
// below the default have no effect.
func WithEFSearch(ef int) QueryOption {
	return func(o *queryOptions) {
		o.efSearch = ef
	}
}

// WithFilter restricts results to documents whose scalar field equals value.
// Multiple filters combine with AND.
func WithFilter(field string, value any) QueryOption {
	return func(o *queryOptions) {
		o.filters = append(o.filters, scalarFilter{field: field, value: value})
	}
}

// Query searches the index built for the given vector field and returns up
// to topK hits ordered best score first. A topK of zero or less yields an
// empty result. Calling Query before CreateIndex for the field is an error.
func (c *Collection) Query(ctx context.Context, field string, vector []float32, topK int, optFns ...QueryOption) ([]QueryResult, error) {
	vf := c.fields[field]
	if vf == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	idx := vf.currentIndex()
	if idx == nil {
		return nil, fmt.Errorf("no index built for field %q", field)
	}

	var qo queryOptions
	for _, fn := range optFns {
		fn(&qo)
	}

	sopts := &index.SearchOptions{EFSearch: qo.efSearch}
	if len(qo.filters) > 0 {
		bm, err := c.compileFilters(vf, qo.filters)
		if err != nil {
			return nil, err
		}
		sopts.Filter = bm.Predicate()
	}

	results, err := searcher.Search(ctx, idx, vf, vector, topK, sopts)
	if err != nil {
		err = translateError(field, err)
		c.opts.logger.LogSearch(ctx, field, topK, 0, err)
		return nil, err
	}
	c.opts.logger.LogSearch(ctx, field, topK, len(results), nil)
	return results, nil
}

// compileFilters ANDs the per-filter bitmaps into one candidate set.
func (c *Collection) compileFilters(vf *vectorField, filters []scalarFilter) (*metadata.Bitmap, error) {
	var out *metadata.Bitmap
	for _, f := range filters {
		if _, ok := c.scalars[f.field]; !ok {
			return nil, fmt.Errorf("%w: filter field %q", ErrUnknownField, f.field)
		}
		bm := vf.filter.Eq(f.field, f.value)
		if out == nil {
			out = bm
			continue
		}
		out.And(bm)
	}
	return out, nil
}
