// Package searcher executes queries against a built index and materializes
// results against the document store.
package searcher

import (
	"context"

	"github.com/zvecdb/zvec/core"
	"github.com/zvecdb/zvec/distance"
	"github.com/zvecdb/zvec/index"
)

// DocResolver resolves internal vector ids back to external documents.
type DocResolver interface {
	DocID(id core.VectorID) (string, bool)
	Fields(id core.VectorID) (map[string]any, bool)
}

// QueryResult is one ranked query hit. Score is higher-is-better: the dot
// product under InnerProduct, the negative squared distance under SquaredL2.
type QueryResult struct {
	DocID  string
	Score  float64
	Fields map[string]any
}

// Search runs query against idx and materializes up to k results, best
// first. Guarantees: at most k results, strictly non-increasing scores, no
// duplicate document ids. k <= 0 and an empty index both yield an empty
// result.
func Search(ctx context.Context, idx index.Index, docs DocResolver, query []float32, k int, opts *index.SearchOptions) ([]QueryResult, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(query) != idx.Dimension() {
		return nil, &index.ErrDimensionMismatch{Expected: idx.Dimension(), Actual: len(query)}
	}

	hits, err := idx.Search(ctx, query, k, opts)
	if err != nil {
		return nil, err
	}

	results := make([]QueryResult, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		docID, ok := docs.DocID(hit.ID)
		if !ok {
			continue
		}
		// Distinct vector ids can resolve to one document; only the
		// best-ranked hit per document id survives.
		if _, dup := seen[docID]; dup {
			continue
		}
		seen[docID] = struct{}{}
		fields, _ := docs.Fields(hit.ID)
		results = append(results, QueryResult{
			DocID:  docID,
			Score:  distance.Score(hit.Distance),
			Fields: fields,
		})
	}
	return results, nil
}
