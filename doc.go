// Package zvec is an embedded vector database core. A Collection holds
// documents with scalar fields and one or more vector fields, builds
// graph-based ANN indexes (HNSW and Omega) over the vector fields and
// answers top-k similarity queries, optionally filtered on scalar fields.
//
// Typical use:
//
//	schema := zvec.Schema{
//		Name:   "articles",
//		Fields: []zvec.FieldSchema{{Name: "lang", Type: zvec.FieldTypeString}},
//		Vectors: []zvec.VectorSchema{{
//			Name:       "embedding",
//			Dimension:  128,
//			IndexParam: index.DefaultHNSWParam(),
//		}},
//	}
//
//	coll, err := zvec.New(schema)
//	...
//	statuses := coll.Insert(ctx, docs)
//	coll.BuildIndexes(ctx)
//	hits, err := coll.Query(ctx, "embedding", query, 10,
//		zvec.WithFilter("lang", "en"))
//
// Scores follow the higher-is-better convention regardless of metric: for
// inner product the score is the raw dot product, for squared L2 it is the
// negated squared distance.
//
// Collections can be persisted with SaveSnapshot and reopened read-only
// with Open, which memory-maps the vector payload instead of loading it.
package zvec
