package zvec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zvecdb/zvec/distance"
	"github.com/zvecdb/zvec/index"
	"github.com/zvecdb/zvec/resource"
)

func TestSnapshotRoundTrip(t *testing.T) {
	schema := testSchema()
	c, err := New(schema)
	require.NoError(t, err)
	ctx := context.Background()

	for _, s := range c.Insert(ctx, testDocs(40)) {
		require.True(t, s.OK())
	}
	require.True(t, c.CreateIndex(ctx, "embedding", index.HNSWParam{
		M: 8, EFConstruction: 64, Metric: distance.MetricSquaredL2,
	}).OK())

	query := []float32{0, 0, 1, 0}
	want, err := c.Query(ctx, "embedding", query, 5)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, c.SaveSnapshot(ctx, dir))

	for _, suffix := range []string{".vec", ".docs", ".idx"} {
		_, err := os.Stat(filepath.Join(dir, "embedding"+suffix))
		assert.NoError(t, err, suffix)
	}

	opened, err := Open(dir, schema)
	require.NoError(t, err)
	defer opened.Close()

	n, err := opened.Count("embedding")
	require.NoError(t, err)
	assert.Equal(t, 40, n)

	got, err := opened.Query(ctx, "embedding", query, 5)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].DocID, got[i].DocID)
		assert.InDelta(t, want[i].Score, got[i].Score, 1e-6)
	}
}

func TestSnapshotOmegaIndex(t *testing.T) {
	schema := Schema{
		Name:    "om",
		Vectors: []VectorSchema{{Name: "v", Dimension: 3}},
	}
	c, err := New(schema)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		s := c.Insert(ctx, []Doc{{
			ID:      string(rune('a' + i)),
			Vectors: map[string][]float32{"v": {float32(i), 1, 0}},
		}})
		require.True(t, s[0].OK())
	}
	require.True(t, c.CreateIndex(ctx, "v", index.OmegaParam{
		M: 4, EFConstruction: 16, Metric: distance.MetricSquaredL2,
	}).OK())

	dir := t.TempDir()
	require.NoError(t, c.SaveSnapshot(ctx, dir))

	opened, err := Open(dir, schema)
	require.NoError(t, err)
	defer opened.Close()

	results, err := opened.Query(ctx, "v", []float32{0, 1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].DocID)
}

func TestSnapshotWithoutIndex(t *testing.T) {
	schema := Schema{
		Name:    "raw",
		Vectors: []VectorSchema{{Name: "v", Dimension: 2}},
	}
	c, err := New(schema)
	require.NoError(t, err)
	ctx := context.Background()

	s := c.Insert(ctx, []Doc{{ID: "x", Vectors: map[string][]float32{"v": {1, 2}}}})
	require.True(t, s[0].OK())

	dir := t.TempDir()
	require.NoError(t, c.SaveSnapshot(ctx, dir))

	_, err = os.Stat(filepath.Join(dir, "v.idx"))
	assert.True(t, os.IsNotExist(err))

	opened, err := Open(dir, schema)
	require.NoError(t, err)
	defer opened.Close()

	n, err := opened.Count("v")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// No index file, no querying.
	_, err = opened.Query(ctx, "v", []float32{1, 2}, 1)
	assert.Error(t, err)
}

func TestOpenedCollectionIsReadOnly(t *testing.T) {
	schema := Schema{
		Name:    "ro",
		Vectors: []VectorSchema{{Name: "v", Dimension: 2}},
	}
	c, err := New(schema)
	require.NoError(t, err)
	ctx := context.Background()

	c.Insert(ctx, []Doc{{ID: "x", Vectors: map[string][]float32{"v": {1, 2}}}})

	dir := t.TempDir()
	require.NoError(t, c.SaveSnapshot(ctx, dir))

	opened, err := Open(dir, schema)
	require.NoError(t, err)
	defer opened.Close()

	statuses := opened.Insert(ctx, []Doc{{ID: "y", Vectors: map[string][]float32{"v": {3, 4}}}})
	assert.ErrorIs(t, statuses[0].Err(), ErrReadOnly)
	assert.ErrorIs(t, opened.SaveSnapshot(ctx, t.TempDir()), ErrReadOnly)
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	schema := Schema{
		Name:    "s",
		Vectors: []VectorSchema{{Name: "v", Dimension: 2}},
	}
	c, err := New(schema)
	require.NoError(t, err)
	ctx := context.Background()

	c.Insert(ctx, []Doc{{ID: "x", Vectors: map[string][]float32{"v": {1, 2}}}})
	dir := t.TempDir()
	require.NoError(t, c.SaveSnapshot(ctx, dir))

	wrong := Schema{
		Name:    "s",
		Vectors: []VectorSchema{{Name: "v", Dimension: 3}},
	}
	_, err = Open(dir, wrong)
	assert.ErrorIs(t, err, ErrBadSnapshotDir)

	missing := Schema{
		Name:    "s",
		Vectors: []VectorSchema{{Name: "other", Dimension: 2}},
	}
	_, err = Open(dir, missing)
	assert.Error(t, err)
}

func TestSnapshotThrottled(t *testing.T) {
	schema := Schema{
		Name:    "thr",
		Vectors: []VectorSchema{{Name: "v", Dimension: 2}},
	}
	ctrl := resource.NewController(resource.Config{
		MaxBuilders:         1,
		SnapshotBytesPerSec: 1 << 20,
	})
	c, err := New(schema, WithController(ctrl))
	require.NoError(t, err)
	ctx := context.Background()

	c.Insert(ctx, []Doc{{ID: "x", Vectors: map[string][]float32{"v": {1, 2}}}})
	require.NoError(t, c.SaveSnapshot(ctx, t.TempDir()))
}
