package hnsw

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zvecdb/zvec/distance"
	"github.com/zvecdb/zvec/testutil"
	"github.com/zvecdb/zvec/vectorstore"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(17)
	vectors := rng.NormalVectors(150, 8)

	store := vectorstore.New(8)
	for _, v := range vectors {
		_, err := store.Append(v, nil)
		require.NoError(t, err)
	}

	h := buildIndex(t, vectors, func(o *Options) {
		o.M = 8
		o.EFConstruction = 64
		o.Metric = distance.MetricSquaredL2
	})

	for _, codec := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(codec.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, h.SaveTo(&buf, codec))

			loaded, err := Load(&buf, func(o *Options) { o.Vectors = store })
			require.NoError(t, err)

			assert.Equal(t, h.Len(), loaded.Len())
			assert.Equal(t, h.Metric(), loaded.Metric())
			assert.Equal(t, h.Dimension(), loaded.Dimension())

			// A loaded graph must answer queries identically.
			query := rng.NormalVectors(1, 8)[0]
			want, err := h.Search(context.Background(), query, 10, nil)
			require.NoError(t, err)
			got, err := loaded.Search(context.Background(), query, 10, nil)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadRejectsCorruption(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}}
	store := vectorstore.New(2)
	for _, v := range vectors {
		_, err := store.Append(v, nil)
		require.NoError(t, err)
	}
	h := buildIndex(t, vectors, func(o *Options) {
		o.M = 2
		o.EFConstruction = 8
	})

	var buf bytes.Buffer
	require.NoError(t, h.SaveTo(&buf, CompressionNone))
	data := buf.Bytes()

	t.Run("bit flip", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[20] ^= 0xFF
		_, err := Load(bytes.NewReader(bad), func(o *Options) { o.Vectors = store })
		assert.ErrorIs(t, err, ErrBadSnapshot)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Load(bytes.NewReader(data[:30]), func(o *Options) { o.Vectors = store })
		assert.ErrorIs(t, err, ErrBadSnapshot)
	})

	t.Run("wrong store dimension", func(t *testing.T) {
		other := vectorstore.New(5)
		_, err := Load(bytes.NewReader(data), func(o *Options) { o.Vectors = other })
		assert.ErrorIs(t, err, ErrBadSnapshot)
	})
}

func TestLoadForcesSnapshotParams(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}}
	store := vectorstore.New(2)
	for _, v := range vectors {
		_, err := store.Append(v, nil)
		require.NoError(t, err)
	}
	h := buildIndex(t, vectors, func(o *Options) {
		o.M = 4
		o.EFConstruction = 32
		o.Metric = distance.MetricSquaredL2
	})

	var buf bytes.Buffer
	require.NoError(t, h.SaveTo(&buf, CompressionZSTD))

	// Caller-supplied parameters must not override the snapshot's.
	loaded, err := Load(&buf, func(o *Options) {
		o.Vectors = store
		o.M = 99
		o.Metric = distance.MetricInnerProduct
	})
	require.NoError(t, err)
	assert.Equal(t, distance.MetricSquaredL2, loaded.Metric())
	assert.Equal(t, 4, loaded.Stats().M)
	assert.Equal(t, 32, loaded.Stats().EFConstruction)
}

func TestCompressionRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("zvec graph block "), 100)

	for _, codec := range []Compression{CompressionLZ4, CompressionZSTD} {
		t.Run(codec.String(), func(t *testing.T) {
			compressed, used, err := compressBlock(data, codec)
			require.NoError(t, err)
			require.Equal(t, codec, used)
			assert.Less(t, len(compressed), len(data))

			out, err := decompressBlock(compressed, used, len(data))
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestCompressionIncompressibleFallsBack(t *testing.T) {
	rng := testutil.NewRNG(23)
	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(rng.Intn(256))
	}

	_, used, err := compressBlock(data, CompressionLZ4)
	require.NoError(t, err)
	if used == CompressionNone {
		out, err := decompressBlock(data, used, len(data))
		require.NoError(t, err)
		assert.Equal(t, data, out)
	}
}
