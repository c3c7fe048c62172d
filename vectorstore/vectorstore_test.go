package vectorstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zvecdb/zvec/core"
)

func TestAppendAndGet(t *testing.T) {
	s := New(3)
	assert.Equal(t, 3, s.Dimension())
	assert.Equal(t, 0, s.Len())

	id, err := s.Append([]float32{1, 2, 3}, map[string]any{"lang": "en"})
	require.NoError(t, err)
	assert.Equal(t, core.VectorID(0), id)

	id, err = s.Append([]float32{4, 5, 6}, nil)
	require.NoError(t, err)
	assert.Equal(t, core.VectorID(1), id)
	assert.Equal(t, 2, s.Len())

	v, ok := s.GetVector(0)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, v)

	fields, ok := s.Fields(0)
	require.True(t, ok)
	assert.Equal(t, "en", fields["lang"])

	_, ok = s.GetVector(2)
	assert.False(t, ok)
}

func TestAppendCopies(t *testing.T) {
	s := New(2)
	src := []float32{1, 2}
	_, err := s.Append(src, nil)
	require.NoError(t, err)

	src[0] = 99
	v, _ := s.GetVector(0)
	assert.Equal(t, float32(1), v[0])
}

func TestWrongDimension(t *testing.T) {
	s := New(3)
	_, err := s.Append([]float32{1, 2}, nil)
	assert.ErrorIs(t, err, ErrWrongDimension)
}

func TestWriteFileRoundTrip(t *testing.T) {
	s := New(4)
	vectors := [][]float32{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{-1, 0, 1, 2},
	}
	for _, v := range vectors {
		_, err := s.Append(v, nil)
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "store.vec")
	require.NoError(t, s.WriteFile(path))

	ms, err := OpenMMap(path)
	require.NoError(t, err)
	defer ms.Close()

	assert.Equal(t, 4, ms.Dimension())
	assert.Equal(t, 3, ms.Len())
	for i, want := range vectors {
		got, ok := ms.GetVector(core.VectorID(i))
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := ms.GetVector(3)
	assert.False(t, ok)
}

func TestWriteFileEmptyStore(t *testing.T) {
	s := New(8)
	path := filepath.Join(t.TempDir(), "empty.vec")
	require.NoError(t, s.WriteFile(path))

	ms, err := OpenMMap(path)
	require.NoError(t, err)
	defer ms.Close()
	assert.Equal(t, 0, ms.Len())
	assert.Equal(t, 8, ms.Dimension())
}

func TestOpenMMapRejectsCorruption(t *testing.T) {
	s := New(2)
	_, err := s.Append([]float32{1, 2}, nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "store.vec")
	require.NoError(t, s.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[0] ^= 0xFF
		p := filepath.Join(t.TempDir(), "bad.vec")
		require.NoError(t, os.WriteFile(p, bad, 0o644))
		_, err := OpenMMap(p)
		assert.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("payload bit flip", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[len(bad)-1] ^= 0xFF
		p := filepath.Join(t.TempDir(), "bad.vec")
		require.NoError(t, os.WriteFile(p, bad, 0o644))
		_, err := OpenMMap(p)
		assert.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("truncated", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "bad.vec")
		require.NoError(t, os.WriteFile(p, data[:8], 0o644))
		_, err := OpenMMap(p)
		assert.Error(t, err)
	})
}
