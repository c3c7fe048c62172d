package vectorstore

import (
	"fmt"
	"unsafe"

	"github.com/zvecdb/zvec/core"
	"github.com/zvecdb/zvec/internal/hash"
	"github.com/zvecdb/zvec/internal/mmap"
)

// MMapStore is a read-only vector store backed by a memory-mapped file
// produced by Store.WriteFile. It implements Reader; returned vectors alias
// the mapping and are valid until Close.
type MMapStore struct {
	region *mmap.Region
	dim    int
	count  int
	data   []float32
}

var _ Reader = (*MMapStore)(nil)

// OpenMMap opens the store file at path read-only.
func OpenMMap(path string) (*MMapStore, error) {
	region, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	b := region.Bytes()
	dim, count, crc, err := parseHeader(b)
	if err != nil {
		region.Close()
		return nil, err
	}

	payload := b[storeHeaderSize:]
	want := count * dim * 4
	if len(payload) < want {
		region.Close()
		return nil, fmt.Errorf("vectorstore: truncated payload: have %d, want %d", len(payload), want)
	}
	payload = payload[:want]

	if hash.CRC32C(payload) != crc {
		region.Close()
		return nil, ErrChecksum
	}

	var data []float32
	if want > 0 {
		// Payload starts at a 4-byte aligned offset, see format.go.
		data = unsafe.Slice((*float32)(unsafe.Pointer(&payload[0])), count*dim)
	}

	return &MMapStore{
		region: region,
		dim:    dim,
		count:  count,
		data:   data,
	}, nil
}

// Dimension returns the vector dimension recorded in the file.
func (s *MMapStore) Dimension() int { return s.dim }

// Len returns the number of vectors in the file.
func (s *MMapStore) Len() int { return s.count }

// GetVector returns a zero-copy view of the vector for the given id.
func (s *MMapStore) GetVector(id core.VectorID) ([]float32, bool) {
	if int(id) >= s.count {
		return nil, false
	}
	off := int(id) * s.dim
	return s.data[off : off+s.dim : off+s.dim], true
}

// Close unmaps the file. Vectors obtained from GetVector become invalid.
func (s *MMapStore) Close() error {
	s.data = nil
	return s.region.Close()
}
