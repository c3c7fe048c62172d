package vectorstore

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/zvecdb/zvec/internal/hash"
)

// On-disk store file layout:
//
//	[0:4]   magic "ZVST"
//	[4:8]   format version (u32 LE)
//	[8:12]  dimension (u32 LE)
//	[12:16] flags (reserved, 0)
//	[16:24] vector count (u64 LE)
//	[24:28] CRC32-C of the payload (u32 LE)
//	[28:32] reserved (0)
//	[32:]   payload: count*dimension float32 LE, row-major
//
// The 32-byte header keeps the payload 4-byte aligned for zero-copy mmap
// access to the float32 rows.
const (
	storeMagic      = "ZVST"
	storeVersion    = 1
	storeHeaderSize = 32
)

var (
	// ErrBadMagic indicates the file is not a vector store file.
	ErrBadMagic = errors.New("vectorstore: bad magic")
	// ErrChecksum indicates payload corruption.
	ErrChecksum = errors.New("vectorstore: checksum mismatch")
	// ErrBadVersion indicates an unsupported format version.
	ErrBadVersion = errors.New("vectorstore: unsupported format version")
)

// WriteFile writes the store's vectors to path in the mmap-able file format.
// Scalar fields are not part of the file; they belong to the collection layer.
func (s *Store) WriteFile(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload := make([]byte, len(s.data)*4)
	for i, f := range s.data {
		binary.LittleEndian.PutUint32(payload[i*4:], math.Float32bits(f))
	}

	var header [storeHeaderSize]byte
	copy(header[0:4], storeMagic)
	binary.LittleEndian.PutUint32(header[4:8], storeVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(s.dim))
	binary.LittleEndian.PutUint64(header[16:24], uint64(len(s.fields)))
	binary.LittleEndian.PutUint32(header[24:28], hash.CRC32C(payload))

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if _, err := w.Write(header[:]); err != nil {
		f.Close()
		return err
	}
	if _, err := w.Write(payload); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func parseHeader(b []byte) (dim int, count int, crc uint32, err error) {
	if len(b) < storeHeaderSize {
		return 0, 0, 0, fmt.Errorf("vectorstore: truncated header (%d bytes)", len(b))
	}
	if string(b[0:4]) != storeMagic {
		return 0, 0, 0, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint32(b[4:8]); v != storeVersion {
		return 0, 0, 0, fmt.Errorf("%w: %d", ErrBadVersion, v)
	}
	dim = int(binary.LittleEndian.Uint32(b[8:12]))
	count = int(binary.LittleEndian.Uint64(b[16:24]))
	crc = binary.LittleEndian.Uint32(b[24:28])
	return dim, count, crc, nil
}
