package hnsw

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/zvecdb/zvec/core"
	"github.com/zvecdb/zvec/distance"
	"github.com/zvecdb/zvec/internal/hash"
)

// Snapshot file layout (all integers little-endian):
//
//	[0:4]   magic "ZHNW"
//	[4:8]   format version
//	[8]     codec (Compression)
//	[9]     metric
//	[10:12] reserved
//	[12:16] dimension
//	[16:20] m
//	[20:24] efConstruction
//	[24:28] entry point id
//	[28:32] max level
//	[32:40] node count
//	[40:44] dense node-slot count
//	[44:48] compressed graph block size
//	[48:52] uncompressed graph block size
//	[52:]   graph block
//	[-4:]   CRC32-C of everything before it
//
// The graph block holds, per node slot: present(u8), then level(u32) and per
// layer a count(u32) followed by that many neighbor ids(u32). Node ids,
// per-layer neighbor lists and the entry point are preserved exactly, so a
// loaded index resumes search without rebuilding.
const (
	snapshotMagic      = "ZHNW"
	snapshotVersion    = 1
	snapshotHeaderSize = 52
)

var (
	// ErrBadSnapshot indicates a malformed or corrupt snapshot.
	ErrBadSnapshot = errors.New("hnsw: bad snapshot")
)

// SaveTo writes the graph to w using the given block compression.
func (h *HNSW) SaveTo(w io.Writer, codec Compression) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	block := h.encodeGraph()
	compressed, usedCodec, err := compressBlock(block, codec)
	if err != nil {
		return err
	}

	header := make([]byte, snapshotHeaderSize)
	copy(header[0:4], snapshotMagic)
	binary.LittleEndian.PutUint32(header[4:8], snapshotVersion)
	header[8] = byte(usedCodec)
	header[9] = byte(h.opts.Metric)
	binary.LittleEndian.PutUint32(header[12:16], uint32(h.opts.Dimension))
	binary.LittleEndian.PutUint32(header[16:20], uint32(h.opts.M))
	binary.LittleEndian.PutUint32(header[20:24], uint32(h.opts.EFConstruction))
	binary.LittleEndian.PutUint32(header[24:28], uint32(h.entryPoint))
	binary.LittleEndian.PutUint32(header[28:32], uint32(h.maxLevel))
	binary.LittleEndian.PutUint64(header[32:40], uint64(h.count))
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(h.nodes)))
	binary.LittleEndian.PutUint32(header[44:48], uint32(len(compressed)))
	binary.LittleEndian.PutUint32(header[48:52], uint32(len(block)))

	crc := hash.NewCRC32C()
	crc.Write(header)
	crc.Write(compressed)

	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(compressed); err != nil {
		return err
	}

	var trailer [4]byte
	binary.LittleEndian.PutUint32(trailer[:], crc.Sum32())
	_, err = w.Write(trailer[:])
	return err
}

func (h *HNSW) encodeGraph() []byte {
	size := 0
	for _, n := range h.nodes {
		size++
		if n == nil {
			continue
		}
		size += 4
		for _, conns := range n.neighbors {
			size += 4 + 4*len(conns)
		}
	}

	buf := make([]byte, 0, size)
	var scratch [4]byte
	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(scratch[:], v)
		buf = append(buf, scratch[:]...)
	}

	for _, n := range h.nodes {
		if n == nil {
			buf = append(buf, 0)
			continue
		}
		buf = append(buf, 1)
		putU32(uint32(n.level))
		for _, conns := range n.neighbors {
			putU32(uint32(len(conns)))
			for _, c := range conns {
				putU32(uint32(c))
			}
		}
	}
	return buf
}

// Load reads a snapshot written by SaveTo. The vector store must be supplied
// via the options and must match the snapshot's dimension; M, EFConstruction
// and the metric are restored from the file.
func Load(r io.Reader, optFns ...func(o *Options)) (*HNSW, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) < snapshotHeaderSize+4 {
		return nil, fmt.Errorf("%w: truncated (%d bytes)", ErrBadSnapshot, len(raw))
	}

	body, trailer := raw[:len(raw)-4], raw[len(raw)-4:]
	if hash.CRC32C(body) != binary.LittleEndian.Uint32(trailer) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrBadSnapshot)
	}

	header := body[:snapshotHeaderSize]
	if string(header[0:4]) != snapshotMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadSnapshot)
	}
	if v := binary.LittleEndian.Uint32(header[4:8]); v != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, v)
	}

	codec := Compression(header[8])
	metric := distance.Metric(header[9])
	dim := int(binary.LittleEndian.Uint32(header[12:16]))
	m := int(binary.LittleEndian.Uint32(header[16:20]))
	efConstruction := int(binary.LittleEndian.Uint32(header[20:24]))
	entryPoint := core.VectorID(binary.LittleEndian.Uint32(header[24:28]))
	maxLevel := int(binary.LittleEndian.Uint32(header[28:32]))
	count := int(binary.LittleEndian.Uint64(header[32:40]))
	slots := int(binary.LittleEndian.Uint32(header[40:44]))
	compressedLen := int(binary.LittleEndian.Uint32(header[44:48]))
	uncompressedLen := int(binary.LittleEndian.Uint32(header[48:52]))

	if len(body) != snapshotHeaderSize+compressedLen {
		return nil, fmt.Errorf("%w: block size mismatch", ErrBadSnapshot)
	}

	block, err := decompressBlock(body[snapshotHeaderSize:], codec, uncompressedLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}

	h, err := New(func(o *Options) {
		o.Dimension = dim
		o.M = m
		o.EFConstruction = efConstruction
		o.Metric = metric
		for _, fn := range optFns {
			fn(o)
		}
		// Parameters always come from the snapshot.
		o.Dimension = dim
		o.M = m
		o.EFConstruction = efConstruction
		o.Metric = metric
	})
	if err != nil {
		return nil, err
	}
	if h.vectors.Dimension() != dim {
		return nil, fmt.Errorf("%w: store dimension %d, snapshot dimension %d", ErrBadSnapshot, h.vectors.Dimension(), dim)
	}

	nodes, err := decodeGraph(block, slots)
	if err != nil {
		return nil, err
	}

	h.nodes = nodes
	h.entryPoint = entryPoint
	h.maxLevel = maxLevel
	h.count = count
	return h, nil
}

func decodeGraph(block []byte, slots int) ([]*node, error) {
	nodes := make([]*node, 0, slots)
	pos := 0

	u32 := func() (uint32, error) {
		if pos+4 > len(block) {
			return 0, fmt.Errorf("%w: truncated graph block", ErrBadSnapshot)
		}
		v := binary.LittleEndian.Uint32(block[pos:])
		pos += 4
		return v, nil
	}

	for i := 0; i < slots; i++ {
		if pos >= len(block) {
			return nil, fmt.Errorf("%w: truncated graph block", ErrBadSnapshot)
		}
		present := block[pos]
		pos++
		if present == 0 {
			nodes = append(nodes, nil)
			continue
		}

		level, err := u32()
		if err != nil {
			return nil, err
		}

		n := &node{
			level:     int(level),
			neighbors: make([][]core.VectorID, level+1),
		}
		for l := 0; l <= int(level); l++ {
			cnt, err := u32()
			if err != nil {
				return nil, err
			}
			conns := make([]core.VectorID, cnt)
			for j := range conns {
				v, err := u32()
				if err != nil {
					return nil, err
				}
				conns[j] = core.VectorID(v)
			}
			n.neighbors[l] = conns
		}
		nodes = append(nodes, n)
	}

	if pos != len(block) {
		return nil, fmt.Errorf("%w: %d trailing bytes in graph block", ErrBadSnapshot, len(block)-pos)
	}
	return nodes, nil
}
