package zvec

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zvecdb/zvec/index"
	"github.com/zvecdb/zvec/index/hnsw"
	"github.com/zvecdb/zvec/index/omega"
	"github.com/zvecdb/zvec/internal/hash"
	"github.com/zvecdb/zvec/metadata"
	"github.com/zvecdb/zvec/vectorstore"
)

// Snapshot layout: one file triple per vector field inside dir.
//
//	<field>.vec   vector store (see vectorstore format)
//	<field>.docs  external document ids, aligned to store ids
//	<field>.idx   serialized index, one kind byte then the index codec
//
// Scalar field values are not part of snapshots; a snapshot-opened
// collection serves ids and scores but resolves Fields to nil.

var docsMagic = [4]byte{'Z', 'D', 'O', 'C'}

const (
	docsVersion = uint32(1)

	vecFileSuffix  = ".vec"
	docsFileSuffix = ".docs"
	idxFileSuffix  = ".idx"
)

// ErrBadSnapshotDir reports a snapshot directory the collection schema does
// not match.
var ErrBadSnapshotDir = errors.New("bad snapshot directory")

// SaveSnapshot writes the collection's vector stores, document ids and
// built indexes to dir. Fields without a built index get no index file.
func (c *Collection) SaveSnapshot(ctx context.Context, dir string) error {
	if c.opts.readOnly {
		return ErrReadOnly
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.opts.logger.LogSnapshot(ctx, dir, err)
		return err
	}

	for _, vs := range c.schema.Vectors {
		if err := c.saveField(ctx, dir, c.fields[vs.Name]); err != nil {
			c.opts.logger.LogSnapshot(ctx, dir, err)
			return err
		}
	}

	c.opts.logger.LogSnapshot(ctx, dir, nil)
	return nil
}

func (c *Collection) saveField(ctx context.Context, dir string, vf *vectorField) error {
	name := vf.schema.Name

	// Holding the field's read lock keeps vectors, doc ids and the index
	// mutually consistent for the duration of the write.
	vf.mu.RLock()
	defer vf.mu.RUnlock()

	vecBytes := vf.store.Len() * vf.schema.Dimension * 4
	if err := c.opts.controller.ThrottleIO(ctx, vecBytes); err != nil {
		return err
	}
	if err := vf.mem.WriteFile(filepath.Join(dir, name+vecFileSuffix)); err != nil {
		return err
	}

	docs := encodeDocIDs(vf.docIDs)
	if err := c.opts.controller.ThrottleIO(ctx, len(docs)); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, name+docsFileSuffix), docs, 0o644); err != nil {
		return err
	}

	if vf.idx == nil {
		return nil
	}
	var buf bytes.Buffer
	buf.WriteByte(byte(vf.idx.Kind()))
	if err := saveIndex(vf.idx, &buf); err != nil {
		return err
	}
	if err := c.opts.controller.ThrottleIO(ctx, buf.Len()); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name+idxFileSuffix), buf.Bytes(), 0o644)
}

func saveIndex(idx index.Index, w io.Writer) error {
	switch v := idx.(type) {
	case *hnsw.HNSW:
		return v.SaveTo(w, hnsw.CompressionZSTD)
	case *omega.Omega:
		return v.SaveTo(w, hnsw.CompressionZSTD)
	default:
		return fmt.Errorf("%w: unsupported index kind %v", index.ErrInvalidParam, idx.Kind())
	}
}

// Open opens a snapshot directory as a read-only collection. Vectors are
// memory mapped rather than loaded, so opening is cheap regardless of
// collection size. Inserts, index builds and further snapshots are
// rejected with ErrReadOnly.
func Open(dir string, schema Schema, optFns ...Option) (*Collection, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	c := &Collection{
		schema:  schema,
		opts:    applyOptions(optFns),
		scalars: make(map[string]FieldSchema, len(schema.Fields)),
		fields:  make(map[string]*vectorField, len(schema.Vectors)),
	}
	c.opts.readOnly = true
	for _, f := range schema.Fields {
		c.scalars[f.Name] = f
	}

	for _, vs := range schema.Vectors {
		vf, err := openField(dir, vs)
		if err != nil {
			c.closeFields()
			return nil, err
		}
		c.fields[vs.Name] = vf
	}
	return c, nil
}

func openField(dir string, vs VectorSchema) (*vectorField, error) {
	ms, err := vectorstore.OpenMMap(filepath.Join(dir, vs.Name+vecFileSuffix))
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", vs.Name, err)
	}
	if ms.Dimension() != vs.Dimension {
		ms.Close()
		return nil, fmt.Errorf("%w: field %q dimension %d, snapshot has %d",
			ErrBadSnapshotDir, vs.Name, vs.Dimension, ms.Dimension())
	}

	docIDs, err := readDocIDs(filepath.Join(dir, vs.Name+docsFileSuffix))
	if err != nil {
		ms.Close()
		return nil, fmt.Errorf("field %q: %w", vs.Name, err)
	}
	if len(docIDs) != ms.Len() {
		ms.Close()
		return nil, fmt.Errorf("%w: field %q has %d vectors but %d doc ids",
			ErrBadSnapshotDir, vs.Name, ms.Len(), len(docIDs))
	}

	vf := &vectorField{
		schema: vs,
		store:  ms,
		filter: metadata.NewFilterIndex(),
		docIDs: docIDs,
	}

	idx, err := openIndex(filepath.Join(dir, vs.Name+idxFileSuffix), ms)
	if err != nil {
		ms.Close()
		return nil, fmt.Errorf("field %q: %w", vs.Name, err)
	}
	vf.idx = idx
	return vf, nil
}

func openIndex(path string, store vectorstore.Reader) (index.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var kind [1]byte
	if _, err := io.ReadFull(f, kind[:]); err != nil {
		return nil, err
	}

	withStore := func(o *hnsw.Options) { o.Vectors = store }

	switch index.Kind(kind[0]) {
	case index.KindHNSW:
		return hnsw.Load(f, withStore)
	case index.KindOmega:
		return omega.Load(f, withStore)
	default:
		return nil, fmt.Errorf("%w: unknown index kind byte %d", ErrBadSnapshotDir, kind[0])
	}
}

func (c *Collection) closeFields() {
	for _, vf := range c.fields {
		if ms, ok := vf.store.(*vectorstore.MMapStore); ok {
			ms.Close()
		}
	}
}

// Close releases memory mapped resources of a snapshot-opened collection.
// It is a no-op for collections created with New.
func (c *Collection) Close() error {
	c.closeFields()
	return nil
}

// encodeDocIDs writes count then length-prefixed strings, with a CRC32C
// trailer over everything before it.
func encodeDocIDs(ids []string) []byte {
	var buf bytes.Buffer
	buf.Write(docsMagic[:])
	binary.Write(&buf, binary.LittleEndian, docsVersion)
	binary.Write(&buf, binary.LittleEndian, uint64(len(ids)))
	for _, id := range ids {
		binary.Write(&buf, binary.LittleEndian, uint32(len(id)))
		buf.WriteString(id)
	}
	binary.Write(&buf, binary.LittleEndian, hash.CRC32C(buf.Bytes()))
	return buf.Bytes()
}

func readDocIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 20 || !bytes.Equal(data[:4], docsMagic[:]) {
		return nil, fmt.Errorf("%w: malformed doc id file", ErrBadSnapshotDir)
	}
	body, trailer := data[:len(data)-4], data[len(data)-4:]
	if binary.LittleEndian.Uint32(trailer) != hash.CRC32C(body) {
		return nil, fmt.Errorf("%w: doc id file checksum mismatch", ErrBadSnapshotDir)
	}
	if v := binary.LittleEndian.Uint32(body[4:8]); v != docsVersion {
		return nil, fmt.Errorf("%w: unsupported doc id file version %d", ErrBadSnapshotDir, v)
	}

	count := binary.LittleEndian.Uint64(body[8:16])
	ids := make([]string, 0, count)
	off := 16
	for i := uint64(0); i < count; i++ {
		if off+4 > len(body) {
			return nil, fmt.Errorf("%w: truncated doc id file", ErrBadSnapshotDir)
		}
		n := int(binary.LittleEndian.Uint32(body[off : off+4]))
		off += 4
		if off+n > len(body) {
			return nil, fmt.Errorf("%w: truncated doc id file", ErrBadSnapshotDir)
		}
		ids = append(ids, string(body[off:off+n]))
		off += n
	}
	return ids, nil
}
