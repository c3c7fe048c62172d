// Package mmap provides read-only memory mapping of files, with a portable
// fallback that reads the file into memory on platforms without mmap support.
package mmap

// Region is a read-only view of a file's contents. On platforms with mmap
// support the bytes alias the page cache; otherwise they are a private copy.
type Region struct {
	data   []byte
	mapped bool
}

// Bytes returns the mapped contents. The slice is valid until Close.
func (r *Region) Bytes() []byte { return r.data }

// Len returns the size of the region in bytes.
func (r *Region) Len() int { return len(r.data) }

// Mapped reports whether the region is a true memory mapping.
func (r *Region) Mapped() bool { return r.mapped }
