//go:build !unix

package mmap

import "os"

// Open reads the file at path into memory. Platforms without unix mmap get a
// private copy with the same Region semantics.
func Open(path string) (*Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Region{data: data, mapped: false}, nil
}

// Close releases the region.
func (r *Region) Close() error {
	r.data = nil
	return nil
}
