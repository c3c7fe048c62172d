//go:build unix

package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Open maps the file at path read-only.
func Open(path string) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &Region{data: nil, mapped: false}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	// Vector reads during graph traversal are random-access.
	_ = unix.Madvise(data, unix.MADV_RANDOM)

	return &Region{data: data, mapped: true}, nil
}

// Close unmaps the region.
func (r *Region) Close() error {
	if !r.mapped || r.data == nil {
		r.data = nil
		return nil
	}
	data := r.data
	r.data = nil
	r.mapped = false
	return unix.Munmap(data)
}
