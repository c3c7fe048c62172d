// Package metadata maintains scalar-field posting lists so queries can be
// restricted to documents matching a field value.
package metadata

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/zvecdb/zvec/core"
)

// Bitmap is a set of vector ids. It wraps the official roaring
// implementation.
type Bitmap struct {
	rb *roaring.Bitmap
}

// NewBitmap creates a new empty bitmap.
func NewBitmap() *Bitmap {
	return &Bitmap{rb: roaring.New()}
}

// Add adds a vector id to the bitmap.
func (b *Bitmap) Add(id core.VectorID) {
	b.rb.Add(uint32(id))
}

// Contains checks if a vector id is in the bitmap.
func (b *Bitmap) Contains(id core.VectorID) bool {
	return b.rb.Contains(uint32(id))
}

// IsEmpty returns true if the bitmap is empty.
func (b *Bitmap) IsEmpty() bool {
	return b.rb.IsEmpty()
}

// Cardinality returns the number of ids in the bitmap.
func (b *Bitmap) Cardinality() uint64 {
	return b.rb.GetCardinality()
}

// Clone returns a deep copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	return &Bitmap{rb: b.rb.Clone()}
}

// And intersects the bitmap with other in place.
func (b *Bitmap) And(other *Bitmap) {
	b.rb.And(other.rb)
}

// Or unions the bitmap with other in place.
func (b *Bitmap) Or(other *Bitmap) {
	b.rb.Or(other.rb)
}

// Predicate returns the bitmap as a traversal filter.
func (b *Bitmap) Predicate() func(core.VectorID) bool {
	return func(id core.VectorID) bool {
		return b.rb.Contains(uint32(id))
	}
}
