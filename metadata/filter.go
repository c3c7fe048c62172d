package metadata

import (
	"fmt"
	"sync"

	"github.com/zvecdb/zvec/core"
)

// FilterIndex maps scalar field values to the ids carrying them. It supports
// equality filtering only; richer predicates are out of scope for this core.
type FilterIndex struct {
	mu sync.RWMutex
	// fields[field][valueKey] -> ids
	fields map[string]map[string]*Bitmap
}

// NewFilterIndex creates an empty filter index.
func NewFilterIndex() *FilterIndex {
	return &FilterIndex{
		fields: make(map[string]map[string]*Bitmap),
	}
}

// valueKey normalizes a scalar value to a map key. Integer types collapse to
// one representation so an int32 insert matches an int64 filter.
func valueKey(v any) string {
	switch x := v.(type) {
	case string:
		return "s:" + x
	case bool:
		return fmt.Sprintf("b:%t", x)
	case int:
		return fmt.Sprintf("i:%d", x)
	case int32:
		return fmt.Sprintf("i:%d", x)
	case int64:
		return fmt.Sprintf("i:%d", x)
	case uint32:
		return fmt.Sprintf("i:%d", x)
	case uint64:
		return fmt.Sprintf("i:%d", x)
	case float32:
		return fmt.Sprintf("f:%g", float64(x))
	case float64:
		return fmt.Sprintf("f:%g", x)
	default:
		return fmt.Sprintf("x:%v", x)
	}
}

// Add records the scalar fields of a newly stored vector.
func (fi *FilterIndex) Add(id core.VectorID, fields map[string]any) {
	if len(fields) == 0 {
		return
	}

	fi.mu.Lock()
	defer fi.mu.Unlock()

	for name, value := range fields {
		byValue := fi.fields[name]
		if byValue == nil {
			byValue = make(map[string]*Bitmap)
			fi.fields[name] = byValue
		}
		key := valueKey(value)
		bm := byValue[key]
		if bm == nil {
			bm = NewBitmap()
			byValue[key] = bm
		}
		bm.Add(id)
	}
}

// Eq returns the ids whose field equals value. The returned bitmap is a
// copy and safe to combine with And/Or.
func (fi *FilterIndex) Eq(field string, value any) *Bitmap {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	byValue := fi.fields[field]
	if byValue == nil {
		return NewBitmap()
	}
	bm := byValue[valueKey(value)]
	if bm == nil {
		return NewBitmap()
	}
	return bm.Clone()
}
