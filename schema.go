package zvec

import (
	"errors"
	"fmt"

	"github.com/zvecdb/zvec/index"
)

// FieldType is the type of a scalar field.
type FieldType int

const (
	FieldTypeInt64 FieldType = iota
	FieldTypeFloat64
	FieldTypeString
	FieldTypeBool
)

func (t FieldType) String() string {
	switch t {
	case FieldTypeInt64:
		return "INT64"
	case FieldTypeFloat64:
		return "FLOAT64"
	case FieldTypeString:
		return "STRING"
	case FieldTypeBool:
		return "BOOL"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// FieldSchema declares a scalar field.
type FieldSchema struct {
	Name     string
	Type     FieldType
	Nullable bool
}

// VectorSchema declares a vector field: a name, a fixed dimension and an
// optional index parameter set built by BuildIndexes.
type VectorSchema struct {
	Name      string
	Dimension int
	// IndexParam, if non-nil, is the index this field gets from
	// BuildIndexes. CreateIndex may build a different one at any time.
	IndexParam index.Param
}

// Schema describes a collection.
type Schema struct {
	Name    string
	Fields  []FieldSchema
	Vectors []VectorSchema
}

// Validate checks the schema.
func (s Schema) Validate() error {
	if s.Name == "" {
		return errors.New("zvec: collection name must not be empty")
	}
	if len(s.Vectors) == 0 {
		return errors.New("zvec: schema needs at least one vector field")
	}

	seen := make(map[string]struct{}, len(s.Fields)+len(s.Vectors))
	for _, f := range s.Fields {
		if f.Name == "" {
			return errors.New("zvec: field name must not be empty")
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("zvec: duplicate field name %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	for _, v := range s.Vectors {
		if v.Name == "" {
			return errors.New("zvec: vector field name must not be empty")
		}
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("zvec: duplicate field name %q", v.Name)
		}
		seen[v.Name] = struct{}{}
		if v.Dimension <= 0 {
			return fmt.Errorf("zvec: vector field %q needs a positive dimension, got %d", v.Name, v.Dimension)
		}
		if v.IndexParam != nil {
			if err := v.IndexParam.Validate(); err != nil {
				return fmt.Errorf("zvec: vector field %q: %w", v.Name, err)
			}
		}
	}
	return nil
}

// checkValue reports whether v matches the field type.
func (f FieldSchema) checkValue(v any) error {
	if v == nil {
		if f.Nullable {
			return nil
		}
		return fmt.Errorf("field %q is not nullable", f.Name)
	}
	ok := false
	switch f.Type {
	case FieldTypeInt64:
		switch v.(type) {
		case int, int32, int64:
			ok = true
		}
	case FieldTypeFloat64:
		switch v.(type) {
		case float32, float64:
			ok = true
		}
	case FieldTypeString:
		_, ok = v.(string)
	case FieldTypeBool:
		_, ok = v.(bool)
	}
	if !ok {
		return fmt.Errorf("field %q expects %v, got %T", f.Name, f.Type, v)
	}
	return nil
}

// Doc is a document to insert: an external identifier, scalar field values
// and one fixed-length float32 vector per declared vector field.
type Doc struct {
	ID      string
	Fields  map[string]any
	Vectors map[string][]float32
}

// Status is the outcome of a single mutating operation. A failed Status
// never aborts the enclosing batch.
type Status struct {
	err error
}

// StatusOK is the successful status.
func StatusOK() Status { return Status{} }

// StatusError wraps err into a failed status. A nil err yields StatusOK.
func StatusError(err error) Status { return Status{err: err} }

// OK reports whether the operation succeeded.
func (s Status) OK() bool { return s.err == nil }

// Message returns the failure message, or "" on success.
func (s Status) Message() string {
	if s.err == nil {
		return ""
	}
	return s.err.Error()
}

// Err returns the underlying error, or nil on success.
func (s Status) Err() error { return s.err }
