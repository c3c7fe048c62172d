package zvec

import (
	"errors"
	"fmt"

	"github.com/zvecdb/zvec/index"
	"github.com/zvecdb/zvec/vectorstore"
)

var (
	// ErrUnknownField is returned when an operation references a field that
	// does not exist or has no built index.
	ErrUnknownField = errors.New("unknown field")

	// ErrReadOnly is returned for mutating operations on a read-only
	// collection.
	ErrReadOnly = errors.New("collection is read-only")

	// ErrDuplicateID is returned when a document id is inserted twice.
	// Document ids are primary keys within a collection.
	ErrDuplicateID = errors.New("duplicate document id")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Field    string
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("dimension mismatch for field %q: expected %d, got %d", e.Field, e.Expected, e.Actual)
	}
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// translateError unifies lower-layer errors into the root taxonomy.
func translateError(field string, err error) error {
	if err == nil {
		return nil
	}

	var dm *index.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Field: field, Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	if errors.Is(err, vectorstore.ErrWrongDimension) {
		return &ErrDimensionMismatch{Field: field, cause: err}
	}

	return err
}
