// Package seating holds the seat assignment engine: layout validation,
// the randomized arrangement algorithm and the error taxonomy shared by the
// history store, the renderer and the service layer.
package seating

import (
	"errors"
	"fmt"
)

// ErrLayoutUnset is returned when an arrangement is requested for a
// classroom that has no layout yet.  Callers must set a layout first.
var ErrLayoutUnset = errors.New("seating: layout is not set")

// CapacityError reports a layout with fewer seats than active students.
// Both numbers are exposed so callers can build an actionable message.
type CapacityError struct {
	Seats    int
	Students int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("seating: total seats (%d) is less than active students (%d)", e.Seats, e.Students)
}

// InvalidLayoutError reports a layout whose rows or cols fall outside
// 1..MaxDimension.  Stored is set when the layout was read from storage,
// which indicates corrupted data; it is not auto-repaired.
type InvalidLayoutError struct {
	ClassID uint64
	Rows    int
	Cols    int
	Stored  bool
}

func (e *InvalidLayoutError) Error() string {
	what := "invalid layout"
	if e.Stored {
		what = "stored layout is invalid"
	}
	return fmt.Sprintf("seating: %s %dx%d for class %d: rows and cols must be between 1 and %d",
		what, e.Rows, e.Cols, e.ClassID, MaxDimension)
}

// SerializationError wraps a failure to encode or decode a snapshot.
type SerializationError struct {
	Op  string // "encode" or "decode"
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("seating: snapshot %s: %v", e.Op, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// NoArrangementError is returned when a document export is requested for a
// classroom without any saved arrangement.
type NoArrangementError struct {
	ClassID   uint64
	ClassName string
}

func (e *NoArrangementError) Error() string {
	if e.ClassName != "" {
		return fmt.Sprintf("seating: class %q has no saved arrangement to export", e.ClassName)
	}
	return fmt.Sprintf("seating: class %d has no saved arrangement to export", e.ClassID)
}

// ResourceError is a fatal configuration problem such as a missing font.
type ResourceError struct {
	Resource string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("seating: load resource %s: %v", e.Resource, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }
