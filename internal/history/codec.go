package history

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/classroom-seating/internal/model"
	"github.com/iliyamo/classroom-seating/internal/seating"
)

// EncodeSnapshot validates a result and serializes it to the snapshot
// format {rows, cols, layout[]}.
func EncodeSnapshot(r *model.SeatingResult) (string, error) {
	if r == nil {
		return "", &seating.SerializationError{Op: "encode", Err: errors.New("nil result")}
	}
	if err := validate(r); err != nil {
		return "", &seating.SerializationError{Op: "encode", Err: err}
	}
	b, err := json.Marshal(r)
	if err != nil {
		return "", &seating.SerializationError{Op: "encode", Err: err}
	}
	return string(b), nil
}

// DecodeSnapshot parses a stored snapshot and checks that it still
// describes a complete row-major grid.
func DecodeSnapshot(s string) (*model.SeatingResult, error) {
	var r model.SeatingResult
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, &seating.SerializationError{Op: "decode", Err: err}
	}
	if err := validate(&r); err != nil {
		return nil, &seating.SerializationError{Op: "decode", Err: err}
	}
	return &r, nil
}

func validate(r *model.SeatingResult) error {
	if err := seating.CheckDimensions(r.Rows, r.Cols); err != nil {
		return err
	}
	if len(r.Layout) != r.Rows*r.Cols {
		return fmt.Errorf("layout has %d positions, want %d", len(r.Layout), r.Rows*r.Cols)
	}
	seen := make(map[uint64]struct{}, len(r.Layout))
	for i, p := range r.Layout {
		wantRow, wantCol := i/r.Cols+1, i%r.Cols+1
		if p.Row != wantRow || p.Col != wantCol {
			return fmt.Errorf("position %d is (%d,%d), want (%d,%d)", i, p.Row, p.Col, wantRow, wantCol)
		}
		if p.StudentID == nil {
			continue
		}
		if _, dup := seen[*p.StudentID]; dup {
			return fmt.Errorf("student %d seated more than once", *p.StudentID)
		}
		seen[*p.StudentID] = struct{}{}
	}
	return nil
}
