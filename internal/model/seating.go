package model

import "time"

// SeatPosition is one cell of a seat grid.  Row and Col are 1-indexed.  A
// position whose StudentID is nil is an empty seat; occupied seats carry a
// snapshot of the student's name and gender taken when the arrangement was
// generated.
type SeatPosition struct {
    Row         int     `json:"row"`
    Col         int     `json:"col"`
    StudentID   *uint64 `json:"studentId,omitempty"`
    StudentName string  `json:"studentName,omitempty"`
    Gender      string  `json:"gender,omitempty"`
}

// Occupied reports whether a student sits at this position.
func (p SeatPosition) Occupied() bool { return p.StudentID != nil }

// SeatingResult is one concrete arrangement of a classroom.  Layout holds
// exactly Rows*Cols positions in row-major order: row 1 columns 1..Cols,
// then row 2, and so on.
type SeatingResult struct {
    Rows   int            `json:"rows"`
    Cols   int            `json:"cols"`
    Layout []SeatPosition `json:"layout"`
}

// Occupied returns the number of seats with a student.
func (r SeatingResult) Occupied() int {
    n := 0
    for _, p := range r.Layout {
        if p.Occupied() {
            n++
        }
    }
    return n
}

// At returns the position at (row, col) using the row-major contract.  The
// second result is false when the coordinate is outside the grid.
func (r SeatingResult) At(row, col int) (SeatPosition, bool) {
    if row < 1 || col < 1 || row > r.Rows || col > r.Cols {
        return SeatPosition{}, false
    }
    i := (row-1)*r.Cols + (col - 1)
    if i >= len(r.Layout) {
        return SeatPosition{}, false
    }
    return r.Layout[i], true
}

// SeatingRecord is an immutable history entry.  LayoutSnapshot holds the
// serialized SeatingResult.  Records are created only by an explicit save
// and are removed only when their classroom is deleted.
//
// Fields:
//  ID             – primary key identifier.
//  ClassID        – classroom the record belongs to.
//  RecordName     – label chosen by the teacher.
//  LayoutSnapshot – JSON snapshot of the arrangement.
//  CreatedAt      – UTC creation time.
type SeatingRecord struct {
    ID             uint64    `json:"id"`              // seating_records.id
    ClassID        uint64    `json:"class_id"`        // seating_records.class_id
    RecordName     string    `json:"record_name"`     // seating_records.record_name
    LayoutSnapshot string    `json:"layout_snapshot"` // seating_records.layout_snapshot
    CreatedAt      time.Time `json:"create_time"`     // seating_records.created_at_ms
}
