package model

import "time"

// Classroom represents a class owned by a teacher.  The seat grid of the
// classroom is described by its Layout, which stays nil until a layout has
// been set for the first time.  Classroom CRUD belongs to an external
// collaborator; the seating service only reads classrooms and replaces
// their layout.
//
// Fields:
//  ID          – primary key identifier.
//  TeacherID   – user ID of the owning teacher.
//  Name        – display name, used as the document title.
//  Description – optional free text.
//  Layout      – current seat grid (nil when unset).
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Classroom struct {
    ID          uint64        // classrooms.id
    TeacherID   uint64        // classrooms.teacher_id
    Name        string        // classrooms.name
    Description string        // classrooms.description
    Layout      *LayoutConfig // classrooms.seat_rows/seat_cols/*_spacing_config
    CreatedAt   time.Time     // classrooms.created_at
    UpdatedAt   time.Time     // classrooms.updated_at
}

// SpacingConfig maps a row or column index to a spacing value.  It is
// presentation data only: the seating engine copies it around without
// validating or interpreting it.
type SpacingConfig map[int]float64

// Clone returns an independent copy of the mapping.  A nil config clones to
// an empty, non-nil map so that it serializes as {}.
func (s SpacingConfig) Clone() SpacingConfig {
    out := make(SpacingConfig, len(s))
    for k, v := range s {
        out[k] = v
    }
    return out
}

// LayoutConfig is the seat grid of one classroom.  Rows and Cols must both
// be positive, and at the moment the layout is set Rows*Cols must be at
// least the number of active students in the class.
type LayoutConfig struct {
    ClassID    uint64        `json:"class_id"`
    Rows       int           `json:"rows"`
    Cols       int           `json:"cols"`
    RowSpacing SpacingConfig `json:"row_spacing"`
    ColSpacing SpacingConfig `json:"col_spacing"`
}

// Seats returns the capacity of the grid.
func (l LayoutConfig) Seats() int { return l.Rows * l.Cols }
