package seating

import "github.com/iliyamo/classroom-seating/internal/model"

// MaxDimension bounds rows and cols.  It keeps rows*cols far from integer
// overflow and a grid on one printable page.
const MaxDimension = 100

func validDimensions(rows, cols int) bool {
	return rows >= 1 && cols >= 1 && rows <= MaxDimension && cols <= MaxDimension
}

// NewLayout validates a layout update against the current number of active
// students and returns the configuration that should replace the stored
// one.  On error nothing is returned, so the caller keeps its previous
// layout.  Spacing configs are copied without inspection.
func NewLayout(classID uint64, rows, cols int, rowSpacing, colSpacing model.SpacingConfig, activeStudents int) (model.LayoutConfig, error) {
	if !validDimensions(rows, cols) {
		return model.LayoutConfig{}, &InvalidLayoutError{ClassID: classID, Rows: rows, Cols: cols}
	}
	if seats := rows * cols; seats < activeStudents {
		return model.LayoutConfig{}, &CapacityError{Seats: seats, Students: activeStudents}
	}
	return model.LayoutConfig{
		ClassID:    classID,
		Rows:       rows,
		Cols:       cols,
		RowSpacing: rowSpacing.Clone(),
		ColSpacing: colSpacing.Clone(),
	}, nil
}

// CheckLayout verifies that a stored layout can be used for an arrangement.
// Failures are reported with InvalidLayoutError.Stored set.
func CheckLayout(l *model.LayoutConfig) error {
	if l == nil {
		return ErrLayoutUnset
	}
	if !validDimensions(l.Rows, l.Cols) {
		return &InvalidLayoutError{ClassID: l.ClassID, Rows: l.Rows, Cols: l.Cols, Stored: true}
	}
	return nil
}

// CheckDimensions reports whether a rows x cols grid of positions, such as
// a decoded snapshot or a client-supplied arrangement, is within bounds.
func CheckDimensions(rows, cols int) error {
	if !validDimensions(rows, cols) {
		return &InvalidLayoutError{Rows: rows, Cols: cols}
	}
	return nil
}
