package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/classroom-seating/internal/model"
)

// StudentRepo is the read side of the class roster.
type StudentRepo struct {
	db *sql.DB
}

// NewStudentRepo constructs a StudentRepo with the given DB handle.
func NewStudentRepo(db *sql.DB) *StudentRepo {
	return &StudentRepo{db: db}
}

// ActiveByClass returns the active students of a classroom ordered by id.
func (r *StudentRepo) ActiveByClass(ctx context.Context, classID uint64) ([]model.Student, error) {
	const q = `SELECT id, class_id, student_no, name, gender, is_active
	           FROM students
	           WHERE class_id = ? AND is_active = 1
	           ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.ClassID, &s.StudentNo, &s.Name, &s.Gender, &s.IsActive); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountActive returns the number of active students in a classroom.
func (r *StudentRepo) CountActive(ctx context.Context, classID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM students WHERE class_id = ? AND is_active = 1`
	var n int
	if err := r.db.QueryRowContext(ctx, q, classID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
