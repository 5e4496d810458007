package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/classroom-seating/internal/model"
)

// ClassroomRepo reads classrooms and replaces their seat layout.  Creating
// and deleting classrooms is handled elsewhere.
type ClassroomRepo struct {
	db *sql.DB
}

// NewClassroomRepo constructs a ClassroomRepo with the given DB handle.
func NewClassroomRepo(db *sql.DB) *ClassroomRepo {
	return &ClassroomRepo{db: db}
}

const classroomColumns = `id, teacher_id, name, description, seat_rows, seat_cols,
	row_spacing_config, col_spacing_config, created_at_ms, updated_at_ms`

// GetByID retrieves a classroom with its layout.  Layout is nil when the
// stored rows or cols are NULL.
func (r *ClassroomRepo) GetByID(ctx context.Context, id uint64) (*model.Classroom, error) {
	q := `SELECT ` + classroomColumns + ` FROM classrooms WHERE id = ?`
	var (
		c                  model.Classroom
		rows, cols         sql.NullInt64
		rowCfg, colCfg     string
		createdMs, updated int64
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.TeacherID, &c.Name, &c.Description, &rows, &cols,
		&rowCfg, &colCfg, &createdMs, &updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClassroomNotFound
		}
		return nil, err
	}
	c.CreatedAt = time.UnixMilli(createdMs).UTC()
	c.UpdatedAt = time.UnixMilli(updated).UTC()
	if rows.Valid && cols.Valid {
		l := &model.LayoutConfig{ClassID: c.ID, Rows: int(rows.Int64), Cols: int(cols.Int64)}
		if l.RowSpacing, err = decodeSpacing(rowCfg); err != nil {
			return nil, fmt.Errorf("classroom %d row spacing: %w", c.ID, err)
		}
		if l.ColSpacing, err = decodeSpacing(colCfg); err != nil {
			return nil, fmt.Errorf("classroom %d col spacing: %w", c.ID, err)
		}
		c.Layout = l
	}
	return &c, nil
}

// GetLayout returns the classroom's layout, or nil when none has been set.
func (r *ClassroomRepo) GetLayout(ctx context.Context, classID uint64) (*model.LayoutConfig, error) {
	c, err := r.GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	return c.Layout, nil
}

// PutLayout replaces rows, cols and both spacing configs in one statement,
// so readers never observe a half-applied layout.
func (r *ClassroomRepo) PutLayout(ctx context.Context, classID uint64, l model.LayoutConfig) error {
	rowCfg, err := encodeSpacing(l.RowSpacing)
	if err != nil {
		return err
	}
	colCfg, err := encodeSpacing(l.ColSpacing)
	if err != nil {
		return err
	}
	const q = `UPDATE classrooms
	           SET seat_rows = ?, seat_cols = ?, row_spacing_config = ?, col_spacing_config = ?, updated_at_ms = ?
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, l.Rows, l.Cols, rowCfg, colCfg, time.Now().UTC().UnixMilli(), classID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrClassroomNotFound
	}
	return nil
}

func encodeSpacing(s model.SpacingConfig) (string, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode spacing config: %w", err)
	}
	return string(b), nil
}

func decodeSpacing(raw string) (model.SpacingConfig, error) {
	out := model.SpacingConfig{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
