package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/classroom-seating/internal/model"
)

// SeatingRecordRepo appends and lists seating history.  There is no update
// or delete: records disappear only through the classroom foreign key
// cascade.  Creation times are stored as UTC unix milliseconds.
type SeatingRecordRepo struct {
	db *sql.DB
}

// NewSeatingRecordRepo returns a new SeatingRecordRepo bound to the given database.
func NewSeatingRecordRepo(db *sql.DB) *SeatingRecordRepo { return &SeatingRecordRepo{db: db} }

// Append inserts rec and populates its ID.  rec.CreatedAt must be set.
func (r *SeatingRecordRepo) Append(ctx context.Context, rec *model.SeatingRecord) error {
	const q = `INSERT INTO seating_records (class_id, record_name, layout_snapshot, created_at_ms) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rec.ClassID, rec.RecordName, rec.LayoutSnapshot, rec.CreatedAt.UTC().UnixMilli())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// ListByClass returns every record of a class, newest first.  Records
// sharing a millisecond are ordered by descending id.
func (r *SeatingRecordRepo) ListByClass(ctx context.Context, classID uint64) ([]model.SeatingRecord, error) {
	const q = `SELECT id, class_id, record_name, layout_snapshot, created_at_ms
	           FROM seating_records
	           WHERE class_id = ?
	           ORDER BY created_at_ms DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.SeatingRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestByClass returns the newest record of a class, or nil when the class
// has none.
func (r *SeatingRecordRepo) LatestByClass(ctx context.Context, classID uint64) (*model.SeatingRecord, error) {
	const q = `SELECT id, class_id, record_name, layout_snapshot, created_at_ms
	           FROM seating_records
	           WHERE class_id = ?
	           ORDER BY created_at_ms DESC, id DESC
	           LIMIT 1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, classID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (model.SeatingRecord, error) {
	var (
		rec model.SeatingRecord
		ms  int64
	)
	if err := s.Scan(&rec.ID, &rec.ClassID, &rec.RecordName, &rec.LayoutSnapshot, &ms); err != nil {
		return model.SeatingRecord{}, err
	}
	rec.CreatedAt = time.UnixMilli(ms).UTC()
	return rec, nil
}
