// Package history is the append-only arrangement history.  Records are
// opaque snapshots plus metadata; the store never mutates or deletes them.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/iliyamo/classroom-seating/internal/model"
)

// RecordStore is the persistence channel for seating records.
type RecordStore interface {
	Append(ctx context.Context, rec *model.SeatingRecord) error
	ListByClass(ctx context.Context, classID uint64) ([]model.SeatingRecord, error)
	// LatestByClass returns nil, nil when the class has no records.
	LatestByClass(ctx context.Context, classID uint64) (*model.SeatingRecord, error)
}

// Store saves and reads arrangement snapshots.
type Store struct {
	records RecordStore
	cache   *SnapshotCache
	logger  *log.Logger
	now     func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCache enables the Redis snapshot cache.
func WithCache(c *SnapshotCache) StoreOption { return func(s *Store) { s.cache = c } }

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) StoreOption { return func(s *Store) { s.logger = l } }

// WithClock overrides the creation-time source.
func WithClock(now func() time.Time) StoreOption { return func(s *Store) { s.now = now } }

// NewStore constructs a Store over the given record persistence.
func NewStore(records RecordStore, opts ...StoreOption) *Store {
	if records == nil {
		panic("nil record store passed to history.NewStore")
	}
	s := &Store{records: records, logger: log.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save serializes result and appends it as a new record.  An encoding
// failure is returned as *seating.SerializationError and nothing is written.
func (s *Store) Save(ctx context.Context, classID uint64, result *model.SeatingResult, recordName string) (*model.SeatingRecord, error) {
	snapshot, err := EncodeSnapshot(result)
	if err != nil {
		return nil, err
	}
	rec := &model.SeatingRecord{
		ClassID:        classID,
		RecordName:     recordName,
		LayoutSnapshot: snapshot,
		CreatedAt:      s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.records.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append seating record: %w", err)
	}
	if _, err := s.cache.Put(ctx, *rec); err != nil {
		s.logger.Warn("snapshot cache refresh failed", "class_id", classID, "err", err)
		_ = s.cache.Invalidate(ctx, classID)
	}
	return rec, nil
}

// ListByClass returns the records of a class, newest first.
func (s *Store) ListByClass(ctx context.Context, classID uint64) ([]model.SeatingRecord, error) {
	recs, err := s.records.ListByClass(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("list seating records: %w", err)
	}
	return recs, nil
}

// Latest decodes the newest snapshot of a class.  ok is false when the
// class has no records or when the newest snapshot cannot be decoded; the
// latter is logged rather than returned so that one corrupted record does
// not block rendering or new arrangements.
func (s *Store) Latest(ctx context.Context, classID uint64) (result *model.SeatingResult, ok bool, err error) {
	rec, hit, err := s.cache.Get(ctx, classID)
	if err != nil {
		s.logger.Warn("snapshot cache read failed", "class_id", classID, "err", err)
		hit = false
	}
	if !hit {
		latest, err := s.records.LatestByClass(ctx, classID)
		if err != nil {
			return nil, false, fmt.Errorf("load latest seating record: %w", err)
		}
		if latest == nil {
			return nil, false, nil
		}
		rec = *latest
		if _, err := s.cache.Put(ctx, rec); err != nil {
			s.logger.Warn("snapshot cache fill failed", "class_id", classID, "err", err)
		}
	}
	decoded, err := DecodeSnapshot(rec.LayoutSnapshot)
	if err != nil {
		s.logger.Warn("ignoring undecodable seating snapshot",
			"class_id", classID, "record_id", rec.ID, "err", err)
		return nil, false, nil
	}
	return decoded, true, nil
}
