package history

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/iliyamo/classroom-seating/internal/model"
	"github.com/iliyamo/classroom-seating/internal/seating"
)

type memRecords struct {
	mu      sync.Mutex
	nextID  uint64
	records []model.SeatingRecord
	failErr error
}

func (m *memRecords) Append(_ context.Context, rec *model.SeatingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.nextID++
	rec.ID = m.nextID
	m.records = append(m.records, *rec)
	return nil
}

func (m *memRecords) ListByClass(_ context.Context, classID uint64) ([]model.SeatingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.SeatingRecord
	for _, r := range m.records {
		if r.ClassID == classID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memRecords) LatestByClass(ctx context.Context, classID uint64) (*model.SeatingRecord, error) {
	recs, _ := m.ListByClass(ctx, classID)
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

func newTestStore(recs *memRecords, logOut *bytes.Buffer) *Store {
	return NewStore(recs,
		WithLogger(log.New(logOut)),
		WithClock(stepClock(time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC))),
	)
}

func TestSaveThenLatestRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(&memRecords{}, &bytes.Buffer{})

	in := sampleResult()
	rec, err := store.Save(ctx, 5, in, "week 1")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if rec.ID == 0 || rec.ClassID != 5 || rec.RecordName != "week 1" || rec.CreatedAt.IsZero() {
		t.Fatalf("record = %+v", rec)
	}

	got, ok, err := store.Latest(ctx, 5)
	if err != nil || !ok {
		t.Fatalf("Latest() = %v, %v, %v", got, ok, err)
	}
	if !reflect.DeepEqual(in, got) {
		t.Fatalf("Latest() = %+v, want %+v", got, in)
	}
}

func TestLatestReturnsNewest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(&memRecords{}, &bytes.Buffer{})

	first := sampleResult()
	if _, err := store.Save(ctx, 1, first, "first"); err != nil {
		t.Fatalf("save first: %v", err)
	}
	second, err := seating.EmptyGrid(1, 3)
	if err != nil {
		t.Fatalf("EmptyGrid: %v", err)
	}
	if _, err := store.Save(ctx, 1, &second, "second"); err != nil {
		t.Fatalf("save second: %v", err)
	}
	got, ok, err := store.Latest(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("Latest() = %v, %v", ok, err)
	}
	if got.Rows != 1 || got.Cols != 3 {
		t.Fatalf("Latest() = %dx%d, want 1x3", got.Rows, got.Cols)
	}
}

func TestLatestAbsentWithoutRecords(t *testing.T) {
	t.Parallel()

	got, ok, err := newTestStore(&memRecords{}, &bytes.Buffer{}).Latest(context.Background(), 42)
	if err != nil || ok || got != nil {
		t.Fatalf("Latest() = %v, %v, %v; want absent", got, ok, err)
	}
}

func TestLatestIsFailSoftOnCorruptedSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	recs := &memRecords{}
	var logs bytes.Buffer
	store := newTestStore(recs, &logs)

	if _, err := store.Save(ctx, 9, sampleResult(), "ok"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	recs.mu.Lock()
	recs.records[0].LayoutSnapshot = `{"rows":2,"cols":2,"layout":[{"row":1}]}`
	recs.mu.Unlock()

	got, ok, err := store.Latest(ctx, 9)
	if err != nil {
		t.Fatalf("Latest() error = %v, want nil", err)
	}
	if ok || got != nil {
		t.Fatalf("Latest() = %+v, %v; want absent", got, ok)
	}
	if !strings.Contains(logs.String(), "undecodable") {
		t.Fatalf("expected a diagnostic log, got %q", logs.String())
	}
}

func TestSaveRejectsMalformedResult(t *testing.T) {
	t.Parallel()

	recs := &memRecords{}
	store := newTestStore(recs, &bytes.Buffer{})
	bad := &model.SeatingResult{Rows: 2, Cols: 2}

	_, err := store.Save(context.Background(), 1, bad, "bad")
	var serr *seating.SerializationError
	if !errors.As(err, &serr) {
		t.Fatalf("Save() error = %v, want SerializationError", err)
	}
	if len(recs.records) != 0 {
		t.Fatalf("record written despite encode failure")
	}
}

func TestSavePropagatesStorageErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	store := newTestStore(&memRecords{failErr: boom}, &bytes.Buffer{})
	if _, err := store.Save(context.Background(), 1, sampleResult(), "x"); !errors.Is(err, boom) {
		t.Fatalf("Save() error = %v, want %v", err, boom)
	}
}

func TestListByClassNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newTestStore(&memRecords{}, &bytes.Buffer{})
	for _, name := range []string{"a", "b", "c"} {
		if _, err := store.Save(ctx, 2, sampleResult(), name); err != nil {
			t.Fatalf("Save(%s): %v", name, err)
		}
	}
	if _, err := store.Save(ctx, 3, sampleResult(), "other class"); err != nil {
		t.Fatalf("Save(other): %v", err)
	}

	recs, err := store.ListByClass(ctx, 2)
	if err != nil {
		t.Fatalf("ListByClass() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if !recs[i-1].CreatedAt.After(recs[i].CreatedAt) {
			t.Fatalf("records not strictly descending: %v then %v", recs[i-1].CreatedAt, recs[i].CreatedAt)
		}
	}
	if recs[0].RecordName != "c" {
		t.Fatalf("newest = %q, want c", recs[0].RecordName)
	}
}

func TestNilSnapshotCacheAlwaysMisses(t *testing.T) {
	t.Parallel()

	var c *SnapshotCache
	ctx := context.Background()
	if stored, err := c.Put(ctx, model.SeatingRecord{ClassID: 1}); stored || err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok, err := c.Get(ctx, 1); ok || err != nil {
		t.Fatalf("Get() = %v, %v; want miss", ok, err)
	}
	if err := c.Invalidate(ctx, 1); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
}
