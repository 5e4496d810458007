// Package service coordinates the seating engine, the history store and the
// renderer on behalf of an explicit requesting actor.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/iliyamo/classroom-seating/internal/history"
	"github.com/iliyamo/classroom-seating/internal/model"
	"github.com/iliyamo/classroom-seating/internal/queue"
	"github.com/iliyamo/classroom-seating/internal/seating"
)

// ErrForbidden is returned when the actor does not own the classroom.
var ErrForbidden = errors.New("forbidden")

// Actor identifies who is asking.  UserID 0 is an anonymous caller, used
// when the deployment runs without bearer-token authentication.
type Actor struct {
	UserID uint64
}

// ClassroomStore reads classrooms and replaces their layout.
type ClassroomStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Classroom, error)
	PutLayout(ctx context.Context, classID uint64, l model.LayoutConfig) error
}

// RosterProvider lists active students.
type RosterProvider interface {
	ActiveByClass(ctx context.Context, classID uint64) ([]model.Student, error)
	CountActive(ctx context.Context, classID uint64) (int, error)
}

// Renderer turns a result into a document.
type Renderer interface {
	Render(classroomName string, result *model.SeatingResult) ([]byte, error)
}

// EventPublisher announces saved arrangements.
type EventPublisher interface {
	PublishSeatingSaved(ctx context.Context, ev queue.SeatingSavedEvent) error
}

// SeatingService exposes the seating operations.
type SeatingService struct {
	classrooms ClassroomStore
	students   RosterProvider
	engine     *seating.Engine
	history    *history.Store
	renderer   Renderer
	locker     ClassLocker
	events     EventPublisher
	logger     *log.Logger
}

// Deps groups the collaborators of a SeatingService.  Locker defaults to a
// KeyedMutex, Logger to log.Default(); Events may be nil.
type Deps struct {
	Classrooms ClassroomStore
	Students   RosterProvider
	Engine     *seating.Engine
	History    *history.Store
	Renderer   Renderer
	Locker     ClassLocker
	Events     EventPublisher
	Logger     *log.Logger
}

// NewSeatingService wires a service from deps.
func NewSeatingService(d Deps) *SeatingService {
	s := &SeatingService{
		classrooms: d.Classrooms,
		students:   d.Students,
		engine:     d.Engine,
		history:    d.History,
		renderer:   d.Renderer,
		locker:     d.Locker,
		events:     d.Events,
		logger:     d.Logger,
	}
	if s.engine == nil {
		s.engine = seating.NewEngine()
	}
	if s.locker == nil {
		s.locker = NewKeyedMutex()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// classroom loads a classroom and checks ownership.
func (s *SeatingService) classroom(ctx context.Context, actor Actor, classID uint64) (*model.Classroom, error) {
	c, err := s.classrooms.GetByID(ctx, classID)
	if err != nil {
		return nil, err
	}
	if actor.UserID != 0 && c.TeacherID != 0 && c.TeacherID != actor.UserID {
		return nil, ErrForbidden
	}
	return c, nil
}

// SetLayout validates the dimensions against the current active roster and
// replaces the classroom's layout.  On a *seating.CapacityError the stored
// layout is left unchanged.
func (s *SeatingService) SetLayout(ctx context.Context, actor Actor, classID uint64, rows, cols int, rowSpacing, colSpacing model.SpacingConfig) (*model.LayoutConfig, error) {
	release, err := s.locker.Lock(ctx, classID)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := s.classroom(ctx, actor, classID); err != nil {
		return nil, err
	}
	active, err := s.students.CountActive(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("count active students: %w", err)
	}
	layout, err := seating.NewLayout(classID, rows, cols, rowSpacing, colSpacing, active)
	if err != nil {
		return nil, err
	}
	if err := s.classrooms.PutLayout(ctx, classID, layout); err != nil {
		return nil, fmt.Errorf("store layout: %w", err)
	}
	s.logger.Info("layout updated", "class_id", classID, "rows", rows, "cols", cols, "user_id", actor.UserID)
	return &layout, nil
}

// GenerateEmptyGrid returns a blank rows x cols grid for the classroom.
func (s *SeatingService) GenerateEmptyGrid(ctx context.Context, actor Actor, classID uint64, rows, cols int) (*model.SeatingResult, error) {
	if _, err := s.classroom(ctx, actor, classID); err != nil {
		return nil, err
	}
	res, err := s.engine.EmptyGrid(rows, cols)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// RandomArrange shuffles the active roster into the stored layout.  The
// result is not persisted.
func (s *SeatingService) RandomArrange(ctx context.Context, actor Actor, classID uint64) (*model.SeatingResult, error) {
	release, err := s.locker.Lock(ctx, classID)
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := s.classroom(ctx, actor, classID)
	if err != nil {
		return nil, err
	}
	if c.Layout == nil {
		return nil, seating.ErrLayoutUnset
	}
	students, err := s.students.ActiveByClass(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	res, err := s.engine.RandomArrange(c.Layout, students)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// SaveArrangement appends result to the classroom history and announces it.
func (s *SeatingService) SaveArrangement(ctx context.Context, actor Actor, classID uint64, result *model.SeatingResult, recordName string) (*model.SeatingRecord, error) {
	release, err := s.locker.Lock(ctx, classID)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := s.classroom(ctx, actor, classID); err != nil {
		return nil, err
	}
	rec, err := s.history.Save(ctx, classID, result, recordName)
	if err != nil {
		return nil, err
	}
	s.logger.Info("arrangement saved", "class_id", classID, "record_id", rec.ID, "user_id", actor.UserID)
	s.publishSaved(ctx, actor, rec, result)
	return rec, nil
}

func (s *SeatingService) publishSaved(ctx context.Context, actor Actor, rec *model.SeatingRecord, result *model.SeatingResult) {
	if s.events == nil {
		return
	}
	ev := queue.SeatingSavedEvent{
		RecordID:   rec.ID,
		ClassID:    rec.ClassID,
		UserID:     actor.UserID,
		RecordName: rec.RecordName,
		Rows:       result.Rows,
		Cols:       result.Cols,
		Occupied:   result.Occupied(),
		SavedAt:    rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.events.PublishSeatingSaved(pctx, ev); err != nil {
		s.logger.Warn("publish seating.saved failed", "class_id", rec.ClassID, "record_id", rec.ID, "err", err)
	}
}

// ListRecords returns the classroom history, newest first.
func (s *SeatingService) ListRecords(ctx context.Context, actor Actor, classID uint64) ([]model.SeatingRecord, error) {
	if _, err := s.classroom(ctx, actor, classID); err != nil {
		return nil, err
	}
	return s.history.ListByClass(ctx, classID)
}

// LatestArrangement returns the newest decodable arrangement.  ok is false
// when there is none.
func (s *SeatingService) LatestArrangement(ctx context.Context, actor Actor, classID uint64) (*model.SeatingResult, bool, error) {
	if _, err := s.classroom(ctx, actor, classID); err != nil {
		return nil, false, err
	}
	return s.history.Latest(ctx, classID)
}

// ExportDocument renders the latest saved arrangement.  A classroom
// without one yields *seating.NoArrangementError.
func (s *SeatingService) ExportDocument(ctx context.Context, actor Actor, classID uint64) ([]byte, error) {
	c, err := s.classroom(ctx, actor, classID)
	if err != nil {
		return nil, err
	}
	res, ok, err := s.history.Latest(ctx, classID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &seating.NoArrangementError{ClassID: classID, ClassName: c.Name}
	}
	return s.renderer.Render(c.Name, res)
}

// ExportResult renders an arrangement that has not been saved.
func (s *SeatingService) ExportResult(ctx context.Context, actor Actor, classID uint64, result *model.SeatingResult) ([]byte, error) {
	c, err := s.classroom(ctx, actor, classID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, &seating.NoArrangementError{ClassID: classID, ClassName: c.Name}
	}
	return s.renderer.Render(c.Name, result)
}
