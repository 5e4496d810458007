package seating

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/iliyamo/classroom-seating/internal/model"
)

// Option configures an Engine.
type Option func(*Engine)

// WithStrictCapacity makes RandomArrange fail with a CapacityError when the
// roster outgrew the layout after it was set, instead of seating only the
// first rows*cols students of the shuffled roster.
func WithStrictCapacity(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// WithRand replaces the random source.  Tests use it for reproducible runs.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithLogger sets the logger used for truncation warnings.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine produces seat arrangements.  It is safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	rng    *rand.Rand
	strict bool
	logger *log.Logger
}

// NewEngine returns an engine seeded from crypto/rand.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(cryptoSeed(), cryptoSeed()))
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	return e
}

func cryptoSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.Uint64()
	}
	return binary.LittleEndian.Uint64(b[:])
}

// RandomArrange shuffles the students uniformly and seats them in row-major
// order, one per seat, leaving the trailing seats empty.  Every call
// reshuffles, so two calls on the same roster normally differ.  The
// students slice is not modified.
func (e *Engine) RandomArrange(layout *model.LayoutConfig, students []model.Student) (model.SeatingResult, error) {
	if err := CheckLayout(layout); err != nil {
		return model.SeatingResult{}, err
	}
	seats := layout.Seats()
	if len(students) > seats {
		if e.strict {
			return model.SeatingResult{}, &CapacityError{Seats: seats, Students: len(students)}
		}
		e.logger.Warn("roster exceeds layout capacity, seating a subset",
			"class_id", layout.ClassID, "seats", seats, "students", len(students))
	}

	order := make([]model.Student, len(students))
	copy(order, students)
	e.shuffle(order)

	result := model.SeatingResult{
		Rows:   layout.Rows,
		Cols:   layout.Cols,
		Layout: make([]model.SeatPosition, 0, seats),
	}
	next := 0
	for r := 1; r <= layout.Rows; r++ {
		for c := 1; c <= layout.Cols; c++ {
			pos := model.SeatPosition{Row: r, Col: c}
			if next < len(order) {
				s := order[next]
				id := s.ID
				pos.StudentID = &id
				pos.StudentName = s.Name
				pos.Gender = s.Gender
				next++
			}
			result.Layout = append(result.Layout, pos)
		}
	}
	return result, nil
}

// EmptyGrid returns a rows x cols grid with every seat unoccupied.  It is
// used to show a blank grid right after a layout change.
func (e *Engine) EmptyGrid(rows, cols int) (model.SeatingResult, error) {
	return EmptyGrid(rows, cols)
}

// EmptyGrid is the stateless form of Engine.EmptyGrid.
func EmptyGrid(rows, cols int) (model.SeatingResult, error) {
	if err := CheckDimensions(rows, cols); err != nil {
		return model.SeatingResult{}, err
	}
	result := model.SeatingResult{
		Rows:   rows,
		Cols:   cols,
		Layout: make([]model.SeatPosition, 0, rows*cols),
	}
	for r := 1; r <= rows; r++ {
		for c := 1; c <= cols; c++ {
			result.Layout = append(result.Layout, model.SeatPosition{Row: r, Col: c})
		}
	}
	return result, nil
}

// shuffle is a Fisher-Yates shuffle; every permutation is equally likely.
func (e *Engine) shuffle(s []model.Student) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}
