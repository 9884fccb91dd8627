package roster

import (
	"errors"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"student-analytics-server-go/models"
)

var (
	// errors
	ErrStudentNotFound = errors.New("student not found")
	ErrPersistence     = errors.New("persistence failure")
)

// Gateway saves and restores the whole roster in one piece.
// LoadAll returns no students and no error when nothing was saved yet.
type Gateway interface {
	SaveAll(students []models.Student) error
	LoadAll() ([]models.Student, error)
}

// PersistenceError wraps a gateway failure. The in-memory roster is kept as it was
// after the operation, so the caller may retry with SaveAll.
type PersistenceError struct {
	Op  string // "save" or "load"
	Err error
}

func (e *PersistenceError) Error() string {
	return "roster: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// Roster holds every student keyed by roll number and flushes the whole set
// to its Gateway after each mutation.
type Roster struct {
	mu       sync.RWMutex
	students map[string]*models.Student
	order    []string // roll numbers in insertion order

	gw     Gateway
	logger log.Logger
}

// New creates a Roster and loads the saved students once.
// On a load failure the error is logged and returned with an empty, usable Roster.
func New(gw Gateway, logger log.Logger) (*Roster, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	r := &Roster{
		students: make(map[string]*models.Student),
		gw:       gw,
		logger:   log.With(logger, "component", "roster"),
	}
	return r, r.LoadAll()
}

// AddStudent inserts the student and saves the roster. It returns false, and no
// error, when the roll number is already taken. A save failure still leaves the
// student in the roster and is reported as a *PersistenceError.
func (r *Roster) AddStudent(student models.Student) (bool, error) {
	student.RollNumber = models.CleanString(student.RollNumber)
	student.Name = models.CleanString(student.Name)
	student.ClassName = models.CleanString(student.ClassName)
	if student.Marks == nil {
		student.Marks = []models.Mark{}
	}
	if err := student.Validate(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.students[student.RollNumber]; ok {
		_ = level.Debug(r.logger).Log("msg", "duplicate roll number", "roll", student.RollNumber)
		return false, nil
	}
	s := student.Clone()
	r.students[s.RollNumber] = &s
	r.order = append(r.order, s.RollNumber)
	_ = level.Info(r.logger).Log("msg", "student added", "roll", s.RollNumber, "class", s.ClassName)
	return true, r.saveLocked()
}

// ImportStudents adds every student whose roll number is not taken yet and saves once.
// Invalid students stop the import before anything is added.
func (r *Roster) ImportStudents(students []models.Student) (int, error) {
	for i := range students {
		if err := students[i].Validate(); err != nil {
			return 0, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	added := 0
	for _, student := range students {
		if _, ok := r.students[student.RollNumber]; ok {
			_ = level.Debug(r.logger).Log("msg", "skipping existing student", "roll", student.RollNumber)
			continue
		}
		s := student.Clone()
		r.students[s.RollNumber] = &s
		r.order = append(r.order, s.RollNumber)
		added++
	}
	_ = level.Info(r.logger).Log("msg", "students imported", "added", added, "skipped", len(students)-added)
	return added, r.saveLocked()
}

// RemoveStudent deletes the student if present and saves the roster either way.
func (r *Roster) RemoveStudent(rollNumber string) error {
	rollNumber = models.CleanString(rollNumber)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.students[rollNumber]; ok {
		delete(r.students, rollNumber)
		for i, roll := range r.order {
			if roll == rollNumber {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
		_ = level.Info(r.logger).Log("msg", "student removed", "roll", rollNumber)
	}
	return r.saveLocked()
}

// GetStudent returns a copy of the student with the given roll number.
func (r *Roster) GetStudent(rollNumber string) (models.Student, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.students[models.CleanString(rollNumber)]
	if !ok {
		return models.Student{}, false
	}
	return s.Clone(), true
}

// ListStudents returns copies of all students in insertion order.
func (r *Roster) ListStudents() []models.Student {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// AddMarkToStudent records a mark for an existing student and saves the roster.
// An invalid mark leaves the roster untouched.
func (r *Roster) AddMarkToStudent(rollNumber, subject string, obtained, max float64) error {
	m, err := models.NewMark(subject, obtained, max)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.students[models.CleanString(rollNumber)]
	if !ok {
		return ErrStudentNotFound
	}
	s.Marks = append(s.Marks, m)
	_ = level.Info(r.logger).Log("msg", "mark added", "roll", s.RollNumber, "subject", m.Subject)
	return r.saveLocked()
}

// Len returns the number of students.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// SaveAll flushes the whole roster to the gateway.
func (r *Roster) SaveAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked()
}

// LoadAll replaces the in-memory roster with the gateway's copy.
// On failure the current roster is left as is.
func (r *Roster) LoadAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gw == nil {
		return nil
	}
	loaded, err := r.gw.LoadAll()
	if err != nil {
		_ = level.Error(r.logger).Log("msg", "error loading data", "err", err)
		return &PersistenceError{Op: "load", Err: err}
	}

	students := make(map[string]*models.Student, len(loaded))
	order := make([]string, 0, len(loaded))
	for _, student := range loaded {
		if _, ok := students[student.RollNumber]; ok {
			continue
		}
		s := student.Clone()
		students[s.RollNumber] = &s
		order = append(order, s.RollNumber)
	}
	r.students = students
	r.order = order
	_ = level.Info(r.logger).Log("msg", "roster loaded", "students", len(order))
	return nil
}

func (r *Roster) saveLocked() error {
	if r.gw == nil {
		return nil
	}
	if err := r.gw.SaveAll(r.snapshotLocked()); err != nil {
		_ = level.Error(r.logger).Log("msg", "error saving data", "err", err)
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}

func (r *Roster) snapshotLocked() []models.Student {
	students := make([]models.Student, 0, len(r.order))
	for _, roll := range r.order {
		students = append(students, r.students[roll].Clone())
	}
	return students
}
