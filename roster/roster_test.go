package roster

import (
	"errors"
	"sync"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-analytics-server-go/models"
)

// memGateway keeps the last saved snapshot in memory.
type memGateway struct {
	mu       sync.Mutex
	saved    []models.Student
	saves    int
	saveErr  error
	loadErr  error
	loadFrom []models.Student
}

func (g *memGateway) SaveAll(students []models.Student) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saves++
	if g.saveErr != nil {
		return g.saveErr
	}
	g.saved = students
	return nil
}

func (g *memGateway) LoadAll() ([]models.Student, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	if g.loadFrom != nil {
		return g.loadFrom, nil
	}
	return g.saved, nil
}

func newStudent(t *testing.T, roll, name, class string) models.Student {
	t.Helper()
	s, err := models.NewStudent(roll, name, class)
	require.NoError(t, err)
	return *s
}

func setup(t *testing.T) (*Roster, *memGateway) {
	t.Helper()
	gw := &memGateway{}
	r, err := New(gw, log.NewNopLogger())
	require.NoError(t, err)
	return r, gw
}

func TestAddStudent(t *testing.T) {
	r, gw := setup(t)

	added, err := r.AddStudent(newStudent(t, "R1", "Alice", "10-A"))
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, gw.saves)

	added, err = r.AddStudent(newStudent(t, "R1", "Someone Else", "10-B"))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, gw.saves)

	s, ok := r.GetStudent("R1")
	require.True(t, ok)
	assert.Equal(t, "Alice", s.Name)
}

func TestAddStudentInvalid(t *testing.T) {
	r, gw := setup(t)

	added, err := r.AddStudent(models.Student{RollNumber: "R1", Name: " ", ClassName: "10-A"})
	assert.False(t, added)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, gw.saves)
}

func TestRemoveStudent(t *testing.T) {
	r, gw := setup(t)
	_, err := r.AddStudent(newStudent(t, "R1", "Alice", "10-A"))
	require.NoError(t, err)
	_, err = r.AddStudent(newStudent(t, "R2", "Bob", "10-A"))
	require.NoError(t, err)

	require.NoError(t, r.RemoveStudent("R1"))
	assert.Equal(t, 1, r.Len())
	_, ok := r.GetStudent("R1")
	assert.False(t, ok)

	// removing an absent student is a no-op that still saves
	saves := gw.saves
	require.NoError(t, r.RemoveStudent("R404"))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, saves+1, gw.saves)
}

func TestListStudentsInsertionOrder(t *testing.T) {
	r, _ := setup(t)
	for _, roll := range []string{"R3", "R1", "R2"} {
		_, err := r.AddStudent(newStudent(t, roll, "Student "+roll, "10-A"))
		require.NoError(t, err)
	}
	require.NoError(t, r.RemoveStudent("R1"))
	_, err := r.AddStudent(newStudent(t, "R1", "Back again", "10-A"))
	require.NoError(t, err)

	var rolls []string
	for _, s := range r.ListStudents() {
		rolls = append(rolls, s.RollNumber)
	}
	assert.Equal(t, []string{"R3", "R2", "R1"}, rolls)
}

func TestAddMarkToStudent(t *testing.T) {
	r, gw := setup(t)
	_, err := r.AddStudent(newStudent(t, "R1", "Alice", "10-A"))
	require.NoError(t, err)

	require.NoError(t, r.AddMarkToStudent("R1", "Math", 90, 100))
	require.NoError(t, r.AddMarkToStudent("R1", "Science", 80, 100))
	s, _ := r.GetStudent("R1")
	assert.InDelta(t, 85.0, s.AverageScore(), 1e-9)
	assert.Len(t, gw.saved[0].Marks, 2)

	err = r.AddMarkToStudent("R404", "Math", 10, 100)
	assert.ErrorIs(t, err, ErrStudentNotFound)

	saves := gw.saves
	err = r.AddMarkToStudent("R1", "Math", 120, 100)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	s, _ = r.GetStudent("R1")
	assert.Len(t, s.Marks, 2)
	assert.Equal(t, saves, gw.saves)
}

func TestGetStudentReturnsCopy(t *testing.T) {
	r, _ := setup(t)
	_, err := r.AddStudent(newStudent(t, "R1", "Alice", "10-A"))
	require.NoError(t, err)

	s, _ := r.GetStudent("R1")
	require.NoError(t, s.AddMark("Math", 10, 10))

	again, _ := r.GetStudent("R1")
	assert.Empty(t, again.Marks)
}

func TestRoundTrip(t *testing.T) {
	r, gw := setup(t)
	_, err := r.AddStudent(newStudent(t, "R1", "Alice", "10-A"))
	require.NoError(t, err)
	_, err = r.AddStudent(newStudent(t, "R2", "Bob", "10-B"))
	require.NoError(t, err)
	require.NoError(t, r.AddMarkToStudent("R1", "Math", 90, 100))
	require.NoError(t, r.AddMarkToStudent("R1", "Science", 80, 100))
	require.NoError(t, r.AddMarkToStudent("R2", "Math", 40, 100))

	reloaded, err := New(gw, nil)
	require.NoError(t, err)
	assert.Equal(t, r.ListStudents(), reloaded.ListStudents())
}

func TestPersistenceFailures(t *testing.T) {
	gw := &memGateway{loadErr: errors.New("disk on fire")}
	r, err := New(gw, log.NewNopLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	require.NotNil(t, r)
	assert.Equal(t, 0, r.Len())

	gw.saveErr = errors.New("read-only file system")
	added, err := r.AddStudent(newStudent(t, "R1", "Alice", "10-A"))
	assert.True(t, added)
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "save", perr.Op)
	assert.ErrorIs(t, err, gw.saveErr)

	// the in-memory roster keeps the student and a later save succeeds
	assert.Equal(t, 1, r.Len())
	gw.saveErr = nil
	require.NoError(t, r.SaveAll())
	assert.Len(t, gw.saved, 1)
}

func TestLoadAllSkipsDuplicateRolls(t *testing.T) {
	gw := &memGateway{loadFrom: []models.Student{
		newStudent(t, "R1", "Alice", "10-A"),
		newStudent(t, "R1", "Impostor", "10-A"),
	}}
	r, err := New(gw, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
	s, _ := r.GetStudent("R1")
	assert.Equal(t, "Alice", s.Name)
}

func TestImportStudents(t *testing.T) {
	r, gw := setup(t)
	_, err := r.AddStudent(newStudent(t, "R1", "Alice", "10-A"))
	require.NoError(t, err)

	added, err := r.ImportStudents([]models.Student{
		newStudent(t, "R1", "Alice again", "10-A"),
		newStudent(t, "R2", "Bob", "10-A"),
		newStudent(t, "R3", "Carol", "10-B"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 2, gw.saves)

	_, err = r.ImportStudents([]models.Student{{RollNumber: "R9"}})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.Equal(t, 3, r.Len())
}

func TestConcurrentMutations(t *testing.T) {
	r, gw := setup(t)

	students := make([]models.Student, 20)
	for i := range students {
		students[i] = newStudent(t, string(rune('A'+i)), "Student", "10-A")
	}

	var wg sync.WaitGroup
	for i, s := range students {
		wg.Add(1)
		go func(i int, s models.Student) {
			defer wg.Done()
			_, err := r.AddStudent(s)
			assert.NoError(t, err)
			assert.NoError(t, r.AddMarkToStudent(s.RollNumber, "Math", float64(i), 20))
		}(i, s)
	}
	wg.Wait()

	assert.Equal(t, 20, r.Len())
	assert.Equal(t, 40, gw.saves)
	assert.Len(t, gw.saved, 20)
}
