package models

// Mark is one subject's score. Build it with NewMark so the score is validated.
type Mark struct {
	Subject       string  `json:"subject" validate:"notblank"`                      // Subject name
	MarksObtained float64 `json:"marksObtained" validate:"gte=0,ltefield=MaxMarks"` // Score obtained
	MaxMarks      float64 `json:"maxMarks" validate:"gt=0"`                         // Maximum score for the subject
}

// NewMark validates and returns a Mark.
func NewMark(subject string, obtained, max float64) (Mark, error) {
	m := Mark{
		Subject:       CleanString(subject),
		MarksObtained: obtained,
		MaxMarks:      max,
	}
	if err := validateStruct(m); err != nil {
		return Mark{}, err
	}
	return m, nil
}

// Percentage returns the obtained score on a 0-100 scale.
func (m Mark) Percentage() float64 {
	return m.MarksObtained / m.MaxMarks * 100
}

// Student represents a student and the marks recorded for them
type Student struct {
	RollNumber string `json:"rollNumber" validate:"notblank"` // Unique roll number, never changes
	Name       string `json:"name" validate:"notblank"`       // Student name
	ClassName  string `json:"className" validate:"notblank"`  // Class the student belongs to
	Marks      []Mark `json:"marks" validate:"dive"`          // Marks in the order they were recorded
}

// NewStudent validates and returns a Student without marks.
func NewStudent(rollNumber, name, className string) (*Student, error) {
	s := &Student{
		RollNumber: CleanString(rollNumber),
		Name:       CleanString(name),
		ClassName:  CleanString(className),
		Marks:      []Mark{},
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the student fields and every recorded mark.
func (s *Student) Validate() error {
	return validateStruct(s)
}

// AddMark appends a validated mark. It does not persist anything.
func (s *Student) AddMark(subject string, obtained, max float64) error {
	m, err := NewMark(subject, obtained, max)
	if err != nil {
		return err
	}
	s.Marks = append(s.Marks, m)
	return nil
}

// AverageScore is the unweighted mean of the mark percentages, 0 without marks.
func (s Student) AverageScore() float64 {
	if len(s.Marks) == 0 {
		return 0.0
	}
	var total float64
	for _, m := range s.Marks {
		total += m.Percentage()
	}
	return total / float64(len(s.Marks))
}

// Grade returns the label of the band the average score falls in.
// A nil scale means StandardScale.
func (s Student) Grade(scale *GradeScale) string {
	if scale == nil {
		scale = StandardScale
	}
	return scale.Grade(s.AverageScore())
}

// Clone returns a copy that shares no marks storage with s.
func (s Student) Clone() Student {
	c := s
	c.Marks = make([]Mark, len(s.Marks))
	copy(c.Marks, s.Marks)
	return c
}
