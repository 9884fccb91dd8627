package analytics

import (
	"fmt"
	"strings"

	"student-analytics-server-go/models"
)

// SubjectLine is one mark of a student report.
type SubjectLine struct {
	Subject       string  `json:"subject"`
	MarksObtained float64 `json:"marksObtained"`
	MaxMarks      float64 `json:"maxMarks"`
	Percentage    float64 `json:"percentage"`
}

// Report is the performance report of a single student.
type Report struct {
	RollNumber   string        `json:"rollNumber"`
	Name         string        `json:"name"`
	ClassName    string        `json:"className"`
	Subjects     []SubjectLine `json:"subjects"`
	AverageScore float64       `json:"averageScore"`
	Grade        string        `json:"grade"`
	Remark       string        `json:"remark"`
}

// StudentReport builds the report of s, subjects in the order the marks were recorded.
func (e *Engine) StudentReport(s models.Student) Report {
	avg := s.AverageScore()
	band := e.Scale.Band(avg)
	r := Report{
		RollNumber:   s.RollNumber,
		Name:         s.Name,
		ClassName:    s.ClassName,
		Subjects:     make([]SubjectLine, 0, len(s.Marks)),
		AverageScore: avg,
		Grade:        band.Label,
		Remark:       band.Remark,
	}
	for _, m := range s.Marks {
		r.Subjects = append(r.Subjects, SubjectLine{
			Subject:       m.Subject,
			MarksObtained: m.MarksObtained,
			MaxMarks:      m.MaxMarks,
			Percentage:    m.Percentage(),
		})
	}
	return r
}

func (r Report) String() string {
	var sb strings.Builder
	sb.WriteString("=== STUDENT PERFORMANCE REPORT ===\n\n")
	fmt.Fprintf(&sb, "Name: %s\n", r.Name)
	fmt.Fprintf(&sb, "Roll Number: %s\n", r.RollNumber)
	fmt.Fprintf(&sb, "Class: %s\n\n", r.ClassName)

	sb.WriteString("--- SUBJECT WISE PERFORMANCE ---\n")
	if len(r.Subjects) == 0 {
		sb.WriteString("No marks recorded.\n")
	}
	for _, line := range r.Subjects {
		fmt.Fprintf(&sb, "%-15s: %6.2f / %.2f (%.2f%%)\n",
			line.Subject, line.MarksObtained, line.MaxMarks, line.Percentage)
	}

	sb.WriteString("\n--- OVERALL PERFORMANCE ---\n")
	fmt.Fprintf(&sb, "Average Score: %.2f\n", r.AverageScore)
	fmt.Fprintf(&sb, "Grade: %s\n", r.Grade)
	fmt.Fprintf(&sb, "Remark: %s\n", r.Remark)
	return sb.String()
}

// Ranking is a student's position in a leaderboard.
type Ranking struct {
	RollNumber   string  `json:"rollNumber"`
	Name         string  `json:"name"`
	AverageScore float64 `json:"averageScore"`
	Grade        string  `json:"grade"`
}

// Summary holds the class-wide analytics.
type Summary struct {
	TotalStudents      int          `json:"totalStudents"`
	ClassAverage       float64      `json:"classAverage"`
	TopN               int          `json:"topN"`
	TopPerformers      []Ranking    `json:"topPerformers"`
	AttentionThreshold float64      `json:"attentionThreshold"`
	NeedingAttention   []Ranking    `json:"needingAttention"`
	GradeDistribution  []GradeCount `json:"gradeDistribution"`
}

// Summarize computes every class-wide statistic with the engine's limits.
func (e *Engine) Summarize(students []models.Student) Summary {
	return Summary{
		TotalStudents:      len(students),
		ClassAverage:       ClassAverage(students),
		TopN:               e.TopN,
		TopPerformers:      e.rankings(TopPerformers(students, e.TopN)),
		AttentionThreshold: e.AttentionThreshold,
		NeedingAttention:   e.rankings(NeedingAttention(students, e.AttentionThreshold)),
		GradeDistribution:  e.GradeDistribution(students),
	}
}

func (e *Engine) rankings(students []models.Student) []Ranking {
	out := make([]Ranking, 0, len(students))
	for _, s := range students {
		out = append(out, Ranking{
			RollNumber:   s.RollNumber,
			Name:         s.Name,
			AverageScore: s.AverageScore(),
			Grade:        s.Grade(e.Scale),
		})
	}
	return out
}

func (s Summary) String() string {
	var sb strings.Builder
	sb.WriteString("=== STUDENT PERFORMANCE ANALYTICS ===\n\n")
	if s.TotalStudents == 0 {
		sb.WriteString("No student data available.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Total Students: %d\n", s.TotalStudents)
	fmt.Fprintf(&sb, "Class Average: %.2f\n\n", s.ClassAverage)

	fmt.Fprintf(&sb, "--- TOP %d PERFORMERS ---\n", s.TopN)
	for _, r := range s.TopPerformers {
		fmt.Fprintf(&sb, "%s (%s): %.2f - %s\n", r.Name, r.RollNumber, r.AverageScore, r.Grade)
	}

	sb.WriteString("\n--- STUDENTS NEEDING ATTENTION ---\n")
	if len(s.NeedingAttention) == 0 {
		fmt.Fprintf(&sb, "None below %.2f.\n", s.AttentionThreshold)
	}
	for _, r := range s.NeedingAttention {
		fmt.Fprintf(&sb, "%s (%s): %.2f\n", r.Name, r.RollNumber, r.AverageScore)
	}

	sb.WriteString("\n--- GRADE DISTRIBUTION ---\n")
	for _, gc := range s.GradeDistribution {
		fmt.Fprintf(&sb, "%s: %d students\n", gc.Grade, gc.Count)
	}
	return sb.String()
}
