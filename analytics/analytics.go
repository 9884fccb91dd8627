// Package analytics computes class statistics and text reports over a snapshot
// of students. Nothing here mutates its input.
package analytics

import (
	"sort"

	"student-analytics-server-go/models"
)

const (
	DefaultAttentionThreshold = 50.0
	DefaultTopPerformers      = 5
)

// ClassAverage is the mean of the students' average scores, 0 without students.
func ClassAverage(students []models.Student) float64 {
	if len(students) == 0 {
		return 0.0
	}
	var total float64
	for _, s := range students {
		total += s.AverageScore()
	}
	return total / float64(len(students))
}

// TopPerformers returns at most n students, highest average first.
// Ties keep their order in students.
func TopPerformers(students []models.Student, n int) []models.Student {
	if n <= 0 {
		return []models.Student{}
	}
	ranked := rank(students)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].avg > ranked[j].avg })
	if n > len(ranked) {
		n = len(ranked)
	}
	return unrank(ranked[:n])
}

// NeedingAttention returns the students whose average is strictly below threshold,
// weakest first.
func NeedingAttention(students []models.Student, threshold float64) []models.Student {
	ranked := make([]rankedStudent, 0)
	for _, rs := range rank(students) {
		if rs.avg < threshold {
			ranked = append(ranked, rs)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].avg < ranked[j].avg })
	return unrank(ranked)
}

type rankedStudent struct {
	student models.Student
	avg     float64
}

func rank(students []models.Student) []rankedStudent {
	ranked := make([]rankedStudent, 0, len(students))
	for _, s := range students {
		ranked = append(ranked, rankedStudent{student: s, avg: s.AverageScore()})
	}
	return ranked
}

func unrank(ranked []rankedStudent) []models.Student {
	students := make([]models.Student, 0, len(ranked))
	for _, rs := range ranked {
		students = append(students, rs.student)
	}
	return students
}

// GradeCount is the number of students holding one grade.
type GradeCount struct {
	Grade string `json:"grade"`
	Count int    `json:"count"`
}

// Engine carries the grading and reporting settings shared by the computations.
type Engine struct {
	Scale              *models.GradeScale
	TopN               int
	AttentionThreshold float64
}

// NewEngine returns an Engine using scale (StandardScale when nil) and the default limits.
func NewEngine(scale *models.GradeScale) *Engine {
	if scale == nil {
		scale = models.StandardScale
	}
	return &Engine{
		Scale:              scale,
		TopN:               DefaultTopPerformers,
		AttentionThreshold: DefaultAttentionThreshold,
	}
}

// GradeDistribution counts students per grade. Every label of the scale is
// present, from the highest band down.
func (e *Engine) GradeDistribution(students []models.Student) []GradeCount {
	labels := e.Scale.Labels()
	dist := make([]GradeCount, len(labels))
	index := make(map[string]int, len(labels))
	for i, label := range labels {
		dist[i] = GradeCount{Grade: label}
		index[label] = i
	}
	for _, s := range students {
		dist[index[s.Grade(e.Scale)]].Count++
	}
	return dist
}
