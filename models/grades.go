package models

import (
	"fmt"
	"math"
	"strings"
)

// Band is one step of a GradeScale: every score >= Min (and below the next band up) gets Label.
type Band struct {
	Label  string  `json:"label"`
	Min    float64 `json:"min"`
	Remark string  `json:"remark"`
}

// GradeScale maps an average score to a grade label using descending thresholds.
type GradeScale struct {
	name     string
	bands    []Band // strictly descending by Min
	fallback Band   // below every threshold
}

var (
	// StandardScale: A+ >= 90, A >= 80, B >= 70, C >= 60, D >= 50, else F.
	StandardScale = MustGradeScale("standard", Band{Label: "F", Remark: remarkF},
		Band{Label: "A+", Min: 90, Remark: remarkAPlus},
		Band{Label: "A", Min: 80, Remark: remarkA},
		Band{Label: "B", Min: 70, Remark: remarkB},
		Band{Label: "C", Min: 60, Remark: remarkC},
		Band{Label: "D", Min: 50, Remark: remarkD},
	)

	// StrictScale: A+ >= 95, A >= 85, B >= 75, C >= 65, D >= 55, else F.
	StrictScale = MustGradeScale("strict", Band{Label: "F", Remark: remarkF},
		Band{Label: "A+", Min: 95, Remark: remarkAPlus},
		Band{Label: "A", Min: 85, Remark: remarkA},
		Band{Label: "B", Min: 75, Remark: remarkB},
		Band{Label: "C", Min: 65, Remark: remarkC},
		Band{Label: "D", Min: 55, Remark: remarkD},
	)

	scales = map[string]*GradeScale{
		StandardScale.name: StandardScale,
		StrictScale.name:   StrictScale,
	}
)

const (
	remarkAPlus = "Outstanding performance. Keep it up!"
	remarkA     = "Excellent work."
	remarkB     = "Very good, with room to reach the top."
	remarkC     = "Good. Consistent practice will help."
	remarkD     = "Satisfactory, but needs more effort."
	remarkF     = "Needs immediate attention and support."
)

// NewGradeScale builds a scale from bands given highest threshold first.
// Labels must be non-empty and unique, thresholds strictly descending.
func NewGradeScale(name string, fallback Band, bands ...Band) (*GradeScale, error) {
	if len(bands) == 0 {
		return nil, fmt.Errorf("grade scale %q: at least one band is required", name)
	}
	fallback.Label = strings.TrimSpace(fallback.Label)
	trimmed := make([]Band, len(bands))
	copy(trimmed, bands)
	seen := map[string]bool{}
	for i := -1; i < len(trimmed); i++ {
		b := &fallback
		if i >= 0 {
			b = &trimmed[i]
			b.Label = strings.TrimSpace(b.Label)
			if math.IsNaN(b.Min) || math.IsInf(b.Min, 0) {
				return nil, fmt.Errorf("grade scale %q: threshold of %q must be a finite number", name, b.Label)
			}
		}
		if b.Label == "" {
			return nil, fmt.Errorf("grade scale %q: band label cannot be blank", name)
		}
		if seen[b.Label] {
			return nil, fmt.Errorf("grade scale %q: duplicate band label %q", name, b.Label)
		}
		seen[b.Label] = true
	}
	for i := 1; i < len(trimmed); i++ {
		if !(trimmed[i].Min < trimmed[i-1].Min) {
			return nil, fmt.Errorf("grade scale %q: threshold of %q (%.2f) must be below %q (%.2f)",
				name, trimmed[i].Label, trimmed[i].Min, trimmed[i-1].Label, trimmed[i-1].Min)
		}
	}

	gs := &GradeScale{name: name, fallback: fallback, bands: trimmed}
	return gs, nil
}

// MustGradeScale is like NewGradeScale but panics on an invalid scale.
func MustGradeScale(name string, fallback Band, bands ...Band) *GradeScale {
	gs, err := NewGradeScale(name, fallback, bands...)
	if err != nil {
		panic(err)
	}
	return gs
}

// ScaleByName returns one of the built-in scales ("standard" or "strict").
func ScaleByName(name string) (*GradeScale, error) {
	if gs, ok := scales[strings.ToLower(CleanString(name))]; ok {
		return gs, nil
	}
	return nil, fmt.Errorf("unknown grade scale %q", name)
}

func (gs *GradeScale) Name() string { return gs.name }

// Band returns the band the score falls in.
func (gs *GradeScale) Band(score float64) Band {
	for _, b := range gs.bands {
		if score >= b.Min {
			return b
		}
	}
	return gs.fallback
}

func (gs *GradeScale) Grade(score float64) string { return gs.Band(score).Label }

func (gs *GradeScale) Remark(score float64) string { return gs.Band(score).Remark }

// Labels lists every label from the highest band down to the fallback.
func (gs *GradeScale) Labels() []string {
	labels := make([]string, 0, len(gs.bands)+1)
	for _, b := range gs.bands {
		labels = append(labels, b.Label)
	}
	return append(labels, gs.fallback.Label)
}
