// Package threshold classifies scored values into risk bands using the
// published cutoff values for each instrument. Classification is consumed
// by report rendering; it is deterministic and side-effect free.
package threshold

import (
	"github.com/maumcare/pulse/internal/domain/model"
)

// Band is an ordered risk classification. Higher is worse.
type Band int

// Bands from lowest to highest risk.
const (
	Normal Band = iota
	Borderline
	AtRisk
)

// Label returns the Korean band label used in reports.
func (b Band) Label() string {
	switch b {
	case Normal:
		return "정상"
	case Borderline:
		return "준위험"
	default:
		return "위험"
	}
}

// Cutoffs are ascending band boundaries. One boundary splits normal from
// at-risk; two boundaries add the borderline band in between.
type Cutoffs []float64

// Classify places a value into a band by inclusive-upper-bound comparison:
// value <= first boundary is the lowest band, value <= second boundary the
// middle band, anything above the last boundary the highest band.
func (c Cutoffs) Classify(value float64) Band {
	switch {
	case len(c) == 0:
		return Normal
	case value <= c[0]:
		return Normal
	case len(c) == 1:
		return AtRisk
	case value <= c[1]:
		return Borderline
	default:
		return AtRisk
	}
}

// Thresholds carries gender-specific cutoff variants. Instruments without a
// gender difference set only Female, which doubles as the fallback.
type Thresholds struct {
	Female Cutoffs `koanf:"female"`
	Male   Cutoffs `koanf:"male"`
}

// For selects the cutoffs for a gender. Unknown genders use the female
// values, matching how the study reports were produced.
func (t Thresholds) For(gender model.Gender) Cutoffs {
	if gender == model.GenderMale && len(t.Male) > 0 {
		return t.Male
	}
	return t.Female
}

// Set maps categories and types to their thresholds.
type Set struct {
	Categories map[string]Thresholds            `koanf:"categories"`
	Types      map[string]map[string]Thresholds `koanf:"types"`
}

// Category returns the thresholds for a category average.
func (s Set) Category(name string) (Thresholds, bool) {
	t, ok := s.Categories[name]
	return t, ok
}

// Type returns the thresholds for a type average within a category.
func (s Set) Type(category, typeName string) (Thresholds, bool) {
	types, ok := s.Types[category]
	if !ok {
		return Thresholds{}, false
	}
	t, ok := types[typeName]
	return t, ok
}

// ClassifyCategory classifies a category average for a participant of the
// given gender. ok is false when no thresholds are defined for the category.
func (s Set) ClassifyCategory(category string, gender model.Gender, value float64) (Band, bool) {
	t, ok := s.Category(category)
	if !ok {
		return Normal, false
	}
	return t.For(gender).Classify(value), true
}

// ClassifyType classifies a type average for a participant of the given
// gender. ok is false when no thresholds are defined for the type.
func (s Set) ClassifyType(category, typeName string, gender model.Gender, value float64) (Band, bool) {
	t, ok := s.Type(category, typeName)
	if !ok {
		return Normal, false
	}
	return t.For(gender).Classify(value), true
}
