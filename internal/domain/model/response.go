// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Instrument identifies one questionnaire administered during the study.
type Instrument string

// Instruments collected by the study.
const (
	BATPrimary     Instrument = "BAT_primary"
	BATSecondary   Instrument = "BAT_secondary"
	EmotionalLabor Instrument = "emotional_labor"
	Stress         Instrument = "stress"
)

// Instruments returns every known instrument in serialization order.
func Instruments() []Instrument {
	return []Instrument{BATPrimary, BATSecondary, EmotionalLabor, Stress}
}

// Gender of a participant; cutoff thresholds differ by gender.
type Gender string

// Gender values as they appear in the participant roster.
const (
	GenderFemale  Gender = "여성"
	GenderMale    Gender = "남성"
	GenderUnknown Gender = ""
)

// RawResponse is one participant's answer to one item in one survey round.
type RawResponse struct {
	ParticipantID string
	Week          int
	Instrument    Instrument
	ItemID        string // e.g. "Q7"
	Value         float64
}

// Identity holds the descriptive attributes attached to a participant.
// Attributes may change between rounds; the latest round wins.
type Identity struct {
	ParticipantID string
	Name          string
	Team          string
	Role          string
	Gender        Gender
	Email         string
	Phone         string // last 4 digits, zero-padded
}

// ParticipantID derives the stable identifier used across rounds.
// Participants are keyed by name and team to separate namesakes.
func ParticipantID(name, team string) string {
	name = strings.TrimSpace(name)
	team = strings.TrimSpace(team)
	if name == "" {
		name = "Unknown"
	}
	if team == "" {
		team = "Unknown"
	}
	return name + "_" + team
}

// ResponseSet bundles every answer one participant gave in one survey round.
// It is the unit of work flowing through the scoring queue.
type ResponseSet struct {
	Identity Identity
	Week     int
	// Items maps instrument -> item id -> raw answer value.
	Items map[Instrument]map[string]float64
}

// Add records a raw answer, creating nested maps as needed. A repeated item
// id overwrites the earlier value; collision reporting is the caller's job.
func (r *ResponseSet) Add(instrument Instrument, itemID string, value float64) {
	if r.Items == nil {
		r.Items = make(map[Instrument]map[string]float64)
	}
	items, ok := r.Items[instrument]
	if !ok {
		items = make(map[string]float64)
		r.Items[instrument] = items
	}
	items[itemID] = value
}

// WeekScore is the scored result for one participant-week.
// Absent map keys mean "no data", which is distinct from a zero score.
type WeekScore struct {
	ParticipantID    string
	Week             int
	CategoryAverages map[string]float64
	TypeAverages     map[string]map[string]float64
}

// Study cadence constants. Surveys run biweekly from week 0 through week 12;
// the stress and emotional-labor instruments are only administered every
// fourth week.
const (
	FinalStudyWeek    = 12
	weekLabelSuffix   = "주차"
	fullRoundInterval = 4
	studyWeekInterval = 2
)

// WeekLabel formats a week number as the label used at the serialization
// boundary, e.g. 0 -> "0주차".
func WeekLabel(week int) string {
	return strconv.Itoa(week) + weekLabelSuffix
}

// ParseWeekLabel is the inverse of WeekLabel.
func ParseWeekLabel(label string) (int, error) {
	trimmed := strings.TrimSuffix(label, weekLabelSuffix)
	if trimmed == label {
		return 0, fmt.Errorf("week label %q missing %q suffix", label, weekLabelSuffix)
	}
	week, err := strconv.Atoi(trimmed)
	if err != nil || week < 0 {
		return 0, fmt.Errorf("week label %q is not a non-negative week number", label)
	}
	return week, nil
}

// StudyWeeks returns the biweekly survey rounds in order: 0, 2, 4, ..., 12.
func StudyWeeks() []int {
	weeks := make([]int, 0, FinalStudyWeek/studyWeekInterval+1)
	for w := 0; w <= FinalStudyWeek; w += studyWeekInterval {
		weeks = append(weeks, w)
	}
	return weeks
}

// IsStudyWeek reports whether week falls on the biweekly survey cadence.
func IsStudyWeek(week int) bool {
	return week >= 0 && week <= FinalStudyWeek && week%studyWeekInterval == 0
}

// IsFullRound reports whether every instrument is administered on week.
// Stress and emotional-labor questionnaires only run on these rounds.
func IsFullRound(week int) bool {
	return week%fullRoundInterval == 0
}
