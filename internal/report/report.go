// Package report collects per-record anomalies into a run summary. The
// batch never aborts on a record-level problem; a completed run always
// yields the best-effort analysis plus an explicit anomaly list.
package report

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maumcare/pulse/internal/cohort"
	"github.com/maumcare/pulse/internal/domain/schema"
	"github.com/maumcare/pulse/internal/domain/scoring"
	"github.com/maumcare/pulse/internal/ingest"
)

// Kind classifies an anomaly.
type Kind string

// Anomaly kinds surfaced by a run.
const (
	// KindSchemaMismatch: a raw item id has no schema entry. Fatal for
	// that instrument's figures on the affected record only.
	KindSchemaMismatch Kind = "schema_mismatch"
	// KindInvalidValue: an answer outside the instrument's numeric range,
	// excluded from averaging.
	KindInvalidValue Kind = "invalid_value"
	// KindInsufficientData: a baseline entry could not be computed and
	// was omitted.
	KindInsufficientData Kind = "insufficient_data"
	// KindIntegrity: duplicate answer for the same participant/week/item;
	// the later value won.
	KindIntegrity Kind = "integrity"
	// KindOther: anything the taxonomy does not cover.
	KindOther Kind = "other"
)

// Anomaly is one reported condition tied to a record or baseline.
type Anomaly struct {
	Kind          Kind   `json:"kind"`
	ParticipantID string `json:"participant_id,omitempty"`
	Week          int    `json:"week"`
	Detail        string `json:"detail"`
}

func (a Anomaly) String() string {
	if a.ParticipantID == "" {
		return fmt.Sprintf("[%s] week %d: %s", a.Kind, a.Week, a.Detail)
	}
	return fmt.Sprintf("[%s] %s week %d: %s", a.Kind, a.ParticipantID, a.Week, a.Detail)
}

// Classify maps an error from the scoring or aggregation layers to a Kind.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, schema.ErrSchemaMismatch), errors.Is(err, schema.ErrUnknownInstrument),
		errors.Is(err, ingest.ErrMalformedRow), errors.Is(err, ingest.ErrBadHeader):
		return KindSchemaMismatch
	case errors.Is(err, scoring.ErrInvalidValue), errors.Is(err, ingest.ErrUnknownAnswer):
		return KindInvalidValue
	case errors.Is(err, cohort.ErrInsufficientData):
		return KindInsufficientData
	case errors.Is(err, ingest.ErrDuplicateAnswer):
		return KindIntegrity
	default:
		return KindOther
	}
}

// Collector accumulates anomalies. Safe for concurrent use by the workers.
type Collector struct {
	mu        sync.Mutex
	runID     string
	startedAt time.Time
	anomalies []Anomaly
}

// NewCollector starts an empty collector with a fresh run id.
func NewCollector() *Collector {
	return &Collector{
		runID:     uuid.NewString(),
		startedAt: time.Now(),
	}
}

// RunID returns the run identifier.
func (c *Collector) RunID() string { return c.runID }

// Add records one anomaly.
func (c *Collector) Add(a Anomaly) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anomalies = append(c.anomalies, a)
}

// AddError classifies err and records it against a participant-week.
func (c *Collector) AddError(participantID string, week int, err error) {
	c.Add(Anomaly{
		Kind:          Classify(err),
		ParticipantID: participantID,
		Week:          week,
		Detail:        err.Error(),
	})
}

// Anomalies returns a copy of the recorded anomalies.
func (c *Collector) Anomalies() []Anomaly {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Anomaly, len(c.anomalies))
	copy(out, c.anomalies)
	return out
}

// Summary describes a completed run.
type Summary struct {
	RunID           string    `json:"run_id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Participants    int       `json:"participants"`
	ResponsesScored int       `json:"responses_scored"`
	Weeks           []int     `json:"weeks"`
	Anomalies       []Anomaly `json:"anomalies"`
}

// Summarize closes the collector into a summary.
func (c *Collector) Summarize(participants, responsesScored int, weeks []int) Summary {
	return Summary{
		RunID:           c.runID,
		StartedAt:       c.startedAt,
		FinishedAt:      time.Now(),
		Participants:    participants,
		ResponsesScored: responsesScored,
		Weeks:           weeks,
		Anomalies:       c.Anomalies(),
	}
}

// CountByKind tallies anomalies per kind.
func (s Summary) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, a := range s.Anomalies {
		counts[a.Kind]++
	}
	return counts
}
