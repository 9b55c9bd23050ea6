// Package repository holds the analysis store: every participant history
// and cohort baseline produced by a run. The store owns this state
// exclusively; rendering collaborators only read the exported document.
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/maumcare/pulse/internal/cohort"
	"github.com/maumcare/pulse/internal/domain/model"
	"github.com/maumcare/pulse/internal/history"
	"github.com/maumcare/pulse/pkg/metrics"
)

// Store provides read/write access to the analysis state.
type Store interface {
	// MergeScore inserts one scored participant-week, creating the
	// participant's history on first contact.
	MergeScore(ctx context.Context, identity model.Identity, score model.WeekScore) error

	// SetGroups replaces the cohort baselines after aggregation.
	SetGroups(ctx context.Context, groups []cohort.GroupAnalysis) error

	// Participant returns one history. Returns ErrNotFound when the
	// participant is unknown.
	Participant(ctx context.Context, participantID string) (*history.ParticipantHistory, error)

	// Histories returns all histories ordered by participant id.
	Histories(ctx context.Context) []*history.ParticipantHistory

	// Groups returns the cohort baselines.
	Groups(ctx context.Context) []cohort.GroupAnalysis

	// Weeks returns the union of recorded week numbers, ascending.
	Weeks(ctx context.Context) []int

	// Count returns the number of tracked participants.
	Count(ctx context.Context) int
}

// MemStore implements Store in memory on top of the history builder.
type MemStore struct {
	builder *history.Builder

	mu     sync.RWMutex
	groups []cohort.GroupAnalysis
}

// NewMemStore creates an empty in-memory analysis store.
func NewMemStore(_ context.Context) *MemStore {
	return &MemStore{builder: history.NewBuilder()}
}

// MergeScore inserts one scored participant-week.
func (s *MemStore) MergeScore(_ context.Context, identity model.Identity, score model.WeekScore) error {
	if identity.ParticipantID == "" {
		return fmt.Errorf("%w: empty participant id", ErrNotFound)
	}
	s.builder.Merge(identity, score)
	metrics.UpdateParticipants(s.builder.Count())
	return nil
}

// SetGroups replaces the cohort baselines.
func (s *MemStore) SetGroups(_ context.Context, groups []cohort.GroupAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = groups
	return nil
}

// Participant returns one history.
func (s *MemStore) Participant(_ context.Context, participantID string) (*history.ParticipantHistory, error) {
	h, ok := s.builder.Get(participantID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, participantID)
	}
	return h, nil
}

// Histories returns all histories ordered by participant id.
func (s *MemStore) Histories(_ context.Context) []*history.ParticipantHistory {
	return s.builder.Histories()
}

// Groups returns the cohort baselines.
func (s *MemStore) Groups(_ context.Context) []cohort.GroupAnalysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]cohort.GroupAnalysis, len(s.groups))
	copy(out, s.groups)
	return out
}

// Weeks returns the union of recorded week numbers, ascending.
func (s *MemStore) Weeks(ctx context.Context) []int {
	seen := make(map[int]struct{})
	for _, h := range s.Histories(ctx) {
		for _, week := range h.Weeks() {
			seen[week] = struct{}{}
		}
	}
	weeks := make([]int, 0, len(seen))
	for week := range seen {
		weeks = append(weeks, week)
	}
	sort.Ints(weeks)
	return weeks
}

// Count returns the number of tracked participants.
func (s *MemStore) Count(_ context.Context) int {
	return s.builder.Count()
}
