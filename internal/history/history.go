// Package history assembles per-week scores into one record per participant
// spanning all observed weeks.
package history

import (
	"sort"
	"sync"

	"github.com/maumcare/pulse/internal/domain/model"
)

// ParticipantHistory is one participant's identity plus their scored weeks,
// keyed by week label ("0주차", "2주차", ...).
type ParticipantHistory struct {
	Identity model.Identity
	Analysis map[string]model.WeekScore
}

// Weeks returns the recorded week numbers in ascending order.
func (h *ParticipantHistory) Weeks() []int {
	weeks := make([]int, 0, len(h.Analysis))
	for label := range h.Analysis {
		if week, err := model.ParseWeekLabel(label); err == nil {
			weeks = append(weeks, week)
		}
	}
	sort.Ints(weeks)
	return weeks
}

// Score returns the week score recorded under a week number.
func (h *ParticipantHistory) Score(week int) (model.WeekScore, bool) {
	score, ok := h.Analysis[model.WeekLabel(week)]
	return score, ok
}

// Builder merges week scores into participant histories. It is safe for
// concurrent use by the scoring workers.
type Builder struct {
	mu        sync.Mutex
	histories map[string]*ParticipantHistory
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{histories: make(map[string]*ParticipantHistory)}
}

// Merge inserts a week score under the participant's history, creating the
// history on the first encountered week. Reprocessing a week overwrites its
// entry under the same label; entries are never deleted during a run.
//
// Identity attributes follow most-recent-wins: non-empty values from the
// latest merged week replace stored ones. Empty fields keep the stored
// values, since later survey rounds do not carry team/role columns.
func (b *Builder) Merge(identity model.Identity, score model.WeekScore) *ParticipantHistory {
	b.mu.Lock()
	defer b.mu.Unlock()

	h, ok := b.histories[identity.ParticipantID]
	if !ok {
		h = &ParticipantHistory{
			Identity: identity,
			Analysis: make(map[string]model.WeekScore),
		}
		b.histories[identity.ParticipantID] = h
	} else {
		h.Identity = mergeIdentity(h.Identity, identity)
	}
	h.Analysis[model.WeekLabel(score.Week)] = score
	return h
}

// Get returns the history for a participant id.
func (b *Builder) Get(participantID string) (*ParticipantHistory, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.histories[participantID]
	return h, ok
}

// Histories returns all histories ordered by participant id.
func (b *Builder) Histories() []*ParticipantHistory {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*ParticipantHistory, 0, len(b.histories))
	for _, h := range b.histories {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Identity.ParticipantID < out[j].Identity.ParticipantID
	})
	return out
}

// Count returns the number of participants tracked.
func (b *Builder) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.histories)
}

func mergeIdentity(stored, latest model.Identity) model.Identity {
	merged := stored
	if latest.Name != "" {
		merged.Name = latest.Name
	}
	if latest.Team != "" {
		merged.Team = latest.Team
	}
	if latest.Role != "" {
		merged.Role = latest.Role
	}
	if latest.Gender != model.GenderUnknown {
		merged.Gender = latest.Gender
	}
	if latest.Email != "" {
		merged.Email = latest.Email
	}
	if latest.Phone != "" {
		merged.Phone = latest.Phone
	}
	return merged
}
