package ingest

import (
	"sync"

	"github.com/maumcare/pulse/internal/domain/model"
)

// Resolver matches incomplete identities to participants seen in earlier
// rounds. Rounds from week 2 on drop the team column, so "name_team" ids
// cannot be derived from those rows alone; the resolver falls back to the
// phone digits, then a unique name, then the email address.
type Resolver struct {
	mu    sync.Mutex
	byID  map[string]model.Identity
	order []string
}

// NewResolver creates an empty resolver.
func NewResolver() *Resolver {
	return &Resolver{byID: make(map[string]model.Identity)}
}

// Register records a fully-identified participant from an early round.
// Later registrations fill in attributes without erasing known ones.
func (r *Resolver) Register(identity model.Identity) {
	if identity.ParticipantID == "" {
		identity.ParticipantID = model.ParticipantID(identity.Name, identity.Team)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	known, ok := r.byID[identity.ParticipantID]
	if !ok {
		r.order = append(r.order, identity.ParticipantID)
		r.byID[identity.ParticipantID] = identity
		return
	}
	if identity.Role != "" {
		known.Role = identity.Role
	}
	if identity.Email != "" {
		known.Email = identity.Email
	}
	if identity.Phone != "" {
		known.Phone = identity.Phone
	}
	if identity.Gender != "" {
		known.Gender = identity.Gender
	}
	r.byID[identity.ParticipantID] = known
}

// Resolve returns the registered identity matching a partial one. The match
// order is: derived id, then phone+name, then a unique name, then
// email among same-name participants. When nothing matches, the derived
// identity is returned with ok=false so the caller can decide whether to
// track the participant as new.
func (r *Resolver) Resolve(partial model.Identity) (model.Identity, bool) {
	derived := partial
	derived.ParticipantID = model.ParticipantID(partial.Name, partial.Team)

	r.mu.Lock()
	defer r.mu.Unlock()

	if known, ok := r.byID[derived.ParticipantID]; ok {
		return known, true
	}
	if partial.Team != "" {
		return derived, false
	}

	if partial.Phone != "" {
		for _, id := range r.order {
			known := r.byID[id]
			if known.Name == partial.Name && known.Phone == partial.Phone {
				return known, true
			}
		}
	}

	var sameName []model.Identity
	for _, id := range r.order {
		known := r.byID[id]
		if known.Name == partial.Name {
			sameName = append(sameName, known)
		}
	}
	if len(sameName) == 1 {
		return sameName[0], true
	}
	if partial.Email != "" {
		for _, known := range sameName {
			if known.Email == partial.Email {
				return known, true
			}
		}
	}

	return derived, false
}

// Count returns the number of registered participants.
func (r *Resolver) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
