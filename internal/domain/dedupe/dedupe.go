// Package dedupe tracks answers that were already ingested so duplicate
// submissions can be detected. A duplicate does not stop processing: the
// later value wins, but the collision must be reported.
package dedupe

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/maumcare/pulse/internal/domain/model"
)

// Key identifies one raw answer. At most one value may exist per key.
type Key struct {
	ParticipantID string
	Week          int
	Instrument    model.Instrument
	ItemID        string
}

// String renders the key for log and anomaly messages.
func (k Key) String() string {
	return k.ParticipantID + "/" + strconv.Itoa(k.Week) + "/" + string(k.Instrument) + "/" + k.ItemID
}

// Tracker records seen answer keys.
type Tracker interface {
	// SeenAndRecord atomically checks whether key was seen and records it
	// if not. Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key Key) bool

	// Size returns the number of recorded keys.
	Size() int64
}

// inMemoryTracker implements Tracker with a mutex-guarded set.
type inMemoryTracker struct {
	mu      sync.Mutex
	seen    map[Key]struct{}
	maxSize int
	size    atomic.Int64
}

// NewInMemoryTracker creates a tracker with configuration options.
func NewInMemoryTracker(opts ...Option) Tracker {
	t := &inMemoryTracker{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.seen = make(map[Key]struct{})
	return t
}

// SeenAndRecord atomically checks and records a key. When the bounded
// capacity is reached, new keys are no longer recorded (and so will not be
// flagged as duplicates later); survey runs are far below the default bound.
func (t *inMemoryTracker) SeenAndRecord(_ context.Context, key Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[key]; ok {
		return true
	}
	if t.maxSize > 0 && len(t.seen) >= t.maxSize {
		return false
	}
	t.seen[key] = struct{}{}
	t.size.Store(int64(len(t.seen)))
	return false
}

// Size returns the current number of recorded keys.
func (t *inMemoryTracker) Size() int64 {
	return t.size.Load()
}
