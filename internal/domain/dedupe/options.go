package dedupe

// defaultMaxSize bounds the tracker; a full study is a few thousand answers.
const defaultMaxSize = 500_000

// Option applies a configuration option to the in-memory tracker.
type Option func(*inMemoryTracker)

// WithMaxSize sets the maximum number of keys to keep in memory.
// maxSize <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(t *inMemoryTracker) {
		t.maxSize = maxSize
	}
}
