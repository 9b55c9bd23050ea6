package ingest

import (
	"github.com/maumcare/pulse/internal/domain/dedupe"
	"github.com/maumcare/pulse/internal/domain/schema"
	"github.com/maumcare/pulse/pkg/logger"
)

// Option applies a configuration option to the Reader.
type Option func(*Reader)

// WithRegistry sets the instrument schema registry.
func WithRegistry(r *schema.Registry) Option {
	return func(rd *Reader) {
		if r != nil {
			rd.registry = r
		}
	}
}

// WithTracker sets the duplicate-answer tracker.
func WithTracker(t dedupe.Tracker) Option {
	return func(rd *Reader) {
		if t != nil {
			rd.tracker = t
		}
	}
}

// WithResolver sets the identity resolver shared across rounds.
func WithResolver(r *Resolver) Option {
	return func(rd *Reader) {
		if r != nil {
			rd.resolver = r
		}
	}
}

// WithReporter sets the anomaly reporter.
func WithReporter(rep Reporter) Option {
	return func(rd *Reader) {
		if rep != nil {
			rd.reporter = rep
		}
	}
}

// WithLogger sets a custom logger for the reader.
func WithLogger(l logger.Logger) Option {
	return func(rd *Reader) {
		if l != nil {
			rd.logger = l
		}
	}
}
