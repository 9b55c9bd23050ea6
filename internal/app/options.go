package service

import (
	"github.com/maumcare/pulse/internal/cohort"
	"github.com/maumcare/pulse/internal/domain/schema"
	"github.com/maumcare/pulse/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the response queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the duplicate-answer cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRegistry sets the instrument schema registry used for ingestion and
// scoring.
func WithRegistry(r *schema.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithAggregator replaces the cohort aggregator.
func WithAggregator(a *cohort.Aggregator) Option {
	return func(s *Service) {
		if a != nil {
			s.aggregator = a
		}
	}
}

// WithOutputFile sets the analysis document path.
func WithOutputFile(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.outputFile = path
		}
	}
}

// WithSummaryFile sets the run summary path. Empty skips writing it.
func WithSummaryFile(path string) Option {
	return func(s *Service) {
		s.summaryFile = path
	}
}

// WithArchiveDSN enables SQLite run archiving.
func WithArchiveDSN(dsn string) Option {
	return func(s *Service) {
		s.archiveDSN = dsn
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
