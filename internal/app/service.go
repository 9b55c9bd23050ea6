// Package service orchestrates one analysis run: ingesting the per-round
// CSV exports, scoring them through the worker pool, aggregating cohort
// baselines and writing the analysis document.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/maumcare/pulse/internal/adapters/mq/queue"
	"github.com/maumcare/pulse/internal/adapters/mq/worker"
	"github.com/maumcare/pulse/internal/adapters/repository"
	"github.com/maumcare/pulse/internal/cohort"
	"github.com/maumcare/pulse/internal/domain/dedupe"
	"github.com/maumcare/pulse/internal/domain/model"
	"github.com/maumcare/pulse/internal/domain/schema"
	"github.com/maumcare/pulse/internal/domain/scoring"
	"github.com/maumcare/pulse/internal/history"
	"github.com/maumcare/pulse/internal/ingest"
	"github.com/maumcare/pulse/internal/report"
	"github.com/maumcare/pulse/pkg/logger"
	"github.com/maumcare/pulse/pkg/metrics"
)

// Round names one survey round's input: the week number and the CSV export
// holding its responses.
type Round struct {
	Week int
	Path string
}

// Service implements the analysis pipeline for the survey study.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      *repository.MemStore
	responses  queue.Queue
	scorer     scoring.Scorer
	pool       *worker.Pool
	reader     *ingest.Reader
	collector  *report.Collector
	aggregator *cohort.Aggregator

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	registry    *schema.Registry
	outputFile  string
	summaryFile string
	archiveDSN  string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   10_000,
		dedupeSize:  500_000,
		registry:    schema.Default(),
		aggregator:  cohort.New(),
		outputFile:  "analysis.json",
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the pipeline components and launches the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting analysis run...")

	s.store = repository.NewMemStore(ctx)
	s.collector = report.NewCollector()
	s.responses = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
	)
	s.scorer = scoring.New(
		scoring.WithRegistry(s.registry),
	)
	s.reader = ingest.New(
		ingest.WithRegistry(s.registry),
		ingest.WithTracker(dedupe.NewInMemoryTracker(
			dedupe.WithMaxSize(s.dedupeSize),
		)),
		ingest.WithReporter(s.collector),
	)

	s.pool = worker.NewPool(s.workerCount, s.responses, s.scorer, s.store, s.collector)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "analysis run started",
		logger.String("runID", s.collector.RunID()),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
	)

	return nil
}

// IngestRound parses one round's CSV file and submits its response sets for
// scoring. Record-level anomalies are collected, never fatal; only an
// unreadable file or header fails the round.
func (s *Service) IngestRound(ctx context.Context, round Round) (int, error) {
	if !s.isStarted() {
		return 0, ErrNotStarted
	}

	sets, err := s.reader.ReadFile(ctx, round.Path, round.Week)
	if err != nil {
		return 0, fmt.Errorf("ingest week %d: %w", round.Week, err)
	}
	return s.Submit(ctx, sets...), nil
}

// Submit enqueues response sets for scoring, returning how many were
// accepted. A full queue is an anomaly, not a crash: the affected
// participant-week is reported and the run keeps its remaining data.
func (s *Service) Submit(ctx context.Context, sets ...model.ResponseSet) int {
	accepted := 0
	for _, set := range sets {
		if s.responses.Enqueue(ctx, set) {
			accepted++
			continue
		}
		err := fmt.Errorf("response queue rejected week %d of %s", set.Week, set.Identity.ParticipantID)
		s.collector.AddError(set.Identity.ParticipantID, set.Week, err)
		s.logger.Warn(ctx, "enqueue failed",
			logger.String("participant", set.Identity.ParticipantID),
			logger.Int("week", set.Week),
		)
	}
	return accepted
}

// Run executes a full analysis: every round is ingested and scored, the
// pool drains, cohort baselines are computed and the analysis document is
// written. Aggregation starts strictly after the last week score merges.
func (s *Service) Run(ctx context.Context, rounds []Round) (report.Summary, error) {
	if err := s.Start(ctx); err != nil {
		return report.Summary{}, err
	}

	for _, round := range rounds {
		accepted, err := s.IngestRound(ctx, round)
		if err != nil {
			return report.Summary{}, err
		}
		s.logger.Info(ctx, "round submitted",
			logger.Int("week", round.Week),
			logger.Int("accepted", accepted),
		)
	}

	// Closing the queue lets the workers drain it and exit; Wait is the
	// barrier between scoring and aggregation.
	_ = s.responses.Close()
	s.pool.Wait()

	histories := s.store.Histories(ctx)
	weeks := s.store.Weeks(ctx)
	groups, findings := s.aggregator.Aggregate(histories, weeks)
	for _, finding := range findings {
		s.collector.AddError("", weekOf(finding), finding)
	}
	for _, group := range groups {
		for range group.Analysis {
			metrics.RecordBaselineComputed()
		}
	}
	if err := s.store.SetGroups(ctx, groups); err != nil {
		return report.Summary{}, err
	}

	if err := repository.WriteFile(ctx, s.store, s.outputFile); err != nil {
		return report.Summary{}, err
	}

	summary := s.collector.Summarize(s.store.Count(ctx), scoredWeeks(histories), weeks)
	if s.summaryFile != "" {
		if err := report.WriteSummary(summary, s.summaryFile); err != nil {
			return summary, err
		}
	}
	if s.archiveDSN != "" {
		if err := s.archiveRun(ctx, summary); err != nil {
			return summary, err
		}
	}

	s.logger.Info(ctx, "analysis run finished",
		logger.String("runID", summary.RunID),
		logger.Int("participants", summary.Participants),
		logger.Int("scoredWeeks", summary.ResponsesScored),
		logger.Int("anomalies", len(summary.Anomalies)),
	)
	return summary, nil
}

func (s *Service) archiveRun(ctx context.Context, summary report.Summary) error {
	archive, err := repository.OpenArchive(ctx, s.archiveDSN)
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()
	return archive.SaveRun(ctx, s.store, summary)
}

// Stop shuts the pipeline down without running aggregation. Safe to call
// after Run.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if !s.responses.IsClosed() {
		_ = s.responses.Close()
	}
	s.pool.Wait()
	s.started = false
	s.logger.Info(context.Background(), "analysis run stopped")
}

// Store exposes the analysis store for read access after a run.
func (s *Service) Store() repository.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// GetStats returns pipeline statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		stats["queueLength"] = s.responses.Len(ctx)
		stats["participants"] = s.store.Count(ctx)
		stats["anomalies"] = len(s.collector.Anomalies())
	}

	return stats
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// scoredWeeks counts the participant-week scores held across histories.
func scoredWeeks(histories []*history.ParticipantHistory) int {
	total := 0
	for _, h := range histories {
		total += len(h.Analysis)
	}
	return total
}

// weekOf pulls the week out of an aggregation finding when it carries one.
func weekOf(err error) int {
	var insufficient *cohort.InsufficientDataError
	if errors.As(err, &insufficient) {
		return insufficient.Week
	}
	return 0
}
