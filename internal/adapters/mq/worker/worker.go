// Package worker runs the scoring workers that drain the response queue.
// Participant-weeks are independent, so any number of workers may score
// them concurrently; the run's aggregation step waits for the whole pool
// to finish before computing baselines.
package worker

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/maumcare/pulse/internal/adapters/mq/queue"
	"github.com/maumcare/pulse/internal/domain/model"
	"github.com/maumcare/pulse/internal/domain/scoring"
	"github.com/maumcare/pulse/internal/report"
	"github.com/maumcare/pulse/pkg/logger"
	"github.com/maumcare/pulse/pkg/metrics"
)

// defaultWorkerMultiplier scales runtime.NumCPU() when no count is given.
const defaultWorkerMultiplier = 2

// Updater receives scored participant-weeks.
type Updater interface {
	MergeScore(ctx context.Context, identity model.Identity, score model.WeekScore) error
}

// Reporter collects per-record anomalies.
type Reporter interface {
	AddError(participantID string, week int, err error)
}

// Queue defines how workers receive response sets.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.ResponseSet
}

// Worker scores response sets and writes the results through the Updater.
type Worker struct {
	queue    Queue
	scorer   scoring.Scorer
	updater  Updater
	reporter Reporter
	name     string

	logger logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(q Queue, scorer scoring.Scorer, updater Updater, reporter Reporter, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		scorer:   scorer,
		updater:  updater,
		reporter: reporter,
		name:     "worker",
		logger:   logger.Get().Named("worker"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run drains the queue until it closes or ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for set := range w.queue.Dequeue(ctx) {
		select {
		case <-ctx.Done():
			return
		default:
		}
		w.process(ctx, set)
	}
}

// process scores a single response set and merges it into the store.
func (w *Worker) process(ctx context.Context, set queue.ResponseSet) {
	start := time.Now()
	score, findings, err := w.scorer.Score(ctx, set)
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		w.logger.Warn(ctx, "scoring aborted",
			logger.String("participant", set.Identity.ParticipantID),
			logger.Int("week", set.Week),
			logger.Error(err),
		)
		return
	}

	for _, finding := range findings {
		w.reporter.AddError(set.Identity.ParticipantID, set.Week, finding)
		metrics.RecordAnomaly(string(report.Classify(finding)))
		w.logger.Warn(ctx, "scoring anomaly",
			logger.String("participant", set.Identity.ParticipantID),
			logger.Int("week", set.Week),
			logger.Error(finding),
		)
	}

	if err := w.updater.MergeScore(ctx, set.Identity, score); err != nil {
		w.reporter.AddError(set.Identity.ParticipantID, set.Week, err)
		w.logger.Error(ctx, "merge failed",
			logger.String("participant", set.Identity.ParticipantID),
			logger.Int("week", set.Week),
			logger.Error(err),
		)
		return
	}

	metrics.RecordResponseScored()
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
}

// NewPool creates a pool of workerCount workers.
func NewPool(workerCount int, q Queue, scorer scoring.Scorer, updater Updater, reporter Reporter) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{workers: make([]*Worker, workerCount)}
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewWorker(
			q,
			scorer,
			updater,
			reporter,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start launches all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has drained the queue and stopped.
// Closing the queue after the last enqueue makes this the join point that
// aggregation waits on.
func (p *Pool) Wait() {
	p.wg.Wait()
	metrics.UpdateWorkerCount(0)
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}
