// Package worker implements the queue-driven job-processing loop: it pulls
// job envelopes from the broker, runs the analysis engine, and hands reports
// to the persistence collaborator. Jobs are processed strictly sequentially
// in delivery order; no failure of a single job terminates the loop.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rce-engine/analysis-worker/internal/engine"
	"github.com/rce-engine/analysis-worker/internal/model"
)

// Subscription is the consumer's view of the broker: one bounded wait per
// call. ok is false for poll timeouts and non-data control messages, which
// the loop ignores without a state change.
type Subscription interface {
	Next(ctx context.Context, timeout time.Duration) (data []byte, ok bool, err error)
	Close() error
}

// ReportStore persists a finished report keyed by job id. The write must be
// idempotent: repeating it with the same report leaves the stored analysis
// unchanged aside from a refreshed timestamp.
type ReportStore interface {
	SaveReport(ctx context.Context, jobID string, report *model.Report) error
}

// Stats is a read-only snapshot for the health surface.
type Stats struct {
	Processed    int64
	LastAnalysis time.Time
}

// Consumer is the pipeline loop. It is the sole mutator of its counters;
// Stats may be called concurrently from the health path.
type Consumer struct {
	sub         Subscription
	store       ReportStore
	log         *slog.Logger
	validate    *validator.Validate
	pollTimeout time.Duration

	processed    atomic.Int64
	lastAnalysis atomic.Pointer[time.Time]
}

// New creates a consumer reading from sub and persisting through store.
// pollTimeout bounds each broker wait; values <= 0 default to one second.
func New(sub Subscription, store ReportStore, log *slog.Logger, pollTimeout time.Duration) *Consumer {
	if pollTimeout <= 0 {
		pollTimeout = time.Second
	}
	return &Consumer{
		sub:         sub,
		store:       store,
		log:         log,
		validate:    validator.New(),
		pollTimeout: pollTimeout,
	}
}

// Run drives the loop until ctx is cancelled. Cancellation is checked at the
// top of every iteration and after every blocking wait; the subscription is
// released before Run returns. Run only ever returns after an external stop
// signal, never because a job failed.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.sub.Close(); err != nil {
			c.log.Warn("closing subscription", slog.String("error", err.Error()))
		}
	}()

	c.log.Info("consumer listening")

	for {
		select {
		case <-ctx.Done():
			c.log.Info("consumer stopping")
			return nil
		default:
		}

		data, ok, err := c.sub.Next(ctx, c.pollTimeout)
		if ctx.Err() != nil {
			c.log.Info("consumer stopping")
			return nil
		}
		if err != nil {
			c.log.Error("broker receive failed", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		if !ok {
			continue
		}

		c.process(ctx, data)
	}
}

// process handles one delivery. All failure modes are contained here: the
// job is dropped or its error logged, and the loop returns to listening.
func (c *Consumer) process(ctx context.Context, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic while processing job", slog.Any("panic", r))
		}
	}()

	var job model.Job
	if err := json.Unmarshal(data, &job); err != nil {
		c.log.Warn("dropping undecodable job payload", slog.String("error", err.Error()))
		return
	}
	if err := c.validate.Struct(&job); err != nil {
		c.log.Warn("dropping invalid job envelope",
			slog.String("jobId", job.JobID),
			slog.String("error", err.Error()))
		return
	}

	c.log.Info("analyzing job",
		slog.String("jobId", job.JobID),
		slog.String("language", job.Language))

	start := time.Now()
	report := engine.Analyze(job.Language, job.Code)
	report.AnalysisTimeMs = roundMs(time.Since(start))

	if err := c.store.SaveReport(ctx, job.JobID, report); err != nil {
		c.log.Error("failed to save analysis report",
			slog.String("jobId", job.JobID),
			slog.String("error", err.Error()))
		return
	}

	c.processed.Add(1)
	now := time.Now().UTC()
	c.lastAnalysis.Store(&now)

	c.log.Info("analysis complete",
		slog.String("jobId", job.JobID),
		slog.Int("score", report.Score),
		slog.String("complexity", string(report.Complexity)),
		slog.Int("risks", len(report.Risks)),
		slog.Float64("analysisTimeMs", report.AnalysisTimeMs))
}

// Stats returns the current counters. The read never blocks and never
// mutates consumer state.
func (c *Consumer) Stats() Stats {
	s := Stats{Processed: c.processed.Load()}
	if t := c.lastAnalysis.Load(); t != nil {
		s.LastAnalysis = *t
	}
	return s
}

// roundMs converts a duration to milliseconds rounded to two decimals.
func roundMs(d time.Duration) float64 {
	return math.Round(float64(d.Microseconds())/10) / 100
}
