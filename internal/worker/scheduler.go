package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// FailedRetrier moves snapshots in error back to pending.
type FailedRetrier interface {
	RetryFailed(ctx context.Context) (int64, error)
}

// SchedulerConfig holds the sweep timing
type SchedulerConfig struct {
	// SweepInterval is how often pending snapshots are exported (default: 30s)
	SweepInterval time.Duration

	// RetrySpec is the cron spec for resetting failed exports (default: @hourly)
	RetrySpec string
}

// DefaultSchedulerConfig returns sensible defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		SweepInterval: 30 * time.Second,
		RetrySpec:     "@hourly",
	}
}

// Scheduler runs the pending sweep on a cron schedule alongside the AMQP
// consumer, picking up snapshots whose messages were lost.
type Scheduler struct {
	worker  *SyncWorker
	retrier FailedRetrier
	config  SchedulerConfig
	logger  *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
	ctx     context.Context
}

// NewScheduler creates a scheduler. retrier may be nil to skip the retry job.
func NewScheduler(w *SyncWorker, retrier FailedRetrier, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultSchedulerConfig().SweepInterval
	}
	return &Scheduler{
		worker:  w,
		retrier: retrier,
		config:  config,
		logger:  logger,
	}
}

// Start registers the jobs and starts the cron loop. Returns an error if
// already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.config.SweepInterval), s.sweep); err != nil {
		return fmt.Errorf("register sweep job: %w", err)
	}
	if s.retrier != nil && s.config.RetrySpec != "" {
		if _, err := c.AddFunc(s.config.RetrySpec, s.retryFailed); err != nil {
			return fmt.Errorf("register retry job: %w", err)
		}
	}

	s.ctx = ctx
	s.cron = c
	s.running = true
	c.Start()

	s.logger.InfoContext(ctx, "Scheduler started",
		"sweep_interval", s.config.SweepInterval,
		"retry_spec", s.config.RetrySpec)
	return nil
}

// Stop stops the cron loop and waits for running jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	c := s.cron
	s.running = false
	s.mu.Unlock()

	select {
	case <-c.Stop().Done():
		s.logger.InfoContext(ctx, "Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Stop(stopCtx)
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *Scheduler) sweep() {
	ctx := s.jobContext()
	if ctx.Err() != nil {
		return
	}
	synced, failed, err := s.worker.ProcessPending(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Pending sweep failed", "error", err)
		return
	}
	if synced+failed > 0 {
		s.logger.InfoContext(ctx, "Pending sweep completed", "synced", synced, "errors", failed)
	}
}

func (s *Scheduler) retryFailed() {
	ctx := s.jobContext()
	if ctx.Err() != nil {
		return
	}
	n, err := s.retrier.RetryFailed(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to reset sync errors", "error", err)
		return
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "Reset failed snapshots for retry", "count", n)
	}
}
