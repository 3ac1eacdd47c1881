// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ecomdash/backend/internal/infrastructure/config"
	"github.com/ecomdash/backend/internal/infrastructure/dataset"
	"github.com/ecomdash/backend/internal/infrastructure/logger"
)

// Refresher reloads a dataset source and swaps in the result when it succeeds
type Refresher interface {
	Refresh(ctx context.Context, source string) (*dataset.Snapshot, error)
}

// DatasetRefreshConfig holds configuration for the refresh scheduler
type DatasetRefreshConfig struct {
	// Schedule is a cron expression with a leading seconds field, or a descriptor such as @hourly
	Schedule string
	Source   string
	// Timeout bounds one run
	Timeout time.Duration
}

// RunStatus describes the most recent refresh run
type RunStatus struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Rows       int       `json:"rows"`
	Error      string    `json:"error,omitempty"`
}

// Succeeded reports whether the run finished without error
func (s RunStatus) Succeeded() bool {
	return !s.FinishedAt.IsZero() && s.Error == ""
}

// DatasetRefreshScheduler reloads the dataset on a cron schedule
type DatasetRefreshScheduler struct {
	config    DatasetRefreshConfig
	refresher Refresher
	logger    *zap.Logger

	cron      *cron.Cron
	baseCtx   context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	isRunning bool
	running   bool // a refresh is executing
	last      *RunStatus
}

// NewDatasetRefreshScheduler creates a new refresh scheduler
func NewDatasetRefreshScheduler(cfg DatasetRefreshConfig, refresher Refresher, log *zap.Logger) *DatasetRefreshScheduler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DatasetRefreshScheduler{
		config:    cfg,
		refresher: refresher,
		logger:    log,
	}
}

// Start registers the refresh job and starts the cron loop
func (s *DatasetRefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}

	if s.config.Schedule == "" {
		return ErrNoSchedule
	}
	if s.config.Source == "" {
		return fmt.Errorf("%w: source is required", ErrInvalidConfig)
	}
	schedule, err := config.ParseRefreshSchedule(s.config.Schedule)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger{s.logger}),
		cron.SkipIfStillRunning(cronLogger{s.logger}),
	))
	s.cron.Schedule(schedule, cron.FuncJob(func() {
		_, _ = s.RunOnce(s.baseCtx)
	}))
	s.cron.Start()
	s.isRunning = true

	s.logger.Info("Dataset refresh scheduler started",
		zap.String("schedule", s.config.Schedule),
		zap.Time("next_run", schedule.Next(time.Now())),
	)
	return nil
}

// Stop stops scheduling and waits for a running refresh until ctx is done
func (s *DatasetRefreshScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	c, cancel := s.cron, s.cancel
	s.mu.Unlock()

	done := c.Stop()
	select {
	case <-done.Done():
		cancel()
		s.logger.Info("Dataset refresh scheduler stopped")
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// IsRunning reports whether the cron loop is active
func (s *DatasetRefreshScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunOnce performs one refresh immediately
func (s *DatasetRefreshScheduler) RunOnce(ctx context.Context) (RunStatus, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return RunStatus{}, ErrRefreshInProgress
	}
	s.running = true
	s.mu.Unlock()

	status := RunStatus{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	defer func() {
		s.mu.Lock()
		s.running = false
		s.last = &status
		s.mu.Unlock()
	}()

	ctx, log := logger.WithRunID(ctx, s.logger, status.RunID)
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	log.Info("Dataset refresh started")
	snap, err := s.refresher.Refresh(ctx, s.config.Source)
	status.FinishedAt = time.Now().UTC()
	if err != nil {
		status.Error = err.Error()
		log.Error("Dataset refresh failed",
			zap.Duration("elapsed", status.FinishedAt.Sub(status.StartedAt)),
			zap.Error(err),
		)
	} else {
		status.Rows = snap.Table.Len()
		log.Info("Dataset refresh completed",
			zap.Int("rows", status.Rows),
			zap.Duration("elapsed", status.FinishedAt.Sub(status.StartedAt)),
		)
	}

	return status, err
}

// LastRun returns the status of the most recent run
func (s *DatasetRefreshScheduler) LastRun() (RunStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return RunStatus{}, false
	}
	return *s.last, true
}

// NextRun returns the next scheduled time, or the zero time when stopped
func (s *DatasetRefreshScheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return time.Time{}
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
