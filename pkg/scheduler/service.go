package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is the work run on every tick.
type Job func(ctx context.Context) error

// RunStatus describes the most recent execution.
type RunStatus struct {
	Runs     int
	LastRun  *time.Time
	LastErr  error
	Duration time.Duration
}

// Service runs one job on a standard five-field cron schedule. A tick that
// fires while the previous run is still going is skipped.
type Service struct {
	spec     string
	schedule cron.Schedule
	job      Job
	logger   *slog.Logger

	cron   *cron.Cron
	entry  cron.EntryID
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	status RunStatus
}

// NewService validates spec and prepares the scheduler without starting it.
func NewService(spec string, job Job, logger *slog.Logger) (*Service, error) {
	if job == nil {
		return nil, fmt.Errorf("job is required")
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		spec:     spec,
		schedule: schedule,
		job:      job,
		logger:   logger.With("schedule", spec),
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}, nil
}

// Start schedules the job. Runs receive a context derived from ctx that is
// cancelled by Stop.
func (s *Service) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.entry = s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		s.execute(s.ctx)
	}))
	s.cron.Start()
	s.logger.Info("job scheduler started", "next_run", s.NextRun())
}

// Stop cancels in-flight runs and waits for them to return, or for ctx to
// expire.
func (s *Service) Stop(ctx context.Context) {
	if s.cancel != nil {
		s.cancel()
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("job scheduler stop timed out")
	}
	s.logger.Info("job scheduler stopped")
}

// RunNow executes the job immediately on the caller's goroutine.
func (s *Service) RunNow(ctx context.Context) error {
	return s.execute(ctx)
}

// NextRun is the next scheduled execution time.
func (s *Service) NextRun() time.Time {
	if s.entry != 0 {
		if e := s.cron.Entry(s.entry); e.Valid() {
			return e.Next
		}
	}
	return s.schedule.Next(time.Now())
}

// Status reports the most recent execution.
func (s *Service) Status() RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Service) execute(ctx context.Context) error {
	start := time.Now()
	s.logger.Info("executing scheduled job")

	err := s.job(ctx)

	s.mu.Lock()
	s.status.Runs++
	s.status.LastRun = &start
	s.status.LastErr = err
	s.status.Duration = time.Since(start)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed", "error", err, "duration", time.Since(start))
		return err
	}
	s.logger.Info("scheduled job completed", "duration", time.Since(start), "next_run", s.NextRun())
	return nil
}
