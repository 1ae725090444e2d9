// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"fmt"

	"fjacquet/camt-recon/internal/logging"

	"github.com/robfig/cron/v3"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	log  logging.Logger
}

// New creates a new scheduler. Schedules use the standard five-field cron
// syntax or descriptors such as "@hourly" and "@every 15m".
func New(log logging.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  log.WithField(logging.FieldComponent, "scheduler"),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Scheduler stopped")
}

// AddJob registers a new job with cron schedule.
// A run that is still in progress when the next tick fires causes that tick to be skipped.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		s.execute(job)
	}))
	if _, err := s.cron.AddJob(schedule, wrapped); err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, job.Name(), err)
	}

	s.log.Info("Job registered",
		logging.F("schedule", schedule),
		logging.F(logging.FieldJob, job.Name()))
	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info("Running job immediately", logging.F(logging.FieldJob, job.Name()))
	return job.Run()
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) execute(job Job) {
	s.log.Debug("Running job", logging.F(logging.FieldJob, job.Name()))
	if err := job.Run(); err != nil {
		s.log.WithError(err).Error("Job failed", logging.F(logging.FieldJob, job.Name()))
		return
	}
	s.log.Debug("Job completed", logging.F(logging.FieldJob, job.Name()))
}
