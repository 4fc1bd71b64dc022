package scheduler

import (
	"github.com/robfig/cron/v3"

	"billbook/internal/log"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron   *cron.Cron
	logger *log.Logger
}

// New creates a new scheduler. Schedules accept an optional seconds field
// and the @every / @hourly descriptors.
func New(logger *log.Logger) *Scheduler {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return &Scheduler{
		cron:   cron.New(cron.WithParser(parser)),
		logger: logger.WithComponent(log.ComponentScheduler),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 */5 * * * *"  - Every 5 minutes
//   - "@hourly"        - Every hour
//   - "@every 30m"     - Every 30 minutes
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.logger.Debug("Running job", log.FieldJob, job.Name())
		if err := job.Run(); err != nil {
			s.logger.Error("Job failed", log.FieldJob, job.Name(), log.FieldError, err)
			return
		}
		s.logger.Debug("Job completed", log.FieldJob, job.Name())
	})
	if err != nil {
		return err
	}

	s.logger.Info("Job registered", "schedule", schedule, log.FieldJob, job.Name())
	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.logger.Info("Running job immediately", log.FieldJob, job.Name())
	return job.Run()
}
