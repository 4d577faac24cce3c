package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Job is a periodic task. Run must respect context cancellation.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Each run gets its own deadline so a stuck job cannot hold the schedule or a
// row lock past it.
const runTimeout = 5 * time.Minute

// Scheduler runs registered jobs on a fixed interval in UTC.
type Scheduler struct {
	scheduler *gocron.Scheduler
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewScheduler(log *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Scheduler) AddJob(job Job, interval time.Duration) error {
	_, err := s.scheduler.Every(interval).Do(func() {
		s.runJob(job)
	})
	return err
}

func (s *Scheduler) runJob(job Job) {
	ctx, cancel := context.WithTimeout(s.ctx, runTimeout)
	defer cancel()

	s.log.Info("running scheduled job", zap.String("job", job.Name()))
	if err := job.Run(ctx); err != nil {
		s.log.Error("scheduled job failed",
			zap.String("job", job.Name()),
			zap.Error(err))
		return
	}
	s.log.Info("scheduled job finished", zap.String("job", job.Name()))
}

func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
	for _, job := range s.scheduler.Jobs() {
		s.log.Info("job scheduled", zap.Time("next_run", job.NextRun()))
	}
}

// Stop cancels running jobs and halts the schedule.
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}
